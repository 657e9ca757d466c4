package gesture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the parsed set of bindings the core consumes. The on-disk
// search path and file format are an external concern (spec.md §6); this
// type is what the loader hands to the rest of the daemon.
type Config struct {
	Bindings []Binding
}

// yamlBinding is the on-disk shape; it decodes into Binding after direction
// strings are resolved and validated.
type yamlBinding struct {
	Kind      string `yaml:"kind"`
	Fingers   int    `yaml:"fingers"`
	Direction string `yaml:"direction,omitempty"`

	MouseUpDelayMs *int `yaml:"mouse_up_delay_ms,omitempty"`
	Acceleration   *int `yaml:"acceleration,omitempty"`

	Start  string `yaml:"start,omitempty"`
	Update string `yaml:"update,omitempty"`
	End    string `yaml:"end,omitempty"`
	Action string `yaml:"action,omitempty"`
}

type yamlConfig struct {
	Gestures []yamlBinding `yaml:"gestures"`
}

// ParseConfig decodes a YAML document into a Config, validating each
// binding's kind/direction fields as it goes.
func ParseConfig(data []byte) (*Config, error) {
	var doc yamlConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{Bindings: make([]Binding, 0, len(doc.Gestures))}
	for i, yb := range doc.Gestures {
		b, err := yb.toBinding()
		if err != nil {
			return nil, fmt.Errorf("gesture #%d: %w", i, err)
		}
		cfg.Bindings = append(cfg.Bindings, b)
	}
	return cfg, nil
}

func (yb yamlBinding) toBinding() (Binding, error) {
	var b Binding
	switch yb.Kind {
	case "swipe":
		b.Kind = KindSwipe
	case "pinch":
		b.Kind = KindPinch
	case "hold":
		b.Kind = KindHold
	default:
		return b, fmt.Errorf("unknown kind %q (want swipe, pinch, or hold)", yb.Kind)
	}
	if yb.Fingers <= 0 {
		return b, fmt.Errorf("fingers must be positive, got %d", yb.Fingers)
	}
	b.Fingers = yb.Fingers
	b.Start = yb.Start
	b.Update = yb.Update
	b.End = yb.End
	b.Action = yb.Action
	b.MouseUpDelayMs = yb.MouseUpDelayMs
	b.Acceleration = yb.Acceleration

	switch b.Kind {
	case KindSwipe:
		dir, ok := ParseDirection(yb.Direction)
		if !ok {
			return b, fmt.Errorf("unknown swipe direction %q", yb.Direction)
		}
		b.Direction = dir
	case KindPinch:
		dir, ok := ParsePinchDir(yb.Direction)
		if !ok {
			return b, fmt.Errorf("unknown pinch direction %q", yb.Direction)
		}
		b.PinchDirection = dir
	case KindHold:
		if b.Action == "" {
			return b, fmt.Errorf("hold binding requires an action")
		}
	}
	return b, nil
}

// LoadConfigFile reads and parses a configuration file from disk.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// DefaultConfigYAML is the document written by `generate-config`. It
// mirrors the shape of original_source/src/main.rs::get_default_config,
// translated from the original's KDL syntax to this repo's YAML.
const DefaultConfigYAML = `# gesturesd configuration
#
# 3-finger drag (macOS-like). Works on both X11 and Wayland:
#   X11 uses a native pointer backend, Wayland shells out to a helper tool.
gestures:
  - kind: swipe
    fingers: 3
    direction: any
    mouse_up_delay_ms: 500
    acceleration: 20

  # 4-finger workspace switching (uncomment and adjust for your desktop):
  # - kind: swipe
  #   fingers: 4
  #   direction: w
  #   end: "hyprctl dispatch workspace e-1"
  # - kind: swipe
  #   fingers: 4
  #   direction: e
  #   end: "hyprctl dispatch workspace e+1"

  # Pinch to zoom:
  # - kind: pinch
  #   fingers: 2
  #   direction: out
  #   end: "xdotool key ctrl+plus"
  # - kind: pinch
  #   fingers: 2
  #   direction: in
  #   end: "xdotool key ctrl+minus"

  # Hold to launch:
  # - kind: hold
  #   fingers: 4
  #   action: "rofi -show drun"
`

// GenerateDefaultConfig writes DefaultConfigYAML to path, refusing to
// overwrite an existing file unless force is set.
func GenerateDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}
	return os.WriteFile(path, []byte(DefaultConfigYAML), 0o644)
}
