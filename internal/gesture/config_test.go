package gesture

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseConfig(t *testing.T) {
	doc := `
gestures:
  - kind: swipe
    fingers: 3
    direction: any
    mouse_up_delay_ms: 500
    acceleration: 20
  - kind: swipe
    fingers: 4
    direction: w
    end: "workspace prev"
  - kind: pinch
    fingers: 2
    direction: out
    end: "zoom in"
  - kind: hold
    fingers: 4
    action: "launcher"
`
	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Bindings) != 4 {
		t.Fatalf("got %d bindings, want 4", len(cfg.Bindings))
	}

	drag := cfg.Bindings[0]
	if !drag.IsDirectDrag() {
		t.Fatalf("first binding should parse as a direct drag: %+v", drag)
	}

	swipe := cfg.Bindings[1]
	if swipe.Direction != DirW || swipe.End != "workspace prev" {
		t.Fatalf("second binding = %+v, want direction=w end=\"workspace prev\"", swipe)
	}

	pinch := cfg.Bindings[2]
	if pinch.Kind != KindPinch || pinch.PinchDirection != PinchOut {
		t.Fatalf("third binding = %+v, want pinch direction=out", pinch)
	}

	hold := cfg.Bindings[3]
	if hold.Kind != KindHold || hold.Action != "launcher" {
		t.Fatalf("fourth binding = %+v, want hold action=launcher", hold)
	}
}

func TestParseConfigRejectsUnknownKind(t *testing.T) {
	_, err := ParseConfig([]byte("gestures:\n  - kind: wiggle\n    fingers: 3\n"))
	if err == nil {
		t.Fatal("expected an error for an unknown gesture kind")
	}
}

func TestParseConfigRejectsHoldWithoutAction(t *testing.T) {
	_, err := ParseConfig([]byte("gestures:\n  - kind: hold\n    fingers: 3\n"))
	if err == nil {
		t.Fatal("expected an error for a hold binding without an action")
	}
}

func TestParseConfigRejectsNonPositiveFingers(t *testing.T) {
	_, err := ParseConfig([]byte("gestures:\n  - kind: swipe\n    fingers: 0\n    direction: any\n"))
	if err == nil {
		t.Fatal("expected an error for a non-positive finger count")
	}
}

func TestReloadingAnUnchangedFileProducesTheSameBindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gestures.yaml")
	doc := `
gestures:
  - kind: swipe
    fingers: 3
    direction: e
    end: "workspace next"
  - kind: pinch
    fingers: 2
    direction: in
    end: "zoom out"
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	first, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("first LoadConfigFile: %v", err)
	}
	second, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("second LoadConfigFile: %v", err)
	}

	if !reflect.DeepEqual(first.Bindings, second.Bindings) {
		t.Fatalf("two loads of an unchanged file produced different bindings:\n%+v\n%+v", first.Bindings, second.Bindings)
	}
}

func TestGenerateDefaultConfigRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gestures.yaml")
	if err := os.WriteFile(path, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := GenerateDefaultConfig(path, false); err == nil {
		t.Fatal("expected an error when the file already exists and force is false")
	}
	if err := GenerateDefaultConfig(path, true); err != nil {
		t.Fatalf("GenerateDefaultConfig with force=true: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if len(cfg.Bindings) == 0 {
		t.Fatal("default config should declare at least one binding")
	}
}
