// Command gesturesd translates touchpad gestures reported by libinput into
// synthesized pointer actions and shell commands.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/8ff/gesturesd/internal/daemon"
	"github.com/8ff/gesturesd/internal/gesture"
	"github.com/8ff/gesturesd/internal/ipc"
	"github.com/8ff/gesturesd/internal/log"
)

const version = "gesturesd version 1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("gesturesd", flag.ContinueOnError)

	var (
		verbose       int
		debug         bool
		wayland       bool
		x11           bool
		configPath    string
		printOnly     bool
		force         bool
		showVersion   bool
		waylandHelper string
	)
	fs.CountVarP(&verbose, "verbose", "v", "increase verbosity (repeatable)")
	fs.BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	fs.BoolVarP(&wayland, "wayland", "w", false, "force Wayland mode")
	fs.BoolVarP(&x11, "x11", "x", false, "force X11 mode")
	fs.StringVarP(&configPath, "conf", "c", defaultConfigPath(), "path to configuration file")
	fs.BoolVarP(&printOnly, "print", "p", false, "print generated content instead of writing it")
	fs.BoolVar(&force, "force", false, "overwrite an existing file")
	fs.StringVar(&waylandHelper, "wayland-helper", "ydotool", "helper binary for the Wayland pointer backend")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if showVersion {
		fmt.Println(version)
		return 0
	}
	if wayland && x11 {
		log.Error("--wayland and --x11 are mutually exclusive")
		return 2
	}

	log.SetDebug(debug || verbose >= 2)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gesturesd <start|reload|generate-config|install-service> [flags]")
		return 2
	}

	switch rest[0] {
	case "start":
		return cmdStart(configPath, wayland, x11, waylandHelper)
	case "reload":
		return cmdReload()
	case "generate-config":
		return cmdGenerateConfig(configPath, printOnly, force)
	case "install-service":
		return cmdInstallService(printOnly)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", rest[0])
		return 2
	}
}

func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "gestures.yaml")
}

func cmdStart(configPath string, forceWayland, forceX11 bool, waylandHelper string) int {
	isWayland := forceWayland
	switch {
	case forceWayland:
		log.Info("forced Wayland mode via command line")
	case forceX11:
		log.Info("forced X11 mode via command line")
		isWayland = false
	default:
		isWayland = detectWayland()
		if isWayland {
			log.Info("auto-detected display server: Wayland")
		} else {
			log.Info("auto-detected display server: X11")
		}
	}

	d, err := daemon.New(daemon.Options{
		ConfigPath:    configPath,
		Wayland:       isWayland,
		WaylandHelper: waylandHelper,
		Workers:       0,
	})
	if err != nil {
		log.Error("failed to start: %v", err)
		return 1
	}
	if err := d.Run(); err != nil {
		log.Error("exited with error: %v", err)
		return 1
	}
	return 0
}

// detectWayland mirrors original_source/src/main.rs::detect_wayland exactly
// (WAYLAND_DISPLAY set, then XDG_SESSION_TYPE == "wayland", else X11).
func detectWayland() bool {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return true
	}
	return strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland")
}

func cmdReload() int {
	reply, err := ipc.SendReload()
	if err != nil {
		log.Error("reload failed: %v", err)
		return 2
	}
	fmt.Println(reply)
	if reply != "ok" {
		return 1
	}
	return 0
}

func cmdGenerateConfig(configPath string, printOnly, force bool) int {
	if printOnly {
		fmt.Print(gesture.DefaultConfigYAML)
		return 0
	}
	if err := gesture.GenerateDefaultConfig(configPath, force); err != nil {
		log.Error("%v", err)
		return 1
	}
	fmt.Printf("configuration file created at: %s\n", configPath)
	fmt.Printf("edit it, then run: gesturesd reload\n")
	return 0
}

func cmdInstallService(printOnly bool) int {
	content, err := generateServiceFile()
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if printOnly {
		fmt.Print(content)
		return 0
	}

	home, err := os.UserHomeDir()
	if err != nil {
		log.Error("could not determine home directory: %v", err)
		return 1
	}
	dir := filepath.Join(home, ".config", "systemd", "user")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("could not create %s: %v", dir, err)
		return 1
	}
	path := filepath.Join(dir, "gesturesd.service")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		log.Error("could not write %s: %v", path, err)
		return 1
	}
	fmt.Printf("service file installed to: %s\n", path)
	fmt.Println("to enable and start it, run:")
	fmt.Println("  systemctl --user enable --now gesturesd.service")
	return 0
}

func generateServiceFile() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("get current executable path: %w", err)
	}
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0"
	}
	return fmt.Sprintf(`[Unit]
Description=Touchpad gesture daemon
Documentation=https://github.com/8ff/gesturesd

[Service]
Environment=PATH=/usr/local/bin:/usr/local/sbin:/usr/bin:/bin
Environment=DISPLAY=%s
Type=simple
ExecStart=%s start
ExecReload=%s reload
Restart=on-failure

[Install]
WantedBy=default.target
`, display, exe, exe), nil
}
