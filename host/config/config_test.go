package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"penarm/host/kinematics"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "penarm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Baud != 9600 || cfg.Window != 4 || cfg.Arm.L1 != 20 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, `
port: /dev/ttyUSB1
baud: 115200
arm:
  l1: 15
  l2: 12.5
window: 2
idle_timeout: 3s
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "/dev/ttyUSB1" || cfg.Baud != 115200 {
		t.Errorf("Unexpected port settings %s %d", cfg.Port, cfg.Baud)
	}
	if cfg.Arm.Arm() != (kinematics.Arm{L1: 15, L2: 12.5}) {
		t.Errorf("Unexpected arm %+v", cfg.Arm)
	}
	if cfg.IdleTimeout != 3*time.Second || cfg.Window != 2 {
		t.Errorf("Unexpected stream settings %v %d", cfg.IdleTimeout, cfg.Window)
	}
	if cfg.ReadTimeoutMS != 100 {
		t.Errorf("Unset keys should keep defaults, got %d", cfg.ReadTimeoutMS)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "port: /dev/ttyUSB1\n")
	t.Setenv("PENARM_PORT", "/dev/ttyACM3")
	t.Setenv("PENARM_L2", "30")
	t.Setenv("PENARM_WINDOW", "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "/dev/ttyACM3" {
		t.Errorf("Environment should override the file, got %s", cfg.Port)
	}
	if cfg.Arm.L2 != 30 || cfg.Window != 6 {
		t.Errorf("Unexpected overrides %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Missing file should fail")
	}

	path := writeFile(t, "window: 0\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for window 0, got %v", err)
	}

	path = writeFile(t, "arm:\n  l1: -1\n")
	_, err := Load(path)
	if !errors.Is(err, ErrInvalid) || !errors.Is(err, kinematics.ErrInvalidArm) {
		t.Errorf("Expected ErrInvalid wrapping ErrInvalidArm, got %v", err)
	}

	path = writeFile(t, "log_level: loud\n")
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for a bad level, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.name, got, err)
		}
	}
}
