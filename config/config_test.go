package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bartgrantham/gofm/rds"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gofm.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
frequency: 103.7
locale: eu
ptyn_width: 50
poll_interval: 20ms
replay:
  file: kqed.log
  pace: 0s
metrics:
  listen: ":9110"
mqtt:
  broker: tcp://localhost:1883
`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.Frequency != 103.7 || c.PTYNameWidth != 50 || c.PollInterval != 20*time.Millisecond {
		t.Errorf("Load() = %+v", c)
	}
	if c.Device != DeviceReplay || c.Replay.File != "kqed.log" || c.Replay.Pace != 0 {
		t.Errorf("replay not selected: %+v", c)
	}
	if c.Metrics.Listen != ":9110" || c.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Load() = %+v", c)
	}
	// untouched keys keep their defaults
	if c.I2CBus != "I2C1" || c.MQTT.Topic != "gofm" || c.Fonts.Big != "univers.flf" {
		t.Errorf("defaults lost: %+v", c)
	}
	if c.RDSLocale() != rds.LocaleEU {
		t.Errorf("RDSLocale() = %v", c.RDSLocale())
	}
}

func TestLoad_noPath(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", c)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"device", "device: rtlsdr\n"},
		{"replay without file", "device: replay\n"},
		{"locale", "locale: jp\n"},
		{"ptyn width", "ptyn_width: 16\n"},
		{"volume", "volume: 40\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); !errors.Is(err, ErrInvalid) {
				t.Errorf("Load() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
	if _, err := Load(writeConfig(t, "frequency: [\n")); err == nil {
		t.Error("Load() of bad YAML succeeded")
	}
}
