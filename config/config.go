package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/bartgrantham/gofm/rds"
)

var ErrInvalid = errors.New("invalid config")

const (
	DeviceSi4703 = "si4703"
	DeviceReplay = "replay"
)

type Config struct {
	Device       string        `yaml:"device"`
	I2CBus       string        `yaml:"i2c_bus"`
	I2CAddress   uint16        `yaml:"i2c_address"`
	ResetPin     string        `yaml:"reset_pin"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Frequency    float64       `yaml:"frequency"`
	Volume       int           `yaml:"volume"`
	Locale       string        `yaml:"locale"`
	PTYNameWidth int           `yaml:"ptyn_width"`
	Fonts        struct {
		Big    string `yaml:"big"`
		Medium string `yaml:"medium"`
	} `yaml:"fonts"`
	Replay struct {
		File string        `yaml:"file"`
		Pace time.Duration `yaml:"pace"`
	} `yaml:"replay"`
	RecordFile string `yaml:"record_file"`
	Metrics    struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	StationLog string `yaml:"station_log"`
	MQTT       struct {
		Broker   string `yaml:"broker"`
		Topic    string `yaml:"topic"`
		ClientID string `yaml:"client_id"`
	} `yaml:"mqtt"`
}

func Default() Config {
	var c Config

	c.Device = DeviceSi4703
	c.I2CBus = "I2C1"
	c.I2CAddress = 0x10
	c.ResetPin = "GPIO23"
	c.PollInterval = 40 * time.Millisecond
	c.Frequency = 88.5
	c.Volume = 15
	c.Locale = "us"
	c.PTYNameWidth = 8
	c.Fonts.Big = "univers.flf"
	c.Fonts.Medium = "nancyj-improved.flf"
	c.Replay.Pace = 87 * time.Millisecond // ~11.4 groups/s
	c.MQTT.Topic = "gofm"
	c.MQTT.ClientID = "gofm"
	return c
}

// Load reads a YAML file over the defaults. A missing path yields the
// defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("unmarshaling config: %w", err)
	}
	if c.Replay.File != "" {
		c.Device = DeviceReplay
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Device {
	case DeviceSi4703, DeviceReplay:
	default:
		return fmt.Errorf("%w: device %q", ErrInvalid, c.Device)
	}
	if c.Device == DeviceReplay && c.Replay.File == "" {
		return fmt.Errorf("%w: replay device without replay.file", ErrInvalid)
	}
	if _, err := rds.ParseLocale(c.Locale); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.PTYNameWidth != 8 && c.PTYNameWidth != 50 {
		return fmt.Errorf("%w: ptyn_width %d, want 8 or 50", ErrInvalid, c.PTYNameWidth)
	}
	if c.Volume < 0 || c.Volume > 31 {
		return fmt.Errorf("%w: volume %d", ErrInvalid, c.Volume)
	}
	return nil
}

// RDSLocale is Locale parsed; only valid after Validate.
func (c Config) RDSLocale() rds.Locale {
	l, _ := rds.ParseLocale(c.Locale)
	return l
}
