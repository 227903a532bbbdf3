package config

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"

	"ledrx/pkg/chipset"
	"ledrx/pkg/timing"
)

// Config holds the application configuration.
// Config defines the struct of the global config and of the configuration
// file.
type Config struct {
	// Source selects the capture source: gpiod, gpio, replay or synth.
	Source string `yaml:"source"`
	// Gpio is the BCM pin number of the signal line.
	Gpio int `yaml:"gpio"`
	// Pull is the line bias: pullup, pulldown or none.
	Pull string `yaml:"pull"`

	// Chipset is the name of the chipset to receive, see pkg/chipset.
	Chipset string `yaml:"chipset"`
	// ToleranceInt widens the decode windows (ns); 0 selects the default.
	ToleranceInt int `yaml:"tolerance"`
	// GapInt is the gap tolerance (ns); 0 disables gap handling.
	GapInt int `yaml:"gaptolerance"`
	// Strict selects error rate counting instead of truncating at the first
	// mismatched pulse pair.
	Strict bool `yaml:"strict"`
	// ErrorRate is the mismatch ratio strict decoding tolerates.
	ErrorRate float64 `yaml:"errorrate"`

	Rx    RxConfig    `yaml:"rx"`
	Synth SynthConfig `yaml:"synth"`

	// Record is a directory to write one trace file per capture; empty
	// disables recording.
	Record string `yaml:"record"`
	// Replay is the trace file for the replay source.
	Replay string `yaml:"replay"`

	Flag      FlagConfig      `yaml:"-"`
	Log       LogConfig       `yaml:"log"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`

	// Timing and Profile are derived from Chipset at load time.
	Timing  timing.ChipsetTiming `yaml:"-"`
	Profile timing.Profile       `yaml:"-"`
}

// RxConfig defines the capture policy section of the configuration file.
type RxConfig struct {
	// Capacity is the number of edge slots of the capture buffer.
	Capacity int `yaml:"capacity"`
	// MinSignal is the glitch filter threshold (ns).
	MinSignal int `yaml:"minsignal"`
	// MaxSignal is the idle/terminate threshold (ns); 0 derives it from the
	// chipset reset time.
	MaxSignal int `yaml:"maxsignal"`
	// Skip is the number of accepted edges discarded at capture start.
	Skip int `yaml:"skip"`
	// StartPolarityLow tells whether the line idles low.
	StartPolarityLow bool `yaml:"startpolaritylow"`
}

// SynthConfig defines the synthetic source section of the configuration file.
type SynthConfig struct {
	// Data is the frame payload as a hex string.
	Data  string `yaml:"data"`
	Bytes []byte `yaml:"-"`
	// Jitter distorts each generated pulse by up to this bound (ns).
	Jitter int `yaml:"jitter"`
	// Seed makes the jitter reproducible.
	Seed int64 `yaml:"seed"`
	// IntervalInt is the pause between generated frames (ms).
	IntervalInt int           `yaml:"interval"`
	Interval    time.Duration `yaml:"-"`
}

// FlagConfig defines the configured command line flags.
type FlagConfig struct {
	LogLevel   string
	ConfigFile string
}

// LogConfig defines the log section of the configuration file.
// A file path as sink is rotated with lumberjack.
type LogConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
	MaxSizeMB  int            `yaml:"maxsize"`
	MaxBackups int            `yaml:"maxbackups"`
	MaxAgeDays int            `yaml:"maxage"`
	Compress   bool           `yaml:"compress"`
}

// WebserverConfig defines the webserver and webservice section of the
// configuration file.
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the mqtt client section of the configuration file.
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
	ClientID   string `yaml:"clientid"`
}

// NewConfig returns the configuration defaults: a synthetic WS2812B source,
// so the receiver runs on any platform without hardware.
func NewConfig() *Config {
	return &Config{
		Source:    "synth",
		Pull:      "none",
		Chipset:   "ws2812b",
		ErrorRate: 0.1,
		Rx: RxConfig{
			Capacity:         4096,
			MinSignal:        50,
			StartPolarityLow: true,
		},
		Synth: SynthConfig{
			Data:        "ff00aa",
			IntervalInt: 1000,
		},
		Flag: FlagConfig{},
		Log: LogConfig{
			FileString: "stderr",
			FlagString: "standard",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"data":    true,
				"edges":   true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "tcp://127.0.0.1:1883",
			Topic:      "/ledrx/frame",
			ClientID:   "ledrx",
		},
	}
}

// LoadConfig overlays the configuration file and the command line flags over
// the defaults and derives the runtime fields.
func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Log.FlagString = c.Flag.LogLevel
	}
	if err := c.setLogConfig(); err != nil {
		return fmt.Errorf("unable to open log file %q: %w", c.Log.FileString, err)
	}

	c.Synth.Interval = time.Duration(c.Synth.IntervalInt) * time.Millisecond

	return c.derive()
}

// derive resolves the chipset, builds the decode profile and fills the
// thresholds that default from it.
func (c *Config) derive() error {
	t, err := chipset.Lookup(c.Chipset)
	if err != nil {
		return fmt.Errorf("chipset %q: %w (known: %v)", c.Chipset, err, chipset.Names())
	}
	c.Timing = t

	tolerance := timing.DefaultTolerance
	if c.ToleranceInt > 0 {
		tolerance = uint32(c.ToleranceInt)
	}
	c.Profile = timing.NewProfile(t, tolerance)
	if c.GapInt > 0 {
		c.Profile.GapTolerance = uint32(c.GapInt)
	}

	if c.Rx.MaxSignal == 0 {
		c.Rx.MaxSignal = int(t.ResetUs) * 1000
	}

	if c.Synth.Data != "" {
		if c.Synth.Bytes, err = hex.DecodeString(c.Synth.Data); err != nil {
			return fmt.Errorf("synth data %q: %w", c.Synth.Data, err)
		}
	}

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setLogConfig() error {
	switch c.Log.FlagString {
	case "trace", "full":
		c.Log.Flag = debug.Full
	case "debug":
		c.Log.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Log.Flag = debug.Standard
	}

	switch c.Log.FileString {
	case "stderr":
		c.Log.File = os.Stderr
	case "stdout":
		c.Log.File = os.Stdout
	default:
		c.Log.File = &lumberjack.Logger{
			Filename:   c.Log.FileString,
			MaxSize:    c.Log.MaxSizeMB,
			MaxBackups: c.Log.MaxBackups,
			MaxAge:     c.Log.MaxAgeDays,
			Compress:   c.Log.Compress,
		}
	}

	return nil
}
