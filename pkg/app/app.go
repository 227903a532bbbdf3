package app

import (
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"

	"ledrx/pkg/app/config"
	"ledrx/pkg/capture"
	"ledrx/pkg/edge"
	"ledrx/pkg/mqtt"
	"ledrx/pkg/rx"
	"ledrx/pkg/trace"
)

var ErrUnknownSource = errors.New("unknown capture source")

// Frame is one decoded capture: the uninterpreted byte payload of a frame.
// Mapping the bytes to pixels is up to the consumer.
type Frame struct {
	TimeStamp time.Time `json:"timestamp"`
	Chipset   string    `json:"chipset"`
	Bytes     int       `json:"bytes"`
	// Data is the decoded payload, hex encoded.
	Data string `json:"data"`
}

// Stats are the receive counters since application start.
type Stats struct {
	Captures     uint64 `json:"captures"`
	Edges        uint64 `json:"edges"`
	Frames       uint64 `json:"frames"`
	Bytes        uint64 `json:"bytes"`
	DecodeErrors uint64 `json:"decodeerrors"`
	Overflows    uint64 `json:"overflows"`
	LastReason   string `json:"lastreason"`
}

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// buffer is the capture buffer of the receive channel
	buffer *rx.Buffer

	// source is the selected capture source feeding the buffer
	source capture.Source

	// frame guards the last decoded frame
	frame struct {
		sync.RWMutex
		data Frame
	}

	// stats guards the receive counters
	stats struct {
		sync.RWMutex
		data Stats
	}

	// edges guards the raw edge snapshot of the last capture (diagnostics)
	edges struct {
		sync.RWMutex
		data []edge.Edge
	}

	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:      fiber.New(),
		mqtt:     mqtt.New(),
		buffer:   rx.New(rxConfig(config)),
		shutdown: make(chan struct{}),
	}, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	go app.service()

	return nil
}

// init selects the capture source, connects the mqtt broker and registers
// the web routes.
func (app *App) init() (err error) {
	if app.source, err = app.newSource(); err != nil {
		debug.ErrorLog.Printf("can't open capture source %q: %v", app.config.Source, err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker: %v", err)
		return err
	}

	// initDefaultRoutes should always be called last because it may access
	// handlers initialized above
	app.initDefaultRoutes()

	return nil
}

// newSource builds the capture source selected by the configuration.
// Every source gets the same buffer and capture policy, the decoder never
// knows which one is feeding it.
func (app *App) newSource() (capture.Source, error) {
	cfg := rxConfig(app.config)

	switch app.config.Source {
	case "gpiod":
		return capture.NewLines(app.buffer, cfg, app.config.Gpio, app.config.Pull)
	case "gpio":
		return capture.NewWatch(app.buffer, cfg, app.config.Gpio, app.config.Pull)
	case "replay":
		t, err := trace.Load(app.config.Replay)
		if err != nil {
			return nil, err
		}
		debug.InfoLog.Printf("replaying trace %s (%v edges)", t.Header.ID, len(t.Edges))
		return capture.NewReplay(app.buffer, cfg, t), nil
	case "synth":
		return capture.NewSynth(app.buffer, cfg, capture.SynthConfig{
			Timing:   app.config.Timing,
			Data:     app.config.Synth.Bytes,
			JitterNs: uint32(app.config.Synth.Jitter),
			Seed:     app.config.Synth.Seed,
			Interval: app.config.Synth.Interval,
		}), nil
	}

	return nil, ErrUnknownSource
}

// rxConfig maps the configuration file section to the capture policy.
func rxConfig(c *config.Config) rx.Config {
	return rx.Config{
		BufferCapacity:   c.Rx.Capacity,
		SignalRangeMin:   uint32(c.Rx.MinSignal),
		SignalRangeMax:   uint32(c.Rx.MaxSignal),
		SkipSignals:      c.Rx.Skip,
		StartPolarityLow: c.Rx.StartPolarityLow,
	}
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/ledrx.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

func (app *App) Close() error {
	if app.shutdown != nil {
		close(app.shutdown)
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}
	if app.source != nil {
		_ = app.source.Close()
	}
	return nil
}
