package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/pin/pinreg"
	"periph.io/x/host/v3"

	"github.com/bartgrantham/gofm/blocklog"
	"github.com/bartgrantham/gofm/config"
	"github.com/bartgrantham/gofm/figlet"
	"github.com/bartgrantham/gofm/metrics"
	"github.com/bartgrantham/gofm/publish"
	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
	"github.com/bartgrantham/gofm/si4703"
	"github.com/bartgrantham/gofm/stationlog"
	"github.com/bartgrantham/gofm/ui"
)

type device interface {
	rds.Source
	Close() error
}

func openRadio(ctx context.Context, cfg config.Config) (*si4703.Si4703, func(), error) {
	var opts []si4703.Option

	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("couldn't initialize peripherals: %w", err)
	}
	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't initialize i2c bus: %w", err)
	}
	if p, ok := bus.(i2c.Pins); ok {
		_, scl := pinreg.Position(p.SCL())
		_, sda := pinreg.Position(p.SDA())
		log.Info().Stringer("bus", bus).Int("scl", scl).Int("sda", sda).Msg("using i2c")
	}

	if cfg.ResetPin != "" {
		var pin gpio.PinIO
		if pin = gpioreg.ByName(cfg.ResetPin); pin == nil {
			bus.Close()
			return nil, nil, fmt.Errorf("no reset pin %q", cfg.ResetPin)
		}
		opts = append(opts, si4703.WithResetPin(pin))
	}
	opts = append(opts, si4703.WithPollRate(cfg.PollInterval), si4703.WithLogger(log.Logger))

	radio, err := si4703.New(bus, cfg.I2CAddress, opts...)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if err := radio.PowerUp(cfg.Volume); err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("power up: %w", err)
	}
	if err := radio.Tune(ctx, cfg.Frequency); err != nil {
		radio.Close()
		bus.Close()
		return nil, nil, err
	}
	return radio, func() { bus.Close() }, nil
}

func loadFonts(cfg config.Config) []ui.Option {
	big, err := figlet.Load(cfg.Fonts.Big)
	if err != nil {
		log.Warn().Err(err).Msg("big font, falling back to plain text")
		return nil
	}
	medium, err := figlet.Load(cfg.Fonts.Medium)
	if err != nil {
		log.Warn().Err(err).Msg("medium font, falling back to plain text")
		return nil
	}
	for _, f := range []*figlet.FIGfont{big, medium} {
		if !f.FullWidth() {
			log.Warn().Stringer("font", f).Msg("font asks for kerning or smushing, drawing it full width")
		}
	}
	return []ui.Option{ui.WithFonts(big, medium)}
}

func main() {
	var dev device
	var uiOpts []ui.Option
	var rcvOpts []receiver.Option

	configFile := flag.String("config", "gofm.yaml", "YAML config file")
	logFile := flag.String("log", "gofm.log", "log file, the terminal belongs to the display")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	out, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "couldn't open log:", err)
		os.Exit(1)
	}
	defer out.Close()
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: true}).Level(level)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch cfg.Device {
	case config.DeviceReplay:
		log.Info().Str("device", "replay").Str("file", cfg.Replay.File).Msg("initializing device...")
		r, err := blocklog.Open(cfg.Replay.File, cfg.Replay.Pace)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open replay file")
		}
		dev = r
	default:
		log.Info().Str("device", "si4703").Str("bus", cfg.I2CBus).Msg("initializing device...")
		radio, closeBus, err := openRadio(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Si4703")
		}
		defer closeBus()
		dev = radio
		uiOpts = append(uiOpts, ui.WithSignalMeter(radio))
	}
	defer dev.Close()

	decoder := rds.NewDecoder(rds.WithPTYNameWidth(cfg.PTYNameWidth), rds.WithLogger(log.Logger))
	rcvOpts = append(rcvOpts,
		receiver.WithDecoder(decoder),
		receiver.WithFrequency(cfg.Frequency),
		receiver.WithLogger(log.Logger),
	)

	eg, ctx := errgroup.WithContext(ctx)
	quit, stop := context.WithCancel(ctx)
	defer stop()

	if cfg.Metrics.Listen != "" {
		m := metrics.New(prometheus.DefaultRegisterer)
		rcvOpts = append(rcvOpts, receiver.WithGroupObserver(m), receiver.WithSink(m))
		eg.Go(func() error {
			return metrics.Serve(quit, cfg.Metrics.Listen, prometheus.DefaultGatherer, log.Logger)
		})
	}
	if cfg.StationLog != "" {
		db, err := stationlog.Open(cfg.StationLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open station log")
		}
		defer db.Close()
		rcvOpts = append(rcvOpts, receiver.WithSink(db))
	}
	if cfg.MQTT.Broker != "" {
		pub, client, err := publish.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, cfg.RDSLocale(), log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MQTT broker")
		}
		defer client.Disconnect(250)
		rcvOpts = append(rcvOpts, receiver.WithSink(pub))
	}
	if cfg.RecordFile != "" {
		w, err := blocklog.Create(cfg.RecordFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create record file")
		}
		defer w.Close()
		w.Comment("gofm recording")
		w.Tuned(cfg.Frequency)
		rcvOpts = append(rcvOpts, receiver.WithRecorder(w))
	}

	rcv := receiver.New(dev, rcvOpts...)

	scr, err := tcell.NewScreen()
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't open screen")
	}
	if err := scr.Init(); err != nil {
		log.Fatal().Err(err).Msg("couldn't init screen")
	}
	defer scr.Fini()

	uiOpts = append(uiOpts, loadFonts(cfg)...)
	uiOpts = append(uiOpts, ui.WithLocale(cfg.RDSLocale()), ui.WithLogger(log.Logger))
	display := ui.New(scr, uiOpts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {
		select {
		case <-sigChan:
			stop()
		case <-quit.Done():
		}
		return nil
	})
	eg.Go(func() error {
		return rcv.Run(quit)
	})
	eg.Go(func() error {
		defer stop()
		return display.Run(quit, rcv.Updates(), rcv, cfg.Frequency)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		scr.Fini()
		log.Error().Err(err).Msg("exited program")
		fmt.Fprintln(os.Stderr, "gofm:", err)
		os.Exit(1)
	}
}
