package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bartgrantham/gofm/blocklog"
	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
	"github.com/bartgrantham/gofm/stationlog"
)

// logSink prints every change of station data.
type logSink struct {
	locale rds.Locale
}

func (l logSink) Record(ctx context.Context, s receiver.Snapshot) error {
	if !s.HasRDS() {
		log.Info().Float64("mhz", s.Frequency).Msg("no RDS")
		return nil
	}
	st := s.Status
	pty, _ := rds.PTYText(st.ProgramType, l.locale)
	ev := log.Info().
		Str("callsign", s.CallSign).
		Str("pi", fmt.Sprintf("%04X", st.ProgramIdentifier)).
		Str("pty", pty).
		Bool("tp", st.TrafficProgram).
		Bool("ta", st.TrafficAnnouncement).
		Str("ps", st.ProgramService).
		Str("rt", strings.TrimRight(st.RadioText, " "))
	if name := strings.TrimSpace(st.ProgramTypeName); name != "" {
		ev = ev.Str("ptyn", name)
	}
	if s.Clock != nil {
		ev = ev.Stringer("ct", s.Clock)
	}
	ev.Msg("station")
	return nil
}

func dumpStats(w io.Writer, stats [rds.NumGroupTypes]uint64) {
	var total uint64

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for i, n := range stats {
		if n == 0 {
			continue
		}
		gt := rds.GroupType(i)
		fmt.Fprintf(tw, "%s\t%d\t%s\n", gt, n, gt.Description())
		total += n
	}
	fmt.Fprintf(tw, "total\t%d\t\n", total)
	tw.Flush()
}

func dumpStations(w io.Writer, stations []stationlog.Station) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, st := range stations {
		fmt.Fprintf(tw, "%.1f\t%s\t%04X\t%s\t%s\n", st.Frequency, st.CallSign, st.PI, st.PS, st.LastSeen.Format(time.RFC3339))
	}
	tw.Flush()
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)

	stats := flag.Bool("stats", false, "print per group type statistics at the end")
	pace := flag.Duration("pace", 0, "delay between groups")
	freq := flag.Float64("freq", 0, "frequency the log was recorded on, MHz")
	localeName := flag.String("locale", "us", "PTY names: us (RBDS) or eu (RDS)")
	ptynWidth := flag.Int("ptyn-width", 8, "program type name width, 8 or 50")
	dbPath := flag.String("db", "", "record stations into this SQLite file and list them")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [blocklog]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	locale, err := rds.ParseLocale(*localeName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -locale")
	}

	var src *blocklog.Reader
	switch flag.NArg() {
	case 0:
		src = blocklog.NewReader(os.Stdin, *pace)
	case 1:
		if src, err = blocklog.Open(flag.Arg(0), *pace); err != nil {
			log.Fatal().Err(err).Msg("error opening block log")
		}
	default:
		flag.Usage()
		os.Exit(1)
	}
	defer src.Close()

	decoder := rds.NewDecoder(rds.WithPTYNameWidth(*ptynWidth), rds.WithLogger(log.Logger))
	opts := []receiver.Option{
		receiver.WithDecoder(decoder),
		receiver.WithFrequency(*freq),
		receiver.WithSink(logSink{locale: locale}),
		receiver.WithLogger(log.Logger),
	}

	var db *stationlog.DB
	if *dbPath != "" {
		if db, err = stationlog.Open(*dbPath); err != nil {
			log.Fatal().Err(err).Msg("error opening station log")
		}
		defer db.Close()
		opts = append(opts, receiver.WithSink(db))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := receiver.New(src, opts...).Run(ctx); err != nil {
		log.Error().Err(err).Msg("decoding stopped")
	}

	if *stats {
		dumpStats(os.Stdout, decoder.GroupStats())
	}
	if db != nil {
		stations, err := db.Stations(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("error listing stations")
		}
		dumpStations(os.Stdout, stations)
	}
}
