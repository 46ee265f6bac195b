// Package metrics exports receiver activity to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
)

type Metrics struct {
	groups    *prometheus.CounterVec // groups decoded, by group type
	changes   prometheus.Counter     // station snapshots published
	frequency prometheus.Gauge
	pi        prometheus.Gauge
	pty       prometheus.Gauge
	tp        prometheus.Gauge
	ta        prometheus.Gauge
	clock     prometheus.Gauge // unix time last broadcast in a 4A group
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		groups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gofm_rds_groups_total",
				Help: "RDS groups decoded, by group type",
			},
			[]string{"group"},
		),
		changes: f.NewCounter(prometheus.CounterOpts{
			Name: "gofm_station_updates_total",
			Help: "Changes to the decoded station data",
		}),
		frequency: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_frequency_mhz",
			Help: "Tuned frequency in MHz",
		}),
		pi: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_rds_pi",
			Help: "Program identification code of the tuned station",
		}),
		pty: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_rds_pty",
			Help: "Program type code of the tuned station",
		}),
		tp: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_rds_traffic_program",
			Help: "1 if the station carries traffic announcements",
		}),
		ta: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_rds_traffic_announcement",
			Help: "1 while a traffic announcement is on air",
		}),
		clock: f.NewGauge(prometheus.GaugeOpts{
			Name: "gofm_rds_clock_time_seconds",
			Help: "Last clock time broadcast by the station, unix seconds",
		}),
	}
}

func (m *Metrics) ObserveGroup(gt rds.GroupType) {
	m.groups.WithLabelValues(gt.String()).Inc()
}

func boolGauge(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
	} else {
		g.Set(0)
	}
}

func (m *Metrics) Record(ctx context.Context, s receiver.Snapshot) error {
	m.changes.Inc()
	m.frequency.Set(s.Frequency)
	m.pi.Set(float64(s.Status.ProgramIdentifier))
	m.pty.Set(float64(s.Status.ProgramType))
	boolGauge(m.tp, s.Status.TrafficProgram)
	boolGauge(m.ta, s.Status.TrafficAnnouncement)
	if s.Clock != nil {
		m.clock.Set(float64(s.Clock.Time().Unix()))
	}
	return nil
}

// Serve exposes /metrics on listen until ctx is done.
func Serve(ctx context.Context, listen string, g prometheus.Gatherer, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	logger.Info().Str("listen", listen).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
