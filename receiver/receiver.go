// Package receiver owns an RDS decoder for the station currently tuned and
// feeds it from a group source.
package receiver

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bartgrantham/gofm/rds"
)

var ErrStopped = errors.New("receiver stopped")
var ErrNoTuner = errors.New("source can't be tuned")

// Tuner is implemented by sources that can change station.
type Tuner interface {
	Tune(ctx context.Context, mhz float64) error
}

// Sink receives a snapshot whenever the decoded station data changes.
type Sink interface {
	Record(ctx context.Context, s Snapshot) error
}

// GroupObserver sees every group type as it is decoded.
type GroupObserver interface {
	ObserveGroup(gt rds.GroupType)
}

// GroupRecorder stores raw groups and retunes, e.g. a blocklog.Writer.
type GroupRecorder interface {
	WriteGroup(b rds.Block) error
	Tuned(mhz float64) error
}

// Retuned is returned by a source replaying a recording where the recorded
// receiver changed station, e.g. *blocklog.Retune. The receiver resets as
// for a live retune and keeps reading.
type Retuned interface {
	error
	Frequency() float64
}

// Snapshot is everything known about the tuned station at one moment.
type Snapshot struct {
	At        time.Time      `json:"at"`
	Frequency float64        `json:"frequency"`
	CallSign  string         `json:"callsign"`
	Status    rds.Status     `json:"status"`
	Clock     *rds.ClockTime `json:"clock,omitempty"`
	Groups    uint64         `json:"groups"`
}

// HasRDS reports whether any group was received since the last tune.
func (s Snapshot) HasRDS() bool {
	return s.Groups > 0
}

// pending is a group read under generation gen, or a recorded retune.
type pending struct {
	gen     uint64
	block   rds.Block
	retuned bool
	mhz     float64
}

type tuneRequest struct {
	mhz   float64
	reply chan error
}

type Receiver struct {
	source    rds.Source
	decoder   *rds.Decoder
	frequency float64
	gen       uint64
	sinks     []Sink
	observers []GroupObserver
	recorder  GroupRecorder
	tunes     chan tuneRequest
	updates   chan Snapshot
	done      chan struct{}
	logger    zerolog.Logger
	last      Snapshot
}

type Option func(*Receiver)

func WithDecoder(d *rds.Decoder) Option {
	return func(r *Receiver) {
		r.decoder = d
	}
}

// WithFrequency records the frequency the source is already tuned to.
func WithFrequency(mhz float64) Option {
	return func(r *Receiver) {
		r.frequency = mhz
	}
}

func WithSink(s Sink) Option {
	return func(r *Receiver) {
		r.sinks = append(r.sinks, s)
	}
}

func WithGroupObserver(o GroupObserver) Option {
	return func(r *Receiver) {
		r.observers = append(r.observers, o)
	}
}

func WithRecorder(rec GroupRecorder) Option {
	return func(r *Receiver) {
		r.recorder = rec
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Receiver) {
		r.logger = logger
	}
}

func New(source rds.Source, opts ...Option) *Receiver {
	r := &Receiver{
		source:  source,
		tunes:   make(chan tuneRequest),
		updates: make(chan Snapshot, 1),
		done:    make(chan struct{}),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.decoder == nil {
		r.decoder = rds.NewDecoder(rds.WithLogger(r.logger))
	}
	return r
}

// Updates delivers the latest snapshot after each change; a slow reader
// only ever misses intermediate snapshots.
func (r *Receiver) Updates() <-chan Snapshot {
	return r.updates
}

/*
Run reads groups until the source is exhausted or ctx is done.

The decoder is only ever touched by the goroutine in decodeLoop: groups
arrive over a channel from the reading goroutine and retunes are requests
on another, so a reset can never interleave with a decode. Groups read
before a retune completed carry an old generation and are dropped. A
recorded retune reported by the source goes through the same channel, so
it resets the decoder in order with the groups around it.
*/
func (r *Receiver) Run(ctx context.Context) error {
	defer close(r.done)

	eg, ctx := errgroup.WithContext(ctx)
	groups := make(chan pending, 16)

	eg.Go(func() error {
		defer close(groups)
		for {
			gen := atomic.LoadUint64(&r.gen)
			var p pending
			var rt Retuned

			b, err := r.source.ReadGroup(ctx)
			switch {
			case err == io.EOF:
				r.logger.Debug().Msg("group source exhausted")
				return nil
			case errors.As(err, &rt):
				p = pending{retuned: true, mhz: rt.Frequency()}
			case err != nil:
				return err
			default:
				p = pending{gen: gen, block: b}
			}
			select {
			case groups <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	eg.Go(func() error {
		return r.decodeLoop(ctx, groups)
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Receiver) decodeLoop(ctx context.Context, groups <-chan pending) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case g, ok := <-groups:
			if !ok {
				return nil
			}
			if g.retuned {
				r.reset(ctx, g.mhz)
				continue
			}
			if g.gen != atomic.LoadUint64(&r.gen) {
				continue
			}
			r.decode(ctx, g.block)
		case req := <-r.tunes:
			req.reply <- r.retune(ctx, req.mhz)
		}
	}
}

func (r *Receiver) decode(ctx context.Context, b rds.Block) {
	gt := b.GroupType()
	r.decoder.DecodeGroup(b)
	for _, o := range r.observers {
		o.ObserveGroup(gt)
	}
	if r.recorder != nil {
		if err := r.recorder.WriteGroup(b); err != nil {
			r.logger.Warn().Err(err).Msg("recording group")
		}
	}
	r.publish(ctx, false)
}

func (r *Receiver) retune(ctx context.Context, mhz float64) error {
	tuner, ok := r.source.(Tuner)
	if !ok {
		return ErrNoTuner
	}

	atomic.AddUint64(&r.gen, 1)
	if err := tuner.Tune(ctx, mhz); err != nil {
		return err
	}
	r.reset(ctx, mhz)
	return nil
}

// reset starts over at mhz, after a live or a recorded retune.
func (r *Receiver) reset(ctx context.Context, mhz float64) {
	r.frequency = mhz
	r.decoder.Reset()
	r.logger.Info().Float64("mhz", mhz).Msg("tuned")
	if r.recorder != nil {
		if err := r.recorder.Tuned(mhz); err != nil {
			r.logger.Warn().Err(err).Msg("recording retune")
		}
	}
	r.publish(ctx, true)
}

// Tune retunes the source and resets the decoder.
func (r *Receiver) Tune(ctx context.Context, mhz float64) error {
	req := tuneRequest{mhz: mhz, reply: make(chan error, 1)}
	select {
	case r.tunes <- req:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Receiver) snapshot() Snapshot {
	var groups uint64

	for _, n := range r.decoder.GroupStats() {
		groups += n
	}
	s := Snapshot{
		At:        time.Now().UTC(),
		Frequency: r.frequency,
		Status:    r.decoder.Status(),
		Groups:    groups,
	}
	if groups > 0 {
		s.CallSign = s.Status.CallSign()
	}
	if ct, ok := r.decoder.Time(); ok {
		s.Clock = &ct
	}
	return s
}

func changed(a, b Snapshot) bool {
	if a.Frequency != b.Frequency || a.Status != b.Status || a.HasRDS() != b.HasRDS() {
		return true
	}
	if (a.Clock == nil) != (b.Clock == nil) {
		return true
	}
	return a.Clock != nil && *a.Clock != *b.Clock
}

func (r *Receiver) publish(ctx context.Context, force bool) {
	s := r.snapshot()
	if !force && !changed(s, r.last) {
		return
	}
	r.last = s

	for _, sink := range r.sinks {
		if err := sink.Record(ctx, s); err != nil {
			r.logger.Warn().Err(err).Msg("sink")
		}
	}

	select {
	case r.updates <- s:
	default:
		select {
		case <-r.updates:
		default:
		}
		r.updates <- s
	}
}
