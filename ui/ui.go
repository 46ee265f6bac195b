// Package ui is the terminal front panel: the tuned frequency in a big
// FIGlet font, the station's call sign, program type and text, and the
// keys to move up and down the band.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdamore/tcell"
	"github.com/rs/zerolog"

	"github.com/bartgrantham/gofm/figlet"
	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
	"github.com/bartgrantham/gofm/si4703"
)

func Clear(scr tcell.Screen, x, y, h, w int, c rune, style tcell.Style) {
	for j := y; j < y+h; j++ {
		for i := x; i < x+w; i++ {
			scr.SetContent(i, j, c, nil, style)
		}
	}
}

func DrawLines(scr tcell.Screen, x, y int, style tcell.Style, lines []string) {
	for j, line := range lines {
		i := 0
		for _, c := range line {
			scr.SetContent(x+i, y+j, c, nil, style)
			i++
		}
	}
}

// Centered draws lines horizontally centered on a screen w wide.
func Centered(scr tcell.Screen, w, y int, style tcell.Style, lines []string) {
	var width int

	for _, line := range lines {
		if n := len([]rune(line)); n > width {
			width = n
		}
	}
	x := (w - width) / 2
	if x < 0 {
		x = 0
	}
	DrawLines(scr, x, y, style, lines)
}

// Step moves mhz one channel up (dir > 0) or down the band, wrapping at
// the edges.
func Step(mhz float64, dir int) float64 {
	if dir > 0 {
		mhz += si4703.Spacing
	} else {
		mhz -= si4703.Spacing
	}
	mhz = math.Round(mhz*10) / 10
	if mhz > si4703.BandTop {
		return si4703.BandBottom
	}
	if mhz < si4703.BandBottom {
		return si4703.BandTop
	}
	return mhz
}

type Tuner interface {
	Tune(ctx context.Context, mhz float64) error
}

// SignalMeter reports reception quality, the Si4703 does.
type SignalMeter interface {
	Signal() si4703.Signal
}

type Display struct {
	scr    tcell.Screen
	big    *figlet.FIGfont
	medium *figlet.FIGfont
	locale rds.Locale
	meter  SignalMeter
	logger zerolog.Logger

	freqStyle tcell.Style
	textStyle tcell.Style
	dimStyle  tcell.Style

	last receiver.Snapshot
}

type Option func(*Display)

// WithFonts sets the fonts for frequency and call sign; without them
// both are drawn as plain text.
func WithFonts(big, medium *figlet.FIGfont) Option {
	return func(d *Display) {
		d.big = big
		d.medium = medium
	}
}

func WithLocale(l rds.Locale) Option {
	return func(d *Display) {
		d.locale = l
	}
}

func WithSignalMeter(m SignalMeter) Option {
	return func(d *Display) {
		d.meter = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(d *Display) {
		d.logger = logger
	}
}

// New takes an initialized screen; the caller calls Fini.
func New(scr tcell.Screen, opts ...Option) *Display {
	black := tcell.Color(int32(232))
	white := tcell.Color(int32(255))

	d := &Display{
		scr:       scr,
		logger:    zerolog.Nop(),
		freqStyle: tcell.StyleDefault.Foreground(white).Background(black).Bold(true),
		textStyle: tcell.StyleDefault,
		dimStyle:  tcell.StyleDefault.Dim(true),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// render draws s in f, or as plain text when there is no font or the
// terminal is narrower than the rendering.
func render(f *figlet.FIGfont, s string, w int) []string {
	if f == nil || f.Width(s) > w {
		return []string{s}
	}
	return f.Render(s)
}

func onOff(on bool, s string) string {
	if on {
		return s
	}
	return strings.Repeat(" ", len(s))
}

// Draw repaints the whole screen for s.
func (d *Display) Draw(s receiver.Snapshot) {
	var y int

	d.last = s
	d.scr.Clear()
	w, _ := d.scr.Size()
	st := s.Status

	status := fmt.Sprintf("%5.1f MHz", s.Frequency)
	if d.meter != nil {
		sig := d.meter.Signal()
		stereo := "Mono  "
		if sig.Stereo {
			stereo = "Stereo"
		}
		status += fmt.Sprintf("  RSSI %3d  %s", sig.RSSI, stereo)
	}
	if s.HasRDS() {
		status += fmt.Sprintf("  %s %s %s  PI %04X", onOff(st.TrafficProgram, "TP"), onOff(st.TrafficAnnouncement, "TA"), onOff(st.MusicSpeech, "M"), st.ProgramIdentifier)
	}
	DrawLines(d.scr, 0, 0, d.dimStyle, []string{status})

	y = 2
	freq := render(d.big, fmt.Sprintf("%.1f", s.Frequency), w)
	Clear(d.scr, 0, y, len(freq), w, ' ', d.freqStyle)
	Centered(d.scr, w, y, d.freqStyle, freq)
	y += len(freq) + 1

	if !s.HasRDS() {
		Centered(d.scr, w, y, d.dimStyle, []string{"no RDS"})
		d.scr.Show()
		return
	}

	call := render(d.medium, s.CallSign, w)
	Centered(d.scr, w, y, d.textStyle, call)
	y += len(call) + 1

	pty, err := rds.PTYText(st.ProgramType, d.locale)
	if err != nil {
		pty = "?"
	}
	if name := strings.TrimSpace(st.ProgramTypeName); name != "" {
		pty += " (" + name + ")"
	}
	Centered(d.scr, w, y, d.textStyle, []string{pty})
	y += 2

	Centered(d.scr, w, y, d.textStyle, []string{"(" + st.ProgramService + ")"})
	y++

	if rt := strings.TrimRight(st.RadioText, " "); rt != "" {
		Centered(d.scr, w, y, d.textStyle, []string{"- - - = = =  " + rt + "  = = = - - -"})
	}
	y++

	if s.Clock != nil {
		Centered(d.scr, w, y, d.dimStyle, []string{s.Clock.String()})
	}
	d.scr.Show()
}

/*
Run shows snapshots from updates until Ctrl-C, Escape or q, or ctx is
done. Up and Down retune through tuner; the receiver answers with a fresh
snapshot at the new frequency.
*/
func (d *Display) Run(ctx context.Context, updates <-chan receiver.Snapshot, tuner Tuner, start float64) error {
	var freq float64

	events := make(chan tcell.Event, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := d.scr.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	// signal strength changes without any RDS arriving
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	freq = start
	d.Draw(receiver.Snapshot{Frequency: freq})

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-updates:
			freq = s.Frequency
			d.Draw(s)
		case <-ticker.C:
			if d.meter != nil {
				d.Draw(d.last)
			}
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				d.scr.Sync()
				d.Draw(d.last)
			case *tcell.EventKey:
				dir := 0
				switch ev.Key() {
				case tcell.KeyCtrlC, tcell.KeyEscape:
					return nil
				case tcell.KeyUp:
					dir = 1
				case tcell.KeyDown:
					dir = -1
				case tcell.KeyRune:
					if ev.Rune() == 'q' {
						return nil
					}
				}
				if dir == 0 {
					continue
				}
				next := Step(freq, dir)
				if err := tuner.Tune(ctx, next); err != nil {
					d.logger.Warn().Err(err).Float64("mhz", next).Msg("tune failed")
					continue
				}
				freq = next
			}
		}
	}
}
