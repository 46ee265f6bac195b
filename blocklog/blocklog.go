// Package blocklog records and replays raw RDS groups as text, one group per
// line as four hex words, e.g. "54A8 0408 E0CD 4B57". A "# tune 101.1" line
// marks a retune to 101.1 MHz; other blank lines and lines starting with '#'
// are skipped.
package blocklog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bartgrantham/gofm/rds"
)

var ErrMalformed = errors.New("malformed block line")

const tuneMarker = "tune"

// Retune is returned by ReadGroup where the recording changed station.
// Reading carries on with the next line.
type Retune struct {
	MHz float64
}

func (r *Retune) Error() string {
	return fmt.Sprintf("retune to %.1f MHz", r.MHz)
}

func (r *Retune) Frequency() float64 {
	return r.MHz
}

// parseTune reports whether the comment after '#' is a tune marker.
func parseTune(comment string) (float64, bool, error) {
	fields := strings.Fields(comment)
	if len(fields) == 0 || fields[0] != tuneMarker {
		return 0, false, nil
	}
	if len(fields) != 2 {
		return 0, true, fmt.Errorf("%w: tune marker %q", ErrMalformed, comment)
	}
	mhz, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, true, fmt.Errorf("%w: tune marker %q", ErrMalformed, comment)
	}
	return mhz, true, nil
}

// Reader replays groups from a log, optionally pacing them like a tuner would.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	pace    time.Duration
	line    int
}

func NewReader(r io.Reader, pace time.Duration) *Reader {
	rd := &Reader{
		scanner: bufio.NewScanner(r),
		pace:    pace,
	}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

func Open(path string, pace time.Duration) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block log: %w", err)
	}
	return NewReader(f, pace), nil
}

// ReadGroup returns the next group in the log, a *Retune at a tune marker
// and io.EOF at the end.
func (r *Reader) ReadGroup(ctx context.Context) (rds.Block, error) {
	if r.pace > 0 {
		t := time.NewTimer(r.pace)
		select {
		case <-ctx.Done():
			t.Stop()
			return rds.Block{}, ctx.Err()
		case <-t.C:
		}
	}

	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '#' {
			mhz, ok, err := parseTune(line[1:])
			if err != nil {
				return rds.Block{}, fmt.Errorf("line %d: %w", r.line, err)
			}
			if ok {
				return rds.Block{}, &Retune{MHz: mhz}
			}
			continue
		}
		b, err := ParseBlock(line)
		if err != nil {
			return rds.Block{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		return b, nil
	}
	if err := r.scanner.Err(); err != nil {
		return rds.Block{}, err
	}
	return rds.Block{}, io.EOF
}

// Tune is a no-op, a recording only holds one station's worth of groups
// from the log's point of view.
func (r *Reader) Tune(ctx context.Context, mhz float64) error {
	return nil
}

func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ParseBlock parses four whitespace separated hex words.
func ParseBlock(s string) (rds.Block, error) {
	var b rds.Block

	fields := strings.Fields(s)
	if len(fields) != 4 {
		return rds.Block{}, fmt.Errorf("%w: want 4 words, got %d", ErrMalformed, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 16)
		if err != nil {
			return rds.Block{}, fmt.Errorf("%w: %q", ErrMalformed, f)
		}
		b[i] = uint16(v)
	}
	return b, nil
}

// Writer appends groups to a log in the format Reader understands.
type Writer struct {
	sync.Mutex
	w      *bufio.Writer
	closer io.Closer
}

func NewWriter(w io.Writer) *Writer {
	wr := &Writer{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		wr.closer = c
	}
	return wr
}

func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("create block log: %w", err)
	}
	return NewWriter(f), nil
}

func (w *Writer) WriteGroup(b rds.Block) error {
	w.Lock()
	defer w.Unlock()
	_, err := fmt.Fprintln(w.w, b.String())
	return err
}

// Comment writes a '#' line, ignored on replay.
func (w *Writer) Comment(format string, args ...interface{}) error {
	w.Lock()
	defer w.Unlock()
	_, err := fmt.Fprintf(w.w, "# "+format+"\n", args...)
	return err
}

// Tuned writes a tune marker; replaying it resets the decoder.
func (w *Writer) Tuned(mhz float64) error {
	w.Lock()
	defer w.Unlock()
	_, err := fmt.Fprintf(w.w, "# %s %.1f\n", tuneMarker, mhz)
	return err
}

func (w *Writer) Flush() error {
	w.Lock()
	defer w.Unlock()
	return w.w.Flush()
}

func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
