// Package figlet loads FIGlet fonts (flf2a) and renders text with them.
// Only full width layout is supported: characters are simply placed side
// by side, no kerning or smushing.
package figlet

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// See: figfont.txt

type FIGfont struct {
	Name      string
	Height    int
	hardblank byte
	baseline  int
	maxlen    int
	oldlayout int
	comments  int
	direction int
	layout    int
	codetags  int
	chars     map[rune][]string
}

// Layout bits
const (
	horizontalFit   = 1 << 6
	horizontalSmush = 1 << 7
	fullWidthLayout = -1
)

var ErrInvalidFont = errors.New("invalid FIGfont")
var ErrParse = errors.New("couldn't parse FIGfont")

const asciiOrder = ` !"#$%&'()*+,-./` + `0123456789:;<=>?` + `@ABCDEFGHIJKLMNO` +
	`PQRSTUVWXYZ[\]^_` + "`abcdefghijklmno" + "pqrstuvwxyz{|}~"

// required after ASCII, though plenty of fonts in the wild stop early
var deutschOrder = []rune{'Ä', 'Ö', 'Ü', 'ä', 'ö', 'ü', 'ß'}

func (f *FIGfont) String() string {
	return f.Name
}

// Load reads a font file; the font is named after the file.
func Load(path string) (*FIGfont, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := NewFIGfont(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.Name = strings.TrimSuffix(path[strings.LastIndex(path, "/")+1:], ".flf")
	return f, nil
}

func NewFIGfont(r io.Reader) (*FIGfont, error) {
	var lines, header []string
	var params []int
	var i int
	var err error

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err = scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrInvalidFont
	}

	header = strings.Fields(lines[0])
	if len(header) < 6 || len(header[0]) < 6 || header[0][0:5] != "flf2a" {
		return nil, ErrInvalidFont
	}

	for _, s := range header[1:] {
		if i, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("%w: header %q", ErrParse, s)
		}
		params = append(params, i)
	}

	f := FIGfont{}
	f.hardblank = header[0][5]
	f.Height = params[0]
	f.baseline = params[1]
	f.maxlen = params[2]
	f.oldlayout = params[3]
	f.comments = params[4]
	if len(params) > 5 {
		f.direction = params[5]
	}
	if len(params) > 6 {
		f.layout = params[6]
	}
	if len(params) > 7 {
		f.codetags = params[7]
	}
	if f.Height < 1 || f.comments < 0 {
		return nil, fmt.Errorf("%w: height %d, %d comment lines", ErrInvalidFont, f.Height, f.comments)
	}

	f.chars = map[rune][]string{}
	idx := 1 + f.comments
	for _, c := range asciiOrder {
		if idx, err = f.readChar(lines, idx, c); err != nil {
			return nil, fmt.Errorf("%w: char %q: %v", ErrParse, c, err)
		}
	}
	for _, c := range deutschOrder {
		if idx+f.Height > len(lines) {
			break
		}
		if idx, err = f.readChar(lines, idx, c); err != nil {
			return nil, fmt.Errorf("%w: char %q: %v", ErrParse, c, err)
		}
	}
	return &f, nil
}

// readChar takes Height lines starting at idx, stripping the endmarks
// (the last character of the first line, repeated).
func (f *FIGfont) readChar(lines []string, idx int, c rune) (int, error) {
	var endmark string
	var line string

	if idx+f.Height > len(lines) {
		return idx, io.ErrUnexpectedEOF
	}
	if len(lines[idx]) == 0 {
		return idx, errors.New("empty line")
	}
	endmark = lines[idx][len(lines[idx])-1:]
	for j := 0; j < f.Height; j++ {
		line = lines[idx+j]
		f.chars[c] = append(f.chars[c], strings.TrimRight(line, endmark))
	}
	return idx + f.Height, nil
}

// Render lays s out left to right, one string per font row. Characters the
// font doesn't have are skipped, a NUL ends the text.
func (f *FIGfont) Render(s string) []string {
	var out, fig []string
	var ok bool

	out = make([]string, f.Height)
	hardblank := string([]byte{f.hardblank})

	for _, c := range s {
		if c == 0 {
			break
		}
		if fig, ok = f.chars[c]; !ok {
			continue
		}
		for i := 0; i < f.Height; i++ {
			out[i] += strings.Replace(fig[i], hardblank, " ", -1)
		}
	}
	for i := range out {
		out[i] = strings.TrimRight(out[i], " ")
	}
	return out
}

// FullWidth reports whether the font asks for no fitting or smushing, the
// only layout Render does faithfully.
func (f *FIGfont) FullWidth() bool {
	if f.layout != 0 {
		return f.layout&(horizontalFit|horizontalSmush) == 0
	}
	return f.oldlayout == fullWidthLayout
}

// Width is the number of columns the widest row of s takes.
func (f *FIGfont) Width(s string) int {
	var w int

	for _, line := range f.Render(s) {
		if n := len([]rune(line)); n > w {
			w = n
		}
	}
	return w
}
