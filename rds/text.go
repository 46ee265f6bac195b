package rds

import "errors"

var ErrFieldOverflow = errors.New("fragment past end of text field")

const (
	programServiceLen   = 8
	programTypeNameLen  = 8
	wideProgramTypeName = 50
	radioTextLen        = 64
	carriageReturn      = 0x0D
	firstPrintable      = 32
	lastPrintable       = 126
)

// textField is a fixed-width buffer assembled from address-indexed
// fragments. The A/B flag tracks the broadcaster's "new message" toggle.
type textField struct {
	buf []byte
	ab  bool
}

func newTextField(size int) textField {
	f := textField{buf: make([]byte, size)}
	f.clear()
	return f
}

func (f *textField) clear() {
	for i := range f.buf {
		f.buf[i] = ' '
	}
	f.ab = false
}

// assemble writes fragment at address*width. A change of the A/B flag
// blanks the whole field first. Fragments that would run past the end
// of the field are rejected before anything is touched.
func (f *textField) assemble(address, width int, ab bool, fragment []byte) error {
	var i, off int

	off = address * width
	if address < 0 || width < 0 || off+width > len(f.buf) || len(fragment) < width {
		return ErrFieldOverflow
	}

	if ab != f.ab {
		for i = range f.buf {
			f.buf[i] = ' '
		}
		f.ab = ab
	}

	copy(f.buf[off:off+width], fragment[:width])
	return nil
}

// write stores a fragment without any toggle handling (PS has no A/B flag).
func (f *textField) write(address, width int, fragment []byte) error {
	return f.assemble(address, width, f.ab, fragment)
}

func (f *textField) String() string {
	return Printable(f.buf)
}

// Printable renders raw broadcast bytes for display: the first CR ends the
// string (RBDS §3.1.5.3) and anything outside 32..126 becomes '?'.
// The input is never modified.
func Printable(raw []byte) string {
	var out []byte

	out = make([]byte, 0, len(raw))
	for _, c := range raw {
		if c == carriageReturn {
			break
		}
		if c < firstPrintable || c > lastPrintable {
			c = '?'
		}
		out = append(out, c)
	}
	return string(out)
}
