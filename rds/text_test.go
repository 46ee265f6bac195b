package rds

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrintable(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("KQED FM "), "KQED FM "},
		{"all zero", make([]byte, 8), "????????"},
		{"all 0xFF", bytes.Repeat([]byte{0xFF}, 8), "????????"},
		{"CR terminates", []byte("AB\rCD"), "AB"},
		{"CR first", []byte("\rABC"), ""},
		{"edges", []byte{31, 32, 126, 127}, "? ~?"},
		{"control before CR", []byte{0x07, 'x', 0x0D, 0x00}, "?x"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]byte(nil), tt.in...)
			if got := Printable(tt.in); got != tt.want {
				t.Errorf("Printable() = %q, want %q", got, tt.want)
			}
			if !bytes.Equal(orig, tt.in) {
				t.Error("Printable() modified its input")
			}
		})
	}
}

func TestTextField_assemble(t *testing.T) {
	f := newTextField(8)
	if err := f.assemble(3, 2, false, []byte("YZ")); err != nil {
		t.Fatal(err)
	}
	if err := f.assemble(0, 2, false, []byte("AB")); err != nil {
		t.Fatal(err)
	}
	if got := string(f.buf); got != "AB    YZ" {
		t.Errorf("buf = %q", got)
	}

	if err := f.assemble(4, 2, true, []byte("!!")); !errors.Is(err, ErrFieldOverflow) {
		t.Errorf("address 4: err = %v, want ErrFieldOverflow", err)
	}
	if got := string(f.buf); got != "AB    YZ" || f.ab {
		t.Errorf("rejected fragment touched the field: %q ab=%v", got, f.ab)
	}

	if err := f.assemble(1, 4, true, []byte("WXYZ")); err != nil {
		t.Fatal(err)
	}
	if got := string(f.buf); got != "    WXYZ" || !f.ab {
		t.Errorf("after toggle buf = %q ab=%v", got, f.ab)
	}

	if err := f.assemble(0, 4, true, []byte("ab")); !errors.Is(err, ErrFieldOverflow) {
		t.Errorf("short fragment: err = %v, want ErrFieldOverflow", err)
	}
}

func TestTextField_clear(t *testing.T) {
	f := newTextField(64)
	_ = f.assemble(15, 4, true, []byte("ABCD"))
	f.clear()
	if got := string(f.buf); got != strings.Repeat(" ", 64) || f.ab {
		t.Errorf("clear() left %q ab=%v", got, f.ab)
	}
}
