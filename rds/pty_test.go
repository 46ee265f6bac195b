package rds

import (
	"errors"
	"testing"
)

func TestTranslatePTY_identity(t *testing.T) {
	for _, l := range []Locale{LocaleUS, LocaleEU} {
		for pty := uint8(0); pty < NumPTY; pty++ {
			got, err := TranslatePTY(pty, l, l)
			if err != nil || got != pty {
				t.Errorf("TranslatePTY(%d, %v, %v) = %d, %v", pty, l, l, got, err)
			}
		}
	}
}

func TestTranslatePTY_tables(t *testing.T) {
	usToEU := []uint8{0, 1, 3, 4, 21, 11, 11, 10, 11, 10, 25, 27, 12, 27, 24, 14,
		15, 15, 0, 20, 20, 0, 0, 5, 0, 0, 0, 0, 0, 16, 30, 31}
	euToUS := []uint8{0, 1, 0, 2, 3, 23, 0, 0, 0, 0, 7, 5, 12, 15, 15, 0,
		29, 0, 0, 0, 20, 4, 0, 0, 14, 10, 0, 11, 0, 0, 30, 31}

	for pty := uint8(0); pty < NumPTY; pty++ {
		if got, _ := TranslatePTY(pty, LocaleUS, LocaleEU); got != usToEU[pty] {
			t.Errorf("US->EU %d = %d, want %d", pty, got, usToEU[pty])
		}
		if got, _ := TranslatePTY(pty, LocaleEU, LocaleUS); got != euToUS[pty] {
			t.Errorf("EU->US %d = %d, want %d", pty, got, euToUS[pty])
		}
	}
}

func TestTranslatePTY_manyToOne(t *testing.T) {
	// US Rock, Classic Rock and Soft Rock all become EU Rock
	for _, pty := range []uint8{5, 6, 8} {
		if got, _ := TranslatePTY(pty, LocaleUS, LocaleEU); got != 11 {
			t.Errorf("US %d -> EU %d, want 11", pty, got)
		}
	}
	// and EU Rock comes back as plain US Rock
	if got, _ := TranslatePTY(11, LocaleEU, LocaleUS); got != 5 {
		t.Errorf("EU 11 -> US %d, want 5", got)
	}
	// no round trip for US Classic Rock
	eu, _ := TranslatePTY(6, LocaleUS, LocaleEU)
	if back, _ := TranslatePTY(eu, LocaleEU, LocaleUS); back == 6 {
		t.Error("US 6 survived a round trip, the tables are not expected to be inverses")
	}
	// EU Serious classical and Light classical both become US Classical
	for _, pty := range []uint8{13, 14} {
		if got, _ := TranslatePTY(pty, LocaleEU, LocaleUS); got != 15 {
			t.Errorf("EU %d -> US %d, want 15", pty, got)
		}
	}
}

func TestTranslatePTY_errors(t *testing.T) {
	if _, err := TranslatePTY(32, LocaleUS, LocaleEU); !errors.Is(err, ErrInvalidPTY) {
		t.Errorf("pty 32: err = %v, want ErrInvalidPTY", err)
	}
	if _, err := TranslatePTY(32, LocaleUS, LocaleUS); !errors.Is(err, ErrInvalidPTY) {
		t.Errorf("pty 32 same locale: err = %v, want ErrInvalidPTY", err)
	}
	if _, err := TranslatePTY(1, Locale(7), LocaleEU); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("locale 7: err = %v, want ErrInvalidLocale", err)
	}
}

func TestPTYText(t *testing.T) {
	tests := []struct {
		pty    uint8
		locale Locale
		want   string
	}{
		{0, LocaleUS, "None/Undefined"},
		{0, LocaleEU, "None/Undefined"},
		{4, LocaleUS, "Talk & phone-in"},
		{4, LocaleEU, "Sports"},
		{9, LocaleUS, "Top 40"},
		{9, LocaleEU, "Varied"},
		{24, LocaleUS, "None/Undefined"},
		{24, LocaleEU, "Jazz"},
		{29, LocaleUS, "Weather"},
		{29, LocaleEU, "Documentary"},
		{31, LocaleUS, "Emergency"},
		{31, LocaleEU, "Emergency"},
	}
	for _, tt := range tests {
		got, err := PTYText(tt.pty, tt.locale)
		if err != nil || got != tt.want {
			t.Errorf("PTYText(%d, %v) = %q, %v; want %q", tt.pty, tt.locale, got, err, tt.want)
		}
	}
	if _, err := PTYText(40, LocaleEU); !errors.Is(err, ErrInvalidPTY) {
		t.Errorf("PTYText(40) err = %v", err)
	}
}

func TestCopyPTYText(t *testing.T) {
	buf := make([]byte, 6)
	n, err := CopyPTYText(buf, 16, LocaleUS)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || string(buf[:n]) != "Rhyth" || buf[5] != 0 {
		t.Errorf("CopyPTYText() = %d, %q", n, buf)
	}

	buf = make([]byte, 32)
	n, _ = CopyPTYText(buf, 1, LocaleEU)
	if string(buf[:n]) != "News" || buf[n] != 0 {
		t.Errorf("CopyPTYText() = %d, %q", n, buf)
	}

	if n, err = CopyPTYText(nil, 1, LocaleEU); n != 0 || err != nil {
		t.Errorf("CopyPTYText(nil) = %d, %v", n, err)
	}
}

func TestParseLocale(t *testing.T) {
	for in, want := range map[string]Locale{"us": LocaleUS, "RBDS": LocaleUS, " eu ": LocaleEU, "rds": LocaleEU} {
		if got, err := ParseLocale(in); err != nil || got != want {
			t.Errorf("ParseLocale(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLocale("jp"); !errors.Is(err, ErrInvalidLocale) {
		t.Errorf("ParseLocale(jp) err = %v", err)
	}
}
