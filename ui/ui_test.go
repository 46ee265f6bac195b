package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell"

	"github.com/bartgrantham/gofm/figlet"
	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
	"github.com/bartgrantham/gofm/si4703"
)

func TestStep(t *testing.T) {
	tests := []struct {
		mhz  float64
		dir  int
		want float64
	}{
		{88.5, 1, 88.7},
		{88.5, -1, 88.3},
		{107.9, 1, 87.5},
		{87.5, -1, 107.9},
		{107.7, 1, 107.9},
		{87.7, -1, 87.5},
	}
	for _, tt := range tests {
		if got := Step(tt.mhz, tt.dir); got != tt.want {
			t.Errorf("Step(%v, %d) = %v, want %v", tt.mhz, tt.dir, got, tt.want)
		}
	}
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	scr := tcell.NewSimulationScreen("")
	if err := scr.Init(); err != nil {
		t.Fatal(err)
	}
	scr.SetSize(80, 25)
	t.Cleanup(scr.Fini)
	return scr
}

func screenText(scr tcell.SimulationScreen) string {
	var sb strings.Builder

	cells, w, _ := scr.GetContents()
	for i, c := range cells {
		if len(c.Runes) > 0 {
			sb.WriteRune(c.Runes[0])
		} else {
			sb.WriteRune(' ')
		}
		if (i+1)%w == 0 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

type meter struct{}

func (meter) Signal() si4703.Signal {
	return si4703.Signal{RSSI: 42, Stereo: true}
}

func TestDraw(t *testing.T) {
	scr := newScreen(t)
	d := New(scr, WithLocale(rds.LocaleEU), WithSignalMeter(meter{}))

	ct := rds.ClockTime{Hour: 2, Minute: 30, Day: 28, Month: 4, Year: 1982, Weekday: 3}
	d.Draw(receiver.Snapshot{
		Frequency: 88.5,
		CallSign:  "KQED",
		Groups:    5,
		Clock:     &ct,
		Status: rds.Status{
			ProgramIdentifier: 15019,
			TrafficProgram:    true,
			ProgramType:       3,
			ProgramService:    "KQED FM ",
			ProgramTypeName:   "Talk    ",
			RadioText:         "Forum with Mina Kim" + strings.Repeat(" ", 45),
		},
	})

	text := screenText(scr)
	for _, want := range []string{
		"88.5 MHz", "RSSI  42", "Stereo", "TP", "PI 3AAB",
		"KQED", "Information (Talk)", "(KQED FM )",
		"- - - = = =  Forum with Mina Kim  = = = - - -",
		"1982-04-28 02:30 UTC",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("screen missing %q:\n%s", want, text)
		}
	}
}

func TestDraw_noRDS(t *testing.T) {
	scr := newScreen(t)
	d := New(scr)
	d.Draw(receiver.Snapshot{Frequency: 101.1})

	text := screenText(scr)
	if !strings.Contains(text, "101.1") || !strings.Contains(text, "no RDS") {
		t.Errorf("screen:\n%s", text)
	}
}

type tuner struct {
	sync.Mutex
	tuned []float64
}

func (tu *tuner) Tune(ctx context.Context, mhz float64) error {
	tu.Lock()
	defer tu.Unlock()
	tu.tuned = append(tu.tuned, mhz)
	return nil
}

// tinyFont draws every printable ASCII char as "<c>" over "---".
func tinyFont(t *testing.T) *figlet.FIGfont {
	t.Helper()
	var sb strings.Builder

	sb.WriteString("flf2a$ 2 1 5 -1 0\n")
	for c := ' '; c <= '~'; c++ {
		glyph := string(c)
		if c == ' ' {
			glyph = "$"
		}
		sb.WriteString("<" + glyph + ">@\n---@@\n")
	}
	f, err := figlet.NewFIGfont(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func row(scr tcell.SimulationScreen, y int) string {
	return strings.Split(screenText(scr), "\n")[y]
}

func TestDraw_fonts(t *testing.T) {
	font := tinyFont(t)
	tests := []struct {
		name  string
		width int
		want  string
	}{
		{"wide", 80, "<8><8><.><5>"},
		{"narrow", 10, "88.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scr := newScreen(t)
			scr.SetSize(tt.width, 25)
			New(scr, WithFonts(font, font)).Draw(receiver.Snapshot{Frequency: 88.5})

			if got := strings.TrimSpace(row(scr, 2)); got != tt.want {
				t.Errorf("frequency row = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_keys(t *testing.T) {
	scr := newScreen(t)
	d := New(scr)
	tu := &tuner{}
	updates := make(chan receiver.Snapshot)

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background(), updates, tu, 107.7) }()

	scr.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyUp, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyDown, 0, tcell.ModNone)
	scr.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() didn't return on Ctrl-C")
	}

	want := []float64{107.9, 87.5, 107.9}
	tu.Lock()
	defer tu.Unlock()
	if len(tu.tuned) != len(want) {
		t.Fatalf("tuned %v, want %v", tu.tuned, want)
	}
	for i := range want {
		if tu.tuned[i] != want[i] {
			t.Errorf("tuned %v, want %v", tu.tuned, want)
		}
	}
}

func TestRun_cancel(t *testing.T) {
	scr := newScreen(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(scr).Run(ctx, nil, &tuner{}, 88.5); err != nil {
		t.Errorf("Run() = %v", err)
	}
}
