package publish

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	sent []published
	err  error
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.sent = append(f.sent, published{topic, retained, payload.([]byte)})
	return doneToken{f.err}
}

func kqed() receiver.Snapshot {
	ct := rds.ClockTime{Hour: 2, Minute: 30, Day: 28, Month: 4, Year: 1982, Weekday: 3}
	return receiver.Snapshot{
		Frequency: 88.5,
		CallSign:  "KQED",
		Groups:    12,
		Clock:     &ct,
		Status: rds.Status{
			ProgramIdentifier:     15019,
			TrafficProgram:        true,
			MusicSpeech:           true,
			ProgramType:           3,
			DecoderIdentification: rds.DIStereo,
			ProgramService:        "KQED FM ",
			ProgramTypeName:       strings.Repeat(" ", 8),
			RadioText:             "Forum" + strings.Repeat(" ", 59),
		},
	}
}

func TestNewMessage(t *testing.T) {
	want := Message{
		Frequency: 88.5,
		CallSign:  "KQED",
		PI:        "3AAB",
		PTY:       3,
		PTYText:   "Sports",
		PS:        "KQED FM",
		RadioText: "Forum",
		TP:        true,
		Music:     true,
		Stereo:    true,
		Clock:     "1982-04-28T02:30:00Z",
	}
	if got := NewMessage(kqed(), rds.LocaleUS); !reflect.DeepEqual(got, want) {
		t.Errorf("NewMessage() = %+v, want %+v", got, want)
	}
	if got := NewMessage(kqed(), rds.LocaleEU).PTYText; got != "Information" {
		t.Errorf("EU PTYText = %q", got)
	}
}

func TestRecord(t *testing.T) {
	client := &fakeClient{}
	p := New(client, "radio/fm/", rds.LocaleUS, zerolog.Nop())
	ctx := context.Background()

	s := kqed()
	for i := 0; i < 3; i++ {
		if err := p.Record(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	if len(client.sent) != 1 {
		t.Fatalf("published %d times, want 1", len(client.sent))
	}
	if client.sent[0].topic != "radio/fm/KQED" || !client.sent[0].retained {
		t.Errorf("published %+v", client.sent[0])
	}
	var m Message
	if err := json.Unmarshal(client.sent[0].payload, &m); err != nil || m.PS != "KQED FM" {
		t.Errorf("payload %s: %v", client.sent[0].payload, err)
	}

	s.Status.TrafficAnnouncement = true
	if err := p.Record(ctx, s); err != nil {
		t.Fatal(err)
	}
	if len(client.sent) != 2 {
		t.Errorf("change not published")
	}

	// no RDS yet
	if err := p.Record(ctx, receiver.Snapshot{Frequency: 90.1}); err != nil || len(client.sent) != 2 {
		t.Errorf("snapshot without call sign published: %v", err)
	}
}

func TestRecord_error(t *testing.T) {
	client := &fakeClient{err: errors.New("not connected")}
	p := New(client, "gofm", rds.LocaleUS, zerolog.Nop())

	if err := p.Record(context.Background(), kqed()); err == nil {
		t.Fatal("Record() succeeded with a failing client")
	}
	// a failed publish is retried with the next snapshot
	client.err = nil
	if err := p.Record(context.Background(), kqed()); err != nil || len(client.sent) != 2 {
		t.Errorf("Record() = %v after %d publishes", err, len(client.sent))
	}
}
