// Package publish sends decoded station data to an MQTT broker as JSON,
// one topic per call sign.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/bartgrantham/gofm/rds"
	"github.com/bartgrantham/gofm/receiver"
)

const publishTimeout = 5 * time.Second

// Message is the JSON payload published for a station.
type Message struct {
	Frequency float64 `json:"frequency"`
	CallSign  string  `json:"callsign"`
	PI        string  `json:"pi"`
	PTY       uint8   `json:"pty"`
	PTYText   string  `json:"pty_text"`
	PS        string  `json:"ps"`
	PTYN      string  `json:"ptyn,omitempty"`
	RadioText string  `json:"radiotext,omitempty"`
	TP        bool    `json:"tp"`
	TA        bool    `json:"ta"`
	Music     bool    `json:"music"`
	Stereo    bool    `json:"stereo"`
	Clock     string  `json:"clock,omitempty"`
}

// NewMessage builds the payload for s; PTY text is in the given locale.
func NewMessage(s receiver.Snapshot, locale rds.Locale) Message {
	st := s.Status
	pty, _ := rds.PTYText(st.ProgramType, locale)
	m := Message{
		Frequency: s.Frequency,
		CallSign:  s.CallSign,
		PI:        fmt.Sprintf("%04X", st.ProgramIdentifier),
		PTY:       st.ProgramType,
		PTYText:   pty,
		PS:        strings.TrimRight(st.ProgramService, " "),
		PTYN:      strings.TrimRight(st.ProgramTypeName, " "),
		RadioText: strings.TrimRight(st.RadioText, " "),
		TP:        st.TrafficProgram,
		TA:        st.TrafficAnnouncement,
		Music:     st.MusicSpeech,
		Stereo:    st.Stereo(),
	}
	if s.Clock != nil {
		m.Clock = s.Clock.Time().Format(time.RFC3339)
	}
	return m
}

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

type Publisher struct {
	client Client
	topic  string
	locale rds.Locale
	last   map[string][]byte
	logger zerolog.Logger
}

func New(client Client, topic string, locale rds.Locale, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		topic:  strings.TrimRight(topic, "/"),
		locale: locale,
		last:   map[string][]byte{},
		logger: logger,
	}
}

// Connect dials broker and returns a publisher on it. Reconnects are left
// to the paho client.
func Connect(broker, clientID, topic string, locale rds.Locale, logger zerolog.Logger) (*Publisher, mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info().Str("broker", broker).Msg("mqtt connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn().Err(err).Msg("mqtt connection lost")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", broker, token.Error())
	}
	return New(client, topic, locale, logger), client, nil
}

func (p *Publisher) Topic(callsign string) string {
	return p.topic + "/" + callsign
}

// Record publishes s retained on the station's topic when its payload
// differs from the last one sent there.
func (p *Publisher) Record(ctx context.Context, s receiver.Snapshot) error {
	if s.CallSign == "" {
		return nil
	}

	data, err := json.Marshal(NewMessage(s, p.locale))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	topic := p.Topic(s.CallSign)
	if bytes.Equal(p.last[topic], data) {
		return nil
	}

	token := p.client.Publish(topic, 0, true, data)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return fmt.Errorf("publish to %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.last[topic] = data
	p.logger.Debug().Str("topic", topic).Msg("published")
	return nil
}
