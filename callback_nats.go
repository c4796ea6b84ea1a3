package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

type natsPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	subject string
	log     zerolog.Logger
}

func newNATSPublisher(cfg natsConfig, log zerolog.Logger) (*natsPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("ble-beacon-parser"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	log.Info().Str("url", cfg.URL).Str("subject", cfg.Subject).Msg("NATS JetStream initialized")
	return &natsPublisher{nc: nc, js: js, subject: cfg.Subject, log: log}, nil
}

// Publish sends evt to "<subject>.<type>"; the event id doubles as the
// JetStream de-duplication id.
func (p *natsPublisher) Publish(ctx context.Context, evt CallbackEvent) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal callback event: %w", err)
	}
	subject := natsSubject(p.subject, evt.Type)
	ack, err := p.js.Publish(ctx, subject, b, jetstream.WithMsgID(evt.ID))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	p.log.Debug().Str("subject", subject).Uint64("seq", ack.Sequence).Bool("dup", ack.Duplicate).Msg("publishCallback ok")
	return nil
}

func (p *natsPublisher) Close() error {
	return p.nc.Drain()
}

// natsSubject maps "ibeacon/created" under "ble.callbacks" to
// "ble.callbacks.ibeacon.created".
func natsSubject(base, eventType string) string {
	b := []byte(eventType)
	for i, c := range b {
		switch c {
		case '/', ' ', '*', '>':
			b[i] = '.'
		}
	}
	return base + "." + string(b)
}
