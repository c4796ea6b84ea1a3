package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

type pubsubPublisher struct {
	client     *pubsub.Client
	publisher  *pubsub.Publisher
	topic      string
	orderingOn bool
	log        zerolog.Logger
}

func newPubSubPublisher(ctx context.Context, cfg pubsubConfig, log zerolog.Logger) (*pubsubPublisher, error) {
	cl, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub.NewClient: %w", err)
	}

	// topic ID ("ble-callbacks") or full name
	pub := cl.Publisher(cfg.Topic)
	pub.PublishSettings.DelayThreshold = 50 * time.Millisecond
	pub.PublishSettings.Timeout = 10 * time.Second
	pub.EnableMessageOrdering = cfg.Ordering

	log.Info().Str("topic", cfg.Topic).Bool("ordering", cfg.Ordering).Msg("Pub/Sub v2 initialized")
	return &pubsubPublisher{
		client:     cl,
		publisher:  pub,
		topic:      cfg.Topic,
		orderingOn: cfg.Ordering,
		log:        log,
	}, nil
}

func (p *pubsubPublisher) Publish(ctx context.Context, evt CallbackEvent) error {
	if evt.Timestamp == 0 {
		evt.Timestamp = time.Now().UnixMilli()
	}

	b, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal callback event: %w", err)
	}

	msg := &pubsub.Message{
		Data: b,
		Attributes: map[string]string{
			"source":     "ble-beacon-parser",
			"type":       evt.Type,
			"deviceId":   evt.DeviceId,
			"gateway_id": evt.GatewayID,
			"session_id": evt.SessionID,
		},
	}
	if p.orderingOn {
		// per-device ordering, needs an ordered subscription
		msg.OrderingKey = evt.DeviceId
	}

	id, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if p.orderingOn {
			p.publisher.ResumePublish(evt.DeviceId)
		}
		return fmt.Errorf("publish failed: %w", err)
	}
	p.log.Debug().Str("topic", p.topic).Str("id", id).Int("bytes", len(b)).Msg("publishCallback ok")
	return nil
}

func (p *pubsubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
