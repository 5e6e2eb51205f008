package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const natsStream = "ZLATKO_CHANGES"

// NATSForwarder publishes events to JetStream, deduplicated by event id
type NATSForwarder struct {
	nc *nats.Conn
	js nats.JetStreamContext
}

func NewNATSForwarder(url string) (*NATSForwarder, error) {
	nc, err := nats.Connect(url, nats.Name("zlatko"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	f := &NATSForwarder{nc: nc, js: js}
	if err := f.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	return f, nil
}

func (f *NATSForwarder) ensureStream() error {
	if info, err := f.js.StreamInfo(natsStream); err == nil && info != nil {
		return nil
	}

	_, err := f.js.AddStream(&nats.StreamConfig{
		Name:       natsStream,
		Subjects:   []string{"zlatko.>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     7 * 24 * time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

func (f *NATSForwarder) Forward(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := f.js.Publish(e.Subject(), payload, nats.MsgId(e.ID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (f *NATSForwarder) Close() error {
	if f.nc != nil {
		f.nc.Close()
	}
	return nil
}
