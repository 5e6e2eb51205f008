package events

import (
	"fmt"

	"zlatko/internal/config"
)

// NewForwarder connects the broker selected by cfg.Driver; "none" yields nil
func NewForwarder(cfg config.EventsConfig) (Forwarder, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "nats":
		f, err := NewNATSForwarder(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "rabbitmq":
		f, err := NewRabbitMQForwarder(cfg.RabbitMQURL, cfg.Exchange)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.Driver)
	}
}
