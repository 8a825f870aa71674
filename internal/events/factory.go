package events

import (
	"context"

	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

// New builds the publisher for the enabled brokers. It returns Noop when no
// broker is enabled and the single publisher when only one is.
func New(ctx context.Context, settings *conf.Settings, log logger.Logger, m Metrics) (Publisher, error) {
	log = log.Module("events")

	var publishers []Publisher
	if settings.Events.MQTT.Enabled {
		p := NewMQTTPublisher(MQTTConfigFromSettings(settings), log, m)
		if err := p.Connect(ctx); err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
	}
	if k := settings.Events.Kafka; k.Enabled {
		publishers = append(publishers, NewKafkaPublisher(k.Brokers, k.Topic, log, m))
	}

	switch len(publishers) {
	case 0:
		return Noop{}, nil
	case 1:
		log.Info("sighting events enabled", logger.String("publisher", publishers[0].Name()))
		return publishers[0], nil
	default:
		log.Info("sighting events enabled", logger.Int("publishers", len(publishers)))
		return NewMulti(log, publishers...), nil
	}
}
