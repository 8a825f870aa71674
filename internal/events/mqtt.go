package events

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/vedanthangal/sanctuary/internal/conf"
	"github.com/vedanthangal/sanctuary/internal/errors"
	"github.com/vedanthangal/sanctuary/internal/logger"
)

const (
	mqttPublisherName  = "mqtt"
	mqttConnectTimeout = 30 * time.Second
	mqttPublishTimeout = 10 * time.Second
	mqttDisconnectMS   = 250
)

// MQTTConfig holds the broker settings of an MQTTPublisher.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Retain   bool
}

// MQTTConfigFromSettings builds an MQTTConfig, defaulting the client ID to
// the instance name.
func MQTTConfigFromSettings(settings *conf.Settings) MQTTConfig {
	s := settings.Events.MQTT
	clientID := s.ClientID
	if clientID == "" {
		clientID = settings.Main.Name
	}
	return MQTTConfig{
		Broker:   s.Broker,
		ClientID: clientID,
		Username: s.Username,
		Password: s.Password,
		Topic:    s.Topic,
		QoS:      byte(s.QoS),
		Retain:   s.Retain,
	}
}

// MQTTPublisher publishes events as JSON to one MQTT topic.
type MQTTPublisher struct {
	client  mqtt.Client
	config  MQTTConfig
	log     logger.Logger
	metrics Metrics
}

// NewMQTTPublisher creates a publisher backed by a paho client. Call Connect
// before publishing.
func NewMQTTPublisher(config MQTTConfig, log logger.Logger, m Metrics) *MQTTPublisher {
	p := &MQTTPublisher{
		config:  config,
		log:     log.Module("mqtt"),
		metrics: orNoop(m),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetOnConnectHandler(p.onConnect)
	opts.SetConnectionLostHandler(p.onConnectionLost)

	p.client = mqtt.NewClient(opts)
	return p
}

func newMQTTPublisherWithClient(client mqtt.Client, config MQTTConfig, log logger.Logger, m Metrics) *MQTTPublisher {
	return &MQTTPublisher{client: client, config: config, log: log, metrics: orNoop(m)}
}

func (p *MQTTPublisher) Name() string { return mqttPublisherName }

// Connect starts the broker connection. The client keeps retrying in the
// background when the broker is not reachable within the connect timeout.
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := waitToken(ctx, token, mqttConnectTimeout); err != nil {
		if errors.IsCategory(err, errors.CategoryTimeout) {
			p.log.Warn("mqtt broker not reachable yet, retrying in background",
				logger.String("broker", p.config.Broker))
			return nil
		}
		return errors.New(err).
			Component("events").
			Category(errors.CategoryMQTTConnection).
			Context("broker", p.config.Broker).
			Build()
	}
	return nil
}

// Publish sends event to the configured topic.
func (p *MQTTPublisher) Publish(ctx context.Context, event SightingCreated) (err error) {
	start := time.Now()
	defer func() { recordPublish(p.metrics, mqttPublisherName, start, err) }()

	if !p.client.IsConnected() {
		return errors.Newf("mqtt client is not connected").
			Component("events").
			Category(errors.CategoryMQTTConnection).
			Context("broker", p.config.Broker).
			Build()
	}

	payload, err := event.encode()
	if err != nil {
		return err
	}

	token := p.client.Publish(p.config.Topic, p.config.QoS, p.config.Retain, payload)
	if err := waitToken(ctx, token, mqttPublishTimeout); err != nil {
		return errors.New(err).
			Component("events").
			Category(errors.CategoryMQTTPublish).
			Context("topic", p.config.Topic).
			Context("sighting_id", event.Sighting.ID).
			Build()
	}

	p.log.Debug("sighting event published",
		logger.String("topic", p.config.Topic),
		logger.String("sighting_id", event.Sighting.ID),
		logger.Int("bytes", len(payload)))
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(mqttDisconnectMS)
	}
	p.metrics.UpdateConnectionStatus(mqttPublisherName, false)
	return nil
}

func (p *MQTTPublisher) onConnect(_ mqtt.Client) {
	p.log.Info("connected to mqtt broker", logger.String("broker", p.config.Broker))
	p.metrics.UpdateConnectionStatus(mqttPublisherName, true)
}

func (p *MQTTPublisher) onConnectionLost(_ mqtt.Client, err error) {
	p.log.Warn("connection to mqtt broker lost",
		logger.String("broker", p.config.Broker),
		logger.Error(err))
	p.metrics.UpdateConnectionStatus(mqttPublisherName, false)
	p.metrics.RecordError(mqttPublisherName, string(errors.CategoryMQTTConnection))
}

// waitToken blocks until token completes, ctx ends or timeout elapses.
func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return errors.New(ctx.Err()).
			Component("events").
			Category(errors.CategoryCancellation).
			Build()
	case <-timer.C:
		return errors.Newf("mqtt operation timed out after %s", timeout).
			Component("events").
			Category(errors.CategoryTimeout).
			Build()
	}
}
