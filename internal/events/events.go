package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
)

// Event is a progress notification emitted by the batch drivers.
type Event struct {
	Name      string         `json:"name"`
	Demo      string         `json:"demo,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Names of the events the batch drivers publish.
const (
	RunStarted   = "run_started"
	DemoFinished = "demo_finished"
	DemoFailed   = "demo_failed"
	DemoSkipped  = "demo_skipped"
	RunFinished  = "run_finished"
)

// Publisher delivers progress events. Callers treat publish errors as
// non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

// Emit stamps the event and publishes it, logging any failure.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.GetLogger(ctx).WithError(err).WithField("event", e.Name).Warn("publish progress event")
	}
}

// #region log

// LogPublisher writes events to the context logger, at info level unless
// Level is set.
type LogPublisher struct {
	Level *logrus.Level
}

func (p LogPublisher) Publish(ctx context.Context, e Event) error {
	fields := logrus.Fields{"event": e.Name}
	if e.Demo != "" {
		fields["demo"] = e.Demo
	}
	for k, v := range e.Fields {
		fields[k] = v
	}
	level := logrus.InfoLevel
	if p.Level != nil {
		level = *p.Level
	}
	logging.GetLogger(ctx).WithFields(fields).Log(level, "progress")
	return nil
}

func (LogPublisher) Close() {}

// #endregion log

// #region mqtt

// mqttClient is the subset of paho.Client the publisher uses.
type mqttClient interface {
	Connect() paho.Token
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Disconnect(quiesce uint)
}

const mqttTimeout = 10 * time.Second

// MQTTPublisher publishes JSON events on a single topic at QoS 1.
type MQTTPublisher struct {
	client mqttClient
	topic  string
}

// NewMQTTPublisher connects to the broker at url.
func NewMQTTPublisher(url, clientID, topic string) (*MQTTPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(url).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)
	return newMQTTPublisher(paho.NewClient(opts), topic)
}

func newMQTTPublisher(c mqttClient, topic string) (*MQTTPublisher, error) {
	token := c.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &MQTTPublisher{client: c, topic: topic}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	token := p.client.Publish(p.topic, 1, false, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("mqtt publish timeout: %s", p.topic)
	}
	return token.Error()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// #endregion mqtt
