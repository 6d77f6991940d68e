package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
)

// #region mocks
type mockToken struct{ err error }

func (t *mockToken) Wait() bool                       { return true }
func (t *mockToken) WaitTimeout(_ time.Duration) bool { return true }
func (t *mockToken) Done() <-chan struct{}            { ch := make(chan struct{}); close(ch); return ch }
func (t *mockToken) Error() error                     { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	mu           sync.Mutex
	connectErr   error
	publishErr   error
	messages     []published
	disconnected bool
}

func (c *mockClient) Connect() paho.Token { return &mockToken{err: c.connectErr} }

func (c *mockClient) Publish(topic string, qos byte, _ bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return &mockToken{err: c.publishErr}
}

func (c *mockClient) Disconnect(uint) { c.disconnected = true }

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("broker down") }
func (failing) Close()                               {}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &buf
}

// #endregion mocks

func TestMQTTPublisher_PublishesJSON(t *testing.T) {
	c := &mockClient{}
	p, err := newMQTTPublisher(c, "behavior/progress")
	require.NoError(t, err)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, p.Publish(context.Background(), Event{
		Name:      DemoFinished,
		Demo:      "cleaning_0.hdf5",
		Fields:    map[string]any{"task_done": true},
		Timestamp: ts,
	}))
	p.Close()

	require.Len(t, c.messages, 1)
	msg := c.messages[0]
	assert.Equal(t, "behavior/progress", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var got Event
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, DemoFinished, got.Name)
	assert.Equal(t, "cleaning_0.hdf5", got.Demo)
	assert.Equal(t, true, got.Fields["task_done"])
	assert.True(t, got.Timestamp.Equal(ts))
	assert.True(t, c.disconnected)
}

func TestMQTTPublisher_ConnectError(t *testing.T) {
	_, err := newMQTTPublisher(&mockClient{connectErr: errors.New("refused")}, "t")
	assert.ErrorContains(t, err, "refused")
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	p, err := newMQTTPublisher(&mockClient{publishErr: errors.New("not connected")}, "t")
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), Event{Name: RunStarted}))
}

func TestEmit_StampsAndLogsFailures(t *testing.T) {
	buf := captureLogs(t)

	c := &mockClient{}
	p, err := newMQTTPublisher(c, "t")
	require.NoError(t, err)
	Emit(context.Background(), p, Event{Name: RunStarted})

	var got Event
	require.NoError(t, json.Unmarshal(c.messages[0].payload, &got))
	assert.False(t, got.Timestamp.IsZero())

	Emit(context.Background(), failing{}, Event{Name: RunFinished})
	assert.Contains(t, buf.String(), "broker down")

	// nil publisher is a no-op
	Emit(context.Background(), nil, Event{Name: RunFinished})
}

func TestLogPublisher(t *testing.T) {
	buf := captureLogs(t)

	p := LogPublisher{}
	require.NoError(t, p.Publish(context.Background(), Event{Name: DemoSkipped, Demo: "a.hdf5", Fields: map[string]any{"reason": "exists"}}))
	out := buf.String()
	assert.Contains(t, out, "event=demo_skipped")
	assert.Contains(t, out, "demo=a.hdf5")
	assert.Contains(t, out, "reason=exists")
}

func TestLogPublisher_ExplicitLevel(t *testing.T) {
	buf := captureLogs(t)

	debug := logrus.DebugLevel
	require.NoError(t, LogPublisher{Level: &debug}.Publish(context.Background(), Event{Name: RunStarted}))
	assert.Empty(t, buf.String(), "debug is below the logger level")

	panicLevel := logrus.PanicLevel
	assert.Panics(t, func() {
		_ = LogPublisher{Level: &panicLevel}.Publish(context.Background(), Event{Name: RunStarted})
	})
	assert.Contains(t, buf.String(), "level=panic")
}
