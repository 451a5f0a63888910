package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	pub := NewKafkaPublisher(w, zap.NewNop())

	evt := Event{
		Method: "distribute_reward",
		Caller: "admin",
		Attributes: []Attribute{
			NewAttribute("method", "distribute_reward"),
			NewAttribute("reward_id", "reward_0"),
		},
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, pub.Publish(context.Background(), evt))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	require.Equal(t, "admin", string(msg.Key))
	require.Equal(t, "method", msg.Headers[0].Key)
	require.Equal(t, "distribute_reward", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, evt, decoded)

	require.NoError(t, pub.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker down")
	pub := NewKafkaPublisher(&fakeWriter{err: boom}, nil)
	require.ErrorIs(t, pub.Publish(context.Background(), Event{Method: "claim_reward"}), boom)
}

func TestLogPublisher(t *testing.T) {
	pub := NewLogPublisher(nil)
	require.NoError(t, pub.Publish(context.Background(), Event{Method: "update_config"}))
	require.NoError(t, pub.Close())
}
