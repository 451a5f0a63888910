package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Attribute is one ordered key/value pair emitted by a successful command.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewAttribute(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Event is the audit record of a committed command.
type Event struct {
	Method     string      `json:"method"`
	Caller     string      `json:"caller"`
	Attributes []Attribute `json:"attributes"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// LogPublisher writes events to the logger only.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	fields := make([]zap.Field, 0, len(evt.Attributes)+2)
	fields = append(fields, zap.String("caller", evt.Caller), zap.Time("occurred_at", evt.OccurredAt))
	for _, a := range evt.Attributes {
		fields = append(fields, zap.String("attr."+a.Key, a.Value))
	}
	p.logger.Info("incentive.event", fields...)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

func encode(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}
