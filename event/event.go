// Package event publishes stream notifications to external consumers.
package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/paystream/id"
)

// Topic names an event stream.
type Topic string

const (
	TopicDelegationGranted Topic = "DelegationGranted"
	TopicDelegationRevoked Topic = "DelegationRevoked"
)

// Event is a published notification keyed by (Topic, StreamID).
type Event struct {
	ID          id.ID           `json:"id"`
	Topic       Topic           `json:"topic"`
	StreamID    uint64          `json:"stream_id"`
	Payload     json.RawMessage `json:"payload"`
	PublishedAt time.Time       `json:"published_at"`
}

// New encodes payload into an Event.
func New(topic Topic, streamID uint64, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("event: encode %s payload: %w", topic, err)
	}
	return &Event{
		ID:          id.NewEventID(),
		Topic:       topic,
		StreamID:    streamID,
		Payload:     raw,
		PublishedAt: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Emitter publishes events. A failed Publish rolls the operation back.
type Emitter interface {
	Publish(ctx context.Context, topic Topic, streamID uint64, payload any) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Emitter.
func (Nop) Publish(context.Context, Topic, uint64, any) error { return nil }

// Log keeps published events in memory, in order.
type Log struct {
	mu     sync.RWMutex
	events []*Event
}

// NewLog creates an empty Log.
func NewLog() *Log { return &Log{} }

// Publish implements Emitter.
func (l *Log) Publish(ctx context.Context, topic Topic, streamID uint64, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev, err := New(topic, streamID, payload)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	return nil
}

// All returns a snapshot of the recorded events.
func (l *Log) All() []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Event, len(l.events))
	copy(out, l.events)
	return out
}

// ByTopic returns recorded events for topic.
func (l *Log) ByTopic(topic Topic) []*Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []*Event
	for _, ev := range l.events {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

// Fanout publishes to every emitter and joins their errors.
type Fanout []Emitter

// Publish implements Emitter.
func (f Fanout) Publish(ctx context.Context, topic Topic, streamID uint64, payload any) error {
	var errs []error
	for _, e := range f {
		if err := e.Publish(ctx, topic, streamID, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
