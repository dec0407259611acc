// Package redispub fans stream events out over Redis.
//
// Each event is PUBLISHed as JSON on "<prefix><topic>" and appended to the
// per-stream history list "<prefix>stream:<id>" so late consumers can replay
// it.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/paystream/event"
)

// DefaultPrefix is used when Options.Prefix is empty.
const DefaultPrefix = "paystream:"

// Options configures the publisher.
type Options struct {
	Prefix string
	// HistoryLimit caps the per-stream history list. Zero keeps everything.
	HistoryLimit int64
}

// Publisher implements event.Emitter on top of a Redis client.
type Publisher struct {
	client redis.UniversalClient
	opts   Options
}

var _ event.Emitter = (*Publisher)(nil)

// New wraps client.
func New(client redis.UniversalClient, opts Options) *Publisher {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	return &Publisher{client: client, opts: opts}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr string, opts Options) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redispub: connect %s: %w", addr, err)
	}
	return New(client, opts), nil
}

// Channel returns the pub/sub channel for topic.
func (p *Publisher) Channel(topic event.Topic) string {
	return p.opts.Prefix + string(topic)
}

func (p *Publisher) historyKey(streamID uint64) string {
	return p.opts.Prefix + "stream:" + strconv.FormatUint(streamID, 10)
}

// Publish implements event.Emitter.
func (p *Publisher) Publish(ctx context.Context, topic event.Topic, streamID uint64, payload any) error {
	ev, err := event.New(topic, streamID, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redispub: encode event: %w", err)
	}

	key := p.historyKey(streamID)
	pipe := p.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if p.opts.HistoryLimit > 0 {
		pipe.LTrim(ctx, key, -p.opts.HistoryLimit, -1)
	}
	pipe.Publish(ctx, p.Channel(topic), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redispub: publish %s for stream %d: %w", topic, streamID, err)
	}
	return nil
}

// History returns the recorded events of a stream, oldest first.
func (p *Publisher) History(ctx context.Context, streamID uint64) ([]*event.Event, error) {
	raw, err := p.client.LRange(ctx, p.historyKey(streamID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redispub: history for stream %d: %w", streamID, err)
	}
	out := make([]*event.Event, 0, len(raw))
	for _, r := range raw {
		var ev event.Event
		if err := json.Unmarshal([]byte(r), &ev); err != nil {
			return nil, fmt.Errorf("redispub: decode event: %w", err)
		}
		out = append(out, &ev)
	}
	return out, nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
