package event_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream/event"
)

type granted struct {
	StreamID uint64 `json:"stream_id"`
	Delegate string `json:"delegate"`
}

func TestLogPublish(t *testing.T) {
	ctx := context.Background()
	log := event.NewLog()

	require.NoError(t, log.Publish(ctx, event.TopicDelegationGranted, 3, granted{StreamID: 3, Delegate: "GD"}))
	require.NoError(t, log.Publish(ctx, event.TopicDelegationRevoked, 3, map[string]any{"stream_id": 3}))

	all := log.All()
	require.Len(t, all, 2)
	assert.Equal(t, uint64(3), all[0].StreamID)
	assert.False(t, all[0].ID.IsNil())

	got := log.ByTopic(event.TopicDelegationGranted)
	require.Len(t, got, 1)
	var payload granted
	require.NoError(t, got[0].Decode(&payload))
	assert.Equal(t, "GD", payload.Delegate)
}

func TestNewRejectsUnencodable(t *testing.T) {
	_, err := event.New(event.TopicDelegationGranted, 1, make(chan int))
	assert.Error(t, err)
}

type failing struct{ err error }

func (f failing) Publish(context.Context, event.Topic, uint64, any) error { return f.err }

func TestFanout(t *testing.T) {
	ctx := context.Background()
	log := event.NewLog()
	boom := errors.New("broker down")

	f := event.Fanout{log, event.Nop{}, failing{boom}}
	err := f.Publish(ctx, event.TopicDelegationRevoked, 1, struct{}{})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, log.All(), 1)

	require.NoError(t, event.Fanout{log}.Publish(ctx, event.TopicDelegationRevoked, 1, struct{}{}))
}
