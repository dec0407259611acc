package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

func newStream(sid uint64, sender, recipient types.Address) *stream.Stream {
	return stream.New(sid, stream.CreateParams{
		Sender: sender, Recipient: recipient, Token: "GTOKEN",
		TotalAmount: 100, InitialAmount: 10, StartTime: 0, EndTime: 10,
	})
}

func TestConfig(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.GetConfig(ctx)
	assert.ErrorIs(t, err, paystream.ErrNotInitialized)

	cfg, err := protocol.New("GADMIN", "GFEES", 100)
	require.NoError(t, err)
	require.NoError(t, s.CreateConfig(ctx, cfg))
	assert.ErrorIs(t, s.CreateConfig(ctx, cfg), paystream.ErrAlreadyInitialized)

	cfg.AllocateStreamID()
	got, err := s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.NextStreamID, "store must not alias caller record")

	require.NoError(t, s.UpdateConfig(ctx, cfg))
	got, err = s.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.NextStreamID)
}

func TestStreamCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	st := newStream(1, "GS", "GR")
	require.NoError(t, s.CreateStream(ctx, st))
	assert.ErrorIs(t, s.CreateStream(ctx, st), paystream.ErrAlreadyExists)

	got, err := s.GetStream(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, st.TotalAmount, got.TotalAmount)

	got.Delegate = types.AddressPtr("GD")
	again, err := s.GetStream(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, again.Delegate)

	require.NoError(t, s.UpdateStream(ctx, got))
	again, err = s.GetStream(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, again.Delegate)

	_, err = s.GetStream(ctx, 2)
	assert.ErrorIs(t, err, paystream.ErrNotFound)
	assert.ErrorIs(t, s.UpdateStream(ctx, newStream(2, "GS", "GR")), paystream.ErrNotFound)

	require.NoError(t, s.DeleteStream(ctx, 1))
	_, err = s.GetStream(ctx, 1)
	assert.ErrorIs(t, err, paystream.ErrNotFound)
}

func TestListStreams(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.CreateStream(ctx, newStream(3, "GA", "GB")))
	require.NoError(t, s.CreateStream(ctx, newStream(1, "GA", "GC")))
	paused := newStream(2, "GX", "GB")
	paused.Status = stream.StatusPaused
	require.NoError(t, s.CreateStream(ctx, paused))

	all, err := s.ListStreams(ctx, stream.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{all[0].ID, all[1].ID, all[2].ID})

	bySender, err := s.ListStreams(ctx, stream.ListOpts{Sender: "GA"})
	require.NoError(t, err)
	assert.Len(t, bySender, 2)

	byRecipient, err := s.ListStreams(ctx, stream.ListOpts{Recipient: "GB", Status: stream.StatusPaused})
	require.NoError(t, err)
	require.Len(t, byRecipient, 1)
	assert.Equal(t, uint64(2), byRecipient[0].ID)

	page, err := s.ListStreams(ctx, stream.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uint64(2), page[0].ID)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), paystream.ErrStoreClosed)
}
