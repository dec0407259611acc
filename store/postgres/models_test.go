package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/types"
)

func TestStreamModelNullableDelegate(t *testing.T) {
	s := stream.New(3, stream.CreateParams{
		Sender: "GS", Recipient: "GR", Token: "GT",
		TotalAmount: 900, InitialAmount: 0, StartTime: 0, EndTime: 90,
	})

	m := toStreamModel(s)
	assert.Nil(t, m.Delegate)
	assert.Equal(t, "Active", m.Status)

	s.Delegate = types.AddressPtr("GD")
	m = toStreamModel(s)
	require.NotNil(t, m.Delegate)
	assert.Equal(t, "GD", *m.Delegate)

	empty := ""
	m.Delegate = &empty
	assert.Nil(t, fromStreamModel(m).Delegate)
}

func TestConfigModelRow(t *testing.T) {
	c, err := protocol.New("GADMIN", "GFEES", 10_000)
	require.NoError(t, err)

	m := toConfigModel(c)
	assert.Equal(t, configRowID, m.ID)
	assert.Equal(t, uint32(10_000), fromConfigModel(m).FeeRateBps)
}
