// Package protocol holds the singleton configuration of a paystream
// deployment: its administrator, fee policy and stream id counter.
package protocol

import (
	"fmt"

	"github.com/xraph/paystream/fee"
	"github.com/xraph/paystream/types"
)

// FirstStreamID is the id handed to the first stream ever created.
const FirstStreamID uint64 = 1

// Config is written once by Initialize and never deleted.
type Config struct {
	types.Entity
	Admin        types.Address `json:"admin"`
	FeeCollector types.Address `json:"fee_collector"`
	FeeRateBps   uint32        `json:"fee_rate_bps"`
	NextStreamID uint64        `json:"next_stream_id"`
}

// New validates the inputs and returns a fresh Config.
func New(admin, feeCollector types.Address, feeRateBps uint32) (*Config, error) {
	if admin.IsZero() {
		return nil, fmt.Errorf("protocol: admin: %w", ErrInvalidAddress)
	}
	if feeCollector.IsZero() {
		return nil, fmt.Errorf("protocol: fee collector: %w", ErrInvalidAddress)
	}
	if err := fee.ValidateRate(feeRateBps); err != nil {
		return nil, err
	}
	return &Config{
		Entity:       types.NewEntity(),
		Admin:        admin,
		FeeCollector: feeCollector,
		FeeRateBps:   feeRateBps,
		NextStreamID: FirstStreamID,
	}, nil
}

// AllocateStreamID returns the next stream id and advances the counter.
func (c *Config) AllocateStreamID() uint64 {
	sid := c.NextStreamID
	c.NextStreamID++
	c.Touch()
	return sid
}

// StreamsCreated is the number of ids handed out so far.
func (c *Config) StreamsCreated() uint64 {
	if c.NextStreamID < FirstStreamID {
		return 0
	}
	return c.NextStreamID - FirstStreamID
}
