package protocol

import (
	"context"

	"github.com/xraph/paystream/stream"
)

// ErrInvalidAddress is shared with stream validation.
var ErrInvalidAddress = stream.ErrInvalidAddress

// Store persists the protocol singleton.
type Store interface {
	CreateConfig(ctx context.Context, c *Config) error
	GetConfig(ctx context.Context) (*Config, error)
	UpdateConfig(ctx context.Context, c *Config) error
}
