package store

import (
	"context"

	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/stream"
)

// Store is the unified storage interface for all paystream records.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Protocol config methods
	CreateConfig(ctx context.Context, c *protocol.Config) error
	GetConfig(ctx context.Context) (*protocol.Config, error)
	UpdateConfig(ctx context.Context, c *protocol.Config) error

	// Stream methods
	CreateStream(ctx context.Context, s *stream.Stream) error
	GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error)
	UpdateStream(ctx context.Context, s *stream.Stream) error
	ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error)
	DeleteStream(ctx context.Context, streamID uint64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
