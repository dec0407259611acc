package stream

import "context"

// Store persists stream records.
type Store interface {
	Create(ctx context.Context, s *Stream) error
	Get(ctx context.Context, streamID uint64) (*Stream, error)
	Update(ctx context.Context, s *Stream) error
	List(ctx context.Context, opts ListOpts) ([]*Stream, error)
}

// ListOpts filters stream listings. Zero-valued fields do not filter.
type ListOpts struct {
	Sender    string
	Recipient string
	Status    Status
	Limit     int
	Offset    int
}
