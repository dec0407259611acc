package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/store"
	"github.com/xraph/paystream/stream"
)

var _ store.Store = (*Store)(nil)

// Store keeps every record in process memory. Records are copied on the
// way in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	// Protocol singleton
	config *protocol.Config

	// Stream storage
	streams map[uint64]*stream.Stream

	closed bool
}

func New() *Store {
	return &Store{
		streams: make(map[uint64]*stream.Stream),
	}
}

// Protocol config Store implementation
func (s *Store) CreateConfig(_ context.Context, c *protocol.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return paystream.ErrStoreClosed
	}
	if s.config != nil {
		return paystream.ErrAlreadyInitialized
	}
	cp := *c
	s.config = &cp
	return nil
}

func (s *Store) GetConfig(_ context.Context) (*protocol.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil, paystream.ErrNotInitialized
	}
	cp := *s.config
	return &cp, nil
}

func (s *Store) UpdateConfig(_ context.Context, c *protocol.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return paystream.ErrNotInitialized
	}
	cp := *c
	s.config = &cp
	return nil
}

// Stream Store implementation
func (s *Store) CreateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return paystream.ErrStoreClosed
	}
	if _, exists := s.streams[st.ID]; exists {
		return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrAlreadyExists)
	}
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) GetStream(_ context.Context, streamID uint64) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.streams[streamID]; ok {
		return st.Clone(), nil
	}
	return nil, fmt.Errorf("stream %d: %w", streamID, paystream.ErrNotFound)
}

func (s *Store) UpdateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.streams[st.ID]; !exists {
		return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrNotFound)
	}
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) ListStreams(_ context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*stream.Stream, 0)
	for _, st := range s.streams {
		if opts.Sender != "" && string(st.Sender) != opts.Sender {
			continue
		}
		if opts.Recipient != "" && string(st.Recipient) != opts.Recipient {
			continue
		}
		if opts.Status != "" && st.Status != opts.Status {
			continue
		}
		result = append(result, st.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) DeleteStream(_ context.Context, streamID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.streams, streamID)
	return nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return paystream.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
