package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/protocol"
	psstore "github.com/xraph/paystream/store"
	"github.com/xraph/paystream/stream"
)

// Collection name constants.
const (
	colConfig  = "paystream_config"
	colStreams = "paystream_streams"
)

// compile-time interface check
var _ psstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all paystream collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("paystream/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Protocol Store ====================

func (s *Store) CreateConfig(ctx context.Context, c *protocol.Config) error {
	m := toConfigModel(c)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return paystream.ErrAlreadyInitialized
		}
		return fmt.Errorf("paystream/mongo: create config: %w", err)
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context) (*protocol.Config, error) {
	var m configModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": configDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, paystream.ErrNotInitialized
		}
		return nil, fmt.Errorf("paystream/mongo: get config: %w", err)
	}
	return fromConfigModel(&m), nil
}

func (s *Store) UpdateConfig(ctx context.Context, c *protocol.Config) error {
	m := toConfigModel(c)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": configDocID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("paystream/mongo: update config: %w", err)
	}
	if res.MatchedCount() == 0 {
		return paystream.ErrNotInitialized
	}
	return nil
}

// ==================== Stream Store ====================

func (s *Store) CreateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrAlreadyExists)
		}
		return fmt.Errorf("paystream/mongo: create stream: %w", err)
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(streamID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("stream %d: %w", streamID, paystream.ErrNotFound)
		}
		return nil, fmt.Errorf("paystream/mongo: get stream: %w", err)
	}
	return fromStreamModel(&m), nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("paystream/mongo: update stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrNotFound)
	}
	return nil
}

func (s *Store) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel

	filter := bson.M{}
	if opts.Sender != "" {
		filter["sender"] = opts.Sender
	}
	if opts.Recipient != "" {
		filter["recipient"] = opts.Recipient
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("paystream/mongo: list streams: %w", err)
	}

	result := make([]*stream.Stream, len(models))
	for i := range models {
		result[i] = fromStreamModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteStream(ctx context.Context, streamID uint64) error {
	_, err := s.mdb.NewDelete((*streamModel)(nil)).
		Filter(bson.M{"_id": int64(streamID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("paystream/mongo: delete stream: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all paystream collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colConfig: {},
		colStreams: {
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "token", Value: 1}}},
			{
				Keys:    bson.D{{Key: "delegate", Value: 1}},
				Options: options.Index().SetSparse(true),
			},
		},
	}
}
