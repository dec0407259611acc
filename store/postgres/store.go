package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/protocol"
	psstore "github.com/xraph/paystream/store"
	"github.com/xraph/paystream/stream"
)

// compile-time interface check
var _ psstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("paystream/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("paystream/postgres: %w: %w", paystream.ErrMigrationFailed, err)
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
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return paystream.ErrAlreadyInitialized
	}
	return nil
}

func (s *Store) GetConfig(ctx context.Context) (*protocol.Config, error) {
	m := new(configModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", configRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, paystream.ErrNotInitialized
		}
		return nil, err
	}
	return fromConfigModel(m), nil
}

func (s *Store) UpdateConfig(ctx context.Context, c *protocol.Config) error {
	m := toConfigModel(c)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return paystream.ErrNotInitialized
	}
	return nil
}

// ==================== Stream Store ====================

func (s *Store) CreateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrAlreadyExists)
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(streamID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("stream %d: %w", streamID, paystream.ErrNotFound)
		}
		return nil, err
	}
	return fromStreamModel(m), nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("stream %d: %w", st.ID, paystream.ErrNotFound)
	}
	return nil
}

func (s *Store) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Sender != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("sender = $%d", argIdx), opts.Sender)
	}
	if opts.Recipient != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("recipient = $%d", argIdx), opts.Recipient)
	}
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*stream.Stream, len(models))
	for i := range models {
		result[i] = fromStreamModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteStream(ctx context.Context, streamID uint64) error {
	_, err := s.pg.NewDelete((*streamModel)(nil)).
		Where("id = $1", int64(streamID)).
		Exec(ctx)
	return err
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
