package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/panot-hq/edge-backend/pkg/common"
	pgdb "github.com/panot-hq/edge-backend/pkg/db/pgx"
	"github.com/panot-hq/edge-backend/pkg/logger"
	"github.com/panot-hq/edge-backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.Store on PostgreSQL with pgvector for
// similarity search. Each WithTx call maps to one database transaction.
type GraphDBStorage struct {
	conn pgxIConn
}

var _ store.Store = (*GraphDBStorage)(nil)

func NewGraphDBStorage(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

// NewPool opens a pgx pool with the pgvector types registered on every
// connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgxv5.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (s *GraphDBStorage) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgxv5.ErrTxClosed) {
			logger.Warn("[Store] Rollback failed", "err", err)
		}
	}()

	if err := fn(&txStore{q: pgdb.New(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txStore struct {
	q *pgdb.Queries
}

var _ store.Tx = (*txStore)(nil)

// mapErr converts driver errors into the common error kinds.
func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.NotFound(op, "")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return common.Conflict(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func rowsOrNotFound(op string, n int64, err error) error {
	if err != nil {
		return mapErr(op, err)
	}
	if n == 0 {
		return common.NotFound(op, "")
	}
	return nil
}
