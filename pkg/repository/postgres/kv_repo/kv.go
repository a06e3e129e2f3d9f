package kvrepo

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/structs"
	"storefront/pkg/db"
	"storefront/pkg/logger"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrSchemaMissing = errors.New("kv_store table is missing, run migrations")

type (
	Params struct {
		fx.In
		Logger logger.Logger
		DB     db.Querier
	}

	Repo interface {
		Get(ctx context.Context, key string) ([]byte, error)
		Set(ctx context.Context, key string, value []byte) error
		Delete(ctx context.Context, key string) error
		Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	}

	repo struct {
		logger logger.Logger
		db     db.Querier
	}
)

func New(p Params) Repo {
	return &repo{
		logger: p.Logger,
		db:     p.DB,
	}
}

func pgxErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return ErrSchemaMissing
	}
	return err
}

func (r repo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, structs.ErrNotFound
		}
		r.logger.Error(ctx, "failed to get kv", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("repo: failed get kv: %w", pgxErr(err))
	}
	return value, nil
}

func (r repo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
		key, value)
	if err != nil {
		r.logger.Error(ctx, "failed to set kv", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("repo: failed set kv: %w", pgxErr(err))
	}
	return nil
}

func (r repo) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("repo: failed delete kv: %w", pgxErr(err))
	}
	return nil
}

// Update locks the row (when present) for the duration of fn.
func (r repo) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repo: begin kv update: %w", pgxErr(err))
	}
	defer func() {
		if errRollback := tx.Rollback(ctx); errRollback != nil && !errors.Is(errRollback, pgx.ErrTxClosed) {
			r.logger.Error(ctx, "error rolling back transaction", zap.Error(errRollback))
		}
	}()

	var current []byte
	err = tx.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`, key).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("repo: read kv for update: %w", pgxErr(err))
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if next == nil {
		_, err = tx.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
			ON CONFLICT (key) DO UPDATE SET value = $2, updated_at = NOW()`,
			key, next)
	}
	if err != nil {
		return fmt.Errorf("repo: write kv: %w", pgxErr(err))
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error(ctx, "error committing transaction", zap.Error(err))
		return fmt.Errorf("repo: commit kv update: %w", err)
	}
	return nil
}
