package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"retailcore/internal/core/apperror"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Repo holds what every repository needs: the transaction manager and
// helpers that run squirrel statements through the querier bound to ctx.
// Embed it in concrete repositories.
type Repo struct {
	txm *TxManager
}

// NewRepo creates a Repo.
func NewRepo(txm *TxManager) Repo {
	return Repo{txm: txm}
}

// TxManager returns the transaction manager.
func (r Repo) TxManager() *TxManager {
	return r.txm
}

// Querier returns the transaction in ctx or the pool.
func (r Repo) Querier(ctx context.Context) Querier {
	return r.txm.GetQuerier(ctx)
}

// Get scans one row into dst. A missing row becomes NotFound for entity/key.
func (r Repo) Get(ctx context.Context, dst any, q squirrel.Sqlizer, entity string, key any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", entity, err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return fmt.Errorf("get %s: %w", entity, err)
	}
	return nil
}

// Find scans one row into dst and reports whether it existed.
func (r Repo) Find(ctx context.Context, dst any, q squirrel.Sqlizer) (bool, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.Querier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Select scans all rows into the slice pointed to by dst.
func (r Repo) Select(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, r.Querier(ctx), dst, sql, args...)
}

// Exec runs a statement.
func (r Repo) Exec(ctx context.Context, q squirrel.Sqlizer) (pgconn.CommandTag, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return pgconn.CommandTag{}, fmt.Errorf("build statement: %w", err)
	}
	return r.Querier(ctx).Exec(ctx, sql, args...)
}

// ExecOne runs a statement that must touch a row; otherwise NotFound.
func (r Repo) ExecOne(ctx context.Context, q squirrel.Sqlizer, entity string, key any) error {
	tag, err := r.Exec(ctx, q)
	if err != nil {
		return fmt.Errorf("write %s: %w", entity, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, key)
	}
	return nil
}

// QueryRow runs a statement with a RETURNING clause and scans into dest.
func (r Repo) QueryRow(ctx context.Context, q squirrel.Sqlizer, dest ...any) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	return r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(dest...)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
