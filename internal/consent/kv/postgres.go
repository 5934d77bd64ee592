package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Postgres persists values in the consent_values table (see migrations).
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) Get(ctx context.Context, name string) (string, bool, error) {
	query := `
		SELECT value
		FROM consent_values
		WHERE name = $1 AND (expires_at IS NULL OR expires_at > $2)
	`
	var value string
	err := p.db.QueryRowContext(ctx, query, name, p.now()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get consent value: %w", err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, name, value string, attrs Attributes) error {
	if attrs.MaxAge < 0 {
		return p.Delete(ctx, name, attrs)
	}
	now := p.now()
	var expiresAt sql.NullTime
	if exp := attrs.expiresAt(now); !exp.IsZero() {
		expiresAt = sql.NullTime{Time: exp, Valid: true}
	}
	query := `
		INSERT INTO consent_values (name, value, path, domain, secure, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value,
			path = EXCLUDED.path,
			domain = EXCLUDED.domain,
			secure = EXCLUDED.secure,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := p.db.ExecContext(ctx, query, name, value, attrs.path(), attrs.Domain, attrs.Secure, expiresAt, now)
	if err != nil {
		return fmt.Errorf("set consent value: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, name string, _ Attributes) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM consent_values WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete consent value: %w", err)
	}
	return nil
}

var _ Store = (*Postgres)(nil)
