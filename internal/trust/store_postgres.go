package trust

import (
	"context"
	"database/sql"
	"fmt"
)

// querier abstracts *sql.DB and *sql.Tx so the consent flow can run the
// grant inside a transaction with the same store code.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists trust roots in PostgreSQL.
type PostgresStore struct {
	q querier
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{q: db}
}

// NewPostgresTx binds the store to an open transaction.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{q: tx}
}

func (s *PostgresStore) Exists(ctx context.Context, identityID, trustRoot string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM trusted_roots
			WHERE identity_id = $1 AND trust_root = $2
		)
	`
	var exists bool
	if err := s.q.QueryRowContext(ctx, query, identityID, trustRoot).Scan(&exists); err != nil {
		return false, fmt.Errorf("check trust root: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec TrustRoot) error {
	query := `
		INSERT INTO trusted_roots (id, identity_id, trust_root)
		VALUES ($1, $2, $3)
	`
	if _, err := s.q.ExecContext(ctx, query, rec.ID, rec.IdentityID, rec.TrustRoot); err != nil {
		return fmt.Errorf("create trust root: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByIdentity(ctx context.Context, identityID string) ([]TrustRoot, error) {
	query := `
		SELECT id, identity_id, trust_root
		FROM trusted_roots
		WHERE identity_id = $1
		ORDER BY id
	`
	rows, err := s.q.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, fmt.Errorf("list trust roots: %w", err)
	}
	defer rows.Close()

	var out []TrustRoot
	for rows.Next() {
		var rec TrustRoot
		if err := rows.Scan(&rec.ID, &rec.IdentityID, &rec.TrustRoot); err != nil {
			return nil, fmt.Errorf("scan trust root: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trust roots: %w", err)
	}
	return out, nil
}
