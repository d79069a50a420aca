package identity

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists identities in PostgreSQL. Pure I/O; resolution
// rules live in the Resolver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID string) ([]Identity, error) {
	query := `
		SELECT id, account_id, identifier, is_default
		FROM identities
		WHERE account_id = $1
		ORDER BY identifier
	`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var id Identity
		if err := rows.Scan(&id.ID, &id.AccountID, &id.Identifier, &id.Default); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	query := `
		SELECT id, account_id, identifier, is_default
		FROM identities
		WHERE identifier = $1
	`
	var id Identity
	err := s.db.QueryRowContext(ctx, query, identifier).Scan(&id.ID, &id.AccountID, &id.Identifier, &id.Default)
	if err != nil {
		if err == sql.ErrNoRows {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("find identity: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Save(ctx context.Context, id Identity) error {
	query := `
		INSERT INTO identities (id, account_id, identifier, is_default)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			identifier = EXCLUDED.identifier,
			is_default = EXCLUDED.is_default
	`
	if _, err := s.db.ExecContext(ctx, query, id.ID, id.AccountID, id.Identifier, id.Default); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	return nil
}
