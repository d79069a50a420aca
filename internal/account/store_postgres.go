package account

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists accounts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, username, email, full_name, password_hash`

func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE username = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

func (s *PostgresStore) Save(ctx context.Context, acc Account) error {
	query := `
		INSERT INTO accounts (id, username, email, full_name, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			password_hash = EXCLUDED.password_hash
	`
	if _, err := s.db.ExecContext(ctx, query, acc.ID, acc.Username, acc.Email, acc.FullName, acc.PasswordHash); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (Account, error) {
	var acc Account
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.FullName, &acc.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return Account{}, ErrNotFound
		}
		return Account{}, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}
