package account

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "openid-provider/pkg/domain-errors"
)

// Service wraps credential checks around the account store. The OpenID
// core only needs Authenticate for the interactive login detour.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Authenticate verifies a username/password pair and returns the account.
// Unknown users and bad passwords both come back as CodeUnauthorized so
// callers cannot distinguish the two.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Account, error) {
	acc, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return acc, nil
}

// HashPassword is used by seeding and account provisioning.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
