package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAccountNotFound is returned when a username has no matching row in
// accounts, or the row's session key is empty. Callers close the
// connection on it; there is no retry path.
var ErrAccountNotFound = errors.New("db: account not found")

// AccountRepository reads the sessionKey an upstream auth server stored for
// an account. It never writes; accounts are provisioned elsewhere.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates an AccountRepository backed by pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// SessionKeyByUsername looks up (accountID, sessionKeyHex) by username.
// Returns ErrAccountNotFound if no usable row matches.
func (r *AccountRepository) SessionKeyByUsername(ctx context.Context, username string) (accountID uint32, sessionKeyHex string, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT guid, "sessionKey" FROM accounts WHERE username = $1`,
		username,
	).Scan(&accountID, &sessionKeyHex)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", ErrAccountNotFound
		}
		return 0, "", fmt.Errorf("querying session key for %q: %w", username, err)
	}
	if sessionKeyHex == "" {
		return 0, "", ErrAccountNotFound
	}
	return accountID, sessionKeyHex, nil
}
