package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoOnlineCharacter is returned when an account has no character row
// flagged online; the synthetic PLAYER_LOGIN forward is simply skipped in
// that case, it is not an error condition.
var ErrNoOnlineCharacter = errors.New("db: no online character for account")

// CharacterRepository answers the two questions this repository ever asks
// of the characters table: does an account have a character currently
// marked online, and what are the static details of a given character.
type CharacterRepository struct {
	pool *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by pool.
func NewCharacterRepository(pool *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

// ErrCharacterNotFound is returned when a guid has no matching characters
// row.
var ErrCharacterNotFound = errors.New("db: character not found")

// CharacterByGUID reads the static slice of a characters row the item/
// character cache holds on to. Satisfies itemcache.CharacterSource.
func (r *CharacterRepository) CharacterByGUID(ctx context.Context, guid uint64) (account uint32, name string, level uint8, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT account, name, level FROM characters WHERE guid = $1`,
		guid,
	).Scan(&account, &name, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, "", 0, ErrCharacterNotFound
		}
		return 0, "", 0, fmt.Errorf("querying character %d: %w", guid, err)
	}
	return account, name, level, nil
}

// OnlineCharacterGUID returns the guid of the account's online character, if
// any. Returns ErrNoOnlineCharacter when none is online.
func (r *CharacterRepository) OnlineCharacterGUID(ctx context.Context, accountID uint32) (uint64, error) {
	var guid uint64
	err := r.pool.QueryRow(ctx,
		`SELECT guid FROM characters WHERE account = $1 AND online = 1`,
		accountID,
	).Scan(&guid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoOnlineCharacter
		}
		return 0, fmt.Errorf("querying online character for account %d: %w", accountID, err)
	}
	return guid, nil
}
