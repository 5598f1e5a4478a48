package transfer

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// CharacterNotFoundError means the named character has no row in the
// source database. Nothing has been written when this is returned.
type CharacterNotFoundError struct {
	Name string
}

func (e *CharacterNotFoundError) Error() string {
	return fmt.Sprintf("character %q does not exist in the source database", e.Name)
}

// AccountMappingError means the target database has no account row for
// the source account's name at a point where the account copy step
// should already have created one.
type AccountMappingError struct {
	Account string
}

func (e *AccountMappingError) Error() string {
	return fmt.Sprintf("no target account named %q; account copy step did not run or did not commit", e.Account)
}

// isDuplicateKey reports whether err is a unique-constraint violation
// (SQLSTATE 23505). Account inserts treat these as "already present".
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
