package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Identity carries the ids that tie one migration run together. The
// source ids come from the initial lookup; TargetCharID is assigned
// exactly once, by the character_data copier, and every per-character
// copier after it keys its rows on that value.
type Identity struct {
	Name            string
	SourceCharID    int64
	SourceAccountID int64
	AccountName     string
	LoginAccountID  int64
	TargetAccountID int64
	TargetCharID    int64

	// reuseCharID is set when a character of the same name already
	// exists in the target; its id is kept so a re-run rewrites the
	// same rows instead of minting a new character.
	reuseCharID bool
}

// characterTables lists every target table holding per-character rows,
// with the column that carries the character id. Used both to clear a
// previously migrated character and to document exactly what a re-run
// will rewrite. Account-level tables are deliberately absent.
var characterTables = []struct {
	table    string
	idColumn string
}{
	{"character_alternate_abilities", "id"},
	{"character_bind", "id"},
	{"character_currency", "id"},
	{"character_data", "id"},
	{"faction_values", "char_id"},
	{"inventory", "character_id"},
	{"character_languages", "id"},
	{"keyring", "char_id"},
	{"character_spells", "id"},
	{"character_memmed_spells", "id"},
	{"character_skills", "id"},
}

// resolve looks the character up in the source database together with
// its owning account. Absence is fatal; nothing has been written yet.
func (t *Transfer) resolve(ctx context.Context, name string) error {
	t.id.Name = name
	err := t.src.QueryRow(ctx,
		`SELECT c.id, c.account_id, a.name, a.lsaccount_id
		 FROM character_data AS c
		 INNER JOIN account AS a ON a.id = c.account_id
		 WHERE c.name = $1`, name,
	).Scan(&t.id.SourceCharID, &t.id.SourceAccountID, &t.id.AccountName, &t.id.LoginAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &CharacterNotFoundError{Name: name}
	}
	if err != nil {
		return fmt.Errorf("look up source character: %w", err)
	}

	t.log.Info("found source character",
		zap.String("name", name),
		zap.Int64("char_id", t.id.SourceCharID),
		zap.Int64("account_id", t.id.SourceAccountID),
		zap.String("account", t.id.AccountName))
	return nil
}

// clearTarget deletes any previously migrated per-character rows so a
// re-run starts from a clean slate. The existing target character id is
// kept for reuse. Account-level rows are never touched here.
func (t *Transfer) clearTarget(ctx context.Context) error {
	var existing int64
	err := t.dst.QueryRow(ctx,
		`SELECT id FROM character_data WHERE name = $1`, t.id.Name,
	).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		t.log.Info("no existing target character, first time import",
			zap.String("name", t.id.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("probe target character: %w", err)
	}

	t.id.TargetCharID = existing
	t.id.reuseCharID = true
	t.log.Info("existing target character found, clearing previous import",
		zap.String("name", t.id.Name), zap.Int64("char_id", existing))

	tx, err := t.dst.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, ct := range characterTables {
		sql := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, ct.table, ct.idColumn)
		if _, err := tx.Exec(ctx, sql, existing); err != nil {
			return fmt.Errorf("clear %s: %w", ct.table, err)
		}
	}
	return tx.Commit(ctx)
}

// mapTargetAccount resolves the target account id by account name.
// Account ids are not stable across the two databases, so the name is
// the only reliable join key; a miss here means the account copy step
// never committed.
func (t *Transfer) mapTargetAccount(ctx context.Context) error {
	err := t.dst.QueryRow(ctx,
		`SELECT id FROM account WHERE name = $1`, t.id.AccountName,
	).Scan(&t.id.TargetAccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &AccountMappingError{Account: t.id.AccountName}
	}
	if err != nil {
		return fmt.Errorf("map target account: %w", err)
	}
	t.log.Info("mapped account",
		zap.String("account", t.id.AccountName),
		zap.Int64("source_id", t.id.SourceAccountID),
		zap.Int64("target_id", t.id.TargetAccountID))
	return nil
}
