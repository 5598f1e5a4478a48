// Package transfer copies one named character from a TAKP-schema
// database to a PEQ-schema database: account rows, character rows, and
// inventory with slot-number translation.
//
// The run is a fixed linear pipeline. Each table is copied inside its
// own target-side transaction; there is no transaction spanning the two
// databases, so a failed run can leave a character partially migrated.
// Re-running is safe for every per-character table because the previous
// import is cleared first; account tables are copy-once and are never
// re-cleared.
package transfer

import (
	"context"
	"fmt"

	"github.com/eqmac/chartransfer/internal/persist"
	"github.com/eqmac/chartransfer/internal/slot"
	"go.uber.org/zap"
)

type Transfer struct {
	src   persist.Conn // TAKP, read-only for the whole run
	dst   persist.Conn // PEQ
	slots *slot.Translator
	log   *zap.Logger
	id    Identity
}

func New(src, dst persist.Conn, log *zap.Logger) *Transfer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Transfer{
		src:   src,
		dst:   dst,
		slots: slot.NewTranslator(log),
		log:   log,
	}
}

// step pairs a target table name with its copier. The order is fixed:
// account tables first, then character_data (which assigns the target
// character id), then everything keyed on that id.
type step struct {
	table string
	copy  func(context.Context) (int64, error)
}

// Run migrates one character end to end and reports per-table row
// counts. A fatal error aborts the remaining steps; tables already
// committed stay committed.
func (t *Transfer) Run(ctx context.Context, characterName string) (*Report, error) {
	if err := t.resolve(ctx, characterName); err != nil {
		return nil, err
	}
	if err := t.clearTarget(ctx); err != nil {
		return nil, fmt.Errorf("clear previous import: %w", err)
	}

	steps := []step{
		{"account", t.copyAccount},
		{"account_ip", t.copyAccountIP},
		{"character_data", t.copyCharacterData},
		{"character_alternate_abilities", t.copyAlternateAbilities},
		{"character_bind", t.copyBind},
		{"character_currency", t.copyCurrency},
		{"faction_values", t.copyFactionValues},
		{"inventory", t.copyInventory},
		{"character_languages", t.copyLanguages},
		{"keyring", t.copyKeyring},
		{"character_spells", t.copySpells},
		{"character_memmed_spells", t.copyMemmedSpells},
		{"character_skills", t.copySkills},
	}

	report := &Report{Character: characterName}
	for _, s := range steps {
		n, err := s.copy(ctx)
		if err != nil {
			return nil, fmt.Errorf("copy %s: %w", s.table, err)
		}
		report.Tables = append(report.Tables, TableReport{Table: s.table, Rows: n})
		t.log.Info("table done", zap.String("table", s.table), zap.Int64("rows", n))
	}

	report.SourceCharID = t.id.SourceCharID
	report.TargetCharID = t.id.TargetCharID
	report.SourceAccountID = t.id.SourceAccountID
	report.TargetAccountID = t.id.TargetAccountID
	t.log.Info("migration complete",
		zap.String("character", characterName),
		zap.Int64("target_char_id", t.id.TargetCharID))
	return report, nil
}
