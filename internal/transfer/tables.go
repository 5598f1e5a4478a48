package transfer

import (
	"context"

	"go.uber.org/zap"
)

// insertAll writes a batch of rows with one statement inside a single
// target transaction. A failure anywhere rolls the whole table back;
// tables committed earlier in the run are unaffected.
func (t *Transfer) insertAll(ctx context.Context, sql string, rows [][]any) error {
	tx, err := t.dst.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, args := range rows {
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (t *Transfer) copyAlternateAbilities(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT aa_id, aa_value FROM character_alternate_abilities WHERE id = $1`,
		t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var aaID, aaValue int32
		if err := rows.Scan(&aaID, &aaValue); err != nil {
			return 0, err
		}
		// charges is a target-only column; the source never tracked it
		out = append(out, []any{t.id.TargetCharID, aaID, aaValue, 0})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO character_alternate_abilities (id, aa_id, aa_value, charges)
		 VALUES ($1, $2, $3, $4)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copyBind(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT is_home, zone_id, x, y, z, heading FROM character_bind WHERE id = $1`,
		t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var isHome, zoneID int32
		var x, y, z, heading float64
		if err := rows.Scan(&isHome, &zoneID, &x, &y, &z, &heading); err != nil {
			return 0, err
		}
		// Source is_home maps directly to the target slot column:
		// 0 = death bind, 1 = home city. Anything else has no target
		// slot and is dropped.
		if isHome != 0 && isHome != 1 {
			t.log.Warn("bind row with unknown is_home, dropping",
				zap.Int32("is_home", isHome))
			continue
		}
		out = append(out, []any{t.id.TargetCharID, isHome, zoneID, 0, x, y, z, heading})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO character_bind (id, slot, zone_id, instance_id, x, y, z, heading)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copyCurrency(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT platinum, gold, silver, copper,
		        platinum_bank, gold_bank, silver_bank, copper_bank,
		        platinum_cursor, gold_cursor, silver_cursor, copper_cursor
		 FROM character_currency WHERE id = $1`, t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var coin [12]int64
		if err := rows.Scan(&coin[0], &coin[1], &coin[2], &coin[3],
			&coin[4], &coin[5], &coin[6], &coin[7],
			&coin[8], &coin[9], &coin[10], &coin[11]); err != nil {
			return 0, err
		}
		args := []any{t.id.TargetCharID}
		for _, c := range coin {
			args = append(args, c)
		}
		out = append(out, args)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	// Crystal currencies post-date the source era; zeroed.
	err = t.insertAll(ctx,
		`INSERT INTO character_currency (id, platinum, gold, silver, copper,
		                                 platinum_bank, gold_bank, silver_bank, copper_bank,
		                                 platinum_cursor, gold_cursor, silver_cursor, copper_cursor,
		                                 radiant_crystals, career_radiant_crystals,
		                                 ebon_crystals, career_ebon_crystals)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, 0, 0, 0)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copyFactionValues(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT faction_id, current_value, temp FROM character_faction_values WHERE id = $1`,
		t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var factionID, current int32
		var temp int16
		if err := rows.Scan(&factionID, &current, &temp); err != nil {
			return 0, err
		}
		out = append(out, []any{t.id.TargetCharID, factionID, current, temp})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO faction_values (char_id, faction_id, current_value, temp)
		 VALUES ($1, $2, $3, $4)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copyLanguages(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT lang_id, value FROM character_languages WHERE id = $1`,
		t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var langID, value int32
		if err := rows.Scan(&langID, &value); err != nil {
			return 0, err
		}
		out = append(out, []any{t.id.TargetCharID, langID, value})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO character_languages (id, lang_id, value) VALUES ($1, $2, $3)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copyKeyring(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT item_id FROM character_keyring WHERE id = $1`, t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var itemID int32
		if err := rows.Scan(&itemID); err != nil {
			return 0, err
		}
		// target keyring PK auto-increments
		out = append(out, []any{t.id.TargetCharID, itemID})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO keyring (char_id, item_id) VALUES ($1, $2)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copySpells(ctx context.Context) (int64, error) {
	return t.copySpellTable(ctx, "character_spells")
}

func (t *Transfer) copyMemmedSpells(ctx context.Context) (int64, error) {
	return t.copySpellTable(ctx, "character_memmed_spells")
}

// copySpellTable handles the two spell tables, which share the exact
// same shape in both schemas.
func (t *Transfer) copySpellTable(ctx context.Context, table string) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT slot_id, spell_id FROM `+table+` WHERE id = $1`, t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var slotID, spellID int32
		if err := rows.Scan(&slotID, &spellID); err != nil {
			return 0, err
		}
		out = append(out, []any{t.id.TargetCharID, slotID, spellID})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO `+table+` (id, slot_id, spell_id) VALUES ($1, $2, $3)`, out)
	return int64(len(out)), err
}

func (t *Transfer) copySkills(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT skill_id, value FROM character_skills WHERE id = $1`, t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var skillID, value int32
		if err := rows.Scan(&skillID, &value); err != nil {
			return 0, err
		}
		out = append(out, []any{t.id.TargetCharID, skillID, value})
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	err = t.insertAll(ctx,
		`INSERT INTO character_skills (id, skill_id, value) VALUES ($1, $2, $3)`, out)
	return int64(len(out)), err
}
