package transfer

import "context"

// inventoryRow is a source character_inventory row. serialnumber and
// initialserial have no target equivalent and are not selected.
type inventoryRow struct {
	SlotID     int32
	ItemID     int32
	Charges    int32
	CustomData *string
}

// copyInventory is the one copier that rewrites data rather than just
// re-keying it: every slot number goes through the taxonomy translator
// on the way to the target table.
func (t *Transfer) copyInventory(ctx context.Context) (int64, error) {
	rows, err := t.src.Query(ctx,
		`SELECT slotid, itemid, charges, custom_data
		 FROM character_inventory WHERE id = $1`, t.id.SourceCharID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var items []inventoryRow
	for rows.Next() {
		var it inventoryRow
		if err := rows.Scan(&it.SlotID, &it.ItemID, &it.Charges, &it.CustomData); err != nil {
			return 0, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var out [][]any
	for _, it := range items {
		out = append(out, []any{
			t.id.TargetCharID,
			t.slots.Translate(it.SlotID),
			it.ItemID,
			it.Charges,
			it.CustomData,
		})
	}

	// Augments, ornamentation and dye colors post-date the source
	// schema; zeroed.
	err = t.insertAll(ctx,
		`INSERT INTO inventory (character_id, slot_id, item_id, charges,
		                        color, augment_one, augment_two, augment_three,
		                        augment_four, augment_five, augment_six,
		                        instnodrop, custom_data, ornament_icon,
		                        ornament_idfile, ornament_hero_model, guid)
		 VALUES ($1, $2, $3, $4, 0, 0, 0, 0, 0, 0, 0, 0, $5, 0, 0, 0, 0)`, out)
	return int64(len(out)), err
}
