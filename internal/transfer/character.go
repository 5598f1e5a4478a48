package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// characterDataRow holds the source character_data columns that carry
// over. Source-only columns (forum_id, boatid, boatname, famished,
// is_deleted, fatigue) are not selected; target-only expansion columns
// get literal defaults in the insert.
type characterDataRow struct {
	Name             string
	LastName         string
	Title            string
	Suffix           string
	ZoneID           int32
	Y                float64
	X                float64
	Z                float64
	Heading          float64
	Gender           int32
	Race             int32
	Class            int32
	Level            int32
	Deity            int32
	Birthday         int64
	LastLogin        int64
	TimePlayed       int32
	Level2           int32
	Anon             int32
	GM               int32
	Face             int32
	HairColor        int32
	HairStyle        int32
	Beard            int32
	BeardColor       int32
	EyeColor1        int32
	EyeColor2        int32
	Exp              int64
	AAPointsSpent    int32
	AAExp            int32
	AAPoints         int32
	Points           int32
	CurHP            int32
	Mana             int32
	Endurance        int32
	Intoxication     int32
	Str              int32
	Sta              int32
	Cha              int32
	Dex              int32
	Int              int32
	Agi              int32
	Wis              int32
	ZoneChangeCount  int32
	HungerLevel      int32
	ThirstLevel      int32
	PVPStatus        int32
	ShowHelm         int32
	AirRemaining     int32
	AutosplitEnabled int32
	Mailkey          string
	FirstLogon       int32
	EAAEffects       int32
	EPercentToAA     int32
	EExpendedAASpent int32
}

const characterDataSelect = `
SELECT name, last_name, title, suffix, zone_id, y, x, z, heading,
       gender, race, "class", level, deity, birthday, last_login,
       time_played, level2, anon, gm, face, hair_color, hair_style,
       beard, beard_color, eye_color_1, eye_color_2, exp,
       aa_points_spent, aa_exp, aa_points, points, cur_hp, mana,
       endurance, intoxication, str, sta, cha, dex, "int", agi, wis,
       zone_change_count, hunger_level, thirst_level, pvp_status,
       showhelm, air_remaining, autosplit_enabled, mailkey, firstlogon,
       e_aa_effects, e_percent_to_aa, e_expended_aa_spent
FROM character_data WHERE id = $1`

// The target schema carries many expansion-era columns the source never
// had; those are inserted as literals. firstlogon/showhelm are renamed.
const characterDataInsertColumns = `
account_id, name, last_name, title, suffix,
zone_id, zone_instance, y, x, z, heading,
gender, race, "class", level, deity, birthday,
last_login, time_played, level2, anon, gm,
face, hair_color, hair_style, beard, beard_color,
eye_color_1, eye_color_2,
drakkin_heritage, drakkin_tattoo, drakkin_details,
ability_time_seconds, ability_number, ability_time_minutes, ability_time_hours,
exp, exp_enabled,
aa_points_spent, aa_exp, aa_points,
group_leadership_exp, raid_leadership_exp, group_leadership_points, raid_leadership_points,
points, cur_hp, mana, endurance, intoxication,
str, sta, cha, dex, "int", agi, wis,
extra_haste, zone_change_count, toxicity,
hunger_level, thirst_level, ability_up,
ldon_points_guk, ldon_points_mir, ldon_points_mmc, ldon_points_ruj, ldon_points_tak, ldon_points_available,
tribute_time_remaining, career_tribute_points, tribute_points, tribute_active,
pvp_status, pvp_kills, pvp_deaths, pvp_current_points, pvp_career_points,
pvp_best_kill_streak, pvp_worst_death_streak, pvp_current_kill_streak, pvp2, pvp_type,
show_helm, group_auto_consent, raid_auto_consent, guild_auto_consent, leadership_exp_on,
"RestTimer", air_remaining, autosplit_enabled,
lfp, lfg, mailkey, xtargets,
first_login, ingame,
e_aa_effects, e_percent_to_aa, e_expended_aa_spent,
aa_points_spent_old, aa_points_old, e_last_invsnapshot,
deleted_at, illusion_block`

const characterDataInsertValues = `
$1, $2, $3, $4, $5,
$6, 0, $7, $8, $9, $10,
$11, $12, $13, $14, $15, $16,
$17, $18, $19, $20, $21,
$22, $23, $24, $25, $26,
$27, $28,
0, 0, 0,
0, 0, 0, 0,
$29, 1,
$30, $31, $32,
0, 0, 0, 0,
$33, $34, $35, $36, $37,
$38, $39, $40, $41, $42, $43, $44,
0, $45, 0,
$46, $47, 0,
0, 0, 0, 0, 0, 0,
0, 0, 0, 0,
$48, 0, 0, 0, 0, 0, 0, 0, 0, 0,
$49, 0, 0, 0, 0,
0, $50, $51,
0, 0, $52, 5,
$53, 0,
$54, $55, $56,
0, 0, 0,
NULL, 0`

// args returns the insert parameters in placeholder order, starting
// with the already-mapped target account id.
func (c *characterDataRow) args(targetAccountID int64) []any {
	return []any{
		targetAccountID, c.Name, c.LastName, c.Title, c.Suffix,
		c.ZoneID, c.Y, c.X, c.Z, c.Heading,
		c.Gender, c.Race, c.Class, c.Level, c.Deity, c.Birthday,
		c.LastLogin, c.TimePlayed, c.Level2, c.Anon, c.GM,
		c.Face, c.HairColor, c.HairStyle, c.Beard, c.BeardColor,
		c.EyeColor1, c.EyeColor2, c.Exp,
		c.AAPointsSpent, c.AAExp, c.AAPoints,
		c.Points, c.CurHP, c.Mana, c.Endurance, c.Intoxication,
		c.Str, c.Sta, c.Cha, c.Dex, c.Int, c.Agi, c.Wis,
		c.ZoneChangeCount, c.HungerLevel, c.ThirstLevel,
		c.PVPStatus, c.ShowHelm, c.AirRemaining, c.AutosplitEnabled,
		c.Mailkey, c.FirstLogon,
		c.EAAEffects, c.EPercentToAA, c.EExpendedAASpent,
	}
}

// copyCharacterData is the keystone copier: it maps the account by
// name, then writes the character row, either reusing the target id
// found during clearTarget or letting the target assign a fresh one.
// Every per-character copier after this one keys on the resulting id.
func (t *Transfer) copyCharacterData(ctx context.Context) (int64, error) {
	if err := t.mapTargetAccount(ctx); err != nil {
		return 0, err
	}

	rows, err := t.src.Query(ctx, characterDataSelect, t.id.SourceCharID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var chars []characterDataRow
	for rows.Next() {
		var c characterDataRow
		if err := rows.Scan(
			&c.Name, &c.LastName, &c.Title, &c.Suffix, &c.ZoneID,
			&c.Y, &c.X, &c.Z, &c.Heading,
			&c.Gender, &c.Race, &c.Class, &c.Level, &c.Deity, &c.Birthday,
			&c.LastLogin, &c.TimePlayed, &c.Level2, &c.Anon, &c.GM,
			&c.Face, &c.HairColor, &c.HairStyle, &c.Beard, &c.BeardColor,
			&c.EyeColor1, &c.EyeColor2, &c.Exp,
			&c.AAPointsSpent, &c.AAExp, &c.AAPoints,
			&c.Points, &c.CurHP, &c.Mana, &c.Endurance, &c.Intoxication,
			&c.Str, &c.Sta, &c.Cha, &c.Dex, &c.Int, &c.Agi, &c.Wis,
			&c.ZoneChangeCount, &c.HungerLevel, &c.ThirstLevel,
			&c.PVPStatus, &c.ShowHelm, &c.AirRemaining, &c.AutosplitEnabled,
			&c.Mailkey, &c.FirstLogon,
			&c.EAAEffects, &c.EPercentToAA, &c.EExpendedAASpent,
		); err != nil {
			return 0, err
		}
		chars = append(chars, c)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := t.dst.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for i := range chars {
		args := chars[i].args(t.id.TargetAccountID)
		if t.id.reuseCharID {
			sql := `INSERT INTO character_data (` + characterDataInsertColumns + `, id)
			        VALUES (` + characterDataInsertValues + `, $57)`
			if _, err := tx.Exec(ctx, sql, append(args, t.id.TargetCharID)...); err != nil {
				return 0, err
			}
			t.log.Info("reusing target character id",
				zap.Int64("char_id", t.id.TargetCharID))
		} else {
			sql := `INSERT INTO character_data (` + characterDataInsertColumns + `)
			        VALUES (` + characterDataInsertValues + `) RETURNING id`
			if err := tx.QueryRow(ctx, sql, args...).Scan(&t.id.TargetCharID); err != nil {
				return 0, err
			}
			t.log.Info("assigned target character id",
				zap.Int64("char_id", t.id.TargetCharID))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	if t.id.TargetCharID == 0 {
		return 0, fmt.Errorf("no character_data row copied for source id %d", t.id.SourceCharID)
	}
	return int64(len(chars)), nil
}
