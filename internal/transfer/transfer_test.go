package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// newSourceConn fakes the TAKP side with one character ("Soandso",
// char id 101) on account "takplayer" (id 5).
func newSourceConn() *fakeConn {
	src := &fakeConn{}
	src.onQueryRow = func(sql string, args []any) ([]any, error) {
		if strings.Contains(sql, "INNER JOIN account") {
			return []any{int64(101), int64(5), "takplayer", int64(900)}, nil
		}
		return nil, fmt.Errorf("unexpected source QueryRow: %s", sql)
	}
	src.onQuery = func(sql string, args []any) ([][]any, error) {
		switch {
		case strings.Contains(sql, "FROM account WHERE id"):
			return [][]any{accountVals()}, nil
		case strings.Contains(sql, "FROM account_ip"):
			return [][]any{{int64(5), "10.0.0.1", int32(3), time.Unix(1600000000, 0)}}, nil
		case strings.Contains(sql, "FROM character_data WHERE id"):
			return [][]any{charDataVals("Soandso")}, nil
		case strings.Contains(sql, "character_alternate_abilities"):
			return [][]any{{int32(33), int32(1)}, {int32(34), int32(2)}}, nil
		case strings.Contains(sql, "character_bind"):
			return [][]any{
				{int32(0), int32(22), 1.0, 2.0, 3.0, 90.0},
				{int32(1), int32(10), 4.0, 5.0, 6.0, 0.0},
				{int32(4), int32(1), 0.0, 0.0, 0.0, 0.0}, // no target slot
			}, nil
		case strings.Contains(sql, "character_currency"):
			return [][]any{{int64(100), int64(90), int64(80), int64(70),
				int64(60), int64(50), int64(40), int64(30),
				int64(20), int64(10), int64(5), int64(1)}}, nil
		case strings.Contains(sql, "character_faction_values"):
			return [][]any{{int32(300), int32(-500), int16(0)}}, nil
		case strings.Contains(sql, "character_inventory"):
			return [][]any{
				{int32(0), int32(1001), int32(1), nil},    // cursor
				{int32(255), int32(1002), int32(0), nil},  // general bag 0/5
				{int32(2045), int32(1003), int32(0), nil}, // bank bag 1/5
				{int32(3000), int32(1004), int32(0), nil}, // trade, untranslated
			}, nil
		case strings.Contains(sql, "character_languages"):
			return [][]any{{int32(1), int32(100)}}, nil
		case strings.Contains(sql, "character_keyring"):
			return [][]any{{int32(5000)}}, nil
		case strings.Contains(sql, "character_memmed_spells"):
			return [][]any{{int32(0), int32(202)}}, nil
		case strings.Contains(sql, "character_spells"):
			return [][]any{{int32(1), int32(201)}}, nil
		case strings.Contains(sql, "character_skills"):
			return [][]any{{int32(7), int32(100)}}, nil
		}
		return nil, fmt.Errorf("unexpected source Query: %s", sql)
	}
	return src
}

func accountVals() []any {
	return []any{
		int64(5), "takplayer", "Soandso", int64(0), "hash", int32(0),
		nil, // lsaccount_id
		int16(0), int16(0), int16(0), int16(0), int16(0), int32(0),
		"", int16(0), int16(0), time.Unix(0, 0), int32(1500000000),
		nil, nil,
	}
}

// charDataVals returns the 55 values of the character_data select in
// scan order.
func charDataVals(name string) []any {
	return []any{
		name, "", "The Brave", "", int32(22), // name..zone_id
		10.5, 20.5, 30.5, 128.0, // y x z heading
		int32(1), int32(2), int32(3), int32(50), int32(4), // gender..deity
		int64(100000), int64(1600000000), // birthday last_login
		int32(360000), int32(50), int32(0), int32(0), // time_played..gm
		int32(5), int32(6), int32(7), int32(8), int32(9), // face..beard_color
		int32(1), int32(2), // eye colors
		int64(123456789), // exp
		int32(10), int32(500), int32(2), // aa_points_spent aa_exp aa_points
		int32(15), int32(2200), int32(1800), int32(0), int32(0), // points..intoxication
		int32(90), int32(80), int32(70), int32(95), int32(110), int32(85), int32(100), // stats
		int32(250), int32(4000), int32(4000), // zone_change hunger thirst
		int32(0), int32(1), // pvp_status showhelm
		int32(100), int32(0), // air_remaining autosplit
		"mailkey123", int32(0), // mailkey firstlogon
		int32(0), int32(0), int32(0), // e_aa fields
	}
}

// perCharInsertTables are the insert fragments keyed on the target
// character id in arg position 0.
var perCharInsertTables = []string{
	"INSERT INTO character_alternate_abilities",
	"INSERT INTO character_bind",
	"INSERT INTO character_currency",
	"INSERT INTO faction_values",
	"INSERT INTO inventory",
	"INSERT INTO character_languages",
	"INSERT INTO keyring",
	"INSERT INTO character_spells",
	"INSERT INTO character_memmed_spells",
	"INSERT INTO character_skills",
}

func TestRunCharacterNotFound(t *testing.T) {
	src := &fakeConn{
		onQueryRow: func(string, []any) ([]any, error) { return nil, pgx.ErrNoRows },
	}
	dst := &fakeConn{}

	_, err := New(src, dst, nil).Run(context.Background(), "Nobody")
	var nf *CharacterNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected CharacterNotFoundError, got %v", err)
	}
	if len(dst.writes) != 0 {
		t.Errorf("expected zero target writes, got %d", len(dst.writes))
	}
}

func newTargetConn(existingCharID, accountID int64, accountPresent bool) *fakeConn {
	dst := &fakeConn{}
	dst.onQueryRow = func(sql string, args []any) ([]any, error) {
		switch {
		case strings.Contains(sql, "SELECT id FROM character_data WHERE name"):
			if existingCharID == 0 {
				return nil, pgx.ErrNoRows
			}
			return []any{existingCharID}, nil
		case strings.Contains(sql, "FROM account_ip WHERE accid"):
			return []any{accountPresent}, nil
		case strings.Contains(sql, "FROM account WHERE name = $1)"):
			return []any{accountPresent}, nil
		case strings.Contains(sql, "SELECT id FROM account WHERE name"):
			if accountID == 0 {
				return nil, pgx.ErrNoRows
			}
			return []any{accountID}, nil
		case strings.Contains(sql, "RETURNING id"):
			return []any{int64(42)}, nil
		}
		return nil, fmt.Errorf("unexpected target QueryRow: %s", sql)
	}
	return dst
}

func TestRunFirstImport(t *testing.T) {
	src := newSourceConn()
	dst := newTargetConn(0, 77, false)

	report, err := New(src, dst, nil).Run(context.Background(), "Soandso")
	if err != nil {
		t.Fatal(err)
	}

	if report.TargetCharID != 42 {
		t.Errorf("target char id = %d, want 42", report.TargetCharID)
	}
	if report.TargetAccountID != 77 {
		t.Errorf("target account id = %d, want 77", report.TargetAccountID)
	}

	if got := dst.writesMatching("DELETE FROM"); len(got) != 0 {
		t.Errorf("first import should not delete, got %d deletes", len(got))
	}

	accInserts := dst.writesMatching("INSERT INTO account (")
	if len(accInserts) != 1 {
		t.Fatalf("account inserts = %d, want 1", len(accInserts))
	}
	if accInserts[0].args[0] != int64(5) {
		t.Errorf("account insert keeps source id, got %v", accInserts[0].args[0])
	}

	charInserts := dst.writesMatching("INSERT INTO character_data")
	if len(charInserts) != 1 {
		t.Fatalf("character_data inserts = %d, want 1", len(charInserts))
	}
	if strings.Contains(charInserts[0].sql, ", id)") {
		t.Error("fresh import must not provide an explicit character id")
	}
	if charInserts[0].args[0] != int64(77) {
		t.Errorf("character_data account_id = %v, want 77", charInserts[0].args[0])
	}

	// One target character id across every per-character table.
	for _, frag := range perCharInsertTables {
		for _, w := range dst.writesMatching(frag) {
			if w.args[0] != int64(42) {
				t.Errorf("%s keyed on %v, want 42", frag, w.args[0])
			}
		}
	}

	inv := dst.writesMatching("INSERT INTO inventory")
	if len(inv) != 4 {
		t.Fatalf("inventory inserts = %d, want 4", len(inv))
	}
	wantSlots := []int32{33, 4015, 6415, 3000}
	for i, w := range inv {
		if w.args[1] != wantSlots[i] {
			t.Errorf("inventory row %d slot = %v, want %d", i, w.args[1], wantSlots[i])
		}
	}

	if got := dst.writesMatching("INSERT INTO character_bind"); len(got) != 2 {
		t.Errorf("bind inserts = %d, want 2 (unknown is_home dropped)", len(got))
	}

	counts := map[string]int64{}
	for _, tr := range report.Tables {
		counts[tr.Table] = tr.Rows
	}
	for table, want := range map[string]int64{
		"account": 1, "account_ip": 1, "character_data": 1,
		"character_alternate_abilities": 2, "character_bind": 2,
		"character_currency": 1, "faction_values": 1, "inventory": 4,
		"character_languages": 1, "keyring": 1, "character_spells": 1,
		"character_memmed_spells": 1, "character_skills": 1,
	} {
		if counts[table] != want {
			t.Errorf("report rows for %s = %d, want %d", table, counts[table], want)
		}
	}
}

func TestRunRerunReusesIDAndClears(t *testing.T) {
	src := newSourceConn()
	dst := newTargetConn(7, 77, true)

	report, err := New(src, dst, nil).Run(context.Background(), "Soandso")
	if err != nil {
		t.Fatal(err)
	}

	if report.TargetCharID != 7 {
		t.Errorf("target char id = %d, want reused 7", report.TargetCharID)
	}

	deletes := dst.writesMatching("DELETE FROM")
	if len(deletes) != len(characterTables) {
		t.Fatalf("deletes = %d, want %d (every per-character table)",
			len(deletes), len(characterTables))
	}
	for _, d := range deletes {
		if d.args[0] != int64(7) {
			t.Errorf("delete keyed on %v, want 7", d.args[0])
		}
	}

	// Account tables stay untouched on a re-run.
	if got := dst.writesMatching("INSERT INTO account"); len(got) != 0 {
		t.Errorf("account inserts on re-run = %d, want 0", len(got))
	}

	charInserts := dst.writesMatching("INSERT INTO character_data")
	if len(charInserts) != 1 {
		t.Fatalf("character_data inserts = %d, want 1", len(charInserts))
	}
	if !strings.Contains(charInserts[0].sql, ", id)") {
		t.Error("re-run must insert with the reused character id")
	}
	if got := charInserts[0].args[len(charInserts[0].args)-1]; got != int64(7) {
		t.Errorf("reused id arg = %v, want 7", got)
	}

	for _, frag := range perCharInsertTables {
		for _, w := range dst.writesMatching(frag) {
			if w.args[0] != int64(7) {
				t.Errorf("%s keyed on %v, want 7", frag, w.args[0])
			}
		}
	}
}

func TestRunDuplicateAccountIsSkipped(t *testing.T) {
	src := newSourceConn()
	dst := newTargetConn(0, 77, false)
	dst.onExec = func(sql string, args []any) error {
		if strings.Contains(sql, "INSERT INTO account (") {
			return &pgconn.PgError{Code: "23505", ConstraintName: "name_ls_id"}
		}
		return nil
	}

	report, err := New(src, dst, nil).Run(context.Background(), "Soandso")
	if err != nil {
		t.Fatalf("duplicate account should be a benign skip, got %v", err)
	}
	for _, tr := range report.Tables {
		if tr.Table == "account" && tr.Rows != 0 {
			t.Errorf("skipped account copy reported %d rows", tr.Rows)
		}
	}
}

func TestRunAccountMappingFailureIsFatal(t *testing.T) {
	src := newSourceConn()
	// Account reported present, yet the by-name lookup finds nothing:
	// the invariant the mapping step exists to catch.
	dst := newTargetConn(0, 0, true)

	_, err := New(src, dst, nil).Run(context.Background(), "Soandso")
	var am *AccountMappingError
	if !errors.As(err, &am) {
		t.Fatalf("expected AccountMappingError, got %v", err)
	}
}

func TestRunAbortsOnTableFailure(t *testing.T) {
	src := newSourceConn()
	dst := newTargetConn(0, 77, false)
	dst.onExec = func(sql string, args []any) error {
		if strings.Contains(sql, "INSERT INTO faction_values") {
			return errors.New("target constraint violation")
		}
		return nil
	}

	_, err := New(src, dst, nil).Run(context.Background(), "Soandso")
	if err == nil || !strings.Contains(err.Error(), "copy faction_values") {
		t.Fatalf("expected faction_values failure to abort the run, got %v", err)
	}
	// Earlier tables were already written; later ones never ran.
	if got := dst.writesMatching("INSERT INTO character_currency"); len(got) != 1 {
		t.Errorf("earlier table writes = %d, want 1", len(got))
	}
	if got := dst.writesMatching("INSERT INTO inventory"); len(got) != 0 {
		t.Errorf("later table writes = %d, want 0", len(got))
	}
}
