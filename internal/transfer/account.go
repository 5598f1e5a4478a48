package transfer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// accountRow is the subset of source account columns that survives into
// the target schema. gminvul is renamed invulnerable on the way in;
// auto_login_charname and ls_id do not exist in the source and get
// fixed values.
type accountRow struct {
	ID            int64
	Name          string
	CharName      string
	SharedPlat    int64
	Password      string
	Status        int32
	LSAccountID   *int64
	GMSpeed       int16
	GMInvul       int16
	FlyMode       int16
	IgnoreTells   int16
	Revoked       int16
	Karma         int32
	MiniloginIP   string
	HideMe        int16
	RulesFlag     int16
	SuspendedTill time.Time
	TimeCreation  int32
	BanReason     *string
	SuspendReason *string
}

// copyAccount copies the account row once. If an account of the same
// name is already present in the target it is left exactly as it is:
// other characters on the account may have been migrated before.
func (t *Transfer) copyAccount(ctx context.Context) (int64, error) {
	var exists bool
	if err := t.dst.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM account WHERE name = $1)`, t.id.AccountName,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check target account: %w", err)
	}
	if exists {
		t.log.Info("target account already present, skipping",
			zap.String("account", t.id.AccountName))
		return 0, nil
	}

	rows, err := t.src.Query(ctx,
		`SELECT id, name, charname, sharedplat, password, status, lsaccount_id,
		        gmspeed, gminvul, flymode, ignore_tells, revoked, karma,
		        minilogin_ip, hideme, rulesflag, suspendeduntil, time_creation,
		        ban_reason, suspend_reason
		 FROM account WHERE id = $1`, t.id.SourceAccountID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var accounts []accountRow
	for rows.Next() {
		var a accountRow
		if err := rows.Scan(
			&a.ID, &a.Name, &a.CharName, &a.SharedPlat, &a.Password, &a.Status,
			&a.LSAccountID, &a.GMSpeed, &a.GMInvul, &a.FlyMode, &a.IgnoreTells,
			&a.Revoked, &a.Karma, &a.MiniloginIP, &a.HideMe, &a.RulesFlag,
			&a.SuspendedTill, &a.TimeCreation, &a.BanReason, &a.SuspendReason,
		); err != nil {
			return 0, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := t.dst.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for _, a := range accounts {
		_, err := tx.Exec(ctx,
			`INSERT INTO account (id, name, charname, auto_login_charname, sharedplat,
			                      password, status, ls_id, lsaccount_id, gmspeed,
			                      invulnerable, flymode, ignore_tells, revoked, karma,
			                      minilogin_ip, hideme, rulesflag, suspendeduntil,
			                      time_creation, ban_reason, suspend_reason)
			 VALUES ($1, $2, $3, '', $4, $5, $6, 'local', $7, $8, $9, $10, $11, $12,
			         $13, $14, $15, $16, $17, $18, $19, $20)`,
			a.ID, a.Name, a.CharName, a.SharedPlat, a.Password, a.Status,
			a.LSAccountID, a.GMSpeed, a.GMInvul, a.FlyMode, a.IgnoreTells,
			a.Revoked, a.Karma, a.MiniloginIP, a.HideMe, a.RulesFlag,
			a.SuspendedTill, a.TimeCreation, a.BanReason, a.SuspendReason,
		)
		if isDuplicateKey(err) {
			// Present under another key (same name+ls_id, or the id is
			// taken); semantically the account already exists.
			t.log.Warn("duplicate account in target, skipping",
				zap.String("account", a.Name))
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int64(len(accounts)), nil
}

type accountIPRow struct {
	AccID    int64
	IP       string
	Count    int32
	LastUsed time.Time
}

// copyAccountIP copies login-IP history, once per account.
func (t *Transfer) copyAccountIP(ctx context.Context) (int64, error) {
	var exists bool
	if err := t.dst.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM account_ip WHERE accid = $1)`, t.id.SourceAccountID,
	).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check target account_ip: %w", err)
	}
	if exists {
		t.log.Info("target account_ip rows already present, skipping",
			zap.Int64("account_id", t.id.SourceAccountID))
		return 0, nil
	}

	rows, err := t.src.Query(ctx,
		`SELECT accid, ip, count, lastused FROM account_ip WHERE accid = $1`,
		t.id.SourceAccountID,
	)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ips []accountIPRow
	for rows.Next() {
		var r accountIPRow
		if err := rows.Scan(&r.AccID, &r.IP, &r.Count, &r.LastUsed); err != nil {
			return 0, err
		}
		ips = append(ips, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := t.dst.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	for _, r := range ips {
		_, err := tx.Exec(ctx,
			`INSERT INTO account_ip (accid, ip, count, lastused) VALUES ($1, $2, $3, $4)`,
			r.AccID, r.IP, r.Count, r.LastUsed,
		)
		if isDuplicateKey(err) {
			t.log.Warn("duplicate account_ip in target, skipping",
				zap.Int64("account_id", r.AccID), zap.String("ip", r.IP))
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int64(len(ips)), nil
}
