package transfer

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// call records one statement issued against a fakeConn.
type call struct {
	sql  string
	args []any
}

// fakeConn satisfies persist.Conn. Tests provide dispatchers keyed on
// SQL fragments; every write statement is recorded for assertions.
type fakeConn struct {
	onQuery    func(sql string, args []any) ([][]any, error)
	onQueryRow func(sql string, args []any) ([]any, error)
	onExec     func(sql string, args []any) error

	writes []call
}

func (c *fakeConn) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if c.onQuery == nil {
		return &fakeRows{}, nil
	}
	data, err := c.onQuery(sql, args)
	if err != nil {
		return nil, err
	}
	return &fakeRows{data: data}, nil
}

func (c *fakeConn) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.HasPrefix(strings.TrimSpace(sql), "INSERT") {
		c.writes = append(c.writes, call{sql: sql, args: args})
	}
	if c.onQueryRow == nil {
		return &fakeRow{err: pgx.ErrNoRows}
	}
	vals, err := c.onQueryRow(sql, args)
	return &fakeRow{vals: vals, err: err}
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.writes = append(c.writes, call{sql: sql, args: args})
	if c.onExec != nil {
		if err := c.onExec(sql, args); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{c: c}, nil
}

// writesMatching returns recorded statements containing the fragment.
func (c *fakeConn) writesMatching(fragment string) []call {
	var out []call
	for _, w := range c.writes {
		if strings.Contains(w.sql, fragment) {
			out = append(out, w)
		}
	}
	return out
}

// fakeTx delegates to its fakeConn; per-table transaction boundaries
// are irrelevant to what these tests assert.
type fakeTx struct {
	pgx.Tx
	c *fakeConn
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.c.Exec(ctx, sql, args...)
}

func (tx *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return tx.c.Query(ctx, sql, args...)
}

func (tx *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return tx.c.QueryRow(ctx, sql, args...)
}

func (tx *fakeTx) Commit(context.Context) error   { return nil }
func (tx *fakeTx) Rollback(context.Context) error { return nil }

type fakeRows struct {
	pgx.Rows
	data [][]any
	i    int
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.data) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.data[r.i-1])
}

type fakeRow struct {
	vals []any
	err  error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

// assign copies scan values into destination pointers, converting
// compatible numeric types the way a driver would.
func assign(dest []any, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		dv := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			dv.Set(reflect.Zero(dv.Type()))
			continue
		}
		rv := reflect.ValueOf(v)
		switch {
		case rv.Type().AssignableTo(dv.Type()):
			dv.Set(rv)
		case rv.Type().ConvertibleTo(dv.Type()) && rv.Kind() != reflect.String && dv.Kind() != reflect.String:
			dv.Set(rv.Convert(dv.Type()))
		case rv.Type() == dv.Type():
			dv.Set(rv)
		default:
			return fmt.Errorf("scan: cannot assign %T into %s", v, dv.Type())
		}
	}
	return nil
}
