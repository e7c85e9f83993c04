package store

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type call struct {
	sql  string
	args []any
}

// fakeDB records every statement and answers from the configured funcs.
type fakeDB struct {
	calls        []call
	execFunc     func(sql string, args []any) (CommandTag, error)
	queryFunc    func(sql string, args []any) (Rows, error)
	queryRowFunc func(sql string, args []any) Row
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.execFunc != nil {
		return f.execFunc(sql, args)
	}
	return pgconn.NewCommandTag("OK"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.queryFunc != nil {
		return f.queryFunc(sql, args)
	}
	return &fakeRows{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	f.calls = append(f.calls, call{sql: sql, args: args})
	if f.queryRowFunc != nil {
		return f.queryRowFunc(sql, args)
	}
	return fakeRow{err: pgx.ErrNoRows}
}

// fakeRow assigns values to scan destinations by reflection.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.idx-1], dest)
}

func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close()     {}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values for %d destinations", len(values), len(dest))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		value := reflect.ValueOf(v)
		if !value.Type().AssignableTo(target.Type()) {
			if !value.Type().ConvertibleTo(target.Type()) {
				return fmt.Errorf("scan: cannot assign %T to %s", v, target.Type())
			}
			value = value.Convert(target.Type())
		}
		target.Set(value)
	}
	return nil
}
