package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"
)

var (
	_ DBConn  = (*fakeDB)(nil)
	_ KVStore = (*fakeKV)(nil)
	_ Rows    = (*fakeRows)(nil)
)

// fakeDB implements DBConn with pluggable behavior per test.
type fakeDB struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if f.QueryFunc == nil {
		return nil, errors.New("unexpected Query call")
	}
	return f.QueryFunc(ctx, sql, args...)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if f.QueryRowFunc == nil {
		return fakeRow{scanFunc: func(dest ...any) error {
			return errors.New("unexpected QueryRow call")
		}}
	}
	return f.QueryRowFunc(ctx, sql, args...)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if f.ExecFunc == nil {
		return nil, errors.New("unexpected Exec call")
	}
	return f.ExecFunc(ctx, sql, args...)
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// rowFromValues builds a Row whose Scan copies the given values into the
// destinations in order.
func rowFromValues(values ...any) fakeRow {
	return fakeRow{scanFunc: func(dest ...any) error {
		if len(dest) != len(values) {
			return fmt.Errorf("scan: expected %d destinations, got %d", len(values), len(dest))
		}
		for i, v := range values {
			if err := assign(dest[i], v); err != nil {
				return err
			}
		}
		return nil
	}}
}

type fakeRows struct {
	rows   [][]any
	index  int
	closed bool
	err    error
}

func (r *fakeRows) Next() bool {
	if r.index >= len(r.rows) {
		return false
	}
	r.index++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	values := r.rows[r.index-1]
	if len(dest) != len(values) {
		return fmt.Errorf("scan: expected %d destinations, got %d", len(values), len(dest))
	}
	for i, v := range values {
		if err := assign(dest[i], v); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRows) Close()     { r.closed = true }
func (r *fakeRows) Err() error { return r.err }

type fakeCommandTag struct {
	rowsAffected int64
}

func (t fakeCommandTag) RowsAffected() int64 { return t.rowsAffected }

// assign copies v into the pointer dest, covering the types the
// services scan: strings, bools, ints, uuid.UUID, time.Time and
// pointers to those for nullable columns.
func assign(dest, v any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return fmt.Errorf("scan destination must be a non-nil pointer, got %T", dest)
	}
	elem := dv.Elem()

	if v == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}

	val := reflect.ValueOf(v)
	switch {
	case val.Type().AssignableTo(elem.Type()):
		elem.Set(val)
	case val.Type().ConvertibleTo(elem.Type()) && (val.Kind() != reflect.String || elem.Kind() == reflect.String):
		elem.Set(val.Convert(elem.Type()))
	case elem.Kind() == reflect.Ptr && val.Type().AssignableTo(elem.Type().Elem()):
		p := reflect.New(elem.Type().Elem())
		p.Elem().Set(val)
		elem.Set(p)
	default:
		return fmt.Errorf("cannot scan %T into %T", v, dest)
	}
	return nil
}

// fakeKV implements KVStore in memory. TTLs are recorded, not enforced.
type fakeKV struct {
	data map[string]string
	ttls map[string]time.Duration
	// Force errors per operation.
	getErr error
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", errors.New("key not found")
	}
	return v, nil
}

func (f *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
		delete(f.ttls, key)
	}
	return nil
}

func TestRowScanNamedStringColumn(t *testing.T) {
	type status string

	var got status
	row := rowFromValues("created")
	if err := row.Scan(&got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "created" {
		t.Fatalf("expected created, got %q", got)
	}
}

func TestFakeKVDelManyKeys(t *testing.T) {
	kv := newFakeKV()
	if err := kv.Set(context.Background(), "a", "1", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := kv.Set(context.Background(), "b", "2", time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := kv.Del(context.Background(), "a", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(kv.data) != 0 {
		t.Fatalf("expected all keys deleted, got %v", kv.data)
	}
}
