package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"propwatch/internal/platform/store/ch"
)

// TestInsert_RejectsUnsupportedShape ensures the adapter validates before delegating
func TestInsert_RejectsUnsupportedShape(t *testing.T) {
	t.Parallel()

	a := newCHAdapter(&ch.CH{})

	err := a.Insert(context.Background(), "some_table", struct{}{})
	if err == nil {
		t.Fatalf("Insert expected shape error, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported CH insert shape") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestInsert_EmptyBatchDelegates passes an empty batch through as a no-op
func TestInsert_EmptyBatchDelegates(t *testing.T) {
	t.Parallel()

	a := newCHAdapter(&ch.CH{})

	if err := a.Insert(context.Background(), "some_table", [][]any{}); err != nil {
		t.Fatalf("empty insert returned error: %v", err)
	}
}

// TestPing_NilInner reports a useful error instead of dereferencing
func TestPing_NilInner(t *testing.T) {
	t.Parallel()

	a := &clickhouseAdapter{}
	if err := a.Ping(context.Background()); err == nil {
		t.Fatalf("expected nil adapter error")
	}
}

// TestClose_Delegates confirms the adapter Close calls through to ch
func TestClose_Delegates(t *testing.T) {
	t.Parallel()

	a := newCHAdapter(&ch.CH{})
	if err := a.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

type fakeChRows struct {
	nexts  int
	closed bool
	err    error
}

func (f *fakeChRows) Next() bool             { f.nexts++; return false }
func (f *fakeChRows) Scan(dest ...any) error { return nil }
func (f *fakeChRows) Err() error             { return f.err }
func (f *fakeChRows) Close() error           { f.closed = true; return nil }
func (f *fakeChRows) Columns() []string      { return []string{"alpha", "beta"} }

// TestRowsAdapter_Delegations verifies the store.Rows wrapper passes through
func TestRowsAdapter_Delegations(t *testing.T) {
	t.Parallel()

	f := &fakeChRows{err: errors.New("tail error")}
	x := &rowsAdapter{r: f}

	if x.Next() {
		t.Fatalf("Next should be false on fake")
	}
	var v int
	if err := x.Scan(&v); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	if x.Err() == nil {
		t.Fatalf("Err should pass through")
	}
	cols := x.Columns()
	if len(cols) != 2 || cols[0] != "alpha" || cols[1] != "beta" {
		t.Fatalf("Columns mismatch: %#v", cols)
	}
	x.Close()
	if !f.closed {
		t.Fatalf("Close did not delegate to underlying rows")
	}
}
