package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type stubRow struct {
	err error
}

func (r *stubRow) Scan(dest ...any) error { return r.err }

type stubRows struct {
	pgx.Rows
	closed bool
}

func (r *stubRows) Close() { r.closed = true }

func TestDeadlineStampsOperationContext(t *testing.T) {
	p := &Pool{opTimeout: 5 * time.Second}

	ctx, cancel := p.deadline(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the operation context")
	}
	if remaining := time.Until(deadline); remaining > 5*time.Second {
		t.Errorf("deadline %v past the configured timeout", remaining)
	}
}

func TestDeadlineKeepsEarlierCallerDeadline(t *testing.T) {
	p := &Pool{opTimeout: 5 * time.Second}
	parent, parentCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer parentCancel()

	ctx, cancel := p.deadline(parent)
	defer cancel()

	deadline, _ := ctx.Deadline()
	if time.Until(deadline) > 10*time.Millisecond {
		t.Error("operation deadline must not extend the caller's deadline")
	}
}

func TestDeadlineDisabledLeavesContextUntouched(t *testing.T) {
	p := &Pool{}

	ctx, cancel := p.deadline(context.Background())
	defer cancel()

	if _, ok := ctx.Deadline(); ok {
		t.Error("zero timeout must not add a deadline")
	}
}

func TestDeadlineRowReleasesContextOnScan(t *testing.T) {
	released := false
	row := &deadlineRow{row: &stubRow{}, cancel: func() { released = true }}

	if err := row.Scan(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Error("scan must release the operation deadline")
	}
}

func TestDeadlineRowsReleaseContextOnClose(t *testing.T) {
	released := false
	inner := &stubRows{}
	rows := &deadlineRows{Rows: inner, cancel: func() { released = true }}

	rows.Close()

	if !inner.closed {
		t.Error("close must reach the wrapped rows")
	}
	if !released {
		t.Error("close must release the operation deadline")
	}
}
