package assessment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"dialogue/internal/platform/db"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool, "../../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func dbTestRecord(name string) Record {
	rec := Record{
		ID:            uuid.NewString(),
		EmployeeName:  name,
		EmployeeEmail: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		ManagerName:   "Journey Manager",
		Status:        StatusCreated,
	}
	rec.EmployeeFields = validEmployeeFields()
	return rec
}

func TestStoreJourney(t *testing.T) {
	pool := testPool(t)
	store := NewStore(pool)
	ctx := context.Background()

	name := fmt.Sprintf("Journey Employee %d", time.Now().UnixNano())
	rec, err := store.Insert(ctx, dbTestRecord(name))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	t.Cleanup(func() { _ = store.Delete(ctx, rec.ID) })

	if rec.Version != 1 || rec.Status != StatusCreated {
		t.Fatalf("inserted record: %+v", rec)
	}

	got, err := store.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.EmployeeName != name {
		t.Fatalf("employee name: %q", got.EmployeeName)
	}

	// Case-insensitive employee lookup.
	found, ok, err := store.FindByEmployee(ctx, "  "+strings.ToUpper(name)+"  ")
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if found.ID != rec.ID {
		t.Fatalf("find returned %q", found.ID)
	}

	// A second record for the same employee violates the unique index.
	_, err = store.Insert(ctx, dbTestRecord(name))
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateError, got %v", err)
	}
	if dup.ExistingID != rec.ID {
		t.Fatalf("existing id: %q", dup.ExistingID)
	}

	// Conditional update bumps the version once.
	rec.Status = StatusFinalized
	rec.ProgramManagerName = "Journey Chief"
	updated, err := store.Update(ctx, rec)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != 2 || updated.Status != StatusFinalized {
		t.Fatalf("updated record: %+v", updated)
	}

	// Replaying with the stale version must conflict.
	_, err = store.Update(ctx, rec)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	managed, err := store.ListByManager(ctx, "journey manager")
	if err != nil {
		t.Fatalf("list by manager: %v", err)
	}
	if !containsID(managed, rec.ID) {
		t.Fatal("record missing from manager listing")
	}

	queue, err := store.ListByProgramManager(ctx, "Journey Chief", []Status{StatusSubmitted, StatusApproved})
	if err != nil {
		t.Fatalf("list by program manager: %v", err)
	}
	if containsID(queue, rec.ID) {
		t.Fatal("finalized record must not match the submitted/approved filter")
	}

	if err := store.Delete(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func containsID(records []Record, id string) bool {
	for _, rec := range records {
		if rec.ID == id {
			return true
		}
	}
	return false
}
