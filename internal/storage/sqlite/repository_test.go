package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "ledger.db")
	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRepositoryRoundTripKeepsIDs(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	want := []core.Expense{
		core.NewExpense(core.Cents(1000), "Food", "Lunch"),
		core.NewExpense(core.Cents(2000), "Travel", "Train"),
		core.NewExpense(core.Cents(-300), "Refund", ""),
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRepositoryAppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	first := core.NewExpense(core.Cents(100), "a", "1")
	second := core.NewExpense(core.Cents(200), "b", "2")
	if err := repo.Append(ctx, first); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(ctx, second); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(first) || !got[1].Equal(second) {
		t.Fatalf("unexpected records %+v", got)
	}

	// a rewrite without the first record renumbers positions
	if err := repo.Save(ctx, []core.Expense{second}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	third := core.NewExpense(core.Cents(300), "c", "3")
	if err := repo.Append(ctx, third); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || !got[0].Equal(second) || !got[1].Equal(third) {
		t.Fatalf("unexpected records after rewrite %+v", got)
	}
}

func TestRepositoryReopenRunsMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)
	e := core.NewExpense(core.Cents(500), "Food", "Snack")
	if err := repo.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	repo.Close()

	reopened, err := NewRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(e) {
		t.Fatalf("unexpected records after reopen %+v", got)
	}
}

func TestRepositoryKeepsFullPrecision(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	e := core.NewExpense(core.MustParseMoney("0.125"), "Fee", "x")
	if err := repo.Append(ctx, e); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Amount.String() != "0.125" {
		t.Fatalf("expected 0.125 to survive storage, got %+v", got)
	}
}

func TestApplySchemaReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	for i := 0; i < 2; i++ {
		version, err := applySchema(path)
		if err != nil {
			t.Fatalf("applySchema run %d: %v", i, err)
		}
		if version != 1 {
			t.Fatalf("expected schema version 1, got %d", version)
		}
	}
}
