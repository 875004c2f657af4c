package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/storage/flatfile"
)

type session struct {
	path   string
	ledger *ledger.Ledger
	out    bytes.Buffer
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

func newSession(t *testing.T, fileContent string, opts ...ledger.Option) *session {
	t.Helper()
	s := &session{path: filepath.Join(t.TempDir(), "expenses.txt")}
	if fileContent != "" {
		if err := os.WriteFile(s.path, []byte(fileContent), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	l, err := ledger.Open(context.Background(), flatfile.New(s.path), append([]ledger.Option{ledger.WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.ledger = l
	return s
}

func (s *session) run(t *testing.T, input ...string) string {
	t.Helper()
	c := New(s.ledger, strings.NewReader(strings.Join(input, "\n")+"\n"), &s.out, WithLogger(quietLogger()))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return s.out.String()
}

func (s *session) file(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(s.path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestAddThenViewAll(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "1", "250", "Food", "Lunch", "2", "7")

	if !strings.Contains(out, "✅ Expense added and saved!") {
		t.Fatalf("missing confirmation:\n%s", out)
	}
	if !strings.Contains(out, "Amount: ₹250.0, Category: Food, Description: Lunch") {
		t.Fatalf("missing listing:\n%s", out)
	}
	if !strings.Contains(out, "👋 Exiting... Have a nice day!") {
		t.Fatalf("missing goodbye:\n%s", out)
	}
	if got := s.file(t); got != "250.0|Food|Lunch\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestViewAllEmpty(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "2", "7")
	if !strings.Contains(out, "No expenses recorded.") {
		t.Fatalf("missing empty notice:\n%s", out)
	}
}

func TestFilterByLowercaseCategory(t *testing.T) {
	s := newSession(t, "10.0|Food|Lunch\n20.0|Travel|Train\n")
	out := s.run(t, "3", "food", "3", "groceries", "7")

	section := out[strings.Index(out, "--- Filtered Expenses ---"):]
	if !strings.Contains(section, "Category: Food, Description: Lunch") {
		t.Fatalf("Food record missing:\n%s", out)
	}
	first := section[:strings.Index(section, "=== Expense Tracker ===")]
	if strings.Contains(first, "Travel") {
		t.Fatalf("Travel record should be filtered out:\n%s", first)
	}
	if !strings.Contains(out, "No expenses found in this category.") {
		t.Fatalf("missing not-found notice:\n%s", out)
	}
}

func TestTotal(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "1", "10", "a", "", "1", "20", "b", "", "1", "30", "c", "", "4", "7")
	if !strings.Contains(out, "Total Expenditure: ₹60.0") {
		t.Fatalf("unexpected total:\n%s", out)
	}
}

func TestTotalEmpty(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "4", "7")
	if !strings.Contains(out, "Total Expenditure: ₹0.0") {
		t.Fatalf("unexpected total:\n%s", out)
	}
}

func TestDeleteByIndex(t *testing.T) {
	s := newSession(t, "1.0|a|first\n2.0|b|second\n3.0|c|third\n")
	out := s.run(t, "6", "1", "7")
	if !strings.Contains(out, "✅ Expense deleted!") {
		t.Fatalf("missing confirmation:\n%s", out)
	}
	if got := s.file(t); got != "1.0|a|first\n3.0|c|third\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestDeleteOutOfRangeLeavesFile(t *testing.T) {
	content := "1.0|a|first\n2.0|b|second\n"
	s := newSession(t, content)
	out := s.run(t, "6", "5", "6", "-1", "7")
	if strings.Count(out, "❌ Invalid index.") != 2 {
		t.Fatalf("expected two invalid index reports:\n%s", out)
	}
	if got := s.file(t); got != content {
		t.Fatalf("file changed: %q", got)
	}
}

func TestEditKeepsBlankFields(t *testing.T) {
	s := newSession(t, "1.0|a|first\n2.0|b|second\n")
	out := s.run(t, "5", "1", "", "Bills", "", "7")
	if !strings.Contains(out, "Current Expense: Amount: ₹2.0, Category: b, Description: second") {
		t.Fatalf("missing current expense:\n%s", out)
	}
	if !strings.Contains(out, "✅ Expense updated!") {
		t.Fatalf("missing confirmation:\n%s", out)
	}
	if got := s.file(t); got != "1.0|a|first\n2.0|Bills|second\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestEditReplacesEveryField(t *testing.T) {
	s := newSession(t, "1.0|a|first\n")
	s.run(t, "5", "0", "9.99", "Food", "Dinner", "7")
	if got := s.file(t); got != "9.99|Food|Dinner\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestEditByID(t *testing.T) {
	s := newSession(t, "1.0|a|first\n")
	id := s.ledger.All()[0].ID
	s.run(t, "5", id, "", "", "changed", "7")
	if got := s.file(t); got != "1.0|a|changed\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestMalformedInputIsReprompted(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "abc", "9", "1", "ten", "12,5", "Food", "Lunch", "5", "0", "lots", "3", "", "", "7")
	if !strings.Contains(out, "❌ Please enter a whole number.") {
		t.Fatalf("menu choice not re-prompted:\n%s", out)
	}
	if !strings.Contains(out, "❌ Invalid option.") {
		t.Fatalf("out-of-range choice not reported:\n%s", out)
	}
	if strings.Count(out, "❌ Please enter a valid amount") != 2 {
		t.Fatalf("amount not re-prompted:\n%s", out)
	}
	if got := s.file(t); got != "3.0|Food|Lunch\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestEOFSavesLikeExit(t *testing.T) {
	s := newSession(t, "")
	c := New(s.ledger, strings.NewReader("1\n5\nFood\nLunch"), &s.out, WithLogger(quietLogger()))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(s.out.String(), "👋 Exiting") {
		t.Fatalf("EOF should exit:\n%s", s.out.String())
	}
	if got := s.file(t); got != "5.0|Food|Lunch\n" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestNegativeAmountRejectedByPolicy(t *testing.T) {
	s := newSession(t, "", ledger.WithPolicy(core.Policy{AllowNegative: false}))
	out := s.run(t, "1", "-5", "Food", "Refund", "7")
	if !strings.Contains(out, "❌ Negative amounts are not allowed.") {
		t.Fatalf("missing rejection:\n%s", out)
	}
	if got := s.file(t); got != "" {
		t.Fatalf("unexpected file %q", got)
	}
}

func TestPipeInCategoryRejected(t *testing.T) {
	s := newSession(t, "")
	out := s.run(t, "1", "5", "Food|Drink", "x", "7")
	if !strings.Contains(out, "cannot contain '|'") {
		t.Fatalf("missing rejection:\n%s", out)
	}
	if s.ledger.Len() != 0 {
		t.Fatalf("record should not be added")
	}
}

func TestPersistFailureIsReported(t *testing.T) {
	s := newSession(t, "")
	// a directory where the file should be makes every write fail
	if err := os.Mkdir(s.path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	out := s.run(t, "1", "5", "Food", "Lunch", "2", "7")
	if !strings.Contains(out, "⚠ Failed to save expense:") {
		t.Fatalf("missing append warning:\n%s", out)
	}
	if !strings.Contains(out, "Category: Food, Description: Lunch") {
		t.Fatalf("record should still be listed:\n%s", out)
	}
	if !strings.Contains(out, "⚠ Failed to save expenses:") {
		t.Fatalf("missing exit warning:\n%s", out)
	}
}

func TestCustomCurrency(t *testing.T) {
	s := newSession(t, "1.5|a|b\n")
	c := New(s.ledger, strings.NewReader("4\n7\n"), &s.out, WithCurrency("€"), WithLogger(quietLogger()))
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(s.out.String(), "Total Expenditure: €1.5") {
		t.Fatalf("unexpected output:\n%s", s.out.String())
	}
}

func TestCancelledContextStopsLoop(t *testing.T) {
	s := newSession(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(s.ledger, strings.NewReader("7\n"), &s.out, WithLogger(quietLogger()))
	if err := c.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
