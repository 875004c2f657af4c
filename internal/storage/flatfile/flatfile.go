// Package flatfile stores the ledger as a pipe-delimited text file,
// one record per line: amount|category|description.
package flatfile

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ledger/internal/core"
)

const separator = "|"

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads every well-formed line. A missing file yields an empty ledger and
// lines without exactly three fields are skipped. An unparseable amount aborts
// the load.
func (s *Store) Load(ctx context.Context) ([]core.Expense, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	var out []core.Expense
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		e, ok, err := ParseLine(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", s.path, lineNo, err)
		}
		if !ok {
			skipped++
			continue
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	slog.DebugContext(ctx, "Ledger file loaded", "path", s.path, "records", len(out), "skipped", skipped)
	return out, nil
}

// Save rewrites the whole file. It writes a sibling temp file and renames it
// over the target so a failed write leaves the previous file intact.
func (s *Store) Save(ctx context.Context, expenses []core.Expense) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, e := range expenses {
		if _, err := w.WriteString(FormatLine(e) + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("write ledger file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}

	slog.DebugContext(ctx, "Ledger file rewritten", "path", s.path, "records", len(expenses))
	return nil
}

// Append adds one line at the end of the file, creating it if needed.
func (s *Store) Append(ctx context.Context, e core.Expense) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	if _, err := f.WriteString(FormatLine(e) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append to ledger file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close ledger file: %w", err)
	}

	slog.DebugContext(ctx, "Expense appended to ledger file", "path", s.path, "id", e.ID)
	return nil
}

func FormatLine(e core.Expense) string {
	return e.Amount.String() + separator + e.Category + separator + e.Description
}

// ParseLine decodes one persisted line. ok is false for lines that do not
// have exactly three fields; the returned record carries a fresh ID.
func ParseLine(line string) (e core.Expense, ok bool, err error) {
	parts := strings.Split(strings.TrimSuffix(line, "\r"), separator)
	if len(parts) != 3 {
		return core.Expense{}, false, nil
	}
	amount, err := core.ParseMoney(parts[0])
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("parse amount %q: %w", parts[0], err)
	}
	return core.NewExpense(amount, parts[1], parts[2]), true, nil
}
