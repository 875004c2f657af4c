// Package ledger holds the ordered in-memory sequence of expenses and keeps
// its store in step with every mutation.
package ledger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/storage"
)

// minPrefixLen is the shortest ID prefix Resolve accepts.
const minPrefixLen = 4

// Notifier is told about every successful mutation. Failures are logged only.
type Notifier interface {
	PublishChange(ctx context.Context, kind core.ChangeKind, e core.Expense) error
}

// Patch lists the fields to replace on Edit. Nil fields keep their value.
type Patch struct {
	Amount      *core.Money
	Category    *string
	Description *string
}

type Ledger struct {
	mu       sync.Mutex
	items    []core.Expense
	store    storage.Store
	notifier Notifier
	policy   core.Policy
	logger   *log.Logger
}

type Option func(*Ledger)

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithPolicy(p core.Policy) Option {
	return func(l *Ledger) { l.policy = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger.WithComponent(log.ComponentLedger) }
}

// Open loads the ledger from the store.
func Open(ctx context.Context, store storage.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:  store,
		policy: core.DefaultPolicy(),
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(l)
	}

	items, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	l.items = items

	l.logger.InfoContext(ctx, "Ledger loaded", log.FieldOperation, log.OpLoad, log.FieldRecords, len(items))
	return l, nil
}

// Add appends a record and persists it on its own. On a persistence failure
// the record stays in memory and the returned error wraps core.ErrPersist.
func (l *Ledger) Add(ctx context.Context, amount core.Money, category, description string) (core.Expense, error) {
	e := core.NewExpense(amount, category, description)
	if err := l.policy.Validate(e); err != nil {
		return core.Expense{}, err
	}

	l.mu.Lock()
	l.items = append(l.items, e)
	err := l.store.Append(ctx, e)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithOperation(log.OpAdd).WithExpense(e.ID, e.Amount.String(), e.Category).ToSlice()...)
	l.notify(ctx, core.ChangeAdded, e)

	if err != nil {
		return e, l.persistError(ctx, log.OpAdd, err)
	}
	return e, nil
}

// All returns a copy of the ledger in insertion order.
func (l *Ledger) All() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Expense(nil), l.items...)
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Match is a record together with its position in the full listing.
type Match struct {
	Index   int
	Expense core.Expense
}

// FilterByCategory returns every record whose category equals category,
// ignoring case, in insertion order.
func (l *Ledger) FilterByCategory(category string) []Match {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Match
	for i, e := range l.items {
		if e.MatchesCategory(category) {
			out = append(out, Match{Index: i, Expense: e})
		}
	}
	return out
}

// Total is the exact sum of all amounts.
func (l *Ledger) Total() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total core.Money
	for _, e := range l.items {
		total = total.Add(e.Amount)
	}
	return total
}

// Resolve maps a user-supplied handle to a record. A decimal number is only
// ever a 0-based listing position; anything else is an ID or a unique ID prefix.
func (l *Ledger) Resolve(handle string) (core.Expense, error) {
	handle = strings.TrimSpace(handle)
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, err := strconv.Atoi(handle); err == nil {
		if idx < 0 || idx >= len(l.items) {
			return core.Expense{}, fmt.Errorf("%w: %d", core.ErrInvalidIndex, idx)
		}
		return l.items[idx], nil
	}
	if e, ok := l.findByID(handle); ok {
		return e, nil
	}
	return core.Expense{}, fmt.Errorf("%w: %q", core.ErrNotFound, handle)
}

func (l *Ledger) findByID(handle string) (core.Expense, bool) {
	if len(handle) < minPrefixLen {
		return core.Expense{}, false
	}
	var found []core.Expense
	for _, e := range l.items {
		if e.ID == handle {
			return e, true
		}
		if strings.HasPrefix(e.ID, handle) {
			found = append(found, e)
		}
	}
	if len(found) != 1 {
		return core.Expense{}, false
	}
	return found[0], true
}

// Edit replaces the record with the given ID in place and rewrites the store.
// Unknown IDs return core.ErrNotFound and leave everything untouched.
func (l *Ledger) Edit(ctx context.Context, id string, p Patch) (core.Expense, error) {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	updated := l.items[idx]
	if p.Amount != nil {
		updated.Amount = *p.Amount
	}
	if p.Category != nil {
		updated.Category = *p.Category
	}
	if p.Description != nil {
		updated.Description = *p.Description
	}
	if err := l.policy.Validate(updated); err != nil {
		l.mu.Unlock()
		return core.Expense{}, err
	}

	l.items[idx] = updated
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense updated",
		log.NewFields().WithOperation(log.OpEdit).WithExpense(updated.ID, updated.Amount.String(), updated.Category).ToSlice()...)
	l.notify(ctx, core.ChangeEdited, updated)

	if err != nil {
		return updated, l.persistError(ctx, log.OpEdit, err)
	}
	return updated, nil
}

// Delete removes the record with the given ID and rewrites the store.
func (l *Ledger) Delete(ctx context.Context, id string) (core.Expense, error) {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	removed := l.items[idx]
	l.items = append(l.items[:idx:idx], l.items[idx+1:]...)
	err := l.saveLocked(ctx)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense deleted",
		log.NewFields().WithOperation(log.OpDelete).WithExpense(removed.ID, removed.Amount.String(), removed.Category).ToSlice()...)
	l.notify(ctx, core.ChangeDeleted, removed)

	if err != nil {
		return removed, l.persistError(ctx, log.OpDelete, err)
	}
	return removed, nil
}

// Close rewrites the store from memory one last time.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	err := l.saveLocked(ctx)
	n := len(l.items)
	l.mu.Unlock()

	if err != nil {
		return l.persistError(ctx, log.OpSave, err)
	}
	l.logger.InfoContext(ctx, "Ledger saved", log.FieldOperation, log.OpSave, log.FieldRecords, n)
	return nil
}

func (l *Ledger) saveLocked(ctx context.Context) error {
	return l.store.Save(ctx, append([]core.Expense(nil), l.items...))
}

func (l *Ledger) indexOf(id string) int {
	for i, e := range l.items {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) persistError(ctx context.Context, op string, err error) error {
	l.logger.WarnContext(ctx, "Ledger and store may have diverged",
		log.NewFields().WithOperation(op).WithError(err).ToSlice()...)
	return fmt.Errorf("%w: %w", core.ErrPersist, err)
}

func (l *Ledger) notify(ctx context.Context, kind core.ChangeKind, e core.Expense) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.PublishChange(ctx, kind, e); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice()...)
		return
	}
	l.logger.DebugContext(ctx, "Published ledger event",
		log.NewFields().WithOperation(log.OpPublish).WithExpense(e.ID, e.Amount.String(), e.Category).ToSlice()...)
}
