package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	ChangeAdded   ChangeKind = "added"
	ChangeEdited  ChangeKind = "edited"
	ChangeDeleted ChangeKind = "deleted"
)

type (
	// ChangeKind names a mutation applied to the ledger.
	ChangeKind string

	// Expense is a single ledger record. ID is opaque and never used for ordering.
	Expense struct {
		ID          string
		Amount      Money
		Category    string
		Description string
	}

	// Policy holds the validation rules applied to new and edited records.
	Policy struct {
		AllowNegative bool
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("negative amounts are not allowed")
	ErrInvalidField   = errors.New("field contains a reserved character")
	ErrNotFound       = errors.New("expense not found")
	ErrInvalidIndex   = errors.New("invalid index")
	ErrPersist        = errors.New("persist ledger")
)

// DefaultPolicy accepts any amount, matching what the ledger file has always allowed.
func DefaultPolicy() Policy {
	return Policy{AllowNegative: true}
}

// NewExpense builds a record with a fresh ID.
func NewExpense(amount Money, category, description string) Expense {
	return Expense{
		ID:          NewID(),
		Amount:      amount,
		Category:    category,
		Description: description,
	}
}

// NewID returns a random opaque record identifier.
func NewID() string {
	return uuid.NewString()
}

// ShortID returns the first 8 characters of the ID for display.
func (e Expense) ShortID() string {
	if len(e.ID) <= 8 {
		return e.ID
	}
	return e.ID[:8]
}

// Same reports whether two records carry the same data, ignoring IDs.
func (e Expense) Same(o Expense) bool {
	return e.Amount.Equal(o.Amount) && e.Category == o.Category && e.Description == o.Description
}

// Equal reports whether two records are the same record with the same data.
func (e Expense) Equal(o Expense) bool {
	return e.ID == o.ID && e.Same(o)
}

// MatchesCategory compares categories case-insensitively. Substrings do not match.
func (e Expense) MatchesCategory(category string) bool {
	return strings.EqualFold(e.Category, category)
}

func (p Policy) Validate(e Expense) error {
	if !p.AllowNegative && e.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if err := validateField(e.Category); err != nil {
		return err
	}
	return validateField(e.Description)
}

// pipes and line breaks would split a persisted line
func validateField(s string) error {
	if strings.ContainsAny(s, "|\r\n") {
		return ErrInvalidField
	}
	return nil
}
