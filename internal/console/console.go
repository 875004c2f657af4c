// Package console runs the numbered interactive menu over a ledger.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

const (
	choiceAdd = iota + 1
	choiceViewAll
	choiceFilter
	choiceTotal
	choiceEdit
	choiceDelete
	choiceExit
)

type Console struct {
	ledger   *ledger.Ledger
	p        *prompter
	currency string
	logger   *log.Logger
}

type Option func(*Console)

// WithCurrency sets the symbol printed before amounts.
func WithCurrency(symbol string) Option {
	return func(c *Console) { c.currency = symbol }
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Console) { c.logger = logger.WithComponent(log.ComponentConsole) }
}

func New(l *ledger.Ledger, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		ledger:   l,
		p:        newPrompter(in, out),
		currency: "₹",
		logger:   log.New(log.DefaultConfig()).WithComponent(log.ComponentConsole),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run loops over the menu until Exit is chosen or input ends. Both save the
// ledger before returning. A cancelled ctx stops the loop between commands
// without saving; whoever cancelled owns the final save.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.printMenu()
		choice, err := c.p.askInt("Choose an option: ")
		if err != nil {
			return c.finish(ctx, err)
		}

		switch choice {
		case choiceAdd:
			err = c.add(ctx)
		case choiceViewAll:
			c.viewAll()
		case choiceFilter:
			err = c.filter()
		case choiceTotal:
			c.total()
		case choiceEdit:
			err = c.edit(ctx)
		case choiceDelete:
			err = c.delete(ctx)
		case choiceExit:
			return c.exit(ctx)
		default:
			c.p.println("❌ Invalid option.")
		}
		if err != nil {
			return c.finish(ctx, err)
		}
	}
}

func (c *Console) printMenu() {
	c.p.println()
	c.p.println("=== Expense Tracker ===")
	c.p.println("1. Add Expense")
	c.p.println("2. View All Expenses")
	c.p.println("3. View Expenses by Category")
	c.p.println("4. View Total Expenditure")
	c.p.println("5. Edit Expense")
	c.p.println("6. Delete Expense")
	c.p.println("7. Exit")
}

// finish treats end of input like Exit; any other read error is returned
// after the ledger has been saved.
func (c *Console) finish(ctx context.Context, readErr error) error {
	if errors.Is(readErr, io.EOF) {
		c.p.println()
		return c.exit(ctx)
	}
	c.logger.ErrorContext(ctx, "Failed to read input", log.FieldError, readErr)
	if err := c.ledger.Close(ctx); err != nil {
		c.p.printf("⚠ Failed to save expenses: %v\n", err)
	}
	return fmt.Errorf("read input: %w", readErr)
}

func (c *Console) exit(ctx context.Context) error {
	c.p.println("👋 Exiting... Have a nice day!")
	if err := c.ledger.Close(ctx); err != nil {
		c.p.printf("⚠ Failed to save expenses: %v\n", err)
	}
	return nil
}

func (c *Console) add(ctx context.Context) error {
	amount, err := c.p.askMoney("Enter amount: "+c.currency, false)
	if err != nil {
		return err
	}
	category, err := c.p.ask("Enter category: ")
	if err != nil {
		return err
	}
	description, err := c.p.ask("Enter description: ")
	if err != nil {
		return err
	}

	_, err = c.ledger.Add(ctx, *amount, category, description)
	switch {
	case err == nil:
		c.p.println("✅ Expense added and saved!")
	case errors.Is(err, core.ErrPersist):
		c.p.printf("⚠ Failed to save expense: %v\n", err)
	default:
		c.reportRejected(err)
	}
	return nil
}

func (c *Console) viewAll() {
	all := c.ledger.All()
	if len(all) == 0 {
		c.p.println("No expenses recorded.")
		return
	}
	c.p.println()
	c.p.println("--- Expense List ---")
	for i, e := range all {
		c.p.println(c.formatRow(i, e))
	}
}

func (c *Console) filter() error {
	category, err := c.p.ask("Enter category to filter by: ")
	if err != nil {
		return err
	}
	c.p.println()
	c.p.println("--- Filtered Expenses ---")
	matches := c.ledger.FilterByCategory(category)
	if len(matches) == 0 {
		c.p.println("No expenses found in this category.")
		return nil
	}
	for _, m := range matches {
		c.p.println(c.formatRow(m.Index, m.Expense))
	}
	return nil
}

func (c *Console) total() {
	c.p.println()
	c.p.printf("Total Expenditure: %s%s\n", c.currency, c.ledger.Total())
}

func (c *Console) edit(ctx context.Context) error {
	target, ok, err := c.resolve("Enter the index or ID of the expense to edit: ")
	if err != nil || !ok {
		return err
	}
	c.p.println("Current Expense: " + c.formatExpense(target))

	var patch ledger.Patch
	if patch.Amount, err = c.p.askMoney("Enter new amount (or press enter to keep the same): "+c.currency, true); err != nil {
		return err
	}
	if patch.Category, err = c.p.askOptional("Enter new category (or press enter to keep the same): "); err != nil {
		return err
	}
	if patch.Description, err = c.p.askOptional("Enter new description (or press enter to keep the same): "); err != nil {
		return err
	}

	_, err = c.ledger.Edit(ctx, target.ID, patch)
	switch {
	case err == nil:
		c.p.println("✅ Expense updated!")
	case errors.Is(err, core.ErrPersist):
		c.p.printf("⚠ Failed to save expenses: %v\n", err)
		c.p.println("✅ Expense updated!")
	default:
		c.reportRejected(err)
	}
	return nil
}

func (c *Console) delete(ctx context.Context) error {
	target, ok, err := c.resolve("Enter the index or ID of the expense to delete: ")
	if err != nil || !ok {
		return err
	}

	_, err = c.ledger.Delete(ctx, target.ID)
	switch {
	case err == nil:
		c.p.println("✅ Expense deleted!")
	case errors.Is(err, core.ErrPersist):
		c.p.printf("⚠ Failed to save expenses: %v\n", err)
		c.p.println("✅ Expense deleted!")
	default:
		c.reportRejected(err)
	}
	return nil
}

// resolve asks for a handle. ok is false when the handle matched nothing;
// the user has already been told.
func (c *Console) resolve(label string) (core.Expense, bool, error) {
	handle, err := c.p.ask(label)
	if err != nil {
		return core.Expense{}, false, err
	}
	e, err := c.ledger.Resolve(handle)
	if err != nil {
		c.p.println("❌ Invalid index.")
		return core.Expense{}, false, nil
	}
	return e, true, nil
}

func (c *Console) reportRejected(err error) {
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		c.p.println("❌ Negative amounts are not allowed.")
	case errors.Is(err, core.ErrInvalidField):
		c.p.println("❌ Category and description cannot contain '|' or line breaks.")
	case errors.Is(err, core.ErrNotFound), errors.Is(err, core.ErrInvalidIndex):
		c.p.println("❌ Invalid index.")
	default:
		c.p.printf("❌ %v\n", err)
	}
}

func (c *Console) formatExpense(e core.Expense) string {
	return fmt.Sprintf("Amount: %s%s, Category: %s, Description: %s", c.currency, e.Amount, e.Category, e.Description)
}

func (c *Console) formatRow(i int, e core.Expense) string {
	return fmt.Sprintf("[%d] %s  %s", i, e.ShortID(), c.formatExpense(e))
}
