// Package service wires the treasurer together: it parses incoming
// messages, resolves expenses against the group directory, keeps the ledger
// and expense history, and formats replies.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/calculator"
	"github.com/tallybot/tally/internal/groups"
	"github.com/tallybot/tally/internal/metrics"
	"github.com/tallybot/tally/internal/models"
	"github.com/tallybot/tally/internal/money"
	"github.com/tallybot/tally/internal/parser"
	"github.com/tallybot/tally/internal/storage"
)

const (
	done          = "Done"
	historyDate   = "02/01/2006"
	historyDebt   = "%s%s - you pay back %s"
	historyCredit = "%s%s - you get back %s"
	balanceLine   = "%s owes %s %s"
)

var starDefault = decimal.NewFromInt(1)

// Message is one incoming chat line: who sent it, when, and the text.
type Message struct {
	Sender string
	Date   time.Time
	Text   string
}

// Treasurer owns the ledger, the expense history and the group directory,
// borrowing a storage facade for persistence. It is single-writer: Handle
// runs to completion before the next call.
type Treasurer struct {
	store     *storage.Store
	ledger    *calculator.Ledger
	history   []*calculator.Expense
	directory *groups.Directory
}

// New loads the treasurer's state from the store. Missing keys load as
// empty collections.
func New(ctx context.Context, store *storage.Store) (*Treasurer, error) {
	history, err := store.LoadExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	ledger, err := store.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	directory, err := store.LoadGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	slog.Info("treasurer state loaded",
		"expenses", len(history),
		"open_balances", ledger.Len(),
	)
	return &Treasurer{
		store:     store,
		ledger:    ledger,
		history:   history,
		directory: directory,
	}, nil
}

// Handle processes one message and returns the reply. ok reports whether a
// reply should be sent at all: malformed input and failed commands are
// silent.
func (t *Treasurer) Handle(ctx context.Context, msg Message) (reply string, ok bool) {
	cmd := parser.Parse(msg.Text)
	metrics.Commands.WithLabelValues(cmd.Kind.String()).Inc()

	switch cmd.Kind {
	case parser.KindExpense:
		if t.handleExpense(ctx, msg, cmd) {
			return done, true
		}
		return "", false
	case parser.KindBalance:
		return t.balanceReport(), true
	case parser.KindHistory:
		return t.historyReport(models.User{Name: msg.Sender}), true
	case parser.KindCreateGroup:
		return t.groupCommand(ctx, cmd.Kind, func() error {
			return t.directory.Create(cmd.Group)
		})
	case parser.KindAddMember:
		return t.groupCommand(ctx, cmd.Kind, func() error {
			return t.directory.AddMember(cmd.Group, models.User{Name: cmd.User})
		})
	case parser.KindRemoveMember:
		return t.groupCommand(ctx, cmd.Kind, func() error {
			return t.directory.RemoveMember(cmd.Group, models.User{Name: cmd.User})
		})
	}
	return "", false
}

// Ledger exposes the current ledger for read-only inspection.
func (t *Treasurer) Ledger() *calculator.Ledger {
	return t.ledger
}

// handleExpense builds, finalizes and persists one expense. Any failure
// discards the expense without touching the ledger.
func (t *Treasurer) handleExpense(ctx context.Context, msg Message, cmd parser.Command) bool {
	payer := models.User{Name: msg.Sender}
	expense := calculator.NewExpense(msg.Date, cmd.Description, cmd.Amount, payer)

	// direct user handles resolve before group handles, so a duplicate is
	// detected against everyone already added
	seen := make(map[models.User]struct{})
	for _, p := range cmd.Participants {
		if p.IsGroup {
			continue
		}
		user := models.User{Name: p.Handle}
		if _, dup := seen[user]; dup {
			t.rejectDuplicate(payer, user)
			return false
		}
		seen[user] = struct{}{}
		expense.AddParticipant(user, modifier(p.PlusMod, decimal.Zero), modifier(p.StarMod, starDefault))
	}
	for _, p := range cmd.Participants {
		if !p.IsGroup {
			continue
		}
		plusMod := modifier(p.PlusMod, decimal.Zero)
		starMod := modifier(p.StarMod, starDefault)
		for _, user := range t.directory.Members(p.Handle) {
			if _, dup := seen[user]; dup {
				t.rejectDuplicate(payer, user)
				return false
			}
			seen[user] = struct{}{}
			expense.AddParticipant(user, plusMod, starMod)
		}
	}

	if err := expense.Finalize(t.ledger); err != nil {
		metrics.ExpenseFailures.WithLabelValues(failureReason(err)).Inc()
		slog.Warn("expense rejected",
			"payer", payer.Name,
			"amount", money.Format(expense.Amount()),
			"reason", err,
		)
		return false
	}
	t.history = append(t.history, expense)
	metrics.Expenses.Inc()
	slog.Info("expense finalized",
		"id", expense.ID(),
		"payer", payer.Name,
		"amount", money.Format(expense.Amount()),
		"payer_credit", money.Format(expense.PayerCredit()),
		"participants", len(seen),
	)

	if err := t.store.SaveExpenses(ctx, t.history); err != nil {
		slog.Error("failed to persist expenses", "error", err)
	}
	if err := t.store.SaveLedger(ctx, t.ledger); err != nil {
		slog.Error("failed to persist ledger", "error", err)
	}
	return true
}

func (t *Treasurer) rejectDuplicate(payer, user models.User) {
	metrics.ExpenseFailures.WithLabelValues("duplicate_participant").Inc()
	slog.Warn("expense rejected",
		"payer", payer.Name,
		"reason", "duplicate participant",
		"user", user.Name,
	)
}

// failureReason maps finalization errors to stable metric labels.
func failureReason(err error) string {
	switch {
	case errors.Is(err, calculator.ErrEmptyExpense):
		return "empty_expense"
	case errors.Is(err, calculator.ErrPlusModTooLarge):
		return "plus_mod_too_large"
	case errors.Is(err, calculator.ErrPhantomMoney):
		return "phantom_money"
	}
	return "other"
}

// groupCommand applies one directory mutation, persisting on success and
// staying silent on failure.
func (t *Treasurer) groupCommand(ctx context.Context, kind parser.Kind, apply func() error) (string, bool) {
	if err := apply(); err != nil {
		slog.Debug("group command failed", "kind", kind.String(), "reason", err)
		return "", false
	}
	if err := t.store.SaveGroups(ctx, t.directory); err != nil {
		slog.Error("failed to persist groups", "error", err)
	}
	return done, true
}

// balanceReport renders the optimal settlement, one transfer per line. An
// empty ledger yields an empty (but still sent) reply.
func (t *Treasurer) balanceReport() string {
	statements := t.ledger.Statements()
	metrics.Settlements.Inc()
	metrics.SettlementStatements.Observe(float64(len(statements)))
	slog.Info("settlement computed",
		"open_balances", t.ledger.Len(),
		"statements", len(statements),
	)
	lines := make([]string, len(statements))
	for i, s := range statements {
		lines[i] = fmt.Sprintf(balanceLine, s.Debtor.Name, s.Creditor.Name, money.Format(s.Amount))
	}
	return strings.Join(lines, "\n")
}

// historyReport renders the sender's view of the expense history: what they
// get back as payer, what they pay back as debtor.
func (t *Treasurer) historyReport(user models.User) string {
	var lines []string
	for _, expense := range t.history {
		description := ""
		if expense.Description() != "" {
			description = " " + expense.Description()
		}
		date := expense.Date().Format(historyDate)
		switch {
		case expense.IsPayer(user):
			lines = append(lines, fmt.Sprintf(historyCredit, date, description, money.Format(expense.PayerCredit())))
		case expense.IsDebtor(user):
			share, _ := expense.Share(user)
			lines = append(lines, fmt.Sprintf(historyDebt, date, description, money.Format(share)))
		}
	}
	return strings.Join(lines, "\n")
}

// modifier returns the parsed modifier value, or the default when absent.
func modifier(value *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if value == nil {
		return fallback
	}
	return *value
}
