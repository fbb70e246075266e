// Package calculator implements the accounting heart of the treasurer: the
// expense resolver with uneven-split modifiers, the running ledger, and the
// settlement optimizer that zeroes the ledger with the fewest transfers.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/models"
)

// Ledger holds the signed balance of every user with a non-zero position.
// Positive balances are credits, negative ones debts. After every finalized
// expense the balances sum to zero.
type Ledger struct {
	statuses map[models.User]decimal.Decimal
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{statuses: make(map[models.User]decimal.Decimal)}
}

// RestoreLedger rebuilds a ledger from stored balances, dropping any zero
// entries.
func RestoreLedger(balances map[models.User]decimal.Decimal) *Ledger {
	l := NewLedger()
	for user, status := range balances {
		if !status.IsZero() {
			l.statuses[user] = status
		}
	}
	return l
}

// update adds delta to the user's balance and removes the entry when it
// reaches zero. delta must not be zero.
func (l *Ledger) update(user models.User, delta decimal.Decimal) {
	current, ok := l.statuses[user]
	if !ok {
		l.statuses[user] = delta
		return
	}
	next := current.Add(delta)
	if next.IsZero() {
		delete(l.statuses, user)
		return
	}
	l.statuses[user] = next
}

// Balance returns the signed balance of a user, zero when absent.
func (l *Ledger) Balance(user models.User) decimal.Decimal {
	return l.statuses[user]
}

// Balances returns a copy of every non-zero balance.
func (l *Ledger) Balances() map[models.User]decimal.Decimal {
	out := make(map[models.User]decimal.Decimal, len(l.statuses))
	for user, status := range l.statuses {
		out[user] = status
	}
	return out
}

// Len reports how many users currently hold a non-zero balance.
func (l *Ledger) Len() int {
	return len(l.statuses)
}
