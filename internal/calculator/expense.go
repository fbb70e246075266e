package calculator

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/models"
	"github.com/tallybot/tally/internal/money"
)

// Finalization failures. The whole expense is discarded on any of them and
// the ledger is left untouched.
var (
	// ErrEmptyExpense is returned when an expense has no participants
	// besides the payer.
	ErrEmptyExpense = errors.New("expense has no participants")

	// ErrPlusModTooLarge is returned when the plus modifiers sum to more
	// than the expense amount.
	ErrPlusModTooLarge = errors.New("plus modifiers exceed the expense amount")

	// ErrPhantomMoney is returned when money is left to distribute but no
	// participant carries a star modifier to absorb it.
	ErrPhantomMoney = errors.New("no star modifier to absorb the remaining amount")
)

// Detail records one participant's modifiers and, after finalization, their
// computed share.
type Detail struct {
	PlusMod decimal.Decimal
	StarMod decimal.Decimal
	Share   decimal.Decimal
}

// Expense is a single expense submitted by a payer. It is built up with
// AddParticipant and sealed by Finalize; a finalized expense is immutable.
type Expense struct {
	id          string
	date        time.Time
	description string
	amount      decimal.Decimal
	payer       models.User

	// the payer's own modifiers count toward the totals but the payer
	// never appears in details
	payerPlus   decimal.Decimal
	payerStar   decimal.Decimal
	payerCredit decimal.Decimal

	details map[models.User]Detail

	totalPlus decimal.Decimal
	totalStar decimal.Decimal
	finalized bool
}

// NewExpense creates a draft expense. The amount is normalized to scale 2.
func NewExpense(date time.Time, description string, amount decimal.Decimal, payer models.User) *Expense {
	return &Expense{
		id:          uuid.New().String(),
		date:        date,
		description: description,
		amount:      money.Round(amount),
		payer:       payer,
		details:     make(map[models.User]Detail),
	}
}

// RestoreExpense rebuilds a finalized expense from its stored form. The
// payer credit and modifier totals are recomputed from the details.
func RestoreExpense(id string, date time.Time, description string, amount decimal.Decimal,
	payer models.User, payerPlus, payerStar decimal.Decimal, details map[models.User]Detail) *Expense {
	e := &Expense{
		id:          id,
		date:        date,
		description: description,
		amount:      amount,
		payer:       payer,
		payerPlus:   payerPlus,
		payerStar:   payerStar,
		details:     make(map[models.User]Detail, len(details)),
		totalPlus:   payerPlus,
		totalStar:   payerStar,
		finalized:   true,
	}
	for u, d := range details {
		e.details[u] = d
		e.totalPlus = e.totalPlus.Add(d.PlusMod)
		e.totalStar = e.totalStar.Add(d.StarMod)
		e.payerCredit = e.payerCredit.Add(d.Share)
	}
	return e
}

// AddParticipant adds a user to the expense with the given modifiers, both
// normalized to scale 2. Adding the payer records their modifiers without
// making them a debtor. A no-op on a finalized expense.
func (e *Expense) AddParticipant(user models.User, plusMod, starMod decimal.Decimal) {
	if e.finalized {
		return
	}
	plusMod = money.Round(plusMod)
	starMod = money.Round(starMod)
	if user == e.payer {
		e.payerPlus = plusMod
		e.payerStar = starMod
	} else {
		e.details[user] = Detail{PlusMod: plusMod, StarMod: starMod}
	}
	e.totalPlus = e.totalPlus.Add(plusMod)
	e.totalStar = e.totalStar.Add(starMod)
}

// Finalize computes every participant's share and applies the expense to the
// ledger, then seals the expense. Shares are computed before any ledger
// mutation, so a failed finalization leaves the ledger untouched.
func (e *Expense) Finalize(ledger *Ledger) error {
	if e.finalized {
		return nil
	}
	if len(e.details) == 0 {
		return ErrEmptyExpense
	}
	if err := e.computeShares(); err != nil {
		return err
	}
	e.apply(ledger)
	e.finalized = true
	return nil
}

// computeShares resolves each non-payer share from the common per-star
// fraction and accumulates the payer credit.
func (e *Expense) computeShares() error {
	var commonFraction decimal.Decimal
	switch e.amount.Cmp(e.totalPlus) {
	case -1:
		return ErrPlusModTooLarge
	case 0:
		commonFraction = decimal.Zero
	default:
		if e.totalStar.IsZero() {
			return ErrPhantomMoney
		}
		commonFraction = money.DivBank(e.amount.Sub(e.totalPlus), e.totalStar, money.DivisionScale)
	}
	for user, detail := range e.details {
		detail.Share = money.Round(commonFraction.Mul(detail.StarMod).Add(detail.PlusMod))
		e.details[user] = detail
		e.payerCredit = e.payerCredit.Add(detail.Share)
	}
	return nil
}

// apply posts the payer credit and every debtor share to the ledger,
// skipping zero deltas so the ledger never sees a no-op update.
func (e *Expense) apply(ledger *Ledger) {
	if !e.payerCredit.IsZero() {
		ledger.update(e.payer, e.payerCredit)
	}
	for user, detail := range e.details {
		if detail.Share.IsZero() {
			continue
		}
		ledger.update(user, detail.Share.Neg())
	}
}

func (e *Expense) ID() string          { return e.id }
func (e *Expense) Date() time.Time     { return e.date }
func (e *Expense) Description() string { return e.description }

func (e *Expense) Amount() decimal.Decimal { return e.amount }
func (e *Expense) Payer() models.User      { return e.payer }
func (e *Expense) Finalized() bool         { return e.finalized }

// PayerCredit is the sum of all non-payer shares, owed to the payer.
func (e *Expense) PayerCredit() decimal.Decimal { return e.payerCredit }

// PayerMods returns the payer's own plus and star modifiers.
func (e *Expense) PayerMods() (plusMod, starMod decimal.Decimal) {
	return e.payerPlus, e.payerStar
}

func (e *Expense) IsPayer(user models.User) bool { return user == e.payer }

func (e *Expense) IsDebtor(user models.User) bool {
	_, ok := e.details[user]
	return ok
}

// Share returns the computed share of a non-payer participant.
func (e *Expense) Share(user models.User) (decimal.Decimal, bool) {
	d, ok := e.details[user]
	return d.Share, ok
}

// Details returns a copy of the per-participant details.
func (e *Expense) Details() map[models.User]Detail {
	out := make(map[models.User]Detail, len(e.details))
	for u, d := range e.details {
		out[u] = d
	}
	return out
}
