package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/models"
)

var (
	aa = models.User{Name: "AA"}
	bb = models.User{Name: "BB"}
	cc = models.User{Name: "CC"}
	dd = models.User{Name: "DD"}
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

type participant struct {
	user    models.User
	plusMod string
	starMod string
}

func buildExpense(t *testing.T, amount string, payer models.User, participants []participant) *Expense {
	t.Helper()
	e := NewExpense(time.Now(), "", dec(t, amount), payer)
	for _, p := range participants {
		e.AddParticipant(p.user, dec(t, p.plusMod), dec(t, p.starMod))
	}
	return e
}

func assertBalance(t *testing.T, l *Ledger, user models.User, want string) {
	t.Helper()
	if got := l.Balance(user); !got.Equal(dec(t, want)) {
		t.Errorf("balance of %s = %s, want %s", user, got, want)
	}
}

func TestFinalizeEqualSplit(t *testing.T) {
	l := NewLedger()
	e := buildExpense(t, "30", aa, []participant{
		{aa, "0", "1"},
		{bb, "0", "1"},
		{cc, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	assertBalance(t, l, aa, "20.00")
	assertBalance(t, l, bb, "-10.00")
	assertBalance(t, l, cc, "-10.00")
	if !e.PayerCredit().Equal(dec(t, "20.00")) {
		t.Errorf("payer credit = %s, want 20.00", e.PayerCredit())
	}
}

func TestFinalizePlusModifier(t *testing.T) {
	l := NewLedger()
	e := buildExpense(t, "30", aa, []participant{
		{aa, "0", "1"},
		{bb, "5", "1"},
		{cc, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	// commonFraction = (30-5)/3 = 8.333
	share, _ := e.Share(bb)
	if !share.Equal(dec(t, "13.33")) {
		t.Errorf("BB share = %s, want 13.33", share)
	}
	assertBalance(t, l, aa, "21.66")
	assertBalance(t, l, bb, "-13.33")
	assertBalance(t, l, cc, "-8.33")
}

func TestFinalizeStarModifier(t *testing.T) {
	l := NewLedger()
	e := buildExpense(t, "100", aa, []participant{
		{aa, "0", "1"},
		{bb, "0", "3"},
		{cc, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	share, _ := e.Share(bb)
	if !share.Equal(dec(t, "60.00")) {
		t.Errorf("BB share = %s, want 60.00", share)
	}
	share, _ = e.Share(cc)
	if !share.Equal(dec(t, "20.00")) {
		t.Errorf("CC share = %s, want 20.00", share)
	}
	if !e.PayerCredit().Equal(dec(t, "80.00")) {
		t.Errorf("payer credit = %s, want 80.00", e.PayerCredit())
	}
}

func TestFinalizeFailures(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		participants []participant
		want         error
	}{
		{
			name:   "no participants",
			amount: "10",
			want:   ErrEmptyExpense,
		},
		{
			name:   "payer only",
			amount: "10",
			participants: []participant{
				{aa, "0", "1"},
			},
			want: ErrEmptyExpense,
		},
		{
			name:   "plus modifiers exceed amount",
			amount: "10",
			participants: []participant{
				{aa, "0", "1"},
				{bb, "20", "1"},
			},
			want: ErrPlusModTooLarge,
		},
		{
			name:   "phantom money",
			amount: "10",
			participants: []participant{
				{aa, "3", "0"},
				{bb, "2", "0"},
			},
			want: ErrPhantomMoney,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			e := buildExpense(t, tt.amount, aa, tt.participants)
			err := e.Finalize(l)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Finalize error = %v, want %v", err, tt.want)
			}
			if l.Len() != 0 {
				t.Errorf("ledger mutated by failed finalization: %v", l.Balances())
			}
			if e.Finalized() {
				t.Error("expense marked finalized after failure")
			}
		})
	}
}

func TestFinalizeExactPlusAssignment(t *testing.T) {
	// amount == totalPlus: the common fraction is zero and every share is
	// its plus modifier
	l := NewLedger()
	e := buildExpense(t, "10", aa, []participant{
		{bb, "4", "0"},
		{cc, "6", "0"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	assertBalance(t, l, aa, "10.00")
	assertBalance(t, l, bb, "-4.00")
	assertBalance(t, l, cc, "-6.00")
}

func TestFinalizeZeroShareSkipsLedger(t *testing.T) {
	// BB's share is exactly zero, so neither BB nor the payer may acquire a
	// ledger entry
	l := NewLedger()
	e := buildExpense(t, "5", aa, []participant{
		{aa, "5", "0"},
		{bb, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %v", l.Balances())
	}
}

func TestAddParticipantAfterFinalizeIsNoOp(t *testing.T) {
	l := NewLedger()
	e := buildExpense(t, "30", aa, []participant{
		{bb, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	e.AddParticipant(cc, dec(t, "0"), dec(t, "1"))
	if e.IsDebtor(cc) {
		t.Error("participant added after finalization")
	}
}

func TestFinalizeLedgerDeltaSumsToZero(t *testing.T) {
	cases := [][]participant{
		{{aa, "0", "1"}, {bb, "0", "1"}, {cc, "0", "1"}},
		{{aa, "0", "1"}, {bb, "5", "1"}, {cc, "0", "1"}},
		{{bb, "0", "3"}, {cc, "1.25", "1"}, {dd, "0", "2"}},
		{{bb, "0.01", "0.5"}, {cc, "0", "0.5"}},
	}
	for _, participants := range cases {
		l := NewLedger()
		e := buildExpense(t, "100", aa, participants)
		if err := e.Finalize(l); err != nil {
			t.Fatalf("Finalize failed: %v", err)
		}
		sum := decimal.Zero
		for _, status := range l.Balances() {
			sum = sum.Add(status)
		}
		if !sum.IsZero() {
			t.Errorf("ledger sum = %s after %v, want 0", sum, participants)
		}
	}
}

func TestRestoreExpenseRoundTrip(t *testing.T) {
	l := NewLedger()
	e := buildExpense(t, "30", aa, []participant{
		{aa, "0", "1"},
		{bb, "5", "1"},
		{cc, "0", "1"},
	})
	if err := e.Finalize(l); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	plusMod, starMod := e.PayerMods()
	restored := RestoreExpense(e.ID(), e.Date(), e.Description(), e.Amount(), e.Payer(), plusMod, starMod, e.Details())
	if !restored.Finalized() {
		t.Error("restored expense not finalized")
	}
	if !restored.PayerCredit().Equal(e.PayerCredit()) {
		t.Errorf("restored payer credit = %s, want %s", restored.PayerCredit(), e.PayerCredit())
	}
	share, ok := restored.Share(bb)
	if !ok || !share.Equal(dec(t, "13.33")) {
		t.Errorf("restored BB share = %s (ok=%v), want 13.33", share, ok)
	}
}
