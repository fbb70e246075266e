// Package storage provides the key/value persistence facade used by the
// treasurer and a typed view over its three blobs: the expense history, the
// ledger, and the group directory. Serialization is JSON with decimal
// amounts as strings; the blobs are opaque to the KV implementations.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallybot/tally/internal/calculator"
	"github.com/tallybot/tally/internal/groups"
	"github.com/tallybot/tally/internal/models"
)

// Keys of the three stored blobs.
const (
	expensesKey = "EXPENSES_LIST"
	balanceKey  = "BALANCE_SUMMARY"
	groupsKey   = "GROUP_SET"
)

// KV is the host-provided key/value store. Values are opaque blobs.
type KV interface {
	// Retrieve returns the value stored under key, reporting whether the
	// key exists.
	Retrieve(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Store writes the value under key, replacing any previous value.
	Store(ctx context.Context, key string, value []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// Store is the typed facade over the KV blobs.
type Store struct {
	kv KV
}

// New wraps a KV implementation.
func New(kv KV) *Store {
	return &Store{kv: kv}
}

// Close closes the underlying KV store.
func (s *Store) Close() error {
	return s.kv.Close()
}

type detailRecord struct {
	PlusMod decimal.Decimal `json:"plus_mod"`
	StarMod decimal.Decimal `json:"star_mod"`
	Share   decimal.Decimal `json:"share"`
}

type expenseRecord struct {
	ID           string                  `json:"id"`
	Date         time.Time               `json:"date"`
	Description  string                  `json:"description,omitempty"`
	Amount       decimal.Decimal         `json:"amount"`
	Payer        string                  `json:"payer"`
	PayerPlus    decimal.Decimal         `json:"payer_plus"`
	PayerStar    decimal.Decimal         `json:"payer_star"`
	Participants map[string]detailRecord `json:"participants"`
}

// LoadExpenses reads the expense history. A missing key yields an empty
// history.
func (s *Store) LoadExpenses(ctx context.Context) ([]*calculator.Expense, error) {
	blob, ok, err := s.kv.Retrieve(ctx, expensesKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve expenses: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var records []expenseRecord
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	expenses := make([]*calculator.Expense, len(records))
	for i, r := range records {
		details := make(map[models.User]calculator.Detail, len(r.Participants))
		for name, d := range r.Participants {
			details[models.User{Name: name}] = calculator.Detail{
				PlusMod: d.PlusMod,
				StarMod: d.StarMod,
				Share:   d.Share,
			}
		}
		expenses[i] = calculator.RestoreExpense(
			r.ID, r.Date, r.Description, r.Amount,
			models.User{Name: r.Payer}, r.PayerPlus, r.PayerStar, details)
	}
	return expenses, nil
}

// SaveExpenses writes the whole expense history.
func (s *Store) SaveExpenses(ctx context.Context, expenses []*calculator.Expense) error {
	records := make([]expenseRecord, len(expenses))
	for i, e := range expenses {
		payerPlus, payerStar := e.PayerMods()
		details := e.Details()
		participants := make(map[string]detailRecord, len(details))
		for user, d := range details {
			participants[user.Name] = detailRecord{
				PlusMod: d.PlusMod,
				StarMod: d.StarMod,
				Share:   d.Share,
			}
		}
		records[i] = expenseRecord{
			ID:           e.ID(),
			Date:         e.Date(),
			Description:  e.Description(),
			Amount:       e.Amount(),
			Payer:        e.Payer().Name,
			PayerPlus:    payerPlus,
			PayerStar:    payerStar,
			Participants: participants,
		}
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Store(ctx, expensesKey, blob); err != nil {
		return fmt.Errorf("store expenses: %w", err)
	}
	return nil
}

// LoadLedger reads the ledger. A missing key yields an empty ledger.
func (s *Store) LoadLedger(ctx context.Context) (*calculator.Ledger, error) {
	blob, ok, err := s.kv.Retrieve(ctx, balanceKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve ledger: %w", err)
	}
	if !ok {
		return calculator.NewLedger(), nil
	}
	var balances map[string]decimal.Decimal
	if err := json.Unmarshal(blob, &balances); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	byUser := make(map[models.User]decimal.Decimal, len(balances))
	for name, status := range balances {
		byUser[models.User{Name: name}] = status
	}
	return calculator.RestoreLedger(byUser), nil
}

// SaveLedger writes the ledger balances.
func (s *Store) SaveLedger(ctx context.Context, ledger *calculator.Ledger) error {
	balances := make(map[string]decimal.Decimal, ledger.Len())
	for user, status := range ledger.Balances() {
		balances[user.Name] = status
	}
	blob, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.kv.Store(ctx, balanceKey, blob); err != nil {
		return fmt.Errorf("store ledger: %w", err)
	}
	return nil
}

// LoadGroups reads the group directory. A missing key yields an empty
// directory.
func (s *Store) LoadGroups(ctx context.Context) (*groups.Directory, error) {
	blob, ok, err := s.kv.Retrieve(ctx, groupsKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve groups: %w", err)
	}
	if !ok {
		return groups.NewDirectory(), nil
	}
	var names map[string][]string
	if err := json.Unmarshal(blob, &names); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	members := make(map[string][]models.User, len(names))
	for group, users := range names {
		list := make([]models.User, len(users))
		for i, name := range users {
			list[i] = models.User{Name: name}
		}
		members[group] = list
	}
	return groups.RestoreDirectory(members), nil
}

// SaveGroups writes the group directory.
func (s *Store) SaveGroups(ctx context.Context, directory *groups.Directory) error {
	snapshot := directory.Snapshot()
	names := make(map[string][]string, len(snapshot))
	for group, users := range snapshot {
		list := make([]string, len(users))
		for i, user := range users {
			list[i] = user.Name
		}
		names[group] = list
	}
	blob, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	if err := s.kv.Store(ctx, groupsKey, blob); err != nil {
		return fmt.Errorf("store groups: %w", err)
	}
	return nil
}
