package models

import "github.com/shopspring/decimal"

// Statement is a single transfer of a settlement plan: the debtor pays the
// creditor the given amount. Amount is always strictly positive.
type Statement struct {
	Debtor   User
	Creditor User
	Amount   decimal.Decimal
}
