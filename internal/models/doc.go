// Package models defines the domain values shared across the treasurer:
// users and settlement statements. Expenses and the ledger live in the
// calculator package because they carry the accounting behavior.
package models
