package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Family is a named sub-group of the clan with at most one leader.
//
// Invariant: the leader, once set, must belong to the family; the
// repository assigns the leader's family reference in the same
// transaction that saves the family.
type Family struct {
	ID         int64
	Name       string
	Slug       string
	LeaderID   *int64
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FamilyTotals is a read-only rollup of a family's ledger position,
// always computed from live obligation and payment rows.
type FamilyTotals struct {
	TotalPaid        decimal.Decimal
	TotalUnpaid      decimal.Decimal
	TotalPending     decimal.Decimal
	TotalContributed decimal.Decimal
}

// AccountTotals is the per-member equivalent of FamilyTotals.
type AccountTotals struct {
	TotalPaid    decimal.Decimal
	TotalUnpaid  decimal.Decimal
	TotalPending decimal.Decimal
}
