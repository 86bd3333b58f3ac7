package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrFamilyRequired is returned when scope is "family" but no family is set.
	ErrFamilyRequired = errors.New("a family must be selected when scope is 'family'")
	// ErrFamilyForbidden is returned when a family is set for a non-family scope.
	ErrFamilyForbidden = errors.New("family may only be set for 'family' scope")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("amount must be a positive value")
)

// ContributionType is an obligation template. Creating one fans out a
// MemberContribution to every member in its scope; amount and scope are
// immutable afterwards and never retroactively alter generated
// obligations.
type ContributionType struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Category    Category
	FamilyID    *int64
	Amount      decimal.Decimal
	Recurrence  Recurrence
	Scope       Scope
	DueDate     *time.Time
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate enforces the scope/family invariant and basic field checks.
func (ct *ContributionType) Validate() error {
	if !ct.Scope.Valid() {
		return errors.New("invalid scope")
	}
	if !ct.Recurrence.Valid() {
		return errors.New("invalid recurrence")
	}
	if !ct.Category.Valid() {
		return errors.New("invalid category")
	}
	if !ct.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if ct.Scope == ScopeFamily && ct.FamilyID == nil {
		return ErrFamilyRequired
	}
	if ct.Scope != ScopeFamily && ct.FamilyID != nil {
		return ErrFamilyForbidden
	}
	return nil
}

// ObligationDueDate computes the due date for generated obligations:
// the template's explicit due date when present, otherwise derived from
// the recurrence relative to today.
func (ct *ContributionType) ObligationDueDate(today time.Time) time.Time {
	if ct.DueDate != nil {
		return *ct.DueDate
	}
	return DueDateForRecurrence(ct.Recurrence, today)
}

// DueDateForRecurrence derives a due date from a recurrence:
// monthly is one calendar month out, annual one year, once-off a week.
func DueDateForRecurrence(r Recurrence, today time.Time) time.Time {
	switch r {
	case RecurrenceMonthly:
		return today.AddDate(0, 1, 0)
	case RecurrenceAnnual:
		return today.AddDate(1, 0, 0)
	case RecurrenceOnceOff:
		return today.AddDate(0, 0, 7)
	}
	return today
}

// MemberContribution is one member's obligation for one contribution
// cycle. Unique per (account, contribution type, due date). Status is
// written only by the reconciliation engine or an explicit staff
// override.
type MemberContribution struct {
	ID                 int64
	AccountID          int64
	ContributionTypeID int64
	AmountDue          decimal.Decimal
	Reference          string
	DueDate            time.Time
	Status             ContributionStatus
	CheckoutID         *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Balance returns the amount still owed given the sum of confirmed
// payments.
func (mc *MemberContribution) Balance(totalPaid decimal.Decimal) decimal.Decimal {
	return mc.AmountDue.Sub(totalPaid)
}

// StatusForTotal derives an obligation's status from the sum of its
// payments. The rule is deterministic and re-runnable from scratch:
// sum >= due is PAID, a positive partial sum is PARTIALLY_PAID, and
// zero is NOT_PAID. PENDING and CANCELLED are set explicitly, never by
// this recompute.
func StatusForTotal(totalPaid, amountDue decimal.Decimal) ContributionStatus {
	if totalPaid.GreaterThanOrEqual(amountDue) {
		return StatusPaid
	}
	if totalPaid.IsPositive() {
		return StatusPartiallyPaid
	}
	return StatusNotPaid
}
