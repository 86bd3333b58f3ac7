package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestStatusForTotal(t *testing.T) {
	due := decimal.NewFromInt(100)

	tests := []struct {
		name      string
		totalPaid decimal.Decimal
		want      ContributionStatus
	}{
		{
			name:      "nothing paid",
			totalPaid: decimal.Zero,
			want:      StatusNotPaid,
		},
		{
			name:      "partial payment",
			totalPaid: decimal.NewFromInt(30),
			want:      StatusPartiallyPaid,
		},
		{
			name:      "exact payment",
			totalPaid: decimal.NewFromInt(100),
			want:      StatusPaid,
		},
		{
			name:      "overpayment",
			totalPaid: decimal.NewFromInt(110),
			want:      StatusPaid,
		},
		{
			name:      "cents accumulate to full",
			totalPaid: decimal.RequireFromString("99.99").Add(decimal.RequireFromString("0.01")),
			want:      StatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForTotal(tt.totalPaid, due); got != tt.want {
				t.Errorf("StatusForTotal(%s, %s) = %v, want %v", tt.totalPaid, due, got, tt.want)
			}
		})
	}
}

func TestStatusForTotalIdempotent(t *testing.T) {
	due := decimal.NewFromInt(50)
	paid := decimal.NewFromInt(30)

	first := StatusForTotal(paid, due)
	second := StatusForTotal(paid, due)
	if first != second {
		t.Errorf("recompute not idempotent: %v then %v", first, second)
	}
}

func TestDueDateForRecurrence(t *testing.T) {
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		recurrence Recurrence
		want       time.Time
	}{
		{
			name:       "monthly adds one calendar month",
			recurrence: RecurrenceMonthly,
			want:       time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "annual adds one year",
			recurrence: RecurrenceAnnual,
			want:       time.Date(2027, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "once off adds seven days",
			recurrence: RecurrenceOnceOff,
			want:       time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DueDateForRecurrence(tt.recurrence, today); !got.Equal(tt.want) {
				t.Errorf("DueDateForRecurrence(%v) = %v, want %v", tt.recurrence, got, tt.want)
			}
		})
	}
}

func TestContributionTypeObligationDueDate(t *testing.T) {
	today := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	explicit := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)

	ct := &ContributionType{
		Recurrence: RecurrenceMonthly,
		DueDate:    &explicit,
	}
	if got := ct.ObligationDueDate(today); !got.Equal(explicit) {
		t.Errorf("explicit due date ignored: got %v, want %v", got, explicit)
	}

	ct.DueDate = nil
	want := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := ct.ObligationDueDate(today); !got.Equal(want) {
		t.Errorf("derived due date = %v, want %v", got, want)
	}
}

func TestContributionTypeValidate(t *testing.T) {
	familyID := int64(3)

	tests := []struct {
		name    string
		ct      ContributionType
		wantErr error
	}{
		{
			name: "clan scope without family",
			ct: ContributionType{
				Scope:      ScopeClan,
				Recurrence: RecurrenceMonthly,
				Category:   CategoryBurial,
				Amount:     decimal.NewFromInt(50),
			},
			wantErr: nil,
		},
		{
			name: "family scope requires family",
			ct: ContributionType{
				Scope:      ScopeFamily,
				Recurrence: RecurrenceOnceOff,
				Category:   CategoryEvent,
				Amount:     decimal.NewFromInt(50),
			},
			wantErr: ErrFamilyRequired,
		},
		{
			name: "family forbidden for clan scope",
			ct: ContributionType{
				Scope:      ScopeClan,
				Recurrence: RecurrenceOnceOff,
				Category:   CategoryEvent,
				Amount:     decimal.NewFromInt(50),
				FamilyID:   &familyID,
			},
			wantErr: ErrFamilyForbidden,
		},
		{
			name: "zero amount rejected",
			ct: ContributionType{
				Scope:      ScopeClan,
				Recurrence: RecurrenceMonthly,
				Category:   CategoryOther,
				Amount:     decimal.Zero,
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "family scope with family",
			ct: ContributionType{
				Scope:      ScopeFamily,
				Recurrence: RecurrenceAnnual,
				Category:   CategorySavings,
				Amount:     decimal.NewFromInt(200),
				FamilyID:   &familyID,
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ct.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemberContributionBalance(t *testing.T) {
	mc := &MemberContribution{AmountDue: decimal.NewFromInt(100)}

	if got := mc.Balance(decimal.NewFromInt(40)); !got.Equal(decimal.NewFromInt(60)) {
		t.Errorf("Balance(40) = %s, want 60", got)
	}
	if got := mc.Balance(decimal.Zero); !got.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Balance(0) = %s, want 100", got)
	}
}
