package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a financial event recorded against an obligation. One row
// is created per payment attempt; pending attempts are finalized once
// with a confirmed or failed outcome. Payments are never deleted;
// deleting an obligation leaves its payments behind with a nil
// obligation reference.
type Payment struct {
	ID                   int64
	CheckoutID           *string
	AccountID            int64
	ContributionTypeID   *int64
	MemberContributionID *int64
	Method               PaymentMethod
	Status               PaymentStatus
	Amount               decimal.Decimal
	Reference            string
	RecordedBy           *int64
	PaymentDate          time.Time
	CreatedAt            time.Time
}
