package models

import "fmt"

// Role is a member's position within the clan. Executive roles carry
// elevated capabilities (approving families and members, managing
// contribution types, logging payments).
type Role string

const (
	RoleMember            Role = "member"
	RoleFamilyLeader      Role = "family_leader"
	RoleSecretary         Role = "secretary"
	RoleDeputySecretary   Role = "deputy_secretary"
	RoleTreasurer         Role = "treasurer"
	RoleDeputyChairperson Role = "deputy_chairperson"
	RoleChairperson       Role = "chairperson"
	RoleKgosana           Role = "kgosana"
)

// ExecutiveRoles is the fixed, ordered set of elevated roles.
var ExecutiveRoles = []Role{
	RoleChairperson,
	RoleDeputyChairperson,
	RoleSecretary,
	RoleDeputySecretary,
	RoleTreasurer,
	RoleKgosana,
	RoleFamilyLeader,
}

// IsExecutive reports whether the role is one of the recognized
// executive ranks.
func (r Role) IsExecutive() bool {
	for _, er := range ExecutiveRoles {
		if r == er {
			return true
		}
	}
	return false
}

// Valid reports whether the role is a known value.
func (r Role) Valid() bool {
	return r == RoleMember || r.IsExecutive()
}

// ParseRole converts a stored string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return r, nil
}

// ContributionStatus is the payment state of a member's obligation.
type ContributionStatus string

const (
	StatusNotPaid       ContributionStatus = "NOT_PAID"
	StatusPending       ContributionStatus = "PENDING"
	StatusPartiallyPaid ContributionStatus = "PARTIALLY_PAID"
	StatusPaid          ContributionStatus = "PAID"
	StatusCancelled     ContributionStatus = "CANCELLED"
)

// Valid reports whether the status is a known value.
func (s ContributionStatus) Valid() bool {
	switch s {
	case StatusNotPaid, StatusPending, StatusPartiallyPaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no automated transition leaves this status.
func (s ContributionStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// ParseContributionStatus converts a stored string into a status.
func ParseContributionStatus(s string) (ContributionStatus, error) {
	cs := ContributionStatus(s)
	if !cs.Valid() {
		return "", fmt.Errorf("unknown contribution status: %q", s)
	}
	return cs, nil
}

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodBank   PaymentMethod = "bank"
	MethodMobile PaymentMethod = "mobile"
	MethodOther  PaymentMethod = "other"
)

// Valid reports whether the method is a known value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodBank, MethodMobile, MethodOther:
		return true
	}
	return false
}

// RequiresGateway reports whether the method completes through the
// external payment gateway.
func (m PaymentMethod) RequiresGateway() bool {
	return m == MethodMobile
}

// ParsePaymentMethod converts a submitted string into a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown payment method: %q", s)
	}
	return m, nil
}

// PaymentStatus is the lifecycle state of one payment attempt. Declared
// offline payments and gateway checkouts start pending; the gateway
// callback or the treasurer finalizes them exactly once. Only confirmed
// payments count toward an obligation's settled total.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether the payment status is a known value.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentFailed:
		return true
	}
	return false
}

// Final reports whether the payment has received its outcome.
func (s PaymentStatus) Final() bool {
	return s == PaymentConfirmed || s == PaymentFailed
}

// ParsePaymentStatus converts a stored string into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	ps := PaymentStatus(s)
	if !ps.Valid() {
		return "", fmt.Errorf("unknown payment status: %q", s)
	}
	return ps, nil
}

// Scope determines which members receive obligations generated from a
// contribution type.
type Scope string

const (
	ScopeClan          Scope = "clan"
	ScopeFamily        Scope = "family"
	ScopeFamilyLeaders Scope = "family_leaders"
	ScopeExecutives    Scope = "executives"
)

// Valid reports whether the scope is a known value.
func (s Scope) Valid() bool {
	switch s {
	case ScopeClan, ScopeFamily, ScopeFamilyLeaders, ScopeExecutives:
		return true
	}
	return false
}

// ParseScope converts a submitted string into a Scope.
func ParseScope(s string) (Scope, error) {
	sc := Scope(s)
	if !sc.Valid() {
		return "", fmt.Errorf("unknown scope: %q", s)
	}
	return sc, nil
}

// Recurrence is how often a contribution type repeats.
type Recurrence string

const (
	RecurrenceOnceOff Recurrence = "once_off"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceAnnual  Recurrence = "annual"
)

// Valid reports whether the recurrence is a known value.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceOnceOff, RecurrenceMonthly, RecurrenceAnnual:
		return true
	}
	return false
}

// ParseRecurrence converts a submitted string into a Recurrence.
func ParseRecurrence(s string) (Recurrence, error) {
	r := Recurrence(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown recurrence: %q", s)
	}
	return r, nil
}

// Category classifies contribution types (stokvel-style funds).
type Category string

const (
	CategoryEvent      Category = "event"
	CategoryBurial     Category = "burial"
	CategorySavings    Category = "savings"
	CategoryInvestment Category = "investment"
	CategoryBusiness   Category = "business"
	CategoryHoliday    Category = "holiday"
	CategoryGrocery    Category = "grocery"
	CategoryEmergency  Category = "emergency"
	CategoryEducation  Category = "education"
	CategoryOther      Category = "other"
)

// Valid reports whether the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryEvent, CategoryBurial, CategorySavings, CategoryInvestment,
		CategoryBusiness, CategoryHoliday, CategoryGrocery, CategoryEmergency,
		CategoryEducation, CategoryOther:
		return true
	}
	return false
}

// ParseCategory converts a submitted string into a Category, defaulting
// to CategoryOther for empty input.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}
