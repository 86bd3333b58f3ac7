package models

import (
	"strings"
	"time"
)

// Account represents a clan member.
//
// New registrations start inactive and unapproved: activation happens
// through the emailed verification token, approval through an executive
// action. Only active+approved accounts are eligible for obligation
// fan-outs.
type Account struct {
	ID            int64
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         string
	Role          Role
	FamilyID      *int64
	IsActive      bool
	IsApproved    bool
	IsStaff       bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns the member's display name.
func (a Account) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.Email
	}
	return name
}

// Eligible reports whether the account can be targeted by a fan-out.
func (a *Account) Eligible() bool {
	return a.IsActive && a.IsApproved
}

// Session represents an authenticated session
type Session struct {
	ID        string
	AccountID int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
