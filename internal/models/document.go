package models

import "time"

// DocumentVisibility controls who may view a clan document.
type DocumentVisibility string

const (
	VisibilityClan    DocumentVisibility = "clan"
	VisibilityFamily  DocumentVisibility = "family"
	VisibilityPrivate DocumentVisibility = "private"
)

// Valid reports whether the visibility is a known value.
func (v DocumentVisibility) Valid() bool {
	switch v {
	case VisibilityClan, VisibilityFamily, VisibilityPrivate:
		return true
	}
	return false
}

// DocumentCategory classifies uploaded clan documents.
type DocumentCategory string

const (
	DocCategoryMinutes DocumentCategory = "minutes"
	DocCategoryReport  DocumentCategory = "report"
	DocCategoryEvent   DocumentCategory = "event"
	DocCategoryPolicy  DocumentCategory = "policy"
	DocCategoryOther   DocumentCategory = "other"
)

// ClanDocument is an uploaded document (minutes, reports, policies) with
// visibility-based access control.
type ClanDocument struct {
	ID          int64
	Title       string
	Slug        string
	Description string
	Category    DocumentCategory
	FilePath    string
	Visibility  DocumentVisibility
	FamilyID    *int64
	UploadedBy  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccessibleBy reports whether the account may view this document.
// Staff and the chairperson see everything; clan documents are visible
// to all members; family documents only to that family; private
// documents to staff alone.
func (d *ClanDocument) AccessibleBy(account *Account) bool {
	if account == nil {
		return false
	}
	if account.IsStaff || account.Role == RoleChairperson {
		return true
	}

	switch d.Visibility {
	case VisibilityClan:
		return true
	case VisibilityFamily:
		return d.FamilyID != nil && account.FamilyID != nil && *d.FamilyID == *account.FamilyID
	case VisibilityPrivate:
		return false
	}
	return false
}
