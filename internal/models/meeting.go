package models

import "time"

// MeetingType distinguishes online from in-person meetings.
type MeetingType string

const (
	MeetingOnline   MeetingType = "online"
	MeetingInPerson MeetingType = "in_person"
)

// Meeting is a scheduled clan or family gathering. Audience uses the
// same scope rules as contribution fan-outs.
type Meeting struct {
	ID        int64
	Title     string
	Slug      string
	Details   string
	Type      MeetingType
	Venue     string
	Link      string
	Audience  Scope
	FamilyID  *int64
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOnline reports whether the meeting happens over a link.
func (m Meeting) IsOnline() bool {
	return m.Type == MeetingOnline
}

// When formats the meeting window for display.
func (m Meeting) When() string {
	start := m.StartsAt.Local()
	end := m.EndsAt.Local()
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return start.Format("Mon 02 Jan 2006, 15:04") + " - " + end.Format("15:04")
	}
	return start.Format("Mon 02 Jan 2006, 15:04") + " - " + end.Format("Mon 02 Jan 2006, 15:04")
}
