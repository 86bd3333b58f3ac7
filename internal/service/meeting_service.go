package service

import (
	"errors"
	"time"

	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/validation"
)

var ErrMeetingNotFound = errors.New("meeting not found")

// MeetingService handles meeting scheduling
type MeetingService struct {
	meetingRepo *repository.MeetingRepository
}

// NewMeetingService creates a new meeting service
func NewMeetingService(meetingRepo *repository.MeetingRepository) *MeetingService {
	return &MeetingService{meetingRepo: meetingRepo}
}

// Schedule validates and saves a meeting.
func (s *MeetingService) Schedule(actor *models.Account, m *models.Meeting) (*models.Meeting, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageMeetings) {
		return nil, ErrForbidden
	}
	if err := s.validate(m); err != nil {
		return nil, err
	}
	m.CreatedBy = &actor.ID
	return s.meetingRepo.CreateMeeting(m)
}

// Get retrieves a meeting by slug.
func (s *MeetingService) Get(slug string) (*models.Meeting, error) {
	m, err := s.meetingRepo.GetMeetingBySlug(slug)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMeetingNotFound
	}
	return m, nil
}

// ListUpcoming retrieves meetings that have not ended, filtered to the
// viewer's audience.
func (s *MeetingService) ListUpcoming(viewer *models.Account) ([]models.Meeting, error) {
	meetings, err := s.meetingRepo.ListUpcomingMeetings(time.Now())
	if err != nil {
		return nil, err
	}
	visible := make([]models.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if s.visibleTo(viewer, &m) {
			visible = append(visible, m)
		}
	}
	return visible, nil
}

// Update edits a meeting.
func (s *MeetingService) Update(actor *models.Account, m *models.Meeting) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageMeetings) {
		return ErrForbidden
	}
	if err := s.validate(m); err != nil {
		return err
	}
	return s.meetingRepo.UpdateMeeting(m)
}

// Cancel removes a meeting.
func (s *MeetingService) Cancel(actor *models.Account, slug string) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageMeetings) {
		return ErrForbidden
	}
	m, err := s.meetingRepo.GetMeetingBySlug(slug)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMeetingNotFound
	}
	return s.meetingRepo.DeleteMeeting(m.ID)
}

func (s *MeetingService) validate(m *models.Meeting) error {
	if err := validation.ValidateName("title", m.Title); err != nil {
		return err
	}
	if !m.Audience.Valid() {
		return errors.New("invalid audience")
	}
	if m.Audience == models.ScopeFamily && m.FamilyID == nil {
		return errors.New("family meetings require a family")
	}
	if m.IsOnline() && m.Link == "" {
		return errors.New("online meetings require a link")
	}
	if !m.IsOnline() && m.Venue == "" {
		return errors.New("in-person meetings require a venue")
	}
	if !m.EndsAt.After(m.StartsAt) {
		return errors.New("meeting must end after it starts")
	}
	return nil
}

// visibleTo applies the audience scope to a viewer: clan meetings reach
// everyone, family meetings that family, leader and executive meetings
// their role groups. Executives see everything.
func (s *MeetingService) visibleTo(viewer *models.Account, m *models.Meeting) bool {
	if viewer.IsStaff || viewer.Role.IsExecutive() {
		return true
	}
	switch m.Audience {
	case models.ScopeClan:
		return true
	case models.ScopeFamily:
		return m.FamilyID != nil && viewer.FamilyID != nil && *m.FamilyID == *viewer.FamilyID
	case models.ScopeFamilyLeaders:
		return viewer.Role == models.RoleFamilyLeader
	case models.ScopeExecutives:
		return viewer.Role.IsExecutive()
	}
	return false
}
