package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"
)

// MeetingRepository handles meeting operations
type MeetingRepository struct {
	db *database.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *database.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

const meetingColumns = `id, title, slug, details, meeting_type, venue, link,
	audience, family_id, starts_at, ends_at, created_by, created_at, updated_at`

func scanMeeting(row interface{ Scan(...interface{}) error }) (*models.Meeting, error) {
	m := &models.Meeting{}
	var meetingType, audience string
	err := row.Scan(
		&m.ID, &m.Title, &m.Slug, &m.Details, &meetingType, &m.Venue, &m.Link,
		&audience, &m.FamilyID, &m.StartsAt, &m.EndsAt, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Type = models.MeetingType(meetingType)
	m.Audience = models.Scope(audience)
	return m, nil
}

// CreateMeeting inserts a meeting with a collision-free slug.
func (r *MeetingRepository) CreateMeeting(m *models.Meeting) (*models.Meeting, error) {
	slug, err := uniqueSlug(Slugify(m.Title), r.slugExists)
	if err != nil {
		return nil, err
	}
	m.Slug = slug

	query := `INSERT INTO meetings
		(title, slug, details, meeting_type, venue, link, audience, family_id, starts_at, ends_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query,
		m.Title, m.Slug, m.Details, string(m.Type), m.Venue, m.Link,
		string(m.Audience), m.FamilyID, m.StartsAt, m.EndsAt, m.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}
	m.ID = id
	return m, nil
}

// GetMeetingBySlug retrieves a meeting by slug, or nil when absent.
func (r *MeetingRepository) GetMeetingBySlug(slug string) (*models.Meeting, error) {
	query := "SELECT " + meetingColumns + " FROM meetings WHERE slug = ?"
	m, err := scanMeeting(r.db.QueryRow(query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return m, nil
}

// ListUpcomingMeetings retrieves meetings that have not ended yet,
// soonest first.
func (r *MeetingRepository) ListUpcomingMeetings(now time.Time) ([]models.Meeting, error) {
	query := "SELECT " + meetingColumns + " FROM meetings WHERE ends_at >= ? ORDER BY starts_at"
	return r.queryMeetings(query, now)
}

// ListMeetings retrieves every meeting, most recent start first.
func (r *MeetingRepository) ListMeetings() ([]models.Meeting, error) {
	query := "SELECT " + meetingColumns + " FROM meetings ORDER BY starts_at DESC"
	return r.queryMeetings(query)
}

func (r *MeetingRepository) queryMeetings(query string, args ...interface{}) ([]models.Meeting, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *m)
	}
	return meetings, rows.Err()
}

// UpdateMeeting persists the editable fields. The slug survives renames
// so circulated links keep working.
func (r *MeetingRepository) UpdateMeeting(m *models.Meeting) error {
	query := `UPDATE meetings SET title = ?, details = ?, meeting_type = ?, venue = ?,
		link = ?, audience = ?, family_id = ?, starts_at = ?, ends_at = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, m.Title, m.Details, string(m.Type), m.Venue,
		m.Link, string(m.Audience), m.FamilyID, m.StartsAt, m.EndsAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return nil
}

// DeleteMeeting removes a meeting.
func (r *MeetingRepository) DeleteMeeting(id int64) error {
	_, err := r.db.Exec("DELETE FROM meetings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) slugExists(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM meetings WHERE slug = ?", slug).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
