package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"

	"github.com/shopspring/decimal"
)

// FamilyRepository handles database operations for families
type FamilyRepository struct {
	db *database.DB
}

// NewFamilyRepository creates a new family repository
func NewFamilyRepository(db *database.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

const familyColumns = "id, name, slug, leader_id, is_approved, created_at, updated_at"

func scanFamily(row interface{ Scan(...interface{}) error }) (*models.Family, error) {
	f := &models.Family{}
	err := row.Scan(&f.ID, &f.Name, &f.Slug, &f.LeaderID, &f.IsApproved, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFamily inserts a family with a collision-free slug. When a
// leader is set, the leader's own family reference is updated in the
// same transaction so the leader always belongs to the family they lead.
func (r *FamilyRepository) CreateFamily(f *models.Family) (*models.Family, error) {
	slug, err := uniqueSlug(Slugify(f.Name), r.slugExists)
	if err != nil {
		return nil, err
	}
	f.Slug = slug

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "INSERT INTO families (name, slug, leader_id, is_approved) VALUES (?, ?, ?, ?)"
	familyID, err := tx.ExecReturningID(query, f.Name, f.Slug, f.LeaderID, f.IsApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to create family: %w", err)
	}

	if f.LeaderID != nil {
		if _, err := tx.Exec("UPDATE accounts SET family_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", familyID, *f.LeaderID); err != nil {
			return nil, fmt.Errorf("failed to assign leader to family: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.ID = familyID
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	return f, nil
}

// GetFamilyByID retrieves a family by ID, or nil when absent.
func (r *FamilyRepository) GetFamilyByID(id int64) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE id = ?"
	family, err := scanFamily(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// GetFamilyBySlug retrieves a family by slug, or nil when absent.
func (r *FamilyRepository) GetFamilyBySlug(slug string) (*models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families WHERE slug = ?"
	family, err := scanFamily(r.db.QueryRow(query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}
	return family, nil
}

// ListFamilies retrieves all families ordered by creation time.
func (r *FamilyRepository) ListFamilies() ([]models.Family, error) {
	query := "SELECT " + familyColumns + " FROM families ORDER BY created_at DESC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query families: %w", err)
	}
	defer rows.Close()

	var families []models.Family
	for rows.Next() {
		family, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, *family)
	}
	return families, rows.Err()
}

// UpdateFamily renames a family and reassigns its leader. The slug is
// regenerated only when the name actually changed, keeping URLs stable
// across no-op saves.
func (r *FamilyRepository) UpdateFamily(f *models.Family) error {
	current, err := r.GetFamilyByID(f.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("family %d not found", f.ID)
	}

	slug := current.Slug
	if current.Name != f.Name {
		slug, err = uniqueSlug(Slugify(f.Name), func(s string) (bool, error) {
			if s == current.Slug {
				return false, nil
			}
			return r.slugExists(s)
		})
		if err != nil {
			return err
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE families SET name = ?, slug = ?, leader_id = ?, is_approved = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.Exec(query, f.Name, slug, f.LeaderID, f.IsApproved, f.ID); err != nil {
		return fmt.Errorf("failed to update family: %w", err)
	}

	if f.LeaderID != nil {
		if _, err := tx.Exec("UPDATE accounts SET family_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", f.ID, *f.LeaderID); err != nil {
			return fmt.Errorf("failed to assign leader to family: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	f.Slug = slug
	return nil
}

// ApproveFamily marks a family approved.
func (r *FamilyRepository) ApproveFamily(id int64) error {
	query := "UPDATE families SET is_approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, true, id)
	if err != nil {
		return fmt.Errorf("failed to approve family: %w", err)
	}
	return nil
}

// DeleteFamily removes a family. Member accounts survive with a null
// family reference.
func (r *FamilyRepository) DeleteFamily(id int64) error {
	_, err := r.db.Exec("DELETE FROM families WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete family: %w", err)
	}
	return nil
}

// FamilyTotals computes the family's ledger rollup from live rows.
func (r *FamilyRepository) FamilyTotals(familyID int64) (*models.FamilyTotals, error) {
	totals := &models.FamilyTotals{
		TotalPaid:        decimal.Zero,
		TotalUnpaid:      decimal.Zero,
		TotalPending:     decimal.Zero,
		TotalContributed: decimal.Zero,
	}

	query := `SELECT mc.status, COALESCE(SUM(mc.amount_due), 0)
		FROM member_contributions mc
		INNER JOIN accounts a ON a.id = mc.account_id
		WHERE a.family_id = ?
		GROUP BY mc.status`
	rows, err := r.db.Query(query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var total decimal.Decimal
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan family totals: %w", err)
		}
		switch models.ContributionStatus(status) {
		case models.StatusPaid:
			totals.TotalPaid = total
		case models.StatusNotPaid:
			totals.TotalUnpaid = total
		case models.StatusPending:
			totals.TotalPending = total
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	contributed := `SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		INNER JOIN accounts a ON a.id = p.account_id
		WHERE a.family_id = ? AND p.status = ?`
	if err := r.db.QueryRow(contributed, familyID, string(models.PaymentConfirmed)).Scan(&totals.TotalContributed); err != nil {
		return nil, fmt.Errorf("failed to query family contributions: %w", err)
	}

	return totals, nil
}

func (r *FamilyRepository) slugExists(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM families WHERE slug = ?", slug).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
