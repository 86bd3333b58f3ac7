package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"

	"github.com/shopspring/decimal"
)

// ContributionRepository handles contribution types and member obligations
type ContributionRepository struct {
	db *database.DB
}

// NewContributionRepository creates a new contribution repository
func NewContributionRepository(db *database.DB) *ContributionRepository {
	return &ContributionRepository{db: db}
}

const typeColumns = `id, name, slug, description, category, family_id, amount,
	recurrence, scope, due_date, created_by, created_at, updated_at`

func scanContributionType(row interface{ Scan(...interface{}) error }) (*models.ContributionType, error) {
	ct := &models.ContributionType{}
	var category, recurrence, scope string
	err := row.Scan(
		&ct.ID, &ct.Name, &ct.Slug, &ct.Description, &category, &ct.FamilyID, &ct.Amount,
		&recurrence, &scope, &ct.DueDate, &ct.CreatedBy, &ct.CreatedAt, &ct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	ct.Category = models.Category(category)
	ct.Recurrence = models.Recurrence(recurrence)
	ct.Scope = models.Scope(scope)
	return ct, nil
}

const obligationColumns = `id, account_id, contribution_type_id, amount_due, reference,
	due_date, status, checkout_id, created_at, updated_at`

func scanObligation(row interface{ Scan(...interface{}) error }) (*models.MemberContribution, error) {
	mc := &models.MemberContribution{}
	var status string
	err := row.Scan(
		&mc.ID, &mc.AccountID, &mc.ContributionTypeID, &mc.AmountDue, &mc.Reference,
		&mc.DueDate, &status, &mc.CheckoutID, &mc.CreatedAt, &mc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	mc.Status = models.ContributionStatus(status)
	return mc, nil
}

// CreateType inserts a contribution type with a collision-free slug.
func (r *ContributionRepository) CreateType(ct *models.ContributionType) (*models.ContributionType, error) {
	slug, err := uniqueSlug(Slugify(ct.Name), r.typeSlugExists)
	if err != nil {
		return nil, err
	}
	ct.Slug = slug

	query := `INSERT INTO contribution_types
		(name, slug, description, category, family_id, amount, recurrence, scope, due_date, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query,
		ct.Name, ct.Slug, ct.Description, string(ct.Category), ct.FamilyID, ct.Amount,
		string(ct.Recurrence), string(ct.Scope), ct.DueDate, ct.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create contribution type: %w", err)
	}

	ct.ID = id
	ct.CreatedAt = time.Now()
	ct.UpdatedAt = ct.CreatedAt
	return ct, nil
}

// GetTypeByID retrieves a contribution type by ID, or nil when absent.
func (r *ContributionRepository) GetTypeByID(id int64) (*models.ContributionType, error) {
	query := "SELECT " + typeColumns + " FROM contribution_types WHERE id = ?"
	ct, err := scanContributionType(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution type: %w", err)
	}
	return ct, nil
}

// GetTypeBySlug retrieves a contribution type by slug, or nil when absent.
func (r *ContributionRepository) GetTypeBySlug(slug string) (*models.ContributionType, error) {
	query := "SELECT " + typeColumns + " FROM contribution_types WHERE slug = ?"
	ct, err := scanContributionType(r.db.QueryRow(query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution type: %w", err)
	}
	return ct, nil
}

// ListTypes retrieves all contribution types, newest first.
func (r *ContributionRepository) ListTypes() ([]models.ContributionType, error) {
	query := "SELECT " + typeColumns + " FROM contribution_types ORDER BY created_at DESC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contribution types: %w", err)
	}
	defer rows.Close()

	var types []models.ContributionType
	for rows.Next() {
		ct, err := scanContributionType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution type: %w", err)
		}
		types = append(types, *ct)
	}
	return types, rows.Err()
}

// UpdateType persists the mutable fields of a template. Amount, scope
// and recurrence are immutable after creation; generated obligations
// are never retroactively altered. The slug is regenerated only on a
// rename.
func (r *ContributionRepository) UpdateType(ct *models.ContributionType) error {
	current, err := r.GetTypeByID(ct.ID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("contribution type %d not found", ct.ID)
	}

	slug := current.Slug
	if current.Name != ct.Name {
		slug, err = uniqueSlug(Slugify(ct.Name), func(s string) (bool, error) {
			if s == current.Slug {
				return false, nil
			}
			return r.typeSlugExists(s)
		})
		if err != nil {
			return err
		}
	}

	query := `UPDATE contribution_types SET name = ?, slug = ?, description = ?, category = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Exec(query, ct.Name, slug, ct.Description, string(ct.Category), ct.ID); err != nil {
		return fmt.Errorf("failed to update contribution type: %w", err)
	}
	ct.Slug = slug
	return nil
}

// DeleteType removes a contribution type and its obligations. Payments
// survive with null back-references.
func (r *ContributionRepository) DeleteType(id int64) error {
	_, err := r.db.Exec("DELETE FROM contribution_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contribution type: %w", err)
	}
	return nil
}

// CreateObligations materializes obligations one row at a time so a
// uniqueness collision on (account, contribution type, due date) skips
// that single member instead of aborting the batch. Returns the created
// obligations and the number of duplicates skipped.
func (r *ContributionRepository) CreateObligations(obligations []models.MemberContribution) ([]models.MemberContribution, int, error) {
	query := `INSERT INTO member_contributions
		(account_id, contribution_type_id, amount_due, reference, due_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`

	var created []models.MemberContribution
	skipped := 0

	for _, mc := range obligations {
		id, err := r.db.ExecReturningID(query,
			mc.AccountID, mc.ContributionTypeID, mc.AmountDue, mc.Reference,
			mc.DueDate, string(mc.Status))
		if err != nil {
			if r.db.Dialect.IsUniqueViolation(err) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("failed to create obligation for account %d: %w", mc.AccountID, err)
		}
		mc.ID = id
		created = append(created, mc)
	}

	return created, skipped, nil
}

// GetObligationByID retrieves an obligation by ID, or nil when absent.
func (r *ContributionRepository) GetObligationByID(id int64) (*models.MemberContribution, error) {
	query := "SELECT " + obligationColumns + " FROM member_contributions WHERE id = ?"
	mc, err := scanObligation(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	return mc, nil
}

// GetObligationByReference retrieves an obligation by its reference code.
func (r *ContributionRepository) GetObligationByReference(reference string) (*models.MemberContribution, error) {
	query := "SELECT " + obligationColumns + " FROM member_contributions WHERE reference = ?"
	mc, err := scanObligation(r.db.QueryRow(query, reference))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get obligation: %w", err)
	}
	return mc, nil
}

// ListObligationsByAccount retrieves a member's obligations, newest first.
func (r *ContributionRepository) ListObligationsByAccount(accountID int64) ([]models.MemberContribution, error) {
	query := "SELECT " + obligationColumns + " FROM member_contributions WHERE account_id = ? ORDER BY created_at DESC"
	return r.queryObligations(query, accountID)
}

// ListObligationsByType retrieves all obligations generated from one template.
func (r *ContributionRepository) ListObligationsByType(typeID int64) ([]models.MemberContribution, error) {
	query := "SELECT " + obligationColumns + " FROM member_contributions WHERE contribution_type_id = ? ORDER BY created_at DESC"
	return r.queryObligations(query, typeID)
}

// ListObligationsByFamily retrieves obligations for every member of a family.
func (r *ContributionRepository) ListObligationsByFamily(familyID int64) ([]models.MemberContribution, error) {
	query := `SELECT mc.id, mc.account_id, mc.contribution_type_id, mc.amount_due, mc.reference,
		mc.due_date, mc.status, mc.checkout_id, mc.created_at, mc.updated_at
		FROM member_contributions mc
		INNER JOIN accounts a ON a.id = mc.account_id
		WHERE a.family_id = ?
		ORDER BY mc.created_at DESC`
	return r.queryObligations(query, familyID)
}

// ListObligationsDueOn retrieves unpaid obligations due on the given
// calendar day; used by the reminder sweep.
func (r *ContributionRepository) ListObligationsDueOn(due time.Time) ([]models.MemberContribution, error) {
	dayStart := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	query := "SELECT " + obligationColumns + ` FROM member_contributions
		WHERE due_date >= ? AND due_date < ? AND status IN (?, ?) ORDER BY id`
	return r.queryObligations(query, dayStart, dayEnd,
		string(models.StatusNotPaid), string(models.StatusPartiallyPaid))
}

func (r *ContributionRepository) queryObligations(query string, args ...interface{}) ([]models.MemberContribution, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query obligations: %w", err)
	}
	defer rows.Close()

	var obligations []models.MemberContribution
	for rows.Next() {
		mc, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, *mc)
	}
	return obligations, rows.Err()
}

// CancelObligation marks an obligation CANCELLED. Terminal; only staff
// tooling calls this.
func (r *ContributionRepository) CancelObligation(id int64) error {
	query := "UPDATE member_contributions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	_, err := r.db.Exec(query, string(models.StatusCancelled), id)
	if err != nil {
		return fmt.Errorf("failed to cancel obligation: %w", err)
	}
	return nil
}

// AccountTotals computes a member's ledger rollup from live rows.
func (r *ContributionRepository) AccountTotals(accountID int64) (*models.AccountTotals, error) {
	totals := &models.AccountTotals{
		TotalPaid:    decimal.Zero,
		TotalUnpaid:  decimal.Zero,
		TotalPending: decimal.Zero,
	}

	query := `SELECT status, COALESCE(SUM(amount_due), 0)
		FROM member_contributions WHERE account_id = ? GROUP BY status`
	rows, err := r.db.Query(query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query account totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var total decimal.Decimal
		if err := rows.Scan(&status, &total); err != nil {
			return nil, fmt.Errorf("failed to scan account totals: %w", err)
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
	return totals, rows.Err()
}

// OutstandingForType sums the amount still owed across a template's
// unpaid obligations.
func (r *ContributionRepository) OutstandingForType(typeID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount_due), 0) FROM member_contributions
		WHERE contribution_type_id = ? AND status = ?`
	err := r.db.QueryRow(query, typeID, string(models.StatusNotPaid)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query outstanding total: %w", err)
	}
	return total, nil
}

func (r *ContributionRepository) typeSlugExists(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM contribution_types WHERE slug = ?", slug).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
