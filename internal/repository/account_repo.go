package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"
)

// AccountRepository handles database operations for accounts and sessions
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, email, password_hash, first_name, last_name, phone, role,
	family_id, is_active, is_approved, is_staff, email_verified, created_at, updated_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (*models.Account, error) {
	a := &models.Account{}
	var role string
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &role,
		&a.FamilyID, &a.IsActive, &a.IsApproved, &a.IsStaff, &a.EmailVerified,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = models.Role(role)
	return a, nil
}

// CreateAccount inserts a new account and returns it with its ID set.
func (r *AccountRepository) CreateAccount(a *models.Account) (*models.Account, error) {
	query := `INSERT INTO accounts
		(email, password_hash, first_name, last_name, phone, role, family_id,
		 is_active, is_approved, is_staff, email_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query,
		a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(a.Role),
		a.FamilyID, a.IsActive, a.IsApproved, a.IsStaff, a.EmailVerified)
	if err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email %s is already registered", a.Email)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	a.ID = id
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	return a, nil
}

// GetAccountByID retrieves an account by ID, or nil when absent.
func (r *AccountRepository) GetAccountByID(id int64) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE id = ?"
	account, err := scanAccount(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByEmail retrieves an account by email, or nil when absent.
func (r *AccountRepository) GetAccountByEmail(email string) (*models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE email = ?"
	account, err := scanAccount(r.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts retrieves all accounts ordered by creation time.
func (r *AccountRepository) ListAccounts() ([]models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts ORDER BY created_at DESC"
	return r.queryAccounts(query)
}

// ListUnapprovedAccounts retrieves accounts awaiting executive approval.
func (r *AccountRepository) ListUnapprovedAccounts() ([]models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE is_approved = ? ORDER BY created_at ASC"
	return r.queryAccounts(query, false)
}

// ListFamilyMembers retrieves all accounts belonging to a family.
func (r *AccountRepository) ListFamilyMembers(familyID int64) ([]models.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE family_id = ? ORDER BY first_name, last_name"
	return r.queryAccounts(query, familyID)
}

// ListEligibleByScope resolves the fan-out target set for a scope.
// Only active, approved accounts are eligible. familyID is consulted
// only for the family scope.
func (r *AccountRepository) ListEligibleByScope(scope models.Scope, familyID *int64) ([]models.Account, error) {
	base := "SELECT " + accountColumns + " FROM accounts WHERE is_active = ? AND is_approved = ?"

	switch scope {
	case models.ScopeClan:
		return r.queryAccounts(base+" ORDER BY id", true, true)

	case models.ScopeFamily:
		if familyID == nil {
			return nil, nil
		}
		return r.queryAccounts(base+" AND family_id = ? ORDER BY id", true, true, *familyID)

	case models.ScopeFamilyLeaders:
		return r.queryAccounts(base+" AND role = ? ORDER BY id", true, true, string(models.RoleFamilyLeader))

	case models.ScopeExecutives:
		placeholders := make([]string, len(models.ExecutiveRoles))
		args := []interface{}{true, true}
		for i, role := range models.ExecutiveRoles {
			placeholders[i] = "?"
			args = append(args, string(role))
		}
		query := base + " AND role IN (" + strings.Join(placeholders, ", ") + ") ORDER BY id"
		return r.queryAccounts(query, args...)
	}

	return nil, fmt.Errorf("unknown scope: %s", scope)
}

func (r *AccountRepository) queryAccounts(query string, args ...interface{}) ([]models.Account, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// UpdateAccount persists profile fields.
func (r *AccountRepository) UpdateAccount(a *models.Account) error {
	query := `UPDATE accounts SET first_name = ?, last_name = ?, phone = ?, role = ?,
		family_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, a.FirstName, a.LastName, a.Phone, string(a.Role), a.FamilyID, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// ActivateAccount marks an account active with a verified email.
func (r *AccountRepository) ActivateAccount(id int64) error {
	query := `UPDATE accounts SET is_active = ?, email_verified = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, true, true, id)
	if err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}
	return nil
}

// ApproveAccount marks an account approved for fan-outs.
func (r *AccountRepository) ApproveAccount(id int64) error {
	query := `UPDATE accounts SET is_approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, true, id)
	if err != nil {
		return fmt.Errorf("failed to approve account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account. Staff tooling only; obligations
// cascade but payments keep a null back-reference.
func (r *AccountRepository) DeleteAccount(id int64) error {
	_, err := r.db.Exec("DELETE FROM accounts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// CreateSession stores a new session
func (r *AccountRepository) CreateSession(sessionID string, accountID int64, expiresAt time.Time) (*models.Session, error) {
	query := "INSERT INTO sessions (id, account_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, sessionID, accountID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &models.Session{
		ID:        sessionID,
		AccountID: accountID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

// GetSession retrieves a session by ID, or nil when absent.
func (r *AccountRepository) GetSession(sessionID string) (*models.Session, error) {
	query := "SELECT id, account_id, expires_at, created_at FROM sessions WHERE id = ?"
	s := &models.Session{}
	err := r.db.QueryRow(query, sessionID).Scan(&s.ID, &s.AccountID, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// DeleteSession removes a session
func (r *AccountRepository) DeleteSession(sessionID string) error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions
func (r *AccountRepository) DeleteExpiredSessions() error {
	_, err := r.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return nil
}
