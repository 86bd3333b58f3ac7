package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"clanledger/internal/database"
)

// BackupData is the complete ledger export. Amounts travel as decimal
// strings so no precision is lost crossing database dialects.
type BackupData struct {
	Version       string               `json:"version"`
	ExportedAt    time.Time            `json:"exported_at"`
	Accounts      []AccountBackup      `json:"accounts"`
	Families      []FamilyBackup       `json:"families"`
	Types         []TypeBackup         `json:"contribution_types"`
	Contributions []ContributionBackup `json:"member_contributions"`
	Payments      []PaymentBackup      `json:"payments"`
	Documents     []DocumentBackup     `json:"clan_documents"`
	Meetings      []MeetingBackup      `json:"meetings"`
}

// AccountBackup represents an account record for backup
type AccountBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	FamilyID      *int64    `json:"family_id"`
	IsActive      bool      `json:"is_active"`
	IsApproved    bool      `json:"is_approved"`
	IsStaff       bool      `json:"is_staff"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FamilyBackup represents a family record for backup
type FamilyBackup struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	LeaderID   *int64    `json:"leader_id"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TypeBackup represents a contribution type record for backup
type TypeBackup struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	FamilyID    *int64     `json:"family_id"`
	Amount      string     `json:"amount"`
	Recurrence  string     `json:"recurrence"`
	Scope       string     `json:"scope"`
	DueDate     *time.Time `json:"due_date"`
	CreatedBy   *int64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ContributionBackup represents a member obligation record for backup
type ContributionBackup struct {
	ID                 int64     `json:"id"`
	AccountID          int64     `json:"account_id"`
	ContributionTypeID int64     `json:"contribution_type_id"`
	AmountDue          string    `json:"amount_due"`
	Reference          string    `json:"reference"`
	DueDate            time.Time `json:"due_date"`
	Status             string    `json:"status"`
	CheckoutID         *string   `json:"checkout_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PaymentBackup represents a payment record for backup
type PaymentBackup struct {
	ID                   int64     `json:"id"`
	CheckoutID           *string   `json:"checkout_id"`
	AccountID            int64     `json:"account_id"`
	ContributionTypeID   *int64    `json:"contribution_type_id"`
	MemberContributionID *int64    `json:"member_contribution_id"`
	Method               string    `json:"method"`
	Status               string    `json:"status"`
	Amount               string    `json:"amount"`
	Reference            string    `json:"reference"`
	RecordedBy           *int64    `json:"recorded_by"`
	PaymentDate          time.Time `json:"payment_date"`
	CreatedAt            time.Time `json:"created_at"`
}

// DocumentBackup represents a clan document record for backup
type DocumentBackup struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	FilePath    string    `json:"file_path"`
	Visibility  string    `json:"visibility"`
	FamilyID    *int64    `json:"family_id"`
	UploadedBy  *int64    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MeetingBackup represents a meeting record for backup
type MeetingBackup struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Details   string    `json:"details"`
	Type      string    `json:"meeting_type"`
	Venue     string    `json:"venue"`
	Link      string    `json:"link"`
	Audience  string    `json:"audience"`
	FamilyID  *int64    `json:"family_id"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	CreatedBy *int64    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes the complete ledger to a JSON file.
func (s *BackupService) Export(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(file); err != nil {
		return err
	}
	slog.Info("database exported", "path", outputPath)
	return nil
}

// ExportToWriter exports the database to an io.Writer (useful for HTTP responses)
func (s *BackupService) ExportToWriter(w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportAccounts(backup); err != nil {
		return fmt.Errorf("failed to export accounts: %w", err)
	}
	if err := s.exportFamilies(backup); err != nil {
		return fmt.Errorf("failed to export families: %w", err)
	}
	if err := s.exportTypes(backup); err != nil {
		return fmt.Errorf("failed to export contribution types: %w", err)
	}
	if err := s.exportContributions(backup); err != nil {
		return fmt.Errorf("failed to export member contributions: %w", err)
	}
	if err := s.exportPayments(backup); err != nil {
		return fmt.Errorf("failed to export payments: %w", err)
	}
	if err := s.exportDocuments(backup); err != nil {
		return fmt.Errorf("failed to export documents: %w", err)
	}
	if err := s.exportMeetings(backup); err != nil {
		return fmt.Errorf("failed to export meetings: %w", err)
	}

	slog.Info("export assembled",
		"accounts", len(backup.Accounts), "families", len(backup.Families),
		"types", len(backup.Types), "contributions", len(backup.Contributions),
		"payments", len(backup.Payments))

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(backup)
}

// Import restores the ledger from a backup file into an empty database.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores the ledger from a backup reader. Rows are
// inserted in dependency order with their original IDs.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	slog.Info("importing backup", "version", backup.Version, "exported_at", backup.ExportedAt)

	if err := s.importFamilies(backup.Families); err != nil {
		return fmt.Errorf("failed to import families: %w", err)
	}
	if err := s.importAccounts(backup.Accounts); err != nil {
		return fmt.Errorf("failed to import accounts: %w", err)
	}
	if err := s.restoreFamilyLeaders(backup.Families); err != nil {
		return fmt.Errorf("failed to restore family leaders: %w", err)
	}
	if err := s.importTypes(backup.Types); err != nil {
		return fmt.Errorf("failed to import contribution types: %w", err)
	}
	if err := s.importContributions(backup.Contributions); err != nil {
		return fmt.Errorf("failed to import member contributions: %w", err)
	}
	if err := s.importPayments(backup.Payments); err != nil {
		return fmt.Errorf("failed to import payments: %w", err)
	}
	if err := s.importDocuments(backup.Documents); err != nil {
		return fmt.Errorf("failed to import documents: %w", err)
	}
	if err := s.importMeetings(backup.Meetings); err != nil {
		return fmt.Errorf("failed to import meetings: %w", err)
	}

	slog.Info("database import completed")
	return nil
}

func (s *BackupService) exportAccounts(backup *BackupData) error {
	query := `SELECT id, email, password_hash, first_name, last_name, phone, role, family_id,
		is_active, is_approved, is_staff, email_verified, created_at, updated_at
		FROM accounts ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a AccountBackup
		if err := rows.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone,
			&a.Role, &a.FamilyID, &a.IsActive, &a.IsApproved, &a.IsStaff, &a.EmailVerified,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return err
		}
		backup.Accounts = append(backup.Accounts, a)
	}
	return rows.Err()
}

func (s *BackupService) exportFamilies(backup *BackupData) error {
	query := "SELECT id, name, slug, leader_id, is_approved, created_at, updated_at FROM families ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var f FamilyBackup
		if err := rows.Scan(&f.ID, &f.Name, &f.Slug, &f.LeaderID, &f.IsApproved, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return err
		}
		backup.Families = append(backup.Families, f)
	}
	return rows.Err()
}

func (s *BackupService) exportTypes(backup *BackupData) error {
	query := `SELECT id, name, slug, description, category, family_id, amount, recurrence, scope,
		due_date, created_by, created_at, updated_at FROM contribution_types ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t TypeBackup
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.Description, &t.Category, &t.FamilyID,
			&t.Amount, &t.Recurrence, &t.Scope, &t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return err
		}
		backup.Types = append(backup.Types, t)
	}
	return rows.Err()
}

func (s *BackupService) exportContributions(backup *BackupData) error {
	query := `SELECT id, account_id, contribution_type_id, amount_due, reference, due_date,
		status, checkout_id, created_at, updated_at FROM member_contributions ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c ContributionBackup
		if err := rows.Scan(&c.ID, &c.AccountID, &c.ContributionTypeID, &c.AmountDue, &c.Reference,
			&c.DueDate, &c.Status, &c.CheckoutID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		backup.Contributions = append(backup.Contributions, c)
	}
	return rows.Err()
}

func (s *BackupService) exportPayments(backup *BackupData) error {
	query := `SELECT id, checkout_id, account_id, contribution_type_id, member_contribution_id,
		method, status, amount, reference, recorded_by, payment_date, created_at FROM payments ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PaymentBackup
		if err := rows.Scan(&p.ID, &p.CheckoutID, &p.AccountID, &p.ContributionTypeID,
			&p.MemberContributionID, &p.Method, &p.Status, &p.Amount, &p.Reference, &p.RecordedBy,
			&p.PaymentDate, &p.CreatedAt); err != nil {
			return err
		}
		backup.Payments = append(backup.Payments, p)
	}
	return rows.Err()
}

func (s *BackupService) exportDocuments(backup *BackupData) error {
	query := `SELECT id, title, slug, description, category, file_path, visibility, family_id,
		uploaded_by, created_at, updated_at FROM clan_documents ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d DocumentBackup
		if err := rows.Scan(&d.ID, &d.Title, &d.Slug, &d.Description, &d.Category, &d.FilePath,
			&d.Visibility, &d.FamilyID, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return err
		}
		backup.Documents = append(backup.Documents, d)
	}
	return rows.Err()
}

func (s *BackupService) exportMeetings(backup *BackupData) error {
	query := `SELECT id, title, slug, details, meeting_type, venue, link, audience, family_id,
		starts_at, ends_at, created_by, created_at, updated_at FROM meetings ORDER BY id`
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MeetingBackup
		if err := rows.Scan(&m.ID, &m.Title, &m.Slug, &m.Details, &m.Type, &m.Venue, &m.Link,
			&m.Audience, &m.FamilyID, &m.StartsAt, &m.EndsAt, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return err
		}
		backup.Meetings = append(backup.Meetings, m)
	}
	return rows.Err()
}

func (s *BackupService) importFamilies(families []FamilyBackup) error {
	slog.Info("importing families", "count", len(families))
	for _, f := range families {
		// Leader references an account imported afterwards; attach in a
		// second pass below via importAccounts' family_id round trip.
		query := "INSERT INTO families (id, name, slug, leader_id, is_approved, created_at, updated_at) VALUES (?, ?, ?, NULL, ?, ?, ?)"
		if _, err := s.db.Exec(query, f.ID, f.Name, f.Slug, f.IsApproved, f.CreatedAt, f.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import family %d: %w", f.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importAccounts(accounts []AccountBackup) error {
	slog.Info("importing accounts", "count", len(accounts))
	for _, a := range accounts {
		query := `INSERT INTO accounts (id, email, password_hash, first_name, last_name, phone, role,
			family_id, is_active, is_approved, is_staff, email_verified, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone,
			a.Role, a.FamilyID, a.IsActive, a.IsApproved, a.IsStaff, a.EmailVerified, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import account %d: %w", a.ID, err)
		}
	}
	return nil
}

// restoreFamilyLeaders re-attaches leaders once accounts exist.
func (s *BackupService) restoreFamilyLeaders(families []FamilyBackup) error {
	for _, f := range families {
		if f.LeaderID == nil {
			continue
		}
		if _, err := s.db.Exec("UPDATE families SET leader_id = ? WHERE id = ?", *f.LeaderID, f.ID); err != nil {
			return fmt.Errorf("failed to restore leader for family %d: %w", f.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importTypes(types []TypeBackup) error {
	slog.Info("importing contribution types", "count", len(types))
	for _, t := range types {
		query := `INSERT INTO contribution_types (id, name, slug, description, category, family_id,
			amount, recurrence, scope, due_date, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, t.ID, t.Name, t.Slug, t.Description, t.Category, t.FamilyID,
			t.Amount, t.Recurrence, t.Scope, t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import contribution type %d: %w", t.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importContributions(contributions []ContributionBackup) error {
	slog.Info("importing member contributions", "count", len(contributions))
	for _, c := range contributions {
		query := `INSERT INTO member_contributions (id, account_id, contribution_type_id, amount_due,
			reference, due_date, status, checkout_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, c.ID, c.AccountID, c.ContributionTypeID, c.AmountDue,
			c.Reference, c.DueDate, c.Status, c.CheckoutID, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import contribution %d: %w", c.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPayments(payments []PaymentBackup) error {
	slog.Info("importing payments", "count", len(payments))
	for _, p := range payments {
		query := `INSERT INTO payments (id, checkout_id, account_id, contribution_type_id,
			member_contribution_id, method, status, amount, reference, recorded_by, payment_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, p.ID, p.CheckoutID, p.AccountID, p.ContributionTypeID,
			p.MemberContributionID, p.Method, p.Status, p.Amount, p.Reference, p.RecordedBy, p.PaymentDate, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to import payment %d: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importDocuments(documents []DocumentBackup) error {
	slog.Info("importing documents", "count", len(documents))
	for _, d := range documents {
		query := `INSERT INTO clan_documents (id, title, slug, description, category, file_path,
			visibility, family_id, uploaded_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, d.ID, d.Title, d.Slug, d.Description, d.Category, d.FilePath,
			d.Visibility, d.FamilyID, d.UploadedBy, d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import document %d: %w", d.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importMeetings(meetings []MeetingBackup) error {
	slog.Info("importing meetings", "count", len(meetings))
	for _, m := range meetings {
		query := `INSERT INTO meetings (id, title, slug, details, meeting_type, venue, link,
			audience, family_id, starts_at, ends_at, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := s.db.Exec(query, m.ID, m.Title, m.Slug, m.Details, m.Type, m.Venue, m.Link,
			m.Audience, m.FamilyID, m.StartsAt, m.EndsAt, m.CreatedBy, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to import meeting %d: %w", m.ID, err)
		}
	}
	return nil
}
