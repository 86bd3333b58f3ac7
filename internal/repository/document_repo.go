package repository

import (
	"database/sql"
	"fmt"

	"clanledger/internal/database"
	"clanledger/internal/models"
)

// DocumentRepository handles clan document operations
type DocumentRepository struct {
	db *database.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *database.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, title, slug, description, category, file_path,
	visibility, family_id, uploaded_by, created_at, updated_at`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.ClanDocument, error) {
	d := &models.ClanDocument{}
	var category, visibility string
	err := row.Scan(
		&d.ID, &d.Title, &d.Slug, &d.Description, &category, &d.FilePath,
		&visibility, &d.FamilyID, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Category = models.DocumentCategory(category)
	d.Visibility = models.DocumentVisibility(visibility)
	return d, nil
}

// CreateDocument inserts a document with a collision-free slug.
func (r *DocumentRepository) CreateDocument(d *models.ClanDocument) (*models.ClanDocument, error) {
	slug, err := uniqueSlug(Slugify(d.Title), r.slugExists)
	if err != nil {
		return nil, err
	}
	d.Slug = slug

	query := `INSERT INTO clan_documents
		(title, slug, description, category, file_path, visibility, family_id, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.ExecReturningID(query,
		d.Title, d.Slug, d.Description, string(d.Category), d.FilePath,
		string(d.Visibility), d.FamilyID, d.UploadedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	d.ID = id
	return d, nil
}

// GetDocumentBySlug retrieves a document by slug, or nil when absent.
func (r *DocumentRepository) GetDocumentBySlug(slug string) (*models.ClanDocument, error) {
	query := "SELECT " + documentColumns + " FROM clan_documents WHERE slug = ?"
	d, err := scanDocument(r.db.QueryRow(query, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments retrieves all documents, newest first. Access filtering
// happens in the service layer against the viewing account.
func (r *DocumentRepository) ListDocuments() ([]models.ClanDocument, error) {
	query := "SELECT " + documentColumns + " FROM clan_documents ORDER BY created_at DESC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.ClanDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// UpdateDocument persists title, description, category and visibility.
// The stored file and slug are immutable after upload.
func (r *DocumentRepository) UpdateDocument(d *models.ClanDocument) error {
	query := `UPDATE clan_documents SET title = ?, description = ?, category = ?,
		visibility = ?, family_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := r.db.Exec(query, d.Title, d.Description, string(d.Category),
		string(d.Visibility), d.FamilyID, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document record. The caller deletes the
// stored file after the row is gone.
func (r *DocumentRepository) DeleteDocument(id int64) error {
	_, err := r.db.Exec("DELETE FROM clan_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) slugExists(slug string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM clan_documents WHERE slug = ?", slug).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
