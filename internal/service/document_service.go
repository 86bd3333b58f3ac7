package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"clanledger/internal/ids"
	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/validation"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrBadUpload        = errors.New("upload must be a pdf, image or office document")
)

// allowedUploadExtensions limits what members can attach.
var allowedUploadExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".png": true, ".jpg": true, ".jpeg": true, ".txt": true,
}

// DocumentService handles clan document uploads and access control.
type DocumentService struct {
	documentRepo *repository.DocumentRepository
	uploadsPath  string
	maxSize      int64
}

// NewDocumentService creates a new document service
func NewDocumentService(documentRepo *repository.DocumentRepository, uploadsPath string, maxSize int64) *DocumentService {
	return &DocumentService{documentRepo: documentRepo, uploadsPath: uploadsPath, maxSize: maxSize}
}

// Upload stores the file under a generated name and records the
// document. The original filename is only consulted for its extension.
func (s *DocumentService) Upload(actor *models.Account, d *models.ClanDocument, filename string, file io.Reader) (*models.ClanDocument, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageDocuments) {
		return nil, ErrForbidden
	}
	if err := validation.ValidateName("title", d.Title); err != nil {
		return nil, err
	}
	if !d.Visibility.Valid() {
		return nil, errors.New("invalid visibility")
	}
	if d.Visibility == models.VisibilityFamily && d.FamilyID == nil {
		return nil, errors.New("family visibility requires a family")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedUploadExtensions[ext] {
		return nil, ErrBadUpload
	}

	if err := os.MkdirAll(s.uploadsPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	storedName := ids.New() + ext
	storedPath := filepath.Join(s.uploadsPath, storedName)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(file, s.maxSize+1))
	if err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if written > s.maxSize {
		os.Remove(storedPath)
		return nil, fmt.Errorf("upload exceeds the %d byte limit", s.maxSize)
	}

	d.FilePath = storedName
	d.UploadedBy = &actor.ID
	d, err = s.documentRepo.CreateDocument(d)
	if err != nil {
		os.Remove(storedPath)
		return nil, err
	}

	slog.Info("document uploaded", "document_id", d.ID, "slug", d.Slug, "by", actor.ID)
	return d, nil
}

// Get retrieves a document if the account may view it.
func (s *DocumentService) Get(viewer *models.Account, slug string) (*models.ClanDocument, error) {
	d, err := s.documentRepo.GetDocumentBySlug(slug)
	if err != nil {
		return nil, err
	}
	if d == nil || !d.AccessibleBy(viewer) {
		return nil, ErrDocumentNotFound
	}
	return d, nil
}

// FilePath resolves a document's stored file on disk.
func (s *DocumentService) FilePath(d *models.ClanDocument) string {
	return filepath.Join(s.uploadsPath, d.FilePath)
}

// ListVisible retrieves the documents the account may view.
func (s *DocumentService) ListVisible(viewer *models.Account) ([]models.ClanDocument, error) {
	all, err := s.documentRepo.ListDocuments()
	if err != nil {
		return nil, err
	}
	visible := make([]models.ClanDocument, 0, len(all))
	for _, d := range all {
		if d.AccessibleBy(viewer) {
			visible = append(visible, d)
		}
	}
	return visible, nil
}

// Update edits a document's metadata.
func (s *DocumentService) Update(actor *models.Account, d *models.ClanDocument) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageDocuments) {
		return ErrForbidden
	}
	return s.documentRepo.UpdateDocument(d)
}

// Delete removes a document and its stored file.
func (s *DocumentService) Delete(actor *models.Account, slug string) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageDocuments) {
		return ErrForbidden
	}
	d, err := s.documentRepo.GetDocumentBySlug(slug)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDocumentNotFound
	}
	if err := s.documentRepo.DeleteDocument(d.ID); err != nil {
		return err
	}
	if err := os.Remove(s.FilePath(d)); err != nil && !os.IsNotExist(err) {
		slog.Warn("stored file not removed", "path", d.FilePath, "error", err)
	}
	return nil
}
