package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"clanledger/internal/models"
	"clanledger/internal/service"
)

const maxUploadMemory = 10 << 20

// AdminHandler serves the executive pages: the clan dashboard, member
// and family approvals, documents, meetings and backups.
type AdminHandler struct {
	authService      *service.AuthService
	familyService    *service.FamilyService
	dashboardService *service.DashboardService
	documentService  *service.DocumentService
	meetingService   *service.MeetingService
	backupService    *service.BackupService
	middleware       *Middleware
	templates        *template.Template
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, familyService *service.FamilyService,
	dashboardService *service.DashboardService, documentService *service.DocumentService,
	meetingService *service.MeetingService, backupService *service.BackupService,
	middleware *Middleware, templates *template.Template) *AdminHandler {
	return &AdminHandler{
		authService:      authService,
		familyService:    familyService,
		dashboardService: dashboardService,
		documentService:  documentService,
		meetingService:   meetingService,
		backupService:    backupService,
		middleware:       middleware,
		templates:        templates,
	}
}

// ClanDashboard renders the executive rollup: totals collected, per-type
// positions and recent payments.
func (h *AdminHandler) ClanDashboard(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	overview, err := h.dashboardService.ClanOverview()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load clan dashboard", err)
		return
	}

	h.render(w, "clan_dashboard.tmpl", ClanDashboardViewData{
		Title:     "Clan Dashboard",
		Account:   account,
		Overview:  overview,
		CSRFToken: h.middleware.GetCSRFToken(r),
	})
}

// PendingApprovals renders accounts and families awaiting approval.
func (h *AdminHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	accounts, err := h.authService.ListPendingAccounts(account)
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to load pending approvals", err)
		return
	}

	families, err := h.familyService.ListPendingFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load pending families", err)
		return
	}

	allFamilies, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}

	h.render(w, "approvals.tmpl", PendingApprovalsViewData{
		Title:       "Pending Approvals",
		Account:     account,
		Accounts:    accounts,
		Families:    families,
		AllFamilies: allFamilies,
		CSRFToken:   h.middleware.GetCSRFToken(r),
		Notice:      r.URL.Query().Get("notice"),
		Error:       r.URL.Query().Get("error"),
	})
}

// AddMember creates an account directly, bypassing self-registration.
// The new member is active and approved immediately.
func (h *AdminHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	role, err := models.ParseRole(r.FormValue("role"))
	if err != nil {
		http.Redirect(w, r, "/admin/approvals?error="+url.QueryEscape("unknown role"), http.StatusSeeOther)
		return
	}

	in := service.RegisterInput{
		Email:      r.FormValue("email"),
		Password:   r.FormValue("password"),
		FirstName:  r.FormValue("first_name"),
		LastName:   r.FormValue("last_name"),
		Phone:      r.FormValue("phone"),
		FamilySlug: r.FormValue("family_slug"),
	}

	member, err := h.authService.AddMember(account, in, role)
	if err != nil {
		http.Redirect(w, r, "/admin/approvals?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	notice := fmt.Sprintf("%s added as %s", member.FullName(), role)
	http.Redirect(w, r, "/admin/approvals?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// ApproveMember marks a member approved.
func (h *AdminHandler) ApproveMember(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid account ID", http.StatusBadRequest)
		return
	}

	if err := h.authService.Approve(account, id); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to approve member", err)
		return
	}
	http.Redirect(w, r, "/admin/approvals", http.StatusSeeOther)
}

// Documents renders the documents the viewer may see.
func (h *AdminHandler) Documents(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	documents, err := h.documentService.ListVisible(account)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load documents", err)
		return
	}

	families, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}

	h.render(w, "documents.tmpl", DocumentsViewData{
		Title:     "Documents",
		Account:   account,
		Documents: documents,
		Families:  families,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	})
}

// UploadDocument handles a multipart document upload.
func (h *AdminHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	doc := &models.ClanDocument{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    models.DocumentCategory(r.FormValue("category")),
		Visibility:  models.DocumentVisibility(r.FormValue("visibility")),
		UploadedBy:  &account.ID,
	}
	if raw := r.FormValue("family_id"); raw != "" {
		familyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid family", http.StatusBadRequest)
			return
		}
		doc.FamilyID = &familyID
	}

	if _, err := h.documentService.Upload(account, doc, header.Filename, file); err != nil {
		http.Redirect(w, r, "/documents?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	slog.Info("document uploaded", "title", doc.Title, "by", account.ID)
	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}

// DownloadDocument streams a document to a viewer with access.
func (h *AdminHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	doc, err := h.documentService.Get(account, r.PathValue("slug"))
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Document not found", err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Title))
	http.ServeFile(w, r, h.documentService.FilePath(doc))
}

// DeleteDocument removes a document and its stored file.
func (h *AdminHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := h.documentService.Delete(account, r.PathValue("slug")); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to delete document", err)
		return
	}
	http.Redirect(w, r, "/documents", http.StatusSeeOther)
}

// Meetings renders upcoming meetings visible to the viewer.
func (h *AdminHandler) Meetings(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	meetings, err := h.meetingService.ListUpcoming(account)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load meetings", err)
		return
	}

	families, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}

	h.render(w, "meetings.tmpl", MeetingsViewData{
		Title:     "Meetings",
		Account:   account,
		Meetings:  meetings,
		Families:  families,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	})
}

// MeetingsAPI returns the viewer's upcoming meetings as JSON, for
// calendar integrations.
func (h *AdminHandler) MeetingsAPI(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	meetings, err := h.meetingService.ListUpcoming(account)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load meetings", err)
		return
	}

	type meetingJSON struct {
		Title    string    `json:"title"`
		Slug     string    `json:"slug"`
		Details  string    `json:"details,omitempty"`
		Type     string    `json:"type"`
		Venue    string    `json:"venue,omitempty"`
		Link     string    `json:"link,omitempty"`
		Audience string    `json:"audience"`
		StartsAt time.Time `json:"startsAt"`
		EndsAt   time.Time `json:"endsAt"`
	}

	out := make([]meetingJSON, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, meetingJSON{
			Title:    m.Title,
			Slug:     m.Slug,
			Details:  m.Details,
			Type:     string(m.Type),
			Venue:    m.Venue,
			Link:     m.Link,
			Audience: string(m.Audience),
			StartsAt: m.StartsAt,
			EndsAt:   m.EndsAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Error("failed to encode meetings", "error", err)
	}
}

// ScheduleMeeting handles the new meeting form.
func (h *AdminHandler) ScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	meeting, err := h.meetingFromForm(r, account)
	if err != nil {
		http.Redirect(w, r, "/meetings?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	if _, err := h.meetingService.Schedule(account, meeting); err != nil {
		http.Redirect(w, r, "/meetings?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/meetings", http.StatusSeeOther)
}

// CancelMeeting removes a scheduled meeting.
func (h *AdminHandler) CancelMeeting(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := h.meetingService.Cancel(account, r.PathValue("slug")); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to cancel meeting", err)
		return
	}
	http.Redirect(w, r, "/meetings", http.StatusSeeOther)
}

// ExportBackup streams a full JSON backup of the ledger.
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	filename := "clanledger-backup-" + time.Now().Format("2006-01-02") + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := h.backupService.ExportToWriter(w); err != nil {
		slog.Error("backup export failed", "error", err)
	}
}

// ImportBackup restores the ledger from an uploaded JSON backup.
func (h *AdminHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("backup")
	if err != nil {
		http.Error(w, "Missing backup file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := h.backupService.ImportFromReader(file); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Import failed", err)
		return
	}
	http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
}

func (h *AdminHandler) meetingFromForm(r *http.Request, account *models.Account) (*models.Meeting, error) {
	startsAt, err := time.Parse("2006-01-02T15:04", r.FormValue("starts_at"))
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}
	endsAt, err := time.Parse("2006-01-02T15:04", r.FormValue("ends_at"))
	if err != nil {
		return nil, fmt.Errorf("invalid end time: %w", err)
	}

	meeting := &models.Meeting{
		Title:     r.FormValue("title"),
		Details:   r.FormValue("details"),
		Type:      models.MeetingType(r.FormValue("type")),
		Venue:     r.FormValue("venue"),
		Link:      r.FormValue("link"),
		Audience:  models.Scope(r.FormValue("audience")),
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedBy: &account.ID,
	}
	if raw := r.FormValue("family_id"); raw != "" {
		familyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid family: %w", err)
		}
		meeting.FamilyID = &familyID
	}
	return meeting, nil
}

func (h *AdminHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
