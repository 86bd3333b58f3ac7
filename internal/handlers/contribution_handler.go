package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"clanledger/internal/models"
	"clanledger/internal/service"

	"github.com/shopspring/decimal"
)

// ContributionHandler serves the contribution type pages and the
// fan-out actions.
type ContributionHandler struct {
	contributionService *service.ContributionService
	accountService      *service.AuthService
	familyService       *service.FamilyService
	middleware          *Middleware
	templates           *template.Template
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(contributionService *service.ContributionService, accountService *service.AuthService,
	familyService *service.FamilyService, middleware *Middleware, templates *template.Template) *ContributionHandler {
	return &ContributionHandler{
		contributionService: contributionService,
		accountService:      accountService,
		familyService:       familyService,
		middleware:          middleware,
		templates:           templates,
	}
}

// ListTypes renders all contribution types.
func (h *ContributionHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	types, err := h.contributionService.ListTypes()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load contribution types", err)
		return
	}

	families, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}

	h.render(w, "contribution_types.tmpl", ContributionTypesViewData{
		Title:     "Contributions",
		Account:   account,
		Types:     types,
		Families:  families,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Error:     r.URL.Query().Get("error"),
		Notice:    r.URL.Query().Get("notice"),
	})
}

// TypeDetail renders one contribution type with its fanned-out
// obligations.
func (h *ContributionHandler) TypeDetail(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	ct, err := h.contributionService.GetType(r.PathValue("slug"))
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Contribution type not found", err)
		return
	}

	obligations, err := h.contributionService.ListTypeObligations(ct.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load obligations", err)
		return
	}

	accounts, err := h.accountIndex()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load members", err)
		return
	}

	h.render(w, "contribution_detail.tmpl", ContributionDetailViewData{
		Title:       ct.Name,
		Account:     account,
		Type:        ct,
		Obligations: obligations,
		Accounts:    accounts,
		CSRFToken:   h.middleware.GetCSRFToken(r),
		Error:       r.URL.Query().Get("error"),
	})
}

// CreateType handles the new contribution type form. Creation fans the
// obligation out to every member in scope.
func (h *ContributionHandler) CreateType(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	ct, err := h.typeFromForm(r)
	if err != nil {
		http.Redirect(w, r, "/contributions?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	result, err := h.contributionService.CreateContributionType(account, ct)
	if err != nil {
		http.Redirect(w, r, "/contributions?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	notice := fmt.Sprintf("%s created: %d obligations issued", result.Type.Name, len(result.Created))
	http.Redirect(w, r, "/contributions?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// RunCycle fans out a fresh cycle of obligations for a recurring type.
// Members already holding an obligation for the cycle's due date are
// skipped.
func (h *ContributionHandler) RunCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution type ID", http.StatusBadRequest)
		return
	}

	result, err := h.contributionService.RunCycle(id)
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to run cycle", err)
		return
	}

	slog.Info("contribution cycle run", "type_id", id, "created", len(result.Created), "skipped", result.Skipped)
	notice := fmt.Sprintf("Cycle run: %d new obligations, %d already issued", len(result.Created), result.Skipped)
	http.Redirect(w, r, "/contributions/"+result.Type.Slug+"?notice="+url.QueryEscape(notice), http.StatusSeeOther)
}

// UpdateType handles metadata edits to a contribution type. Amount and
// scope stay fixed once obligations exist.
func (h *ContributionHandler) UpdateType(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	ct, err := h.contributionService.GetType(r.PathValue("slug"))
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Contribution type not found", err)
		return
	}

	ct.Name = r.FormValue("name")
	ct.Description = r.FormValue("description")
	if raw := r.FormValue("category"); raw != "" {
		ct.Category = models.Category(raw)
	}

	if err := h.contributionService.UpdateType(account, ct); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to update contribution type", err)
		return
	}
	http.Redirect(w, r, "/contributions/"+ct.Slug, http.StatusSeeOther)
}

// DeleteType handles the delete action for a contribution type.
func (h *ContributionHandler) DeleteType(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid contribution type ID", http.StatusBadRequest)
		return
	}

	if err := h.contributionService.DeleteType(account, id); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to delete contribution type", err)
		return
	}
	http.Redirect(w, r, "/contributions", http.StatusSeeOther)
}

func (h *ContributionHandler) typeFromForm(r *http.Request) (*models.ContributionType, error) {
	amount, err := decimal.NewFromString(r.FormValue("amount"))
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	ct := &models.ContributionType{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    models.Category(r.FormValue("category")),
		Amount:      amount,
		Recurrence:  models.Recurrence(r.FormValue("recurrence")),
		Scope:       models.Scope(r.FormValue("scope")),
	}

	if raw := r.FormValue("family_id"); raw != "" {
		familyID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid family: %w", err)
		}
		ct.FamilyID = &familyID
	}

	if raw := r.FormValue("due_date"); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		ct.DueDate = &due
	}

	return ct, nil
}

func (h *ContributionHandler) accountIndex() (map[int64]models.Account, error) {
	accounts, err := h.accountService.ListAccounts()
	if err != nil {
		return nil, err
	}
	index := make(map[int64]models.Account, len(accounts))
	for _, a := range accounts {
		index[a.ID] = a
	}
	return index, nil
}

func (h *ContributionHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
