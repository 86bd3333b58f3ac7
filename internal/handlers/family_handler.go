package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"clanledger/internal/service"
)

// FamilyHandler serves the family roster pages.
type FamilyHandler struct {
	familyService *service.FamilyService
	middleware    *Middleware
	templates     *template.Template
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, middleware *Middleware, templates *template.Template) *FamilyHandler {
	return &FamilyHandler{
		familyService: familyService,
		middleware:    middleware,
		templates:     templates,
	}
}

// List renders all families.
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	families, err := h.familyService.ListFamilies()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load families", err)
		return
	}

	h.render(w, "families.tmpl", FamiliesViewData{
		Title:     "Families",
		Account:   account,
		Families:  families,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	})
}

// Detail renders one family with its members and collection totals.
func (h *FamilyHandler) Detail(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	family, err := h.familyService.GetFamily(r.PathValue("slug"))
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Family not found", err)
		return
	}

	members, err := h.familyService.ListMembers(family.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load family members", err)
		return
	}

	totals, err := h.familyService.Totals(family.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load family totals", err)
		return
	}

	h.render(w, "family_detail.tmpl", FamilyDetailViewData{
		Title:     family.Name,
		Account:   account,
		Family:    family,
		Members:   members,
		Totals:    totals,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Error:     r.URL.Query().Get("error"),
	})
}

// Create handles the new-family form submission.
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	var leaderID *int64
	if raw := r.FormValue("leader_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid leader", http.StatusBadRequest)
			return
		}
		leaderID = &id
	}

	family, err := h.familyService.CreateFamily(account, r.FormValue("name"), leaderID)
	if err != nil {
		http.Redirect(w, r, "/families?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	slog.Info("family created", "family_id", family.ID, "by", account.ID)
	http.Redirect(w, r, "/families/"+family.Slug, http.StatusSeeOther)
}

// Update handles the rename and reassign-leader form. The slug changes
// only when the name does, so existing links keep working after a
// leader swap.
func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	family, err := h.familyService.GetFamily(r.PathValue("slug"))
	if err != nil {
		respondWithError(w, statusForServiceError(err), "Family not found", err)
		return
	}

	if name := r.FormValue("name"); name != "" {
		family.Name = name
	}
	if raw := r.FormValue("leader_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid leader", http.StatusBadRequest)
			return
		}
		family.LeaderID = &id
	}

	if err := h.familyService.UpdateFamily(account, family); err != nil {
		http.Redirect(w, r, "/families/"+family.Slug+"?error="+url.QueryEscape(err.Error()), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/families/"+family.Slug, http.StatusSeeOther)
}

// Approve handles the approve-family action.
func (h *FamilyHandler) Approve(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid family ID", http.StatusBadRequest)
		return
	}

	if err := h.familyService.ApproveFamily(account, id); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to approve family", err)
		return
	}
	http.Redirect(w, r, "/admin/approvals", http.StatusSeeOther)
}

// Delete handles the delete-family action.
func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())

	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid family ID", http.StatusBadRequest)
		return
	}

	if err := h.familyService.DeleteFamily(account, id); err != nil {
		respondWithError(w, statusForServiceError(err), "Failed to delete family", err)
		return
	}
	http.Redirect(w, r, "/families", http.StatusSeeOther)
}

func (h *FamilyHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
