package handlers

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"clanledger/internal/models"
	"clanledger/internal/service"
)

// MemberHandler serves the signed-in member's own pages: dashboard,
// obligations and payment history.
type MemberHandler struct {
	dashboardService    *service.DashboardService
	contributionService *service.ContributionService
	paymentService      *service.PaymentService
	middleware          *Middleware
	templates           *template.Template
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(dashboardService *service.DashboardService, contributionService *service.ContributionService,
	paymentService *service.PaymentService, middleware *Middleware, templates *template.Template) *MemberHandler {
	return &MemberHandler{
		dashboardService:    dashboardService,
		contributionService: contributionService,
		paymentService:      paymentService,
		middleware:          middleware,
		templates:           templates,
	}
}

// Dashboard renders the member dashboard.
func (h *MemberHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	overview, err := h.dashboardService.MemberOverview(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load dashboard", err)
		return
	}

	types, err := h.typeIndex()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load dashboard", err)
		return
	}

	h.render(w, "dashboard.tmpl", DashboardViewData{
		Title:     "Dashboard",
		Account:   account,
		Overview:  overview,
		Types:     types,
		CSRFToken: h.middleware.GetCSRFToken(r),
		Notice:    noticeFor(r),
	})
}

// MyContributions renders the member's own obligations.
func (h *MemberHandler) MyContributions(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	obligations, err := h.contributionService.ListMemberObligations(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load contributions", err)
		return
	}

	totals, err := h.contributionService.AccountTotals(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load contributions", err)
		return
	}

	types, err := h.typeIndex()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load contributions", err)
		return
	}

	h.render(w, "my_contributions.tmpl", MyContributionsViewData{
		Title:       "My Contributions",
		Account:     account,
		Obligations: obligations,
		Types:       types,
		Totals:      totals,
		CSRFToken:   h.middleware.GetCSRFToken(r),
		Notice:      noticeFor(r),
		Error:       r.URL.Query().Get("error"),
	})
}

// MyPayments renders the member's payment history.
func (h *MemberHandler) MyPayments(w http.ResponseWriter, r *http.Request) {
	account := GetAccountFromContext(r.Context())
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	payments, err := h.paymentService.ListMemberPayments(account.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return
	}

	h.render(w, "my_payments.tmpl", PaymentsViewData{
		Title:    "My Payments",
		Account:  account,
		Payments: payments,
	})
}

func (h *MemberHandler) typeIndex() (map[int64]models.ContributionType, error) {
	types, err := h.contributionService.ListTypes()
	if err != nil {
		return nil, err
	}
	index := make(map[int64]models.ContributionType, len(types))
	for _, ct := range types {
		index[ct.ID] = ct
	}
	return index, nil
}

func (h *MemberHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// noticeFor maps well-known query flags to banner text.
func noticeFor(r *http.Request) string {
	switch r.URL.Query().Get("checkout") {
	case "success":
		return "Payment received, thank you."
	case "failed":
		return "The payment was not completed. You can try again."
	case "cancelled":
		return "Payment cancelled."
	case "instructions":
		return "Banking details have been emailed to you. The treasurer will confirm your payment once it reflects."
	}
	return ""
}

// pathID parses an {id} path value.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
