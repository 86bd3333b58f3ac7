package handlers

import (
	"clanledger/internal/models"
	"clanledger/internal/service"
)

type LoginViewData struct {
	Title       string
	Account     *models.Account
	Error       string
	Success     string
	Email       string
	GoogleLogin bool
}

type RegisterViewData struct {
	Title     string
	Account   *models.Account
	Error     string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Families  []models.Family
}

type DashboardViewData struct {
	Title     string
	Account   *models.Account
	Overview  *service.MemberOverview
	Types     map[int64]models.ContributionType
	CSRFToken string
	Notice    string
}

type ClanDashboardViewData struct {
	Title     string
	Account   *models.Account
	Overview  *service.ClanOverview
	CSRFToken string
}

type FamiliesViewData struct {
	Title     string
	Account   *models.Account
	Families  []models.Family
	CSRFToken string
	Error     string
}

type FamilyDetailViewData struct {
	Title     string
	Account   *models.Account
	Family    *models.Family
	Members   []models.Account
	Totals    *models.FamilyTotals
	CSRFToken string
	Error     string
}

type ContributionTypesViewData struct {
	Title     string
	Account   *models.Account
	Types     []models.ContributionType
	Families  []models.Family
	CSRFToken string
	Error     string
	Notice    string
}

type ContributionDetailViewData struct {
	Title       string
	Account     *models.Account
	Type        *models.ContributionType
	Obligations []models.MemberContribution
	Accounts    map[int64]models.Account
	CSRFToken   string
	Error       string
}

type MyContributionsViewData struct {
	Title       string
	Account     *models.Account
	Obligations []models.MemberContribution
	Types       map[int64]models.ContributionType
	Totals      *models.AccountTotals
	CSRFToken   string
	Notice      string
	Error       string
}

type PaymentsViewData struct {
	Title    string
	Account  *models.Account
	Payments []models.Payment
}

type PendingApprovalsViewData struct {
	Title       string
	Account     *models.Account
	Accounts    []models.Account
	Families    []models.Family
	AllFamilies []models.Family
	CSRFToken   string
	Notice      string
	Error       string
}

type DocumentsViewData struct {
	Title     string
	Account   *models.Account
	Documents []models.ClanDocument
	Families  []models.Family
	CSRFToken string
	Error     string
}

type MeetingsViewData struct {
	Title     string
	Account   *models.Account
	Meetings  []models.Meeting
	Families  []models.Family
	CSRFToken string
	Error     string
}
