package service

import (
	"fmt"

	"clanledger/internal/models"
	"clanledger/internal/repository"

	"github.com/shopspring/decimal"
)

// ClanOverview is the executive dashboard rollup, computed from live
// rows on every request.
type ClanOverview struct {
	TotalCollected  decimal.Decimal
	MemberCount     int
	FamilyCount     int
	PendingAccounts int
	Types           []TypeSummary
	RecentPayments  []models.Payment
}

// TypeSummary is one contribution type's collection position.
type TypeSummary struct {
	Type        models.ContributionType
	Collected   decimal.Decimal
	Outstanding decimal.Decimal
}

// MemberOverview is a single member's dashboard.
type MemberOverview struct {
	Totals      *models.AccountTotals
	Obligations []models.MemberContribution
	Payments    []models.Payment
}

// DashboardService assembles the read-only rollups for dashboards.
type DashboardService struct {
	accountRepo      *repository.AccountRepository
	familyRepo       *repository.FamilyRepository
	contributionRepo *repository.ContributionRepository
	paymentRepo      *repository.PaymentRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(accountRepo *repository.AccountRepository, familyRepo *repository.FamilyRepository,
	contributionRepo *repository.ContributionRepository, paymentRepo *repository.PaymentRepository) *DashboardService {
	return &DashboardService{
		accountRepo:      accountRepo,
		familyRepo:       familyRepo,
		contributionRepo: contributionRepo,
		paymentRepo:      paymentRepo,
	}
}

// ClanOverview assembles the executive dashboard.
func (s *DashboardService) ClanOverview() (*ClanOverview, error) {
	overview := &ClanOverview{}

	total, err := s.paymentRepo.TotalCollected()
	if err != nil {
		return nil, err
	}
	overview.TotalCollected = total

	accounts, err := s.accountRepo.ListAccounts()
	if err != nil {
		return nil, err
	}
	overview.MemberCount = len(accounts)

	pending, err := s.accountRepo.ListUnapprovedAccounts()
	if err != nil {
		return nil, err
	}
	overview.PendingAccounts = len(pending)

	families, err := s.familyRepo.ListFamilies()
	if err != nil {
		return nil, err
	}
	overview.FamilyCount = len(families)

	types, err := s.contributionRepo.ListTypes()
	if err != nil {
		return nil, err
	}
	for _, ct := range types {
		collected, err := s.paymentRepo.TotalCollectedForType(ct.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to total type %d: %w", ct.ID, err)
		}
		outstanding, err := s.contributionRepo.OutstandingForType(ct.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to total type %d: %w", ct.ID, err)
		}
		overview.Types = append(overview.Types, TypeSummary{
			Type:        ct,
			Collected:   collected,
			Outstanding: outstanding,
		})
	}

	recent, err := s.paymentRepo.ListRecentPayments(10)
	if err != nil {
		return nil, err
	}
	overview.RecentPayments = recent

	return overview, nil
}

// MemberOverview assembles a member's own dashboard.
func (s *DashboardService) MemberOverview(accountID int64) (*MemberOverview, error) {
	totals, err := s.contributionRepo.AccountTotals(accountID)
	if err != nil {
		return nil, err
	}
	obligations, err := s.contributionRepo.ListObligationsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListPaymentsByAccount(accountID)
	if err != nil {
		return nil, err
	}
	return &MemberOverview{
		Totals:      totals,
		Obligations: obligations,
		Payments:    payments,
	}, nil
}

// FamilyOverview assembles a family's rollup plus its member list.
func (s *DashboardService) FamilyOverview(familyID int64) (*models.FamilyTotals, []models.Account, error) {
	totals, err := s.familyRepo.FamilyTotals(familyID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.accountRepo.ListFamilyMembers(familyID)
	if err != nil {
		return nil, nil, err
	}
	return totals, members, nil
}
