package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clanledger/internal/ids"
	"clanledger/internal/metrics"
	"clanledger/internal/models"
	"clanledger/internal/repository"
)

var (
	ErrContributionNotFound = errors.New("contribution not found")
	ErrObligationMissing    = errors.New("obligation not found")
)

// referencePrefix tags obligation references so bank statements are
// traceable back to the ledger.
const referencePrefix = "MC"

// FanOutResult summarizes one contribution fan-out.
type FanOutResult struct {
	Type    *models.ContributionType
	Created []models.MemberContribution
	Skipped int
}

// ContributionService owns contribution templates and the fan-out that
// materializes member obligations from them.
type ContributionService struct {
	contributionRepo *repository.ContributionRepository
	accountRepo      *repository.AccountRepository
	familyRepo       *repository.FamilyRepository
	email            *EmailService
	sms              *SMSService
	notifier         *Notifier
}

// NewContributionService creates a new contribution service
func NewContributionService(contributionRepo *repository.ContributionRepository,
	accountRepo *repository.AccountRepository, familyRepo *repository.FamilyRepository,
	email *EmailService, sms *SMSService, notifier *Notifier) *ContributionService {
	return &ContributionService{
		contributionRepo: contributionRepo,
		accountRepo:      accountRepo,
		familyRepo:       familyRepo,
		email:            email,
		sms:              sms,
		notifier:         notifier,
	}
}

// CreateContributionType validates and saves a template, then fans out
// one obligation per eligible member in its scope. An empty target set
// is not an error: the template exists and obligations appear when the
// next cycle runs. Duplicate (member, template, due date) rows are
// skipped, so re-running a cycle is safe.
func (s *ContributionService) CreateContributionType(actor *models.Account, ct *models.ContributionType) (*FanOutResult, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapCreateContributionType) {
		return nil, ErrForbidden
	}
	if err := ct.Validate(); err != nil {
		return nil, err
	}
	if ct.FamilyID != nil {
		family, err := s.familyRepo.GetFamilyByID(*ct.FamilyID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up family: %w", err)
		}
		if family == nil {
			return nil, ErrFamilyNotFound
		}
	}

	ct.CreatedBy = &actor.ID
	ct, err := s.contributionRepo.CreateType(ct)
	if err != nil {
		return nil, err
	}

	result, err := s.fanOut(ct)
	if err != nil {
		return nil, err
	}

	slog.Info("contribution type created",
		"type_id", ct.ID, "slug", ct.Slug, "scope", ct.Scope,
		"created", len(result.Created), "skipped", result.Skipped)
	return result, nil
}

// RunCycle re-fans a recurring template for its next due date. Members
// who already hold an obligation for that date are skipped.
func (s *ContributionService) RunCycle(typeID int64) (*FanOutResult, error) {
	ct, err := s.contributionRepo.GetTypeByID(typeID)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, ErrContributionNotFound
	}
	result, err := s.fanOut(ct)
	if err != nil {
		return nil, err
	}
	slog.Info("contribution cycle run",
		"type_id", ct.ID, "created", len(result.Created), "skipped", result.Skipped)
	return result, nil
}

func (s *ContributionService) fanOut(ct *models.ContributionType) (*FanOutResult, error) {
	targets, err := s.accountRepo.ListEligibleByScope(ct.Scope, ct.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fan-out targets: %w", err)
	}

	dueDate := ct.ObligationDueDate(time.Now())
	obligations := make([]models.MemberContribution, 0, len(targets))
	for _, target := range targets {
		obligations = append(obligations, models.MemberContribution{
			AccountID:          target.ID,
			ContributionTypeID: ct.ID,
			AmountDue:          ct.Amount,
			Reference:          ids.Reference(referencePrefix),
			DueDate:            dueDate,
			Status:             models.StatusNotPaid,
		})
	}

	created, skipped, err := s.contributionRepo.CreateObligations(obligations)
	if err != nil {
		return nil, err
	}
	metrics.ObligationsCreated.Add(float64(len(created)))
	metrics.ObligationsSkipped.Add(float64(skipped))

	accountsByID := make(map[int64]models.Account, len(targets))
	for _, target := range targets {
		accountsByID[target.ID] = target
	}
	for _, obligation := range created {
		s.notifyAssignment(accountsByID[obligation.AccountID], ct, obligation)
	}

	return &FanOutResult{Type: ct, Created: created, Skipped: skipped}, nil
}

func (s *ContributionService) notifyAssignment(account models.Account, ct *models.ContributionType, obligation models.MemberContribution) {
	amount := obligation.AmountDue.StringFixed(2)
	due := obligation.DueDate.Format("02 Jan 2006")

	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "obligation",
		Send: func(ctx context.Context) error {
			return s.email.SendObligationEmail(ctx, account.Email, account.FirstName, ct.Name, amount, due)
		},
	})

	if account.Phone != "" && s.sms.IsEnabled() {
		message := fmt.Sprintf("New clan contribution: %s, R%s due %s. Ref %s.", ct.Name, amount, due, obligation.Reference)
		phone := account.Phone
		s.notifier.Enqueue(Notification{
			Channel:   ChannelSMS,
			Recipient: phone,
			Kind:      "obligation",
			Send: func(ctx context.Context) error {
				return s.sms.Send(ctx, phone, message)
			},
		})
	}
}

// GetType retrieves a template by slug.
func (s *ContributionService) GetType(slug string) (*models.ContributionType, error) {
	ct, err := s.contributionRepo.GetTypeBySlug(slug)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, ErrContributionNotFound
	}
	return ct, nil
}

// ListTypes retrieves all templates.
func (s *ContributionService) ListTypes() ([]models.ContributionType, error) {
	return s.contributionRepo.ListTypes()
}

// UpdateType edits a template's descriptive fields.
func (s *ContributionService) UpdateType(actor *models.Account, ct *models.ContributionType) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapCreateContributionType) {
		return ErrForbidden
	}
	return s.contributionRepo.UpdateType(ct)
}

// DeleteType removes a template and its obligations.
func (s *ContributionService) DeleteType(actor *models.Account, id int64) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapCreateContributionType) {
		return ErrForbidden
	}
	return s.contributionRepo.DeleteType(id)
}

// GetObligation retrieves an obligation by ID.
func (s *ContributionService) GetObligation(id int64) (*models.MemberContribution, error) {
	obligation, err := s.contributionRepo.GetObligationByID(id)
	if err != nil {
		return nil, err
	}
	if obligation == nil {
		return nil, ErrObligationMissing
	}
	return obligation, nil
}

// ListMemberObligations retrieves a member's obligations.
func (s *ContributionService) ListMemberObligations(accountID int64) ([]models.MemberContribution, error) {
	return s.contributionRepo.ListObligationsByAccount(accountID)
}

// ListTypeObligations retrieves the obligations fanned out from one template.
func (s *ContributionService) ListTypeObligations(typeID int64) ([]models.MemberContribution, error) {
	return s.contributionRepo.ListObligationsByType(typeID)
}

// AccountTotals computes a member's paid/owed position across all
// their obligations.
func (s *ContributionService) AccountTotals(accountID int64) (*models.AccountTotals, error) {
	return s.contributionRepo.AccountTotals(accountID)
}
