package service

import (
	"errors"
	"fmt"
	"log/slog"

	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/validation"
)

var (
	ErrFamilyNotFound = errors.New("family not found")
)

// FamilyService handles family business logic
type FamilyService struct {
	familyRepo  *repository.FamilyRepository
	accountRepo *repository.AccountRepository
}

// NewFamilyService creates a new family service
func NewFamilyService(familyRepo *repository.FamilyRepository, accountRepo *repository.AccountRepository) *FamilyService {
	return &FamilyService{familyRepo: familyRepo, accountRepo: accountRepo}
}

// CreateFamily registers a family. The optional leader is attached to
// the family in the same transaction and promoted to the family_leader
// role. Creators without the approval capability, family leaders
// included, get a family that awaits executive approval.
func (s *FamilyService) CreateFamily(creator *models.Account, name string, leaderID *int64) (*models.Family, error) {
	if err := validation.ValidateName("family name", name); err != nil {
		return nil, err
	}

	caps := models.CapabilitiesFor(creator.Role, creator.IsStaff)
	if !caps.Has(models.CapCreateFamily) {
		return nil, ErrForbidden
	}

	var leader *models.Account
	if leaderID != nil {
		var err error
		leader, err = s.accountRepo.GetAccountByID(*leaderID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up leader: %w", err)
		}
		if leader == nil {
			return nil, ErrAccountNotFound
		}
	}

	family := &models.Family{
		Name:       name,
		LeaderID:   leaderID,
		IsApproved: caps.Has(models.CapApproveFamily),
	}
	family, err := s.familyRepo.CreateFamily(family)
	if err != nil {
		return nil, err
	}

	if leader != nil && leader.Role == models.RoleMember {
		leader.Role = models.RoleFamilyLeader
		leader.FamilyID = &family.ID
		if err := s.accountRepo.UpdateAccount(leader); err != nil {
			return nil, fmt.Errorf("failed to promote family leader: %w", err)
		}
	}

	slog.Info("family created", "family_id", family.ID, "slug", family.Slug, "approved", family.IsApproved)
	return family, nil
}

// GetFamily retrieves a family by slug.
func (s *FamilyService) GetFamily(slug string) (*models.Family, error) {
	family, err := s.familyRepo.GetFamilyBySlug(slug)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, ErrFamilyNotFound
	}
	return family, nil
}

// ListFamilies retrieves all families.
func (s *FamilyService) ListFamilies() ([]models.Family, error) {
	return s.familyRepo.ListFamilies()
}

// ListPendingFamilies retrieves families awaiting executive approval.
func (s *FamilyService) ListPendingFamilies() ([]models.Family, error) {
	families, err := s.familyRepo.ListFamilies()
	if err != nil {
		return nil, err
	}
	pending := families[:0:0]
	for _, f := range families {
		if !f.IsApproved {
			pending = append(pending, f)
		}
	}
	return pending, nil
}

// ListMembers retrieves a family's member accounts.
func (s *FamilyService) ListMembers(familyID int64) ([]models.Account, error) {
	return s.accountRepo.ListFamilyMembers(familyID)
}

// UpdateFamily renames a family or reassigns its leader.
func (s *FamilyService) UpdateFamily(actor *models.Account, family *models.Family) error {
	caps := models.CapabilitiesFor(actor.Role, actor.IsStaff)
	isOwnLeader := family.LeaderID != nil && *family.LeaderID == actor.ID
	if !caps.Has(models.CapManageMembers) && !isOwnLeader {
		return ErrForbidden
	}
	if err := validation.ValidateName("family name", family.Name); err != nil {
		return err
	}
	return s.familyRepo.UpdateFamily(family)
}

// ApproveFamily marks a family approved on behalf of an executive.
func (s *FamilyService) ApproveFamily(approver *models.Account, familyID int64) error {
	if !models.CapabilitiesFor(approver.Role, approver.IsStaff).Has(models.CapApproveFamily) {
		return ErrForbidden
	}
	if err := s.familyRepo.ApproveFamily(familyID); err != nil {
		return err
	}
	slog.Info("family approved", "family_id", familyID, "approved_by", approver.ID)
	return nil
}

// DeleteFamily removes a family. Members revert to unaffiliated; their
// obligations and payments survive.
func (s *FamilyService) DeleteFamily(actor *models.Account, familyID int64) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapDeleteFamily) {
		return ErrForbidden
	}
	return s.familyRepo.DeleteFamily(familyID)
}

// Totals computes a family's ledger rollup.
func (s *FamilyService) Totals(familyID int64) (*models.FamilyTotals, error) {
	return s.familyRepo.FamilyTotals(familyID)
}
