package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/security"
	"clanledger/internal/validation"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrAccountInactive    = errors.New("account not activated; check your email for the activation link")
	ErrAccountNotFound    = errors.New("account not found")
	ErrForbidden          = errors.New("you do not have permission to do that")
)

// AuthService handles registration, login and the approval workflow.
// New accounts start inactive and unapproved: the activation link
// verifies the email, and an executive approval makes the member
// eligible for contribution rounds.
type AuthService struct {
	accountRepo     *repository.AccountRepository
	familyRepo      *repository.FamilyRepository
	tokens          *security.TokenIssuer
	email           *EmailService
	notifier        *Notifier
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(accountRepo *repository.AccountRepository, familyRepo *repository.FamilyRepository,
	tokens *security.TokenIssuer, email *EmailService, notifier *Notifier, sessionDuration time.Duration) *AuthService {
	return &AuthService{
		accountRepo:     accountRepo,
		familyRepo:      familyRepo,
		tokens:          tokens,
		email:           email,
		notifier:        notifier,
		sessionDuration: sessionDuration,
	}
}

// RegisterInput carries the sign-up form fields.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      string
	FamilySlug string
}

// Register creates a new inactive account and queues the activation
// email.
func (s *AuthService) Register(in RegisterInput) (*models.Account, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("first name", in.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("last name", in.LastName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetAccountByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:        in.Email,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         models.RoleMember,
	}

	if in.FamilySlug != "" {
		family, err := s.familyRepo.GetFamilyBySlug(in.FamilySlug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up family: %w", err)
		}
		if family == nil {
			return nil, errors.New("unknown family selected")
		}
		account.FamilyID = &family.ID
	}

	account, err = s.accountRepo.CreateAccount(account)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.ActivationToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue activation token: %w", err)
	}

	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "activation",
		Send: func(ctx context.Context) error {
			return s.email.SendActivationEmail(ctx, account.Email, account.FirstName, token)
		},
	})

	slog.Info("account registered", "account_id", account.ID, "email", account.Email)
	return account, nil
}

// Activate verifies an activation token and marks the account active.
func (s *AuthService) Activate(token string) (*models.Account, error) {
	claims, err := s.tokens.VerifyActivationToken(token)
	if err != nil {
		return nil, err
	}

	account, err := s.accountRepo.GetAccountByID(claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || account.Email != claims.Email {
		return nil, security.ErrInvalidToken
	}

	if !account.IsActive {
		if err := s.accountRepo.ActivateAccount(account.ID); err != nil {
			return nil, err
		}
		account.IsActive = true
		account.EmailVerified = true
		slog.Info("account activated", "account_id", account.ID)
	}
	return account, nil
}

// Approve marks an account approved on behalf of an executive. Approved
// plus active makes the member eligible for fan-outs.
func (s *AuthService) Approve(approver *models.Account, accountID int64) error {
	if !models.CapabilitiesFor(approver.Role, approver.IsStaff).Has(models.CapApproveMember) {
		return ErrForbidden
	}

	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.IsApproved {
		return nil
	}

	if err := s.accountRepo.ApproveAccount(accountID); err != nil {
		return err
	}

	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "approval",
		Send: func(ctx context.Context) error {
			return s.email.SendApprovalEmail(ctx, account.Email, account.FirstName)
		},
	})

	slog.Info("account approved", "account_id", accountID, "approved_by", approver.ID)
	return nil
}

// AddMember creates an account on behalf of an executive. It skips the
// activation round-trip: the member is active, approved and eligible
// for fan-outs immediately.
func (s *AuthService) AddMember(actor *models.Account, in RegisterInput, role models.Role) (*models.Account, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapManageMembers) {
		return nil, ErrForbidden
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("first name", in.FirstName); err != nil {
		return nil, err
	}
	if err := validation.ValidateName("last name", in.LastName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePhone(in.Phone); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetAccountByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:         in.Email,
		PasswordHash:  passwordHash,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		Role:          role,
		IsActive:      true,
		IsApproved:    true,
		EmailVerified: true,
	}

	if in.FamilySlug != "" {
		family, err := s.familyRepo.GetFamilyBySlug(in.FamilySlug)
		if err != nil {
			return nil, fmt.Errorf("failed to look up family: %w", err)
		}
		if family == nil {
			return nil, errors.New("unknown family selected")
		}
		account.FamilyID = &family.ID
	}

	account, err = s.accountRepo.CreateAccount(account)
	if err != nil {
		return nil, err
	}

	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "approval",
		Send: func(ctx context.Context) error {
			return s.email.SendApprovalEmail(ctx, account.Email, account.FirstName)
		},
	})

	slog.Info("member added", "account_id", account.ID, "email", account.Email, "role", role, "added_by", actor.ID)
	return account, nil
}

// ListAccounts retrieves every account.
func (s *AuthService) ListAccounts() ([]models.Account, error) {
	return s.accountRepo.ListAccounts()
}

// ListPendingAccounts retrieves accounts awaiting executive approval.
func (s *AuthService) ListPendingAccounts(viewer *models.Account) ([]models.Account, error) {
	if !models.CapabilitiesFor(viewer.Role, viewer.IsStaff).Has(models.CapApproveMember) {
		return nil, ErrForbidden
	}
	return s.accountRepo.ListUnapprovedAccounts()
}

// Login authenticates an account and creates a session. Inactive
// accounts are rejected until the activation link is followed.
func (s *AuthService) Login(email, password string) (*models.Session, *models.Account, error) {
	account, err := s.accountRepo.GetAccountByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !security.CheckPassword(password, account.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, nil, ErrAccountInactive
	}

	session, err := s.createSession(account.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, account, nil
}

// OAuthLogin signs a member in with a verified Google identity,
// creating the account on first login. Google-verified emails skip the
// activation step but still wait for executive approval.
func (s *AuthService) OAuthLogin(email, firstName, lastName string) (*models.Session, *models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, err
	}

	account, err := s.accountRepo.GetAccountByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account == nil {
		// No usable password; OAuth accounts sign in through Google.
		placeholder, err := security.HashPassword(security.GenerateSessionID())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash placeholder password: %w", err)
		}
		account = &models.Account{
			Email:        email,
			PasswordHash: placeholder,
			FirstName:    firstName,
			LastName:     lastName,
			Role:         models.RoleMember,
		}
		account, err = s.accountRepo.CreateAccount(account)
		if err != nil {
			return nil, nil, err
		}
		if err := s.accountRepo.ActivateAccount(account.ID); err != nil {
			return nil, nil, err
		}
		account.IsActive = true
		account.EmailVerified = true
		slog.Info("account created via oauth", "account_id", account.ID, "email", email)
	} else if !account.IsActive {
		// Google has verified ownership of the address.
		if err := s.accountRepo.ActivateAccount(account.ID); err != nil {
			return nil, nil, err
		}
		account.IsActive = true
		account.EmailVerified = true
	}

	session, err := s.createSession(account.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, account, nil
}

// ValidateSession checks a session and returns the associated account.
func (s *AuthService) ValidateSession(sessionID string) (*models.Account, error) {
	session, err := s.accountRepo.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		_ = s.accountRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	account, err := s.accountRepo.GetAccountByID(session.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, ErrSessionNotFound
	}
	return account, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(sessionID string) error {
	if err := s.accountRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() error {
	if err := s.accountRepo.DeleteExpiredSessions(); err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return nil
}

func (s *AuthService) createSession(accountID int64) (*models.Session, error) {
	sessionID := security.GenerateSessionID()
	expiresAt := time.Now().Add(s.sessionDuration)
	session, err := s.accountRepo.CreateSession(sessionID, accountID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}
