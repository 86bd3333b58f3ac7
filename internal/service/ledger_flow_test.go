package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/ids"
	"clanledger/internal/models"
	"clanledger/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// flowEnv wires the services against an in-memory sqlite database with
// the real schema, external channels disabled.
type flowEnv struct {
	db               *database.DB
	accountRepo      *repository.AccountRepository
	familyRepo       *repository.FamilyRepository
	contributionRepo *repository.ContributionRepository
	paymentRepo      *repository.PaymentRepository
	gateway          *GatewayClient
	contributions    *ContributionService
	payments         *PaymentService
	families         *FamilyService
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	raw, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	raw.SetMaxOpenConns(1)
	db := database.Wrap(raw, database.NewSQLiteDialect())
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	email, err := NewEmailService("", "", "", "http://localhost:8080")
	if err != nil {
		t.Fatalf("failed to build email service: %v", err)
	}
	sms := NewSMSService("", "")
	notifier := NewNotifier(1)
	t.Cleanup(notifier.Close)
	gateway := NewGatewayClient("pk_test", "sk_test_secret", "http://gateway.invalid/checkouts")

	accountRepo := repository.NewAccountRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	return &flowEnv{
		db:               db,
		accountRepo:      accountRepo,
		familyRepo:       familyRepo,
		contributionRepo: contributionRepo,
		paymentRepo:      paymentRepo,
		gateway:          gateway,
		contributions:    NewContributionService(contributionRepo, accountRepo, familyRepo, email, sms, notifier),
		payments: NewPaymentService(paymentRepo, contributionRepo, accountRepo, gateway, email,
			notifier, "http://localhost:8080", BankingDetails{BankName: "FNB", AccountNumber: "123", BranchCode: "250655"}),
		families: NewFamilyService(familyRepo, accountRepo),
	}
}

func (e *flowEnv) mustAccount(t *testing.T, email string, role models.Role, familyID *int64, active bool) *models.Account {
	t.Helper()
	account, err := e.accountRepo.CreateAccount(&models.Account{
		Email:         email,
		PasswordHash:  "x",
		FirstName:     "Test",
		LastName:      "Member",
		Role:          role,
		FamilyID:      familyID,
		IsActive:      active,
		IsApproved:    active,
		EmailVerified: true,
	})
	if err != nil {
		t.Fatalf("failed to create account %s: %v", email, err)
	}
	return account
}

func (e *flowEnv) mustObligation(t *testing.T, accountID int64, amountDue string) *models.MemberContribution {
	t.Helper()
	ct, err := e.contributionRepo.CreateType(&models.ContributionType{
		Name:       "Test Fund " + ids.Reference("T"),
		Category:   models.CategoryOther,
		Amount:     decimal.RequireFromString(amountDue),
		Recurrence: models.RecurrenceOnceOff,
		Scope:      models.ScopeClan,
	})
	if err != nil {
		t.Fatalf("failed to create contribution type: %v", err)
	}
	created, _, err := e.contributionRepo.CreateObligations([]models.MemberContribution{{
		AccountID:          accountID,
		ContributionTypeID: ct.ID,
		AmountDue:          decimal.RequireFromString(amountDue),
		Reference:          ids.Reference("MC"),
		DueDate:            time.Now().AddDate(0, 1, 0),
		Status:             models.StatusNotPaid,
	}})
	if err != nil || len(created) != 1 {
		t.Fatalf("failed to create obligation: %v", err)
	}
	return &created[0]
}

func accountIDSet(accounts []models.MemberContribution) map[int64]bool {
	set := make(map[int64]bool, len(accounts))
	for _, a := range accounts {
		set[a.AccountID] = true
	}
	return set
}

func TestFanOutTargetsByScope(t *testing.T) {
	env := newFlowEnv(t)

	famA, err := env.familyRepo.CreateFamily(&models.Family{Name: "Bakwena", IsApproved: true})
	if err != nil {
		t.Fatalf("failed to create family: %v", err)
	}

	chair := env.mustAccount(t, "chair@example.com", models.RoleChairperson, nil, true)
	treasurer := env.mustAccount(t, "treasurer@example.com", models.RoleTreasurer, nil, true)
	leaderA := env.mustAccount(t, "leader-a@example.com", models.RoleFamilyLeader, &famA.ID, true)
	memberA := env.mustAccount(t, "member-a@example.com", models.RoleMember, &famA.ID, true)
	memberLoose := env.mustAccount(t, "member-x@example.com", models.RoleMember, nil, true)
	env.mustAccount(t, "dormant@example.com", models.RoleMember, &famA.ID, false)

	tests := []struct {
		name     string
		scope    models.Scope
		familyID *int64
		want     []int64
	}{
		{
			name:  "clan scope reaches every active approved member",
			scope: models.ScopeClan,
			want:  []int64{chair.ID, treasurer.ID, leaderA.ID, memberA.ID, memberLoose.ID},
		},
		{
			name:     "family scope reaches only that family",
			scope:    models.ScopeFamily,
			familyID: &famA.ID,
			want:     []int64{leaderA.ID, memberA.ID},
		},
		{
			name:  "family leaders scope reaches the leaders",
			scope: models.ScopeFamilyLeaders,
			want:  []int64{leaderA.ID},
		},
		{
			name:  "executives scope reaches the executive ranks",
			scope: models.ScopeExecutives,
			want:  []int64{chair.ID, treasurer.ID, leaderA.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.contributions.CreateContributionType(chair, &models.ContributionType{
				Name:       "Fund " + string(tt.scope),
				Category:   models.CategoryOther,
				FamilyID:   tt.familyID,
				Amount:     decimal.RequireFromString("150.00"),
				Recurrence: models.RecurrenceOnceOff,
				Scope:      tt.scope,
			})
			if err != nil {
				t.Fatalf("CreateContributionType failed: %v", err)
			}
			if len(result.Created) != len(tt.want) {
				t.Fatalf("created = %d obligations, want %d", len(result.Created), len(tt.want))
			}
			got := accountIDSet(result.Created)
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("no obligation created for account %d", id)
				}
			}
		})
	}
}

func TestDeclaredBankPaymentAwaitsVerification(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	obligation := env.mustObligation(t, member.ID, "50.00")

	url, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.MethodBank)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if url != "" {
		t.Errorf("redirect URL = %q, want empty for a declared payment", url)
	}

	reloaded, err := env.contributionRepo.GetObligationByID(obligation.ID)
	if err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if reloaded.Status != models.StatusPending {
		t.Errorf("status = %s, want PENDING", reloaded.Status)
	}

	payments, err := env.paymentRepo.ListPaymentsByObligation(obligation.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want exactly one declared attempt", len(payments))
	}
	attempt := payments[0]
	if attempt.Method != models.MethodBank {
		t.Errorf("method = %s, want bank", attempt.Method)
	}
	if attempt.Status != models.PaymentPending {
		t.Errorf("payment status = %s, want pending", attempt.Status)
	}
	if attempt.Amount.StringFixed(2) != "50.00" {
		t.Errorf("amount = %s, want 50.00", attempt.Amount.StringFixed(2))
	}

	// A second attempt while the first awaits verification is refused.
	if _, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.MethodBank); !errors.Is(err, ErrObligationInFlight) {
		t.Fatalf("error = %v, want ErrObligationInFlight", err)
	}
}

func TestCheckoutRejectsUnknownMethod(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	obligation := env.mustObligation(t, member.ID, "50.00")

	if _, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.PaymentMethod("banana")); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("error = %v, want ErrUnknownMethod", err)
	}

	reloaded, err := env.contributionRepo.GetObligationByID(obligation.ID)
	if err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if reloaded.Status != models.StatusNotPaid {
		t.Errorf("status = %s, want NOT_PAID untouched", reloaded.Status)
	}
	payments, err := env.paymentRepo.ListPaymentsByObligation(obligation.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("payments = %d, want none recorded", len(payments))
	}
}

func TestVerifyDeclaredPaymentSettlesObligation(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	treasurer := env.mustAccount(t, "treasurer@example.com", models.RoleTreasurer, nil, true)
	obligation := env.mustObligation(t, member.ID, "50.00")

	if _, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.MethodBank); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	// Members cannot verify their own declarations.
	if _, err := env.payments.VerifyDeclaredPayment(member, obligation.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}

	settled, err := env.payments.VerifyDeclaredPayment(treasurer, obligation.ID, true)
	if err != nil {
		t.Fatalf("VerifyDeclaredPayment failed: %v", err)
	}
	if settled.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", settled.Status)
	}

	payments, err := env.paymentRepo.ListPaymentsByObligation(obligation.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Status != models.PaymentConfirmed {
		t.Fatalf("payments = %+v, want one confirmed attempt", payments)
	}
}

func TestVerifyDeclaredPaymentNotReceivedReopens(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	treasurer := env.mustAccount(t, "treasurer@example.com", models.RoleTreasurer, nil, true)
	obligation := env.mustObligation(t, member.ID, "50.00")

	if _, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.MethodBank); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}

	reopened, err := env.payments.VerifyDeclaredPayment(treasurer, obligation.ID, false)
	if err != nil {
		t.Fatalf("VerifyDeclaredPayment failed: %v", err)
	}
	if reopened.Status != models.StatusNotPaid {
		t.Errorf("status = %s, want NOT_PAID", reopened.Status)
	}

	payments, err := env.paymentRepo.ListPaymentsByObligation(obligation.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(payments) != 1 || payments[0].Status != models.PaymentFailed {
		t.Fatalf("payments = %+v, want one failed attempt", payments)
	}

	// The member can declare again once the first attempt failed.
	if _, err := env.payments.Checkout(context.Background(), member, obligation.ID, models.MethodBank); err != nil {
		t.Fatalf("second Checkout failed: %v", err)
	}
}

func TestGatewaySuccessCallbackSettlesObligation(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	obligation := env.mustObligation(t, member.ID, "150.00")

	checkoutID := "ch_flow_1"
	if _, err := env.paymentRepo.RecordPending(&models.Payment{
		CheckoutID:           &checkoutID,
		AccountID:            member.ID,
		ContributionTypeID:   &obligation.ContributionTypeID,
		MemberContributionID: &obligation.ID,
		Method:               models.MethodMobile,
		Amount:               decimal.RequireFromString("150.00"),
		Reference:            ids.Reference("PAY"),
	}); err != nil {
		t.Fatalf("RecordPending failed: %v", err)
	}

	signature := env.gateway.Sign(checkoutID, "success")
	if err := env.payments.HandleGatewayCallback(checkoutID, "success", signature); err != nil {
		t.Fatalf("HandleGatewayCallback failed: %v", err)
	}

	reloaded, err := env.contributionRepo.GetObligationByID(obligation.ID)
	if err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if reloaded.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", reloaded.Status)
	}
	if reloaded.CheckoutID != nil {
		t.Errorf("checkout stamp = %v, want cleared", reloaded.CheckoutID)
	}

	payment, err := env.paymentRepo.GetPaymentByCheckoutID(checkoutID)
	if err != nil || payment == nil {
		t.Fatalf("failed to load checkout payment: %v", err)
	}
	if payment.Status != models.PaymentConfirmed {
		t.Errorf("payment status = %s, want confirmed", payment.Status)
	}

	// A replayed callback is idempotent.
	if err := env.payments.HandleGatewayCallback(checkoutID, "success", signature); err != nil {
		t.Fatalf("replayed callback failed: %v", err)
	}
}

func TestGatewayFailureCallbackReopensObligation(t *testing.T) {
	env := newFlowEnv(t)
	member := env.mustAccount(t, "member@example.com", models.RoleMember, nil, true)
	obligation := env.mustObligation(t, member.ID, "150.00")

	checkoutID := "ch_flow_2"
	if _, err := env.paymentRepo.RecordPending(&models.Payment{
		CheckoutID:           &checkoutID,
		AccountID:            member.ID,
		ContributionTypeID:   &obligation.ContributionTypeID,
		MemberContributionID: &obligation.ID,
		Method:               models.MethodMobile,
		Amount:               decimal.RequireFromString("150.00"),
		Reference:            ids.Reference("PAY"),
	}); err != nil {
		t.Fatalf("RecordPending failed: %v", err)
	}

	if err := env.payments.HandleGatewayCallback(checkoutID, "failed", env.gateway.Sign(checkoutID, "failed")); err != nil {
		t.Fatalf("HandleGatewayCallback failed: %v", err)
	}

	reloaded, err := env.contributionRepo.GetObligationByID(obligation.ID)
	if err != nil {
		t.Fatalf("failed to reload obligation: %v", err)
	}
	if reloaded.Status != models.StatusNotPaid {
		t.Errorf("status = %s, want NOT_PAID", reloaded.Status)
	}

	payment, err := env.paymentRepo.GetPaymentByCheckoutID(checkoutID)
	if err != nil || payment == nil {
		t.Fatalf("failed to load checkout payment: %v", err)
	}
	if payment.Status != models.PaymentFailed {
		t.Errorf("payment status = %s, want failed", payment.Status)
	}
}

func TestFamilyLeaderCreatedFamilyAwaitsApproval(t *testing.T) {
	env := newFlowEnv(t)
	famA, err := env.familyRepo.CreateFamily(&models.Family{Name: "Bakwena", IsApproved: true})
	if err != nil {
		t.Fatalf("failed to create family: %v", err)
	}
	leader := env.mustAccount(t, "leader@example.com", models.RoleFamilyLeader, &famA.ID, true)
	chair := env.mustAccount(t, "chair@example.com", models.RoleChairperson, nil, true)

	proposed, err := env.families.CreateFamily(leader, "Batlokwa", nil)
	if err != nil {
		t.Fatalf("CreateFamily by leader failed: %v", err)
	}
	if proposed.IsApproved {
		t.Error("leader-created family is approved, want pending approval")
	}

	approved, err := env.families.CreateFamily(chair, "Bafokeng", nil)
	if err != nil {
		t.Fatalf("CreateFamily by chairperson failed: %v", err)
	}
	if !approved.IsApproved {
		t.Error("chairperson-created family is pending, want approved")
	}
}
