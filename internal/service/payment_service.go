package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clanledger/internal/ids"
	"clanledger/internal/metrics"
	"clanledger/internal/models"
	"clanledger/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	ErrNotYourObligation  = errors.New("this contribution belongs to another member")
	ErrInvalidSignature   = errors.New("gateway signature verification failed")
	ErrGatewayMethod      = errors.New("gateway payments go through checkout, not manual logging")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrAmountExceedsOwed  = errors.New("amount exceeds the outstanding balance")
	ErrObligationSettled  = errors.New("this contribution is already settled or cancelled")
	ErrObligationInFlight = errors.New("an online payment for this contribution is already in progress")
	ErrNothingToVerify    = errors.New("no declared payment is awaiting verification")
)

// gateway outcome strings as delivered on the webhook.
const (
	gatewayStatusSuccess = "success"
	gatewayStatusFailed  = "failed"
)

// BankingDetails is the clan bank account quoted in EFT instructions.
type BankingDetails struct {
	BankName      string
	AccountNumber string
	BranchCode    string
}

// PaymentService drives the two payment paths. Self-checkout sends a
// member to the card gateway for the obligation's exact amount and
// parks the obligation at PENDING until the webhook lands; treasurer
// logging records offline payments, partials included, and settles the
// status immediately. Members declaring a cash or EFT payment get the
// banking details emailed and wait for the treasurer to confirm.
type PaymentService struct {
	paymentRepo      *repository.PaymentRepository
	contributionRepo *repository.ContributionRepository
	accountRepo      *repository.AccountRepository
	gateway          *GatewayClient
	email            *EmailService
	notifier         *Notifier
	baseURL          string
	bank             BankingDetails
}

// NewPaymentService creates a new payment service
func NewPaymentService(paymentRepo *repository.PaymentRepository, contributionRepo *repository.ContributionRepository,
	accountRepo *repository.AccountRepository, gateway *GatewayClient, email *EmailService,
	notifier *Notifier, baseURL string, bank BankingDetails) *PaymentService {
	return &PaymentService{
		paymentRepo:      paymentRepo,
		contributionRepo: contributionRepo,
		accountRepo:      accountRepo,
		gateway:          gateway,
		email:            email,
		notifier:         notifier,
		baseURL:          baseURL,
		bank:             bank,
	}
}

// Checkout starts a payment for a member's own obligation. Every
// attempt creates an unconfirmed payment row for the outstanding
// balance and parks the obligation at PENDING. The mobile method
// additionally creates a gateway checkout and returns its redirect URL;
// cash and bank email the banking details and return an empty URL, and
// the treasurer's verification settles the attempt.
func (s *PaymentService) Checkout(ctx context.Context, actor *models.Account, obligationID int64, method models.PaymentMethod) (string, error) {
	if !method.Valid() {
		return "", ErrUnknownMethod
	}

	obligation, err := s.contributionRepo.GetObligationByID(obligationID)
	if err != nil {
		return "", err
	}
	if obligation == nil {
		return "", ErrObligationMissing
	}
	if obligation.AccountID != actor.ID && !actor.IsStaff {
		return "", ErrNotYourObligation
	}
	if obligation.Status.Terminal() {
		return "", ErrObligationSettled
	}
	if obligation.Status == models.StatusPending {
		return "", ErrObligationInFlight
	}

	outstanding, err := s.outstandingBalance(obligation)
	if err != nil {
		return "", err
	}

	payment := &models.Payment{
		AccountID:            obligation.AccountID,
		ContributionTypeID:   &obligation.ContributionTypeID,
		MemberContributionID: &obligation.ID,
		Method:               method,
		Amount:               outstanding,
		Reference:            ids.Reference("PAY"),
	}

	if !method.RequiresGateway() {
		if _, err := s.paymentRepo.RecordPending(payment); err != nil {
			return "", err
		}
		s.notifyBankingDetails(obligation, outstanding)
		slog.Info("offline payment declared",
			"obligation_id", obligation.ID, "payment_id", payment.ID,
			"account_id", actor.ID, "method", method)
		return "", nil
	}

	successURL := s.baseURL + "/contributions/mine?checkout=success"
	cancelURL := s.baseURL + "/contributions/mine?checkout=cancelled"
	failureURL := s.baseURL + "/contributions/mine?checkout=failed"

	checkout, err := s.gateway.CreateCheckout(ctx, outstanding, obligation.Reference,
		successURL, cancelURL, failureURL)
	if err != nil {
		return "", err
	}

	payment.CheckoutID = &checkout.ID
	if _, err := s.paymentRepo.RecordPending(payment); err != nil {
		return "", err
	}

	slog.Info("checkout started",
		"obligation_id", obligation.ID, "checkout_id", checkout.ID, "account_id", actor.ID)
	return checkout.RedirectURL, nil
}

// outstandingBalance is the amount still owed: the amount due less the
// confirmed payment sum. Pending and failed attempts do not reduce it.
func (s *PaymentService) outstandingBalance(obligation *models.MemberContribution) (decimal.Decimal, error) {
	existing, err := s.paymentRepo.ListPaymentsByObligation(obligation.ID)
	if err != nil {
		return decimal.Zero, err
	}
	paid := decimal.Zero
	for _, p := range existing {
		if p.Status == models.PaymentConfirmed {
			paid = paid.Add(p.Amount)
		}
	}
	return obligation.AmountDue.Sub(paid), nil
}

// HandleGatewayCallback processes the gateway webhook: the signature is
// verified before anything is trusted, then the checkout is finalized.
// A successful outcome records the payment and recomputes the status; a
// failure returns the obligation to its pre-checkout state.
func (s *PaymentService) HandleGatewayCallback(checkoutID, status, signature string) error {
	if !s.gateway.VerifySignature(checkoutID, status, signature) {
		metrics.GatewayCallbacks.WithLabelValues("invalid_signature").Inc()
		slog.Warn("gateway callback rejected", "checkout_id", checkoutID)
		return ErrInvalidSignature
	}

	success := status == gatewayStatusSuccess
	obligation, err := s.paymentRepo.ConfirmCheckout(checkoutID, success)
	if err != nil {
		metrics.GatewayCallbacks.WithLabelValues("error").Inc()
		return err
	}

	if success {
		metrics.GatewayCallbacks.WithLabelValues("success").Inc()
		metrics.PaymentsRecorded.WithLabelValues(string(models.MethodMobile)).Inc()
		amount := obligation.AmountDue
		if payment, err := s.paymentRepo.GetPaymentByCheckoutID(checkoutID); err == nil && payment != nil {
			amount = payment.Amount
		}
		s.notifyReceipt(obligation, amount)
	} else {
		metrics.GatewayCallbacks.WithLabelValues("failure").Inc()
	}

	slog.Info("gateway callback processed",
		"checkout_id", checkoutID, "success", success, "obligation_id", obligation.ID, "status", obligation.Status)
	return nil
}

// LogPayment records an offline payment on behalf of the treasurer.
// Partial amounts are accepted; the reconciliation decides whether the
// obligation lands on PARTIALLY_PAID or PAID.
func (s *PaymentService) LogPayment(actor *models.Account, obligationID int64, amount decimal.Decimal, method models.PaymentMethod) (*models.Payment, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapLogPayment) {
		return nil, ErrForbidden
	}
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}
	if !method.Valid() {
		return nil, ErrUnknownMethod
	}
	if method.RequiresGateway() {
		return nil, ErrGatewayMethod
	}

	obligation, err := s.contributionRepo.GetObligationByID(obligationID)
	if err != nil {
		return nil, err
	}
	if obligation == nil {
		return nil, ErrObligationMissing
	}
	if obligation.Status.Terminal() {
		return nil, ErrObligationSettled
	}

	outstanding, err := s.outstandingBalance(obligation)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(outstanding) {
		return nil, ErrAmountExceedsOwed
	}

	payment := &models.Payment{
		AccountID:            obligation.AccountID,
		ContributionTypeID:   &obligation.ContributionTypeID,
		MemberContributionID: &obligation.ID,
		Method:               method,
		Amount:               amount,
		Reference:            ids.Reference("PAY"),
		RecordedBy:           &actor.ID,
	}
	payment, err = s.paymentRepo.RecordConfirmed(payment)
	if err != nil {
		if errors.Is(err, repository.ErrObligationClosed) {
			return nil, ErrObligationSettled
		}
		return nil, err
	}

	metrics.PaymentsRecorded.WithLabelValues(string(method)).Inc()
	s.notifyReceipt(obligation, amount)

	slog.Info("payment logged",
		"payment_id", payment.ID, "obligation_id", obligationID,
		"amount", amount.StringFixed(2), "method", method, "recorded_by", actor.ID)
	return payment, nil
}

// VerifyDeclaredPayment settles a member's declared cash or EFT payment
// once the treasurer has checked the statement. Received confirms the
// declared amount and the reconciliation settles the obligation; not
// received fails the attempt and the obligation falls back to what the
// confirmed payments imply, so the member can pay again.
func (s *PaymentService) VerifyDeclaredPayment(actor *models.Account, obligationID int64, received bool) (*models.MemberContribution, error) {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapLogPayment) {
		return nil, ErrForbidden
	}

	obligation, amount, err := s.paymentRepo.ResolveDeclared(obligationID, received)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrObligationClosed):
			return nil, ErrObligationSettled
		case errors.Is(err, repository.ErrCheckoutInFlight):
			return nil, ErrObligationInFlight
		case errors.Is(err, repository.ErrNoPendingPayment):
			return nil, ErrNothingToVerify
		}
		return nil, err
	}

	if received {
		metrics.PaymentsRecorded.WithLabelValues(string(models.MethodBank)).Inc()
		s.notifyReceipt(obligation, amount)
	}

	slog.Info("declared payment verified",
		"obligation_id", obligationID, "received", received,
		"amount", amount.StringFixed(2), "status", obligation.Status, "verified_by", actor.ID)
	return obligation, nil
}

// CancelObligation retires an obligation without payment, for waived or
// mistaken assignments. Terminal.
func (s *PaymentService) CancelObligation(actor *models.Account, obligationID int64) error {
	if !models.CapabilitiesFor(actor.Role, actor.IsStaff).Has(models.CapCancelObligation) {
		return ErrForbidden
	}

	obligation, err := s.contributionRepo.GetObligationByID(obligationID)
	if err != nil {
		return err
	}
	if obligation == nil {
		return ErrObligationMissing
	}
	if obligation.Status == models.StatusCancelled {
		return nil
	}
	if obligation.Status == models.StatusPaid {
		return ErrObligationSettled
	}

	if err := s.contributionRepo.CancelObligation(obligationID); err != nil {
		return err
	}
	slog.Info("obligation cancelled", "obligation_id", obligationID, "cancelled_by", actor.ID)
	return nil
}

// ListMemberPayments retrieves a member's payment history.
func (s *PaymentService) ListMemberPayments(accountID int64) ([]models.Payment, error) {
	return s.paymentRepo.ListPaymentsByAccount(accountID)
}

// ListObligationPayments retrieves the payments against one obligation.
func (s *PaymentService) ListObligationPayments(obligationID int64) ([]models.Payment, error) {
	return s.paymentRepo.ListPaymentsByObligation(obligationID)
}

func (s *PaymentService) notifyBankingDetails(obligation *models.MemberContribution, amount decimal.Decimal) {
	account, err := s.accountRepo.GetAccountByID(obligation.AccountID)
	if err != nil || account == nil {
		slog.Warn("banking details skipped: account lookup failed", "account_id", obligation.AccountID, "error", err)
		return
	}
	ct, err := s.contributionRepo.GetTypeByID(obligation.ContributionTypeID)
	if err != nil || ct == nil {
		slog.Warn("banking details skipped: contribution type lookup failed", "type_id", obligation.ContributionTypeID, "error", err)
		return
	}

	amountStr := amount.StringFixed(2)
	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "banking_details",
		Send: func(ctx context.Context) error {
			return s.email.SendBankingDetailsEmail(ctx, account.Email, account.FirstName, ct.Name, amountStr, obligation.Reference, s.bank)
		},
	})
}

func (s *PaymentService) notifyReceipt(obligation *models.MemberContribution, amount decimal.Decimal) {
	account, err := s.accountRepo.GetAccountByID(obligation.AccountID)
	if err != nil || account == nil {
		slog.Warn("receipt skipped: account lookup failed", "account_id", obligation.AccountID, "error", err)
		return
	}
	ct, err := s.contributionRepo.GetTypeByID(obligation.ContributionTypeID)
	if err != nil || ct == nil {
		slog.Warn("receipt skipped: contribution type lookup failed", "type_id", obligation.ContributionTypeID, "error", err)
		return
	}

	amountStr := amount.StringFixed(2)
	s.notifier.Enqueue(Notification{
		Channel:   ChannelEmail,
		Recipient: account.Email,
		Kind:      "receipt",
		Send: func(ctx context.Context) error {
			return s.email.SendReceiptEmail(ctx, account.Email, account.FirstName, ct.Name, amountStr, obligation.Reference)
		},
	})
}

// FormatAmount renders a decimal as displayed in receipts and views.
func FormatAmount(d decimal.Decimal) string {
	return fmt.Sprintf("R%s", d.StringFixed(2))
}
