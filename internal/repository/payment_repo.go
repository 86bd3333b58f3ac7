package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrObligationNotFound is returned when a payment references an
	// obligation that does not exist.
	ErrObligationNotFound = errors.New("obligation not found")
	// ErrObligationClosed is returned when a payment targets a PAID or
	// CANCELLED obligation.
	ErrObligationClosed = errors.New("obligation is already settled or cancelled")
	// ErrCheckoutNotFound is returned when a gateway callback names an
	// unknown checkout.
	ErrCheckoutNotFound = errors.New("checkout not found")
	// ErrCheckoutInFlight is returned when a declared payment is
	// verified while a gateway checkout still owns the obligation's
	// pending state.
	ErrCheckoutInFlight = errors.New("a gateway checkout is in progress for this obligation")
	// ErrNoPendingPayment is returned when verification finds no
	// declared payment awaiting an outcome.
	ErrNoPendingPayment = errors.New("no payment awaiting verification")
)

// PaymentRepository owns the payment ledger and the reconciliation
// transactions that keep obligation statuses consistent with it. A
// payment row and the resulting status write always land in one
// transaction.
type PaymentRepository struct {
	db *database.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, checkout_id, account_id, contribution_type_id, member_contribution_id,
	method, status, amount, reference, recorded_by, payment_date, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	p := &models.Payment{}
	var method, status string
	err := row.Scan(
		&p.ID, &p.CheckoutID, &p.AccountID, &p.ContributionTypeID, &p.MemberContributionID,
		&method, &status, &p.Amount, &p.Reference, &p.RecordedBy, &p.PaymentDate, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Method = models.PaymentMethod(method)
	p.Status = models.PaymentStatus(status)
	return p, nil
}

// RecordConfirmed inserts a confirmed payment and recomputes the
// obligation's status in a single transaction. The obligation row is
// locked for the read-sum-write cycle where the dialect supports it, so
// concurrent payments serialize rather than lose updates.
func (r *PaymentRepository) RecordConfirmed(p *models.Payment) (*models.Payment, error) {
	if p.MemberContributionID == nil {
		return nil, ErrObligationNotFound
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	obligation, err := lockObligation(tx, *p.MemberContributionID)
	if err != nil {
		return nil, err
	}
	if obligation.Status.Terminal() {
		return nil, ErrObligationClosed
	}

	p.Status = models.PaymentConfirmed
	if err := insertPayment(tx, p); err != nil {
		return nil, err
	}

	if err := recomputeStatus(tx, obligation); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return p, nil
}

// RecordPending inserts an unconfirmed payment attempt and moves its
// obligation to PENDING in one transaction. Members declaring a cash or
// EFT payment and gateway checkouts both pass through here; a gateway
// attempt carries its checkout ID, which is also stamped on the
// obligation so the later callback can find it.
func (r *PaymentRepository) RecordPending(p *models.Payment) (*models.Payment, error) {
	if p.MemberContributionID == nil {
		return nil, ErrObligationNotFound
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	obligation, err := lockObligation(tx, *p.MemberContributionID)
	if err != nil {
		return nil, err
	}
	if obligation.Status.Terminal() || obligation.Status == models.StatusPending {
		return nil, ErrObligationClosed
	}

	p.Status = models.PaymentPending
	if err := insertPayment(tx, p); err != nil {
		return nil, err
	}

	query := `UPDATE member_contributions SET status = ?, checkout_id = ?,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.Exec(query, string(models.StatusPending), p.CheckoutID, obligation.ID); err != nil {
		return nil, fmt.Errorf("failed to mark obligation pending: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit pending payment: %w", err)
	}
	return p, nil
}

// ConfirmCheckout finalizes a gateway checkout: the pending payment
// created at checkout time receives its outcome, the checkout stamp is
// cleared and the obligation's status is recomputed from the confirmed
// sum. A retried callback finds the payment already finalized and
// converges on the same state without writing anything.
func (r *PaymentRepository) ConfirmCheckout(checkoutID string, success bool) (*models.MemberContribution, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "SELECT " + paymentColumns + " FROM payments WHERE checkout_id = ?"
	payment, err := scanPayment(tx.QueryRow(query, checkoutID))
	if err == sql.ErrNoRows {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up checkout: %w", err)
	}
	if payment.MemberContributionID == nil {
		return nil, ErrObligationNotFound
	}

	obligation, err := lockObligation(tx, *payment.MemberContributionID)
	if err != nil {
		return nil, err
	}
	if payment.Status.Final() {
		return obligation, nil
	}
	if obligation.Status == models.StatusCancelled {
		return nil, ErrObligationClosed
	}

	outcome := models.PaymentFailed
	if success {
		outcome = models.PaymentConfirmed
	}
	finalize := "UPDATE payments SET status = ? WHERE id = ?"
	if _, err := tx.Exec(finalize, string(outcome), payment.ID); err != nil {
		return nil, fmt.Errorf("failed to finalize checkout payment: %w", err)
	}

	clear := `UPDATE member_contributions SET checkout_id = NULL,
		updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.Exec(clear, obligation.ID); err != nil {
		return nil, fmt.Errorf("failed to clear checkout: %w", err)
	}
	obligation.CheckoutID = nil

	if err := recomputeStatus(tx, obligation); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout result: %w", err)
	}
	return obligation, nil
}

// ResolveDeclared finalizes a member's declared offline payment once
// the treasurer has checked the bank statement. The obligation's
// pending payments are confirmed or failed in bulk and the status is
// recomputed from the confirmed sum, so a rejected declaration falls
// back to NOT_PAID and the member can pay again. Obligations with a
// live gateway checkout are refused; the callback owns those.
func (r *PaymentRepository) ResolveDeclared(obligationID int64, success bool) (*models.MemberContribution, decimal.Decimal, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	obligation, err := lockObligation(tx, obligationID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if obligation.Status.Terminal() {
		return nil, decimal.Zero, ErrObligationClosed
	}
	if obligation.CheckoutID != nil {
		return nil, decimal.Zero, ErrCheckoutInFlight
	}

	var declared decimal.Decimal
	sum := "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE member_contribution_id = ? AND status = ?"
	if err := tx.QueryRow(sum, obligation.ID, string(models.PaymentPending)).Scan(&declared); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to sum pending payments: %w", err)
	}
	if !declared.IsPositive() {
		return nil, decimal.Zero, ErrNoPendingPayment
	}

	outcome := models.PaymentFailed
	if success {
		outcome = models.PaymentConfirmed
	}
	finalize := "UPDATE payments SET status = ? WHERE member_contribution_id = ? AND status = ?"
	if _, err := tx.Exec(finalize, string(outcome), obligation.ID, string(models.PaymentPending)); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to finalize declared payments: %w", err)
	}

	if err := recomputeStatus(tx, obligation); err != nil {
		return nil, decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to commit verification: %w", err)
	}
	return obligation, declared, nil
}

// GetPaymentByCheckoutID retrieves a payment by its gateway checkout
// ID, or nil when absent.
func (r *PaymentRepository) GetPaymentByCheckoutID(checkoutID string) (*models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE checkout_id = ?"
	p, err := scanPayment(r.db.QueryRow(query, checkoutID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListPaymentsByAccount retrieves a member's payment history, newest first.
func (r *PaymentRepository) ListPaymentsByAccount(accountID int64) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE account_id = ? ORDER BY payment_date DESC, id DESC"
	return r.queryPayments(query, accountID)
}

// ListPaymentsByObligation retrieves the payments recorded against one
// obligation, oldest first.
func (r *PaymentRepository) ListPaymentsByObligation(obligationID int64) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE member_contribution_id = ? ORDER BY payment_date, id"
	return r.queryPayments(query, obligationID)
}

// ListRecentPayments retrieves the latest confirmed payments for the
// dashboard feed.
func (r *PaymentRepository) ListRecentPayments(limit int) ([]models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE status = ? ORDER BY payment_date DESC, id DESC LIMIT ?"
	return r.queryPayments(query, string(models.PaymentConfirmed), limit)
}

// TotalCollected sums every confirmed payment in the ledger.
func (r *PaymentRepository) TotalCollected() (decimal.Decimal, error) {
	var total decimal.Decimal
	query := "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?"
	err := r.db.QueryRow(query, string(models.PaymentConfirmed)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

// TotalCollectedForType sums the confirmed payments recorded against
// one template's obligations.
func (r *PaymentRepository) TotalCollectedForType(typeID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE contribution_type_id = ? AND status = ?"
	err := r.db.QueryRow(query, typeID, string(models.PaymentConfirmed)).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

func (r *PaymentRepository) queryPayments(query string, args ...interface{}) ([]models.Payment, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func lockObligation(tx *database.Tx, id int64) (*models.MemberContribution, error) {
	query := "SELECT " + obligationColumns + " FROM member_contributions WHERE id = ?" +
		tx.GetDialect().ForUpdateClause()
	mc, err := scanObligation(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrObligationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock obligation: %w", err)
	}
	return mc, nil
}

func insertPayment(tx *database.Tx, p *models.Payment) error {
	if p.PaymentDate.IsZero() {
		p.PaymentDate = time.Now()
	}
	query := `INSERT INTO payments
		(checkout_id, account_id, contribution_type_id, member_contribution_id,
		method, status, amount, reference, recorded_by, payment_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := tx.ExecReturningID(query,
		p.CheckoutID, p.AccountID, p.ContributionTypeID, p.MemberContributionID,
		string(p.Method), string(p.Status), p.Amount, p.Reference, p.RecordedBy, p.PaymentDate)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	p.ID = id
	return nil
}

// recomputeStatus re-derives an obligation's status from its confirmed
// payment sum and persists it only when it actually changed, so
// untouched rows keep their timestamps. Pending and failed attempts
// never count toward the settled total.
func recomputeStatus(tx *database.Tx, obligation *models.MemberContribution) error {
	var total decimal.Decimal
	query := "SELECT COALESCE(SUM(amount), 0) FROM payments WHERE member_contribution_id = ? AND status = ?"
	if err := tx.QueryRow(query, obligation.ID, string(models.PaymentConfirmed)).Scan(&total); err != nil {
		return fmt.Errorf("failed to sum obligation payments: %w", err)
	}

	next := models.StatusForTotal(total, obligation.AmountDue)
	if next == obligation.Status {
		return nil
	}

	update := "UPDATE member_contributions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := tx.Exec(update, string(next), obligation.ID); err != nil {
		return fmt.Errorf("failed to update obligation status: %w", err)
	}
	obligation.Status = next
	return nil
}
