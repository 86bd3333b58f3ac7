package repository

import (
	"errors"
	"testing"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func newMockRepo(t *testing.T) (*PaymentRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPaymentRepository(database.Wrap(db, database.NewSQLiteDialect())), mock
}

func obligationRows(status models.ContributionStatus, amountDue string) *sqlmock.Rows {
	return obligationRowsWithCheckout(status, amountDue, nil)
}

func obligationRowsWithCheckout(status models.ContributionStatus, amountDue string, checkoutID interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "account_id", "contribution_type_id", "amount_due", "reference",
		"due_date", "status", "checkout_id", "created_at", "updated_at",
	}).AddRow(int64(7), int64(3), int64(2), amountDue, "MC-01ABC",
		now.AddDate(0, 1, 0), string(status), checkoutID, now, now)
}

func paymentRows(id int64, checkoutID string, status models.PaymentStatus, amount string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "checkout_id", "account_id", "contribution_type_id", "member_contribution_id",
		"method", "status", "amount", "reference", "recorded_by", "payment_date", "created_at",
	}).AddRow(id, checkoutID, int64(3), int64(2), int64(7),
		string(models.MethodMobile), string(status), amount, "PAY-01DEF", nil, now, now)
}

func TestRecordConfirmedFullPaymentMarksPaid(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "150.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments WHERE member_contribution_id = \? AND status = \?`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("150.00"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodCash,
		Amount:               decimal.RequireFromString("150.00"),
	}
	if _, err := repo.RecordConfirmed(p); err != nil {
		t.Fatalf("RecordConfirmed failed: %v", err)
	}
	if p.ID != 41 {
		t.Errorf("payment ID = %d, want 41", p.ID)
	}
	if p.Status != models.PaymentConfirmed {
		t.Errorf("payment status = %s, want confirmed", p.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordConfirmedPartialPaymentMarksPartiallyPaid(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "150.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("50.00"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusPartiallyPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodBank,
		Amount:               decimal.RequireFromString("50.00"),
	}
	if _, err := repo.RecordConfirmed(p); err != nil {
		t.Fatalf("RecordConfirmed failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordConfirmedUnchangedStatusSkipsWrite(t *testing.T) {
	repo, mock := newMockRepo(t)

	// A further partial payment that still leaves the obligation
	// PARTIALLY_PAID must not touch the row.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPartiallyPaid, "150.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("100.00"))
	mock.ExpectCommit()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodCash,
		Amount:               decimal.RequireFromString("50.00"),
	}
	if _, err := repo.RecordConfirmed(p); err != nil {
		t.Fatalf("RecordConfirmed failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordConfirmedRejectsSettledObligation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPaid, "150.00"))
	mock.ExpectRollback()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodCash,
		Amount:               decimal.RequireFromString("10.00"),
	}
	_, err := repo.RecordConfirmed(p)
	if !errors.Is(err, ErrObligationClosed) {
		t.Fatalf("error = %v, want ErrObligationClosed", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordConfirmedRollsBackOnInsertFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "150.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodCash,
		Amount:               decimal.RequireFromString("150.00"),
	}
	if _, err := repo.RecordConfirmed(p); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordPendingCheckoutInsertsPaymentAndStamps(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "150.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?, checkout_id = \?`).
		WithArgs(string(models.StatusPending), "ch_01XYZ", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligationID := int64(7)
	checkoutID := "ch_01XYZ"
	p := &models.Payment{
		CheckoutID:           &checkoutID,
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodMobile,
		Amount:               decimal.RequireFromString("150.00"),
	}
	if _, err := repo.RecordPending(p); err != nil {
		t.Fatalf("RecordPending failed: %v", err)
	}
	if p.Status != models.PaymentPending {
		t.Errorf("payment status = %s, want pending", p.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordPendingDeclaredPaymentLeavesCheckoutClear(t *testing.T) {
	repo, mock := newMockRepo(t)

	// A declared EFT payment gets its row and the PENDING stamp but no
	// checkout ID; verification, not the gateway, settles it.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "50.00"))
	mock.ExpectExec(`INSERT INTO payments`).
		WillReturnResult(sqlmock.NewResult(45, 1))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?, checkout_id = \?`).
		WithArgs(string(models.StatusPending), nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodBank,
		Amount:               decimal.RequireFromString("50.00"),
	}
	if _, err := repo.RecordPending(p); err != nil {
		t.Fatalf("RecordPending failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordPendingRejectsPendingObligation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPending, "150.00"))
	mock.ExpectRollback()

	obligationID := int64(7)
	p := &models.Payment{
		AccountID:            3,
		MemberContributionID: &obligationID,
		Method:               models.MethodBank,
		Amount:               decimal.RequireFromString("150.00"),
	}
	_, err := repo.RecordPending(p)
	if !errors.Is(err, ErrObligationClosed) {
		t.Fatalf("error = %v, want ErrObligationClosed", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmCheckoutSuccessFinalizesPaymentAndMarksPaid(t *testing.T) {
	repo, mock := newMockRepo(t)

	checkoutID := "ch_01XYZ"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE checkout_id = \?`).
		WithArgs(checkoutID).
		WillReturnRows(paymentRows(44, checkoutID, models.PaymentPending, "150.00"))
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRowsWithCheckout(models.StatusPending, "150.00", checkoutID))
	mock.ExpectExec(`UPDATE payments SET status = \? WHERE id = \?`).
		WithArgs(string(models.PaymentConfirmed), int64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE member_contributions SET checkout_id = NULL`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("150.00"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligation, err := repo.ConfirmCheckout(checkoutID, true)
	if err != nil {
		t.Fatalf("ConfirmCheckout failed: %v", err)
	}
	if obligation.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", obligation.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmCheckoutFailureRevertsToNotPaid(t *testing.T) {
	repo, mock := newMockRepo(t)

	checkoutID := "ch_01XYZ"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE checkout_id = \?`).
		WithArgs(checkoutID).
		WillReturnRows(paymentRows(44, checkoutID, models.PaymentPending, "150.00"))
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRowsWithCheckout(models.StatusPending, "150.00", checkoutID))
	mock.ExpectExec(`UPDATE payments SET status = \? WHERE id = \?`).
		WithArgs(string(models.PaymentFailed), int64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE member_contributions SET checkout_id = NULL`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusNotPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligation, err := repo.ConfirmCheckout(checkoutID, false)
	if err != nil {
		t.Fatalf("ConfirmCheckout failed: %v", err)
	}
	if obligation.Status != models.StatusNotPaid {
		t.Errorf("status = %s, want NOT_PAID", obligation.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmCheckoutRetriedCallbackWritesNothing(t *testing.T) {
	repo, mock := newMockRepo(t)

	// A duplicate callback finds the payment already finalized and
	// returns the obligation as-is.
	checkoutID := "ch_01XYZ"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE checkout_id = \?`).
		WithArgs(checkoutID).
		WillReturnRows(paymentRows(44, checkoutID, models.PaymentConfirmed, "150.00"))
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPaid, "150.00"))
	mock.ExpectRollback()

	obligation, err := repo.ConfirmCheckout(checkoutID, true)
	if err != nil {
		t.Fatalf("ConfirmCheckout failed: %v", err)
	}
	if obligation.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", obligation.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConfirmCheckoutUnknownCheckout(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM payments WHERE checkout_id = \?`).
		WithArgs("ch_missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "checkout_id", "account_id", "contribution_type_id", "member_contribution_id",
			"method", "status", "amount", "reference", "recorded_by", "payment_date", "created_at",
		}))
	mock.ExpectRollback()

	_, err := repo.ConfirmCheckout("ch_missing", true)
	if !errors.Is(err, ErrCheckoutNotFound) {
		t.Fatalf("error = %v, want ErrCheckoutNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveDeclaredReceivedMarksPaid(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPending, "50.00"))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentPending)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("50.00"))
	mock.ExpectExec(`UPDATE payments SET status = \? WHERE member_contribution_id = \? AND status = \?`).
		WithArgs(string(models.PaymentConfirmed), int64(7), string(models.PaymentPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("50.00"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligation, amount, err := repo.ResolveDeclared(7, true)
	if err != nil {
		t.Fatalf("ResolveDeclared failed: %v", err)
	}
	if obligation.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", obligation.Status)
	}
	if amount.StringFixed(2) != "50.00" {
		t.Errorf("amount = %s, want 50.00", amount.StringFixed(2))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveDeclaredNotReceivedReopensObligation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusPending, "50.00"))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentPending)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("50.00"))
	mock.ExpectExec(`UPDATE payments SET status = \? WHERE member_contribution_id = \? AND status = \?`).
		WithArgs(string(models.PaymentFailed), int64(7), string(models.PaymentPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentConfirmed)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))
	mock.ExpectExec(`UPDATE member_contributions SET status = \?`).
		WithArgs(string(models.StatusNotPaid), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	obligation, _, err := repo.ResolveDeclared(7, false)
	if err != nil {
		t.Fatalf("ResolveDeclared failed: %v", err)
	}
	if obligation.Status != models.StatusNotPaid {
		t.Errorf("status = %s, want NOT_PAID", obligation.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveDeclaredRefusesLiveGatewayCheckout(t *testing.T) {
	repo, mock := newMockRepo(t)

	checkoutID := "ch_01XYZ"
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRowsWithCheckout(models.StatusPending, "50.00", checkoutID))
	mock.ExpectRollback()

	_, _, err := repo.ResolveDeclared(7, true)
	if !errors.Is(err, ErrCheckoutInFlight) {
		t.Fatalf("error = %v, want ErrCheckoutInFlight", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolveDeclaredWithoutPendingPayment(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM member_contributions WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(obligationRows(models.StatusNotPaid, "50.00"))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(7), string(models.PaymentPending)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("0"))
	mock.ExpectRollback()

	_, _, err := repo.ResolveDeclared(7, true)
	if !errors.Is(err, ErrNoPendingPayment) {
		t.Fatalf("error = %v, want ErrNoPendingPayment", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateObligationsSkipsDuplicates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to open mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := NewContributionRepository(database.Wrap(db, database.NewSQLiteDialect()))

	uniqueErr := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}

	mock.ExpectExec(`INSERT INTO member_contributions`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO member_contributions`).
		WillReturnError(uniqueErr)
	mock.ExpectExec(`INSERT INTO member_contributions`).
		WillReturnResult(sqlmock.NewResult(2, 1))

	due := time.Now().AddDate(0, 1, 0)
	amount := decimal.RequireFromString("150.00")
	obligations := []models.MemberContribution{
		{AccountID: 1, ContributionTypeID: 2, AmountDue: amount, Reference: "MC-A", DueDate: due, Status: models.StatusNotPaid},
		{AccountID: 2, ContributionTypeID: 2, AmountDue: amount, Reference: "MC-B", DueDate: due, Status: models.StatusNotPaid},
		{AccountID: 3, ContributionTypeID: 2, AmountDue: amount, Reference: "MC-C", DueDate: due, Status: models.StatusNotPaid},
	}

	created, skipped, err := repo.CreateObligations(obligations)
	if err != nil {
		t.Fatalf("CreateObligations failed: %v", err)
	}
	if len(created) != 2 {
		t.Errorf("created = %d, want 2", len(created))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
