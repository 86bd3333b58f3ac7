package repository

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"clanledger/internal/database"
	"clanledger/internal/models"

	"github.com/shopspring/decimal"
)

// newLedgerDB opens an in-memory sqlite database with the real schema.
// A single connection keeps every transaction on the same database and
// serializes them the way a file-backed sqlite would.
func newLedgerDB(t *testing.T) *database.DB {
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
	return db
}

func seedObligation(t *testing.T, db *database.DB, amountDue string) (accountID, obligationID int64) {
	t.Helper()
	accountID, err := db.ExecReturningID(`INSERT INTO accounts
		(email, password_hash, first_name, role, is_active, is_approved)
		VALUES (?, ?, ?, ?, ?, ?)`,
		"thabo@example.com", "x", "Thabo", string(models.RoleMember), true, true)
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	typeID, err := db.ExecReturningID(`INSERT INTO contribution_types (name, slug, amount)
		VALUES (?, ?, ?)`, "Burial Fund", "burial-fund", amountDue)
	if err != nil {
		t.Fatalf("failed to seed contribution type: %v", err)
	}
	obligationID, err = db.ExecReturningID(`INSERT INTO member_contributions
		(account_id, contribution_type_id, amount_due, reference, due_date, status)
		VALUES (?, ?, ?, ?, ?, ?)`,
		accountID, typeID, amountDue, "MC-LEDGER-1", time.Now().AddDate(0, 1, 0),
		string(models.StatusNotPaid))
	if err != nil {
		t.Fatalf("failed to seed obligation: %v", err)
	}
	return accountID, obligationID
}

// Two treasurer payments racing against the same obligation must both
// land in the ledger and leave the status consistent with their sum,
// never a lost update.
func TestConcurrentPaymentsSettleConsistently(t *testing.T) {
	db := newLedgerDB(t)
	paymentRepo := NewPaymentRepository(db)
	contributionRepo := NewContributionRepository(db)
	accountID, obligationID := seedObligation(t, db, "100.00")

	amounts := []string{"60.00", "50.00"}
	errs := make([]error, len(amounts))
	var wg sync.WaitGroup
	for i, amount := range amounts {
		wg.Add(1)
		go func(i int, amount string) {
			defer wg.Done()
			p := &models.Payment{
				AccountID:            accountID,
				MemberContributionID: &obligationID,
				Method:               models.MethodCash,
				Amount:               decimal.RequireFromString(amount),
			}
			_, errs[i] = paymentRepo.RecordConfirmed(p)
		}(i, amount)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("payment %d failed: %v", i, err)
		}
	}

	payments, err := paymentRepo.ListPaymentsByObligation(obligationID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("payments = %d, want 2", len(payments))
	}

	obligation, err := contributionRepo.GetObligationByID(obligationID)
	if err != nil {
		t.Fatalf("failed to load obligation: %v", err)
	}
	if obligation.Status != models.StatusPaid {
		t.Errorf("status = %s, want PAID", obligation.Status)
	}

	total, err := paymentRepo.TotalCollected()
	if err != nil {
		t.Fatalf("failed to total payments: %v", err)
	}
	if total.StringFixed(2) != "110.00" {
		t.Errorf("total collected = %s, want 110.00", total.StringFixed(2))
	}
}
