package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"clanledger/internal/config"
	"clanledger/internal/database"
	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/service"
)

// Reminder sweep: run daily from cron. Sends a notice for obligations
// coming due in ten days, due today, and ten days overdue.
func main() {
	cfg := config.Load()

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	accountRepo := repository.NewAccountRepository(db)
	contributionRepo := repository.NewContributionRepository(db)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	smsService := service.NewSMSService(cfg.SMSPortalClientID, cfg.SMSPortalSecret)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	today := time.Now()
	windows := []struct {
		offsetDays int
		overdue    bool
		label      string
	}{
		{10, false, "upcoming"},
		{0, false, "due today"},
		{-10, true, "overdue"},
	}

	var sent, failed int
	for _, window := range windows {
		obligations, err := contributionRepo.ListObligationsDueOn(today.AddDate(0, 0, window.offsetDays))
		if err != nil {
			log.Fatalf("Failed to list %s obligations: %v", window.label, err)
		}

		for _, obligation := range obligations {
			if err := remind(ctx, accountRepo, contributionRepo, emailService, smsService, obligation, window.overdue); err != nil {
				log.Printf("Reminder failed for %s: %v", obligation.Reference, err)
				failed++
				continue
			}
			sent++
		}
		log.Printf("Swept %s obligations: %d found", window.label, len(obligations))
	}

	log.Printf("Reminder sweep complete: %d sent, %d failed", sent, failed)
}

func remind(ctx context.Context, accountRepo *repository.AccountRepository,
	contributionRepo *repository.ContributionRepository,
	emailService *service.EmailService, smsService *service.SMSService,
	obligation models.MemberContribution, overdue bool) error {

	account, err := accountRepo.GetAccountByID(obligation.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || !account.Eligible() {
		return nil
	}

	ct, err := contributionRepo.GetTypeByID(obligation.ContributionTypeID)
	if err != nil {
		return fmt.Errorf("failed to load contribution type: %w", err)
	}
	if ct == nil {
		return nil
	}

	amount := "R" + obligation.AmountDue.StringFixed(2)
	dueDate := obligation.DueDate.Format("02 Jan 2006")

	if err := emailService.SendReminderEmail(ctx, account.Email, account.FirstName,
		ct.Name, amount, dueDate, overdue); err != nil {
		return fmt.Errorf("failed to send reminder email: %w", err)
	}

	if smsService.IsEnabled() && account.Phone != "" {
		message := fmt.Sprintf("Dumela %s, your %s contribution of %s is due on %s. Ref %s.",
			account.FirstName, ct.Name, amount, dueDate, obligation.Reference)
		if overdue {
			message = fmt.Sprintf("Dumela %s, your %s contribution of %s was due on %s and is still outstanding. Ref %s.",
				account.FirstName, ct.Name, amount, dueDate, obligation.Reference)
		}
		if err := smsService.Send(ctx, account.Phone, message); err != nil {
			log.Printf("Reminder SMS failed for %s: %v", obligation.Reference, err)
		}
	}

	return nil
}
