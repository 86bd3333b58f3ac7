package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends transactional email via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	baseURL   string
	enabled   bool
}

// NewEmailService creates a new email service. An empty fromEmail
// yields a disabled service that logs instead of sending, so local
// development works without AWS credentials.
func NewEmailService(awsRegion, fromEmail, fromName, baseURL string) (*EmailService, error) {
	if fromEmail == "" {
		slog.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, baseURL: baseURL}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// Send delivers a single email. Disabled services log and return nil.
func (s *EmailService) Send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.enabled {
		slog.Info("email skipped (service disabled)", "to", toEmail, "subject", subject)
		return nil
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}

// SendActivationEmail sends the account activation link.
func (s *EmailService) SendActivationEmail(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/activate?token=%s", s.baseURL, token)
	subject := "Activate your clan account"
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>Your clan account has been created. Click the link below to verify your email address and activate it:</p>
<p><a href="%s">Activate my account</a></p>
<p>Once activated, an executive still needs to approve your membership before you appear in contribution rounds.</p>`, toName, link)
	text := fmt.Sprintf("Dumela %s,\n\nActivate your clan account: %s\n\nAn executive still needs to approve your membership afterwards.", toName, link)
	return s.Send(ctx, toEmail, subject, html, text)
}

// SendApprovalEmail tells a member their account was approved.
func (s *EmailService) SendApprovalEmail(ctx context.Context, toEmail, toName string) error {
	subject := "Your clan membership is approved"
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>An executive has approved your membership. You will now be included in contribution rounds and can sign in at <a href="%s">%s</a>.</p>`, toName, s.baseURL, s.baseURL)
	text := fmt.Sprintf("Dumela %s,\n\nYour clan membership is approved. Sign in at %s.", toName, s.baseURL)
	return s.Send(ctx, toEmail, subject, html, text)
}

// SendObligationEmail notifies a member of a newly assigned contribution.
func (s *EmailService) SendObligationEmail(ctx context.Context, toEmail, toName, contribution, amount, dueDate string) error {
	subject := fmt.Sprintf("New contribution: %s", contribution)
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>A new contribution has been assigned to you:</p>
<ul>
<li><strong>%s</strong></li>
<li>Amount due: R%s</li>
<li>Due date: %s</li>
</ul>
<p>You can pay online or hand your payment to the treasurer. Sign in at <a href="%s">%s</a> to view it.</p>`,
		toName, contribution, amount, dueDate, s.baseURL, s.baseURL)
	text := fmt.Sprintf("Dumela %s,\n\nNew contribution: %s\nAmount due: R%s\nDue date: %s\n\nSign in at %s to view it.",
		toName, contribution, amount, dueDate, s.baseURL)
	return s.Send(ctx, toEmail, subject, html, text)
}

// SendReceiptEmail confirms a recorded payment.
func (s *EmailService) SendReceiptEmail(ctx context.Context, toEmail, toName, contribution, amount, reference string) error {
	subject := fmt.Sprintf("Payment received: %s", contribution)
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>We received your payment of <strong>R%s</strong> towards <strong>%s</strong>.</p>
<p>Reference: %s</p>
<p>Ke a leboga.</p>`, toName, amount, contribution, reference)
	text := fmt.Sprintf("Dumela %s,\n\nWe received your payment of R%s towards %s.\nReference: %s\n\nKe a leboga.",
		toName, amount, contribution, reference)
	return s.Send(ctx, toEmail, subject, html, text)
}

// SendBankingDetailsEmail sends EFT instructions for an offline
// payment. The member quotes the obligation reference so the treasurer
// can match the deposit.
func (s *EmailService) SendBankingDetailsEmail(ctx context.Context, toEmail, toName, contribution, amount, reference string, bank BankingDetails) error {
	subject := fmt.Sprintf("Banking details for %s", contribution)
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>To pay <strong>R%s</strong> towards <strong>%s</strong> by EFT or cash deposit:</p>
<ul>
<li>Bank: %s</li>
<li>Account number: %s</li>
<li>Branch code: %s</li>
<li>Payment reference: <strong>%s</strong></li>
</ul>
<p>Use the payment reference exactly as shown. The treasurer will confirm your payment once it reflects.</p>`,
		toName, amount, contribution, bank.BankName, bank.AccountNumber, bank.BranchCode, reference)
	text := fmt.Sprintf("Dumela %s,\n\nTo pay R%s towards %s:\nBank: %s\nAccount number: %s\nBranch code: %s\nPayment reference: %s\n\nUse the reference exactly as shown. The treasurer will confirm your payment once it reflects.",
		toName, amount, contribution, bank.BankName, bank.AccountNumber, bank.BranchCode, reference)
	return s.Send(ctx, toEmail, subject, html, text)
}

// SendReminderEmail nudges a member about an unpaid obligation.
func (s *EmailService) SendReminderEmail(ctx context.Context, toEmail, toName, contribution, amount, dueDate string, overdue bool) error {
	subject := fmt.Sprintf("Reminder: %s", contribution)
	verb := "is due on"
	if overdue {
		subject = fmt.Sprintf("Overdue: %s", contribution)
		verb = "was due on"
	}
	html := fmt.Sprintf(`<p>Dumela %s,</p>
<p>Your contribution <strong>%s</strong> of R%s %s %s.</p>
<p>Please pay online at <a href="%s">%s</a> or see the treasurer.</p>`,
		toName, contribution, amount, verb, dueDate, s.baseURL, s.baseURL)
	text := fmt.Sprintf("Dumela %s,\n\nYour contribution %s of R%s %s %s.\nPay at %s or see the treasurer.",
		toName, contribution, amount, verb, dueDate, s.baseURL)
	return s.Send(ctx, toEmail, subject, html, text)
}
