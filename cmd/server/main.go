package main

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"clanledger/internal/config"
	"clanledger/internal/database"
	"clanledger/internal/handlers"
	"clanledger/internal/models"
	"clanledger/internal/repository"
	"clanledger/internal/security"
	"clanledger/internal/service"
	"clanledger/pkg/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

func main() {
	logging.Setup()

	cfg := config.Load()

	// Initialize database (sqlite, postgres or mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		fatal("failed to initialize database", err)
	}
	defer db.Close()

	slog.Info("database connection established", "type", cfg.DatabaseType)

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		fatal("failed to run migrations", err)
	}
	slog.Info("migrations completed")

	templates, err := loadTemplates(cfg.TemplatesPath)
	if err != nil {
		fatal("failed to load templates", err)
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	contributionRepo := repository.NewContributionRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)

	// Outbound channels
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.BaseURL)
	if err != nil {
		fatal("failed to initialize email service", err)
	}
	smsService := service.NewSMSService(cfg.SMSPortalClientID, cfg.SMSPortalSecret)
	notifier := service.NewNotifier(cfg.NotifyWorkers)
	defer notifier.Close()

	gateway := service.NewGatewayClient(cfg.GatewayPublicKey, cfg.GatewaySecret, cfg.GatewayCheckoutURL)
	tokens := security.NewTokenIssuer(cfg.JWTSecret, 48*time.Hour)

	// Services
	authService := service.NewAuthService(accountRepo, familyRepo, tokens, emailService, notifier, cfg.SessionDuration)
	familyService := service.NewFamilyService(familyRepo, accountRepo)
	contributionService := service.NewContributionService(contributionRepo, accountRepo, familyRepo,
		emailService, smsService, notifier)
	bank := service.BankingDetails{
		BankName:      cfg.BankName,
		AccountNumber: cfg.BankAccountNumber,
		BranchCode:    cfg.BankBranchCode,
	}
	paymentService := service.NewPaymentService(paymentRepo, contributionRepo, accountRepo,
		gateway, emailService, notifier, cfg.BaseURL, bank)
	dashboardService := service.NewDashboardService(accountRepo, familyRepo, contributionRepo, paymentRepo)
	documentService := service.NewDocumentService(documentRepo, cfg.UploadsPath, cfg.UploadMaxSize)
	meetingService := service.NewMeetingService(meetingRepo)
	backupService := service.NewBackupService(db)

	// Handlers
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	limiter := security.NewRateLimiter(20, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, limiter)

	authHandler := handlers.NewAuthHandler(authService, familyService, templates,
		cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL)
	memberHandler := handlers.NewMemberHandler(dashboardService, contributionService, paymentService, middleware, templates)
	familyHandler := handlers.NewFamilyHandler(familyService, middleware, templates)
	contributionHandler := handlers.NewContributionHandler(contributionService, authService, familyService, middleware, templates)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(authService, familyService, dashboardService,
		documentService, meetingService, backupService, middleware, templates)

	mux := http.NewServeMux()

	// Static files and metrics
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticFilesPath))))
	mux.Handle("GET /metrics", promhttp.Handler())

	// Public routes
	mux.HandleFunc("GET /", authHandler.Home)
	mux.HandleFunc("GET /login", authHandler.ShowLogin)
	mux.HandleFunc("POST /login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("GET /register", authHandler.ShowRegister)
	mux.HandleFunc("POST /register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("GET /activate", authHandler.Activate)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/start", authHandler.StartGoogleOAuth)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleOAuthCallback)

	// Gateway webhook: unauthenticated, HMAC-verified, rate limited
	mux.HandleFunc("POST /webhooks/gateway", middleware.RateLimit(paymentHandler.GatewayWebhook))

	// Member routes
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(memberHandler.Dashboard))
	mux.HandleFunc("GET /contributions/mine", middleware.RequireAuth(memberHandler.MyContributions))
	mux.HandleFunc("GET /payments/mine", middleware.RequireAuth(memberHandler.MyPayments))
	mux.HandleFunc("POST /contributions/obligations/{id}/pay", middleware.RequireAuth(middleware.CSRFProtect(paymentHandler.StartCheckout)))

	// Family routes
	mux.HandleFunc("GET /families", middleware.RequireAuth(familyHandler.List))
	mux.HandleFunc("GET /families/{slug}", middleware.RequireAuth(familyHandler.Detail))
	mux.HandleFunc("POST /families/create", middleware.RequireAuth(middleware.CSRFProtect(familyHandler.Create)))
	mux.HandleFunc("POST /families/{slug}/update", middleware.RequireCapability(models.CapManageMembers, middleware.CSRFProtect(familyHandler.Update)))
	mux.HandleFunc("POST /families/{id}/approve", middleware.RequireCapability(models.CapApproveFamily, middleware.CSRFProtect(familyHandler.Approve)))
	mux.HandleFunc("POST /families/{id}/delete", middleware.RequireCapability(models.CapDeleteFamily, middleware.CSRFProtect(familyHandler.Delete)))

	// Contribution routes
	mux.HandleFunc("GET /contributions", middleware.RequireAuth(contributionHandler.ListTypes))
	mux.HandleFunc("GET /contributions/{slug}", middleware.RequireAuth(contributionHandler.TypeDetail))
	mux.HandleFunc("POST /contributions/create", middleware.RequireCapability(models.CapCreateContributionType, middleware.CSRFProtect(contributionHandler.CreateType)))
	mux.HandleFunc("POST /contributions/{slug}/update", middleware.RequireCapability(models.CapCreateContributionType, middleware.CSRFProtect(contributionHandler.UpdateType)))
	mux.HandleFunc("POST /contributions/{id}/delete", middleware.RequireCapability(models.CapCreateContributionType, middleware.CSRFProtect(contributionHandler.DeleteType)))
	mux.HandleFunc("POST /contributions/{id}/run-cycle", middleware.RequireCapability(models.CapCreateContributionType, middleware.CSRFProtect(contributionHandler.RunCycle)))
	mux.HandleFunc("POST /contributions/obligations/{id}/log-payment", middleware.RequireCapability(models.CapLogPayment, middleware.CSRFProtect(paymentHandler.LogPayment)))
	mux.HandleFunc("POST /contributions/obligations/{id}/verify", middleware.RequireCapability(models.CapLogPayment, middleware.CSRFProtect(paymentHandler.VerifyDeclaredPayment)))
	mux.HandleFunc("POST /contributions/obligations/{id}/cancel", middleware.RequireCapability(models.CapCancelObligation, middleware.CSRFProtect(paymentHandler.CancelObligation)))

	// Document and meeting routes
	mux.HandleFunc("GET /documents", middleware.RequireAuth(adminHandler.Documents))
	mux.HandleFunc("GET /documents/{slug}/download", middleware.RequireAuth(adminHandler.DownloadDocument))
	mux.HandleFunc("POST /documents/upload", middleware.RequireCapability(models.CapManageDocuments, middleware.CSRFProtect(adminHandler.UploadDocument)))
	mux.HandleFunc("POST /documents/{slug}/delete", middleware.RequireCapability(models.CapManageDocuments, middleware.CSRFProtect(adminHandler.DeleteDocument)))
	mux.HandleFunc("GET /meetings", middleware.RequireAuth(adminHandler.Meetings))
	mux.HandleFunc("GET /api/meetings", middleware.RequireAuth(adminHandler.MeetingsAPI))
	mux.HandleFunc("POST /meetings/create", middleware.RequireCapability(models.CapManageMeetings, middleware.CSRFProtect(adminHandler.ScheduleMeeting)))
	mux.HandleFunc("POST /meetings/{slug}/cancel", middleware.RequireCapability(models.CapManageMeetings, middleware.CSRFProtect(adminHandler.CancelMeeting)))

	// Executive routes
	mux.HandleFunc("GET /admin/dashboard", middleware.RequireCapability(models.CapApproveMember, adminHandler.ClanDashboard))
	mux.HandleFunc("GET /admin/approvals", middleware.RequireCapability(models.CapApproveMember, adminHandler.PendingApprovals))
	mux.HandleFunc("POST /admin/members/{id}/approve", middleware.RequireCapability(models.CapApproveMember, middleware.CSRFProtect(adminHandler.ApproveMember)))
	mux.HandleFunc("POST /admin/members/create", middleware.RequireCapability(models.CapManageMembers, middleware.CSRFProtect(adminHandler.AddMember)))
	mux.HandleFunc("GET /admin/backup/export", middleware.RequireCapability(models.CapApproveMember, adminHandler.ExportBackup))
	mux.HandleFunc("POST /admin/backup/import", middleware.RequireCapability(models.CapApproveMember, middleware.CSRFProtect(adminHandler.ImportBackup)))

	handler := handlers.Logging(mux)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go cleanupExpiredSessions(authService)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal("server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// loadTemplates parses the base layout plus every page template.
func loadTemplates(templatesPath string) (*template.Template, error) {
	files := []string{filepath.Join(templatesPath, "base.tmpl")}

	matches, err := filepath.Glob(filepath.Join(templatesPath, "pages/*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}
	files = append(files, matches...)

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("02 Jan 2006")
		},
		"formatAmount": func(d decimal.Decimal) string {
			return "R" + d.StringFixed(2)
		},
		"can": func(a *models.Account, capName string) bool {
			if a == nil {
				return false
			}
			return models.CapabilitiesFor(a.Role, a.IsStaff).Has(models.Capability(capName))
		},
		"derefInt": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// cleanupExpiredSessions periodically removes expired sessions.
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := authService.CleanupExpiredSessions(); err != nil {
			slog.Warn("session cleanup failed", "error", err)
		}
	}
}
