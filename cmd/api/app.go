package main

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/config"
	domainRepo "github.com/sangkips/investify-billing/internal/domain/repository"
	"github.com/sangkips/investify-billing/internal/infrastructure/database"
	"github.com/sangkips/investify-billing/internal/infrastructure/repository"
	"github.com/sangkips/investify-billing/internal/infrastructure/supabase"
	"github.com/sangkips/investify-billing/pkg/email"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/payment"
	"github.com/sangkips/investify-billing/pkg/pdf"
	"github.com/sangkips/investify-billing/pkg/utils"
	"gorm.io/gorm"
)

// app holds everything the commands share
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *gorm.DB

	jwt             *utils.JWTManager
	idempotencyRepo domainRepo.IdempotencyRepository

	auth          *service.AuthService
	customers     *service.CustomerService
	invoices      *service.InvoiceService
	quotes        *service.QuoteService
	payments      *service.PaymentService
	subscriptions *service.SubscriptionService
	webhooks      *service.WebhookService
	reminders     *service.ReminderService
	reports       *service.ReportService
}

// documentRepos are the tables that can live on either backend
type documentRepos struct {
	customers     domainRepo.CustomerRepository
	invoices      domainRepo.InvoiceRepository
	quotes        domainRepo.QuoteRepository
	payments      domainRepo.PaymentRepository
	subscriptions domainRepo.SubscriptionRepository
	counters      domainRepo.CounterRepository
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg := config.Load()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log, err := logger.New(cfg.App.Debug)
	if err != nil {
		return nil, nil, errors.Wrap(err, "init logger")
	}
	return cfg, log.With("service", cfg.App.Name), nil
}

func openDocumentRepos(cfg *config.Config, db *gorm.DB, log *logger.Logger) (documentRepos, error) {
	switch cfg.App.DataBackend {
	case config.BackendPostgres, "":
		return documentRepos{
			customers:     repository.NewCustomerRepository(db),
			invoices:      repository.NewInvoiceRepository(db),
			quotes:        repository.NewQuoteRepository(db),
			payments:      repository.NewPaymentRepository(db),
			subscriptions: repository.NewSubscriptionRepository(db),
			counters:      repository.NewCounterRepository(db),
		}, nil
	case config.BackendSupabase:
		client, err := supabase.NewClient(cfg.Supabase)
		if err != nil {
			return documentRepos{}, err
		}
		log.Infow("billing documents stored through supabase", "url", cfg.Supabase.URL)
		return documentRepos{
			customers:     supabase.NewCustomerRepository(client),
			invoices:      supabase.NewInvoiceRepository(client),
			quotes:        supabase.NewQuoteRepository(client),
			payments:      supabase.NewPaymentRepository(client),
			subscriptions: supabase.NewSubscriptionRepository(client),
			counters:      supabase.NewCounterRepository(client),
		}, nil
	default:
		return documentRepos{}, errors.Newf("unknown DATA_BACKEND %q", cfg.App.DataBackend)
	}
}

func newApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	db, err := database.NewPostgresDB(&cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, err
	}

	repos, err := openDocumentRepos(cfg, db, log)
	if err != nil {
		return nil, err
	}

	renderer, err := pdf.NewFileRenderer(filepath.Join(cfg.Storage.Path, "pdf"))
	if err != nil {
		return nil, err
	}

	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty; gateway calls will fail")
	}
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, log)

	mailer := email.NewEmailService(email.EmailConfig{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUsername: cfg.Email.SMTPUsername,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromName:     cfg.Email.FromName,
		FromEmail:    cfg.Email.FromEmail,
		FrontendURL:  cfg.Email.FrontendURL,
	})

	settings := service.Settings{
		CompanyName:      cfg.Billing.CompanyName,
		DefaultCurrency:  cfg.Billing.DefaultCurrency,
		PaymentTermsDays: cfg.Billing.PaymentTermsDays,
		QuoteValidDays:   cfg.Billing.QuoteValidDays,
		FrontendURL:      cfg.Email.FrontendURL,
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.RefreshExpiryHours)

	invoices := service.NewInvoiceService(repos.invoices, repos.customers, repos.counters, renderer, mailer, settings, log)
	quotes := service.NewQuoteService(repos.quotes, repos.customers, repos.counters, invoices, renderer, mailer, settings, log)
	payments := service.NewPaymentService(repos.payments, repos.customers, repos.counters, invoices, gateway, settings, log)
	subscriptions := service.NewSubscriptionService(repos.subscriptions, repos.customers, gateway, log)

	return &app{
		cfg:             cfg,
		log:             log,
		db:              db,
		jwt:             jwtManager,
		idempotencyRepo: repository.NewIdempotencyRepository(db),
		auth:            service.NewAuthService(repository.NewUserRepository(db), jwtManager, log),
		customers:       service.NewCustomerService(repos.customers),
		invoices:        invoices,
		quotes:          quotes,
		payments:        payments,
		subscriptions:   subscriptions,
		webhooks:        service.NewWebhookService(gateway, payments, subscriptions, log),
		reminders:       service.NewReminderService(invoices, quotes, cfg.Reminder.Workers, log),
		reports:         service.NewReportService(repos.invoices, repos.quotes, repos.payments, repos.subscriptions),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
