package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/application/service"
	"github.com/sangkips/investify-billing/internal/config"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/sangkips/investify-billing/internal/domain/enum"
	"github.com/sangkips/investify-billing/internal/infrastructure/database"
	"github.com/sangkips/investify-billing/internal/presentation/http/handler"
	"github.com/sangkips/investify-billing/internal/presentation/http/middleware"
	"github.com/sangkips/investify-billing/internal/presentation/http/routes"
	"github.com/sangkips/investify-billing/internal/testutil"
	"github.com/sangkips/investify-billing/pkg/logger"
	"github.com/sangkips/investify-billing/pkg/pdf"
	"github.com/sangkips/investify-billing/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type keyStore struct {
	mu   sync.Mutex
	rows map[string]*entity.IdempotencyKey
}

func (k *keyStore) GetByKey(_ context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rows[userID.String()+key], nil
}

func (k *keyStore) Create(_ context.Context, row *entity.IdempotencyKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.rows[row.UserID.String()+row.Key] = row
	return nil
}

func (k *keyStore) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type APISuite struct {
	suite.Suite

	router   *gin.Engine
	gateway  *testutil.Gateway
	jwt      *utils.JWTManager
	tenantID uuid.UUID
	admin    string
	limiter  *middleware.RateLimiter
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(handler.RegisterValidators())

	renderer, err := pdf.NewFileRenderer(s.T().TempDir())
	s.Require().NoError(err)

	log := logger.NewNop()
	s.gateway = testutil.NewGateway()
	s.jwt = utils.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	s.tenantID = uuid.New()

	settings := service.Settings{CompanyName: "Acme Ltd", DefaultCurrency: "USD", PaymentTermsDays: 30, QuoteValidDays: 30}
	customers := testutil.NewCustomerRepository()
	invoiceRepo := testutil.NewInvoiceRepository()
	quoteRepo := testutil.NewQuoteRepository()
	paymentRepo := testutil.NewPaymentRepository()
	subRepo := testutil.NewSubscriptionRepository()
	counters := testutil.NewCounterRepository()
	mailer := &testutil.Mailer{}

	invoices := service.NewInvoiceService(invoiceRepo, customers, counters, renderer, mailer, settings, log)
	quotes := service.NewQuoteService(quoteRepo, customers, counters, invoices, renderer, mailer, settings, log)
	payments := service.NewPaymentService(paymentRepo, customers, counters, invoices, s.gateway, settings, log)
	subs := service.NewSubscriptionService(subRepo, customers, s.gateway, log)
	reminders := service.NewReminderService(invoices, quotes, 2, log)

	s.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(1000, 1))
	cfg := &config.Config{App: config.AppConfig{Name: "billing-test"}}

	s.router = routes.Setup(&routes.Handlers{
		Auth:         handler.NewAuthHandler(service.NewAuthService(nil, s.jwt, log)),
		Customer:     handler.NewCustomerHandler(service.NewCustomerService(customers)),
		Invoice:      handler.NewInvoiceHandler(invoices, reminders),
		Quote:        handler.NewQuoteHandler(quotes),
		Payment:      handler.NewPaymentHandler(payments, service.NewWebhookService(s.gateway, payments, subs, log), log),
		Subscription: handler.NewSubscriptionHandler(subs),
		Report:       handler.NewReportHandler(service.NewReportService(invoiceRepo, quoteRepo, paymentRepo, subRepo)),
		Health:       handler.NewHealthHandler(cfg.App.Name, nil),
	}, &routes.Deps{
		JWTManager:      s.jwt,
		Cfg:             cfg,
		IdempotencyRepo: &keyStore{rows: map[string]*entity.IdempotencyKey{}},
		RateLimiter:     s.limiter,
		Log:             log,
	})

	s.admin = s.token([]string{"admin"}, []string{
		database.PermManageInvoices,
		database.PermManageQuotes,
		database.PermManagePayments,
		database.PermManageSubscriptions,
		database.PermManageCustomers,
		database.PermViewReports,
	})
}

func (s *APISuite) TearDownTest() {
	s.limiter.Close()
}

func (s *APISuite) token(roles, perms []string) string {
	tok, err := s.jwt.GenerateAccessToken(uuid.New(), s.tenantID, "ops@acme.test", roles, perms)
	s.Require().NoError(err)
	return tok
}

func (s *APISuite) do(method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *APISuite) customer() uuid.UUID {
	w, env := s.do(http.MethodPost, "/api/v1/customers", s.admin, gin.H{
		"name":                "Wanjiku Kamau",
		"email":               "wanjiku@example.com",
		"gateway_customer_id": "cus_123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var c entity.Customer
	s.Require().NoError(json.Unmarshal(env.Data, &c))
	return c.ID
}

func (s *APISuite) invoice(customerID uuid.UUID) entity.Invoice {
	w, env := s.do(http.MethodPost, "/api/v1/invoices", s.admin, gin.H{
		"customer_id": customerID,
		"currency":    "USD",
		"tax_rate":    10,
		"items": []gin.H{
			{"description": "Consulting", "quantity": 2, "unit_price": "100"},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var inv entity.Invoice
	s.Require().NoError(json.Unmarshal(env.Data, &inv))
	return inv
}

func (s *APISuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestRequiresToken() {
	w, env := s.do(http.MethodGet, "/api/v1/invoices", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(env.Success)
}

func (s *APISuite) TestPermissionsAreEnforced() {
	sales := s.token([]string{"sales"}, []string{database.PermManageQuotes})

	w, _ := s.do(http.MethodGet, "/api/v1/invoices", sales, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/quotes", sales, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestCreateInvoiceValidation() {
	w, env := s.do(http.MethodPost, "/api/v1/invoices", s.admin, gin.H{
		"customer_id": uuid.New(),
		"currency":    "DOLLARS",
		"items":       []gin.H{},
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	fields := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		fields = append(fields, e.Field)
	}
	s.Contains(fields, "currency")
	s.Contains(fields, "items")
}

func (s *APISuite) TestInvoiceLifecycleOverHTTP() {
	inv := s.invoice(s.customer())
	s.True(decimal.RequireFromString("220").Equal(inv.TotalAmount))
	s.Equal(enum.InvoiceStatusDraft, inv.Status)

	w, _ := s.do(http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/send", s.admin, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(http.MethodDelete, "/api/v1/invoices/"+inv.ID.String(), s.admin, nil)
	s.Equal(http.StatusConflict, w.Code, "only drafts can be deleted")

	w, _ = s.do(http.MethodGet, "/api/v1/invoices?status=sent,paid", s.admin, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/invoices?status=lost", s.admin, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/invoices/not-a-uuid", s.admin, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/invoices/"+uuid.NewString(), s.admin, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestPaymentIsIdempotent() {
	inv := s.invoice(s.customer())
	_, _ = s.do(http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/send", s.admin, nil)

	body := gin.H{
		"invoice_id":        inv.ID,
		"method":            "card",
		"payment_method_id": "pm_card_visa",
		"confirm":           true,
	}

	w, _ := s.do(http.MethodPost, "/api/v1/payments", s.admin, body)
	s.Equal(http.StatusBadRequest, w.Code, "key is required")

	first, env := s.do(http.MethodPost, "/api/v1/payments", s.admin, body, middleware.IdempotencyKeyHeader, "pay-1")
	s.Require().Equal(http.StatusCreated, first.Code, first.Body.String())
	var p entity.Payment
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Equal(enum.PaymentStatusCompleted, p.Status)

	replay, _ := s.do(http.MethodPost, "/api/v1/payments", s.admin, body, middleware.IdempotencyKeyHeader, "pay-1")
	s.Equal(http.StatusCreated, replay.Code)
	s.Equal("true", replay.Header().Get(middleware.IdempotentReplayHeader))
	s.Len(s.gateway.Intents, 1)

	_, env = s.do(http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), s.admin, nil)
	var paid entity.Invoice
	s.Require().NoError(json.Unmarshal(env.Data, &paid))
	s.Equal(enum.InvoiceStatusPaid, paid.Status)
}

func (s *APISuite) TestWebhookSignature() {
	w, _ := s.do(http.MethodPost, "/api/v1/payments/webhook", "", gin.H{"id": "evt_1"}, "Stripe-Signature", "forged")
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/api/v1/payments/webhook", "", gin.H{"id": "evt_1", "type": "customer.created"}, "Stripe-Signature", testutil.ValidSignature)
	s.Equal(http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"received":true}`, w.Body.String())
}

func (s *APISuite) TestReport() {
	s.invoice(s.customer())

	w, env := s.do(http.MethodGet, "/api/v1/reports/billing", s.admin, nil)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var summary service.BillingSummary
	s.Require().NoError(json.Unmarshal(env.Data, &summary))
	s.NotEmpty(summary.Invoices)
}
