package testutil

import (
	"context"
	"time"

	"github.com/flexprice/ledger/internal/cache"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/invoice"
	"github.com/flexprice/ledger/internal/domain/payment"
	"github.com/flexprice/ledger/internal/domain/paymentmethod"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/flexprice/ledger/internal/repository"
	memoryRepo "github.com/flexprice/ledger/internal/repository/memory"
	"github.com/flexprice/ledger/internal/sentry"
	"github.com/flexprice/ledger/internal/types"
	"github.com/flexprice/ledger/internal/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Payer and provider used by the fixtures
const (
	TestOwnerID         int64 = 1001
	TestProviderID      int64 = 2001
	TestPaymentMethodID       = "pm_test_card"
)

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    *repository.Stores
	memory    *memoryRepo.Store
	publisher *InMemoryEventPublisher
	gateway   *RecordingGateway
	cache     *cache.InMemoryCache
	sentry    *sentry.Service
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
	fixtures  int64
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.config.Ledger.RetryBaseDelay = time.Millisecond
	s.logger = logger.NewNoopLogger()
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.now = time.Now().UTC()
	s.setupStores()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.publisher.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) setupStores() {
	s.memory = memoryRepo.NewStore(s.config, s.logger)
	s.stores = repository.NewMemoryStores(s.memory)
	s.publisher = NewInMemoryEventPublisher()
	s.gateway = NewRecordingGateway(s.logger)
	s.cache = cache.NewInMemoryCache(s.config)

	s.memory.PutPaymentMethod(&paymentmethod.PaymentMethod{
		ID:         TestPaymentMethodID,
		OwnerID:    TestOwnerID,
		MethodType: "card",
		IsActive:   true,
		CreatedAt:  s.now,
		UpdatedAt:  s.now,
	})
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() *repository.Stores {
	return s.stores
}

// GetMemoryStore exposes the in-memory store for fault injection
func (s *BaseServiceTestSuite) GetMemoryStore() *memoryRepo.Store {
	return s.memory
}

func (s *BaseServiceTestSuite) GetPublisher() *InMemoryEventPublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetGateway() *RecordingGateway {
	return s.gateway
}

// UseDeclines replaces the gateway with one declining the given amounts
func (s *BaseServiceTestSuite) UseDeclines(amounts ...decimal.Decimal) *RecordingGateway {
	s.gateway = NewRecordingGateway(s.logger, amounts...)
	return s.gateway
}

func (s *BaseServiceTestSuite) GetCache() *cache.InMemoryCache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the time the current test started
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}

// InsertInvoice stores a pending invoice directly, bypassing the service.
// It is meant for fixtures the service would refuse to build.
func (s *BaseServiceTestSuite) InsertInvoice(total decimal.Decimal) *invoice.Invoice {
	s.fixtures++
	inv := &invoice.Invoice{
		InvoiceNumber: invoice.FormatNumber("FX"+invoice.SequenceYearMonth(s.now), s.fixtures),
		OwnerID:       TestOwnerID,
		ProviderID:    TestProviderID,
		Amount:        total,
		TaxAmount:     decimal.Zero,
		TotalAmount:   total,
		Currency:      types.DefaultCurrency,
		InvoiceStatus: types.InvoiceStatusPending,
		IssueDate:     s.now,
		DueDate:       s.now.Add(30 * 24 * time.Hour),
		BaseModel:     types.GetDefaultBaseModel(s.ctx),
	}
	s.Require().NoError(s.stores.Invoices.Create(s.ctx, inv))
	return inv
}

// InsertCompletedPayment stores a completed payment directly, bypassing admission
func (s *BaseServiceTestSuite) InsertCompletedPayment(inv *invoice.Invoice, amount decimal.Decimal) *payment.Payment {
	processed := s.now
	p := &payment.Payment{
		PaymentReference: types.GenerateReference(types.REFERENCE_PREFIX_PAYMENT),
		InvoiceID:        inv.ID,
		PayerID:          inv.OwnerID,
		PaymentMethodID:  TestPaymentMethodID,
		Amount:           amount,
		Currency:         inv.Currency,
		PaymentStatus:    types.PaymentStatusCompleted,
		PaymentType:      types.PaymentTypePartial,
		Gateway:          "simulated",
		IdempotencyKey:   types.GenerateUUID(),
		ProcessedAt:      &processed,
		BaseModel:        types.GetDefaultBaseModel(s.ctx),
	}
	s.Require().NoError(s.stores.Payments.Create(s.ctx, p))
	return p
}
