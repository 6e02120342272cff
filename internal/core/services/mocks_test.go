package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tokencustody/token_custody_app/internal/core/domain"
	"github.com/tokencustody/token_custody_app/internal/core/ports/providers"
	portsrepo "github.com/tokencustody/token_custody_app/internal/core/ports/repositories"
	portssvc "github.com/tokencustody/token_custody_app/internal/core/ports/services"
)

// --- Mock OperationRepository ---

type MockOperationRepository struct {
	mock.Mock
}

var _ portsrepo.OperationRepositoryFacade = (*MockOperationRepository)(nil)

func (m *MockOperationRepository) FindOperationByID(ctx context.Context, operationID string) (*domain.Operation, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) FindOperationByIdempotencyKey(ctx context.Context, key string) (*domain.Operation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) FindActiveOperationByAssetID(ctx context.Context, assetID string) (*domain.Operation, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) ListOperationsByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.Operation, *string, error) {
	args := m.Called(ctx, assetID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Operation), returnedNextToken, args.Error(2)
}

func (m *MockOperationRepository) ListSubmittedOperations(ctx context.Context) ([]domain.Operation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Operation), args.Error(1)
}

func (m *MockOperationRepository) CreateOperation(ctx context.Context, op domain.Operation, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, op, entry)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkApproved(ctx context.Context, operationID, checkerID string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, operationID, checkerID, now, entry)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkRejected(ctx context.Context, operationID, checkerID, reason string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, operationID, checkerID, reason, now, entry)
	return args.Error(0)
}

func (m *MockOperationRepository) RecordSubmission(ctx context.Context, operationID, taskID string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, operationID, taskID, now, entry)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkFailed(ctx context.Context, operationID string, fromStatus domain.OperationStatus, reason string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, operationID, fromStatus, reason, now, entry)
	return args.Error(0)
}

func (m *MockOperationRepository) MarkExecuted(ctx context.Context, params portsrepo.ExecutedParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// --- Mock CustodyRepository ---

type MockCustodyRepository struct {
	mock.Mock
}

var _ portsrepo.CustodyRecordRepositoryFacade = (*MockCustodyRepository)(nil)

func (m *MockCustodyRepository) FindCustodyRecordByID(ctx context.Context, assetID string) (*domain.CustodyRecord, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustodyRecord), args.Error(1)
}

func (m *MockCustodyRepository) ListCustodyRecords(ctx context.Context, limit int, nextToken *string) ([]domain.CustodyRecord, *string, error) {
	args := m.Called(ctx, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.CustodyRecord), returnedNextToken, args.Error(2)
}

func (m *MockCustodyRepository) CreateCustodyRecord(ctx context.Context, record domain.CustodyRecord, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, record, entry)
	return args.Error(0)
}

// --- Mock AuditRepository ---

type MockAuditRepository struct {
	mock.Mock
}

var _ portsrepo.AuditRepositoryFacade = (*MockAuditRepository)(nil)

func (m *MockAuditRepository) AppendAuditEntry(ctx context.Context, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) ListAuditByOperationID(ctx context.Context, operationID string) ([]domain.AuditLogEntry, error) {
	args := m.Called(ctx, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditLogEntry), args.Error(1)
}

func (m *MockAuditRepository) ListAuditByAssetID(ctx context.Context, assetID string, limit int, nextToken *string) ([]domain.AuditLogEntry, *string, error) {
	args := m.Called(ctx, assetID, limit, nextToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.AuditLogEntry), returnedNextToken, args.Error(2)
}

// --- Mock MarketplaceRepository ---

type MockMarketplaceRepository struct {
	mock.Mock
}

var _ portsrepo.MarketplaceRepositoryFacade = (*MockMarketplaceRepository)(nil)

func (m *MockMarketplaceRepository) FindListingByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockMarketplaceRepository) ListListingsByAssetID(ctx context.Context, assetID string) ([]domain.Listing, error) {
	args := m.Called(ctx, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockMarketplaceRepository) CreateListing(ctx context.Context, listing domain.Listing, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, listing, entry)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) CancelListing(ctx context.Context, listingID, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, listingID, actorID, now, entry)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) ExpireListings(ctx context.Context, asOf time.Time) ([]string, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMarketplaceRepository) FindBidByID(ctx context.Context, bidID string) (*domain.Bid, error) {
	args := m.Called(ctx, bidID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bid), args.Error(1)
}

func (m *MockMarketplaceRepository) ListBidsByListingID(ctx context.Context, listingID string) ([]domain.Bid, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bid), args.Error(1)
}

func (m *MockMarketplaceRepository) CreateBid(ctx context.Context, bid domain.Bid, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, bid, entry)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) MarkBidRejected(ctx context.Context, bidID, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, bidID, actorID, now, entry)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) GetOwnership(ctx context.Context, assetID, ownerID string) (*domain.Ownership, error) {
	args := m.Called(ctx, assetID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ownership), args.Error(1)
}

func (m *MockMarketplaceRepository) GetBalance(ctx context.Context, ownerID, currency string) (*domain.Balance, error) {
	args := m.Called(ctx, ownerID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockMarketplaceRepository) DepositBalance(ctx context.Context, ownerID, currency string, amount decimal.Decimal, actorID string, now time.Time, entry domain.AuditLogEntry) error {
	args := m.Called(ctx, ownerID, currency, amount, actorID, now, entry)
	return args.Error(0)
}

func (m *MockMarketplaceRepository) SettleTrade(ctx context.Context, params portsrepo.SettleTradeParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// --- Mock UserRepository ---

type MockUserRepository struct {
	mock.Mock
}

var _ portsrepo.UserRepositoryFacade = (*MockUserRepository)(nil)

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Mock CustodyProvider ---

type MockCustodyProvider struct {
	mock.Mock
}

var _ providers.CustodyProvider = (*MockCustodyProvider)(nil)

func (m *MockCustodyProvider) SubmitMint(ctx context.Context, params providers.MintParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockCustodyProvider) SubmitTransfer(ctx context.Context, params providers.TransferParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockCustodyProvider) SubmitBurn(ctx context.Context, params providers.BurnParams) (string, error) {
	args := m.Called(ctx, params)
	return args.String(0), args.Error(1)
}

func (m *MockCustodyProvider) PollStatus(ctx context.Context, taskID string) (*providers.TaskResult, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.TaskResult), args.Error(1)
}

// --- Mock ExecutionMonitor ---

type MockMonitor struct {
	mock.Mock
}

var _ portssvc.ExecutionMonitorSvc = (*MockMonitor)(nil)

func (m *MockMonitor) Watch(op domain.Operation) {
	m.Called(op)
}

func (m *MockMonitor) ResumeInFlight(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMonitor) Stop() {
	m.Called()
}
