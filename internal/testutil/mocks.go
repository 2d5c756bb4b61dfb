package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/domain"
	"github.com/krazydeals07-dot/eBachatgat-Backend-App/internal/notify"
)

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, groupID uuid.UUID) (func(), error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

type MockNotes struct {
	mock.Mock
}

func (m *MockNotes) Render(name notify.Template, data map[string]any) (string, error) {
	args := m.Called(name, data)
	return args.String(0), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.GroupTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Totals(ctx context.Context, filter domain.TransactionFilter) (domain.FlowTotals, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(domain.FlowTotals), args.Error(1)
}

func (m *MockTransactionRepository) TotalsByType(ctx context.Context, filter domain.TransactionFilter) ([]domain.TypeTotal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TypeTotal), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.GroupTransaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GroupTransaction), args.Error(1)
}
