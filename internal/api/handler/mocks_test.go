package handler

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/toasahi/ramen-agent/internal/domain"
)

// MockThreadDirectory mocks the ThreadDirectory interface
type MockThreadDirectory struct {
	mock.Mock
}

func (m *MockThreadDirectory) List(ctx context.Context, filter domain.ListFilter) []domain.ThreadSummary {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.ThreadSummary)
}

func (m *MockThreadDirectory) Create(ctx context.Context, localID, title string) (domain.ThreadSummary, error) {
	args := m.Called(ctx, localID, title)
	return args.Get(0).(domain.ThreadSummary), args.Error(1)
}

func (m *MockThreadDirectory) Rename(ctx context.Context, remoteID, title string) error {
	args := m.Called(ctx, remoteID, title)
	return args.Error(0)
}

func (m *MockThreadDirectory) SetArchived(ctx context.Context, remoteID string, archived bool) error {
	args := m.Called(ctx, remoteID, archived)
	return args.Error(0)
}

func (m *MockThreadDirectory) Delete(ctx context.Context, remoteID string) error {
	args := m.Called(ctx, remoteID)
	return args.Error(0)
}

func (m *MockThreadDirectory) FetchOne(ctx context.Context, remoteID string) (domain.ThreadSummary, error) {
	args := m.Called(ctx, remoteID)
	return args.Get(0).(domain.ThreadSummary), args.Error(1)
}

func (m *MockThreadDirectory) DeriveTitle(ctx context.Context, remoteID string, messages []domain.Message) (string, error) {
	args := m.Called(ctx, remoteID, messages)
	return args.String(0), args.Error(1)
}

// MockHistorySource mocks the HistorySource interface
type MockHistorySource struct {
	mock.Mock
}

func (m *MockHistorySource) Messages(ctx context.Context, threadID string) ([]domain.Message, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}
