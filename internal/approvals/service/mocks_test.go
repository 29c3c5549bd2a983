package service_test

import (
	"context"
	"time"

	"ms-approvals/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockApprovalDB struct {
	mock.Mock
}

func (m *MockApprovalDB) GetApprovalForGuardian(ctx context.Context, id, guardianID string) (*models.Approval, error) {
	args := m.Called(ctx, id, guardianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Approval), args.Error(1)
}

func (m *MockApprovalDB) ListByGuardian(ctx context.Context, guardianID string) ([]models.Approval, error) {
	args := m.Called(ctx, guardianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Approval), args.Error(1)
}

func (m *MockApprovalDB) ListPendingForEventGuardian(ctx context.Context, eventID, guardianID string) ([]models.Approval, error) {
	args := m.Called(ctx, eventID, guardianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Approval), args.Error(1)
}

func (m *MockApprovalDB) GuardiansForEvent(ctx context.Context, eventID string) ([]string, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockApprovalDB) UpdateDecision(ctx context.Context, id, guardianID string, expectedVersion int64, status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, guardianID, expectedVersion, status, remarks, respondedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockApprovalDB) TransitionIfPending(ctx context.Context, id, guardianID string, status models.ApprovalStatus, remarks *string, respondedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, guardianID, status, remarks, respondedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockApprovalDB) CreateApprovals(ctx context.Context, approvals []models.Approval) (int, error) {
	args := m.Called(ctx, approvals)
	return args.Int(0), args.Error(1)
}

func (m *MockApprovalDB) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

type MockEventDB struct {
	mock.Mock
}

func (m *MockEventDB) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Event), args.Error(1)
}

func (m *MockEventDB) GuardiansOfStudents(ctx context.Context, studentIDs []string) ([]models.GuardianStudent, error) {
	args := m.Called(ctx, studentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.GuardianStudent), args.Error(1)
}

type MockViewCache struct {
	mock.Mock
}

func (m *MockViewCache) Get(ctx context.Context, guardianID string) (*models.GuardianEventsView, error) {
	args := m.Called(ctx, guardianID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GuardianEventsView), args.Error(1)
}

func (m *MockViewCache) Generation(ctx context.Context, guardianID string) (int64, error) {
	args := m.Called(ctx, guardianID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockViewCache) Set(ctx context.Context, guardianID string, generation int64, view *models.GuardianEventsView) (bool, error) {
	args := m.Called(ctx, guardianID, generation, view)
	return args.Bool(0), args.Error(1)
}

func (m *MockViewCache) Invalidate(ctx context.Context, guardianID string) error {
	args := m.Called(ctx, guardianID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(topic, key string, payload interface{}) error {
	args := m.Called(topic, key, payload)
	return args.Error(0)
}
