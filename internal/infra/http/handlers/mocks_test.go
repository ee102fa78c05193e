package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

// ============ MOCKS ============

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id string, status entity.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockLeadRepository) UpdateAssignment(ctx context.Context, id string, ownerID *string, assignedAt *time.Time) error {
	return m.Called(ctx, id, ownerID, assignedAt).Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLeadRepository) BulkUpdateStatus(ctx context.Context, ids []string, status entity.Status) ([]string, error) {
	args := m.Called(ctx, ids, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLeadRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLeadRepository) CountCreatedAfter(ctx context.Context, since *time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) RecentCreatedAfter(ctx context.Context, since *time.Time, limit int) ([]entity.LeadSummary, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadSummary), args.Error(1)
}

func (m *MockLeadRepository) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[entity.Status]int), args.Error(1)
}

func (m *MockLeadRepository) DistinctTreatments(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLeadRepository) DistinctSources(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLeadRepository) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]entity.Lead, int, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]entity.Lead), args.Int(1), args.Error(2)
}

type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Create(ctx context.Context, note *entity.LeadNote) error {
	return m.Called(ctx, note).Error(0)
}

func (m *MockNoteRepository) ListByLead(ctx context.Context, leadID string) ([]entity.LeadNote, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).([]entity.LeadNote), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, entry *entity.HistoryEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockHistoryRepository) ListByLead(ctx context.Context, leadID string) ([]entity.HistoryEntry, error) {
	args := m.Called(ctx, leadID)
	return args.Get(0).([]entity.HistoryEntry), args.Error(1)
}

type MockOwnerRepository struct {
	mock.Mock
}

func (m *MockOwnerRepository) FindByID(ctx context.Context, id string) (*entity.Owner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Owner), args.Error(1)
}

func (m *MockOwnerRepository) List(ctx context.Context) ([]entity.Owner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Owner), args.Error(1)
}
