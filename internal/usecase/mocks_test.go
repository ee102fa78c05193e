package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/queue"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
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

// appended returns every entry passed to Append, in call order.
func (m *MockHistoryRepository) appended() []*entity.HistoryEntry {
	var out []*entity.HistoryEntry
	for _, call := range m.Calls {
		if call.Method == "Append" {
			out = append(out, call.Arguments.Get(1).(*entity.HistoryEntry))
		}
	}
	return out
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
	return args.Get(0).([]entity.Owner), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, bool, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]entity.Lead), args.Bool(1), args.Error(2)
}

func (m *MockCache) Set(ctx context.Context, filter entity.LeadFilter, leads []entity.Lead) error {
	return m.Called(ctx, filter, leads).Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	return m.Called(ctx, event).Error(0)
}

type recordingObserver struct {
	mu     sync.Mutex
	failed []string
}

func (o *recordingObserver) StageFailed(mutation, stage string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, mutation+"/"+stage)
}

// ============ HELPERS ============

const (
	leadID  = "6f1c2a7e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"
	leadID2 = "7a2d3b8f-4c5e-4f60-9bac-1d2e3f4a5b6c"
	leadID3 = "8b3e4c90-5d6f-4071-8cbd-2e3f4a5b6c7d"
	ownerID = "9c4f5da1-6e70-4182-9dce-3f4a5b6c7d8e"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newPipeline(observer usecase.StageObserver) *usecase.Pipeline {
	return usecase.NewPipeline(zap.NewNop(), observer)
}

func newRecorder(repo *MockHistoryRepository) *usecase.HistoryRecorder {
	rec := usecase.NewHistoryRecorder(repo)
	rec.Now = func() time.Time { return fixedNow }
	return rec
}

func actorCtx(name string) context.Context {
	id := "user-42"
	return entity.ContextWithActor(context.Background(), entity.Actor{Name: name, UserID: &id})
}
