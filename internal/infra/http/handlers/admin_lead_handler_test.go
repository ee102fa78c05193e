package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/http/middleware"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

const (
	leadID  = "6f1c2a7e-3b4d-4e5f-8a9b-0c1d2e3f4a5b"
	leadID2 = "7a2d3b8f-4c5e-4f60-9bac-1d2e3f4a5b6c"
	ownerID = "9c4f5da1-6e70-4182-9dce-3f4a5b6c7d8e"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

type adminFixture struct {
	leads   *MockLeadRepository
	notes   *MockNoteRepository
	history *MockHistoryRepository
	owners  *MockOwnerRepository
	router  http.Handler
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		leads:   new(MockLeadRepository),
		notes:   new(MockNoteRepository),
		history: new(MockHistoryRepository),
		owners:  new(MockOwnerRepository),
	}

	pipeline := usecase.NewPipeline(zap.NewNop(), nil)
	recorder := usecase.NewHistoryRecorder(f.history)
	labels := entity.DefaultLabels()
	cache := usecase.NoopCache

	h := &AdminLeadHandler{
		ListUC:     usecase.NewListLeadsUseCase(f.leads, cache, zap.NewNop()),
		StaleUC:    usecase.NewStaleLeadsUseCase(f.leads, 24*time.Hour),
		DigestUC:   usecase.NewNotificationDigestUseCase(f.leads, 5),
		ExportUC:   usecase.NewExportLeadsUseCase(f.leads),
		TimelineUC: usecase.NewLeadTimelineUseCase(f.leads, f.notes, f.history, 24*time.Hour),
		StatusUC:   usecase.NewUpdateLeadStatusUseCase(f.leads, recorder, cache, pipeline, labels),
		AssignUC:   usecase.NewAssignLeadUseCase(f.leads, f.owners, recorder, cache, usecase.NoopPublisher, pipeline),
		NoteUC:     usecase.NewAddNoteUseCase(f.notes, recorder, cache, pipeline),
		DeleteUC:   usecase.NewDeleteLeadUseCase(f.leads, cache, pipeline),
		BulkUC:     usecase.NewBulkOperationsUseCase(f.leads, recorder, cache, pipeline, labels),
		Owners:     f.owners,
		Logger:     zap.NewNop(),
		Now:        func() time.Time { return fixedNow },
	}

	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Identity([]byte("secret")))
		h.Routes(r)
	})
	f.router = r
	return f
}

func (f *adminFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) usecase.Result {
	t.Helper()
	var res usecase.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestAdminUpdateStatus(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Status: entity.StatusNew}, nil)
	f.leads.On("UpdateStatus", mock.Anything, leadID, entity.StatusQualified).Return(nil)
	f.history.On("Append", mock.Anything, mock.MatchedBy(func(e *entity.HistoryEntry) bool {
		return e.CreatedBy == entity.SystemActorName && e.Description == `Status alterado de "Novo" para "Qualificado"`
	})).Return(nil)

	rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/status", map[string]string{"status": "qualified"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Status atualizado com sucesso", decodeResult(t, rec).Message)
	f.history.AssertExpectations(t)
}

func TestAdminUpdateStatus_ErrorMapping(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		f := newAdminFixture()
		rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/status", map[string]string{"status": "lost"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		f := newAdminFixture()
		f.leads.On("FindByID", mock.Anything, leadID).Return(nil, entity.ErrLeadNotFound)
		rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/status", map[string]string{"status": "new"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Erro ao atualizar status", decodeResult(t, rec).Message)
	})

	t.Run("write failure", func(t *testing.T) {
		f := newAdminFixture()
		f.leads.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Status: entity.StatusNew}, nil)
		f.leads.On("UpdateStatus", mock.Anything, leadID, entity.StatusContacted).Return(errors.New("conn reset"))
		rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/status", map[string]string{"status": "contacted"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		f := newAdminFixture()
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/leads/"+leadID+"/status", bytes.NewBufferString("nope")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminRejectsInvalidToken(t *testing.T) {
	f := newAdminFixture()
	req := httptest.NewRequest(http.MethodGet, "/admin/owners", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.owners.AssertNotCalled(t, "List", mock.Anything)
}

func TestAdminAssignUnknownOwner(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID}, nil)
	f.owners.On("FindByID", mock.Anything, ownerID).Return(nil, entity.ErrOwnerNotFound)

	rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/assign", map[string]string{"owner_id": ownerID})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	f.leads.AssertNotCalled(t, "UpdateAssignment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminAddNoteBlank(t *testing.T) {
	f := newAdminFixture()

	rec := f.do(http.MethodPost, "/admin/leads/"+leadID+"/notes", map[string]string{"note": "   "})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "A nota não pode estar vazia", decodeResult(t, rec).Message)
}

func TestAdminDeleteLead(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("Delete", mock.Anything, leadID).Return(nil)

	rec := f.do(http.MethodDelete, "/admin/leads/"+leadID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lead excluído com sucesso", decodeResult(t, rec).Message)
}

func TestAdminBulkStatus(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("BulkUpdateStatus", mock.Anything, []string{leadID, leadID2}, entity.StatusConverted).Return([]string{leadID, leadID2}, nil)
	f.history.On("Append", mock.Anything, mock.Anything).Return(nil)

	rec := f.do(http.MethodPost, "/admin/leads/bulk/status", map[string]any{"ids": []string{leadID, leadID2}, "status": "converted"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2 leads atualizados", decodeResult(t, rec).Message)
	f.history.AssertNumberOfCalls(t, "Append", 2)
}

func TestAdminBulkDeleteEmptySelection(t *testing.T) {
	f := newAdminFixture()

	rec := f.do(http.MethodPost, "/admin/leads/bulk/delete", map[string]any{"ids": []string{}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.leads.AssertNotCalled(t, "BulkDelete", mock.Anything, mock.Anything)
}

func TestAdminDetails(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("FindByID", mock.Anything, leadID).Return(&entity.Lead{ID: leadID, Name: "Maria", Status: entity.StatusNew}, nil)
	f.notes.On("ListByLead", mock.Anything, leadID).Return([]entity.LeadNote{{ID: "n1", Content: "ligar"}}, nil)
	f.history.On("ListByLead", mock.Anything, leadID).Return([]entity.HistoryEntry{}, nil)

	rec := f.do(http.MethodGet, "/admin/leads/"+leadID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var details usecase.LeadDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &details))
	assert.Equal(t, "Maria", details.Lead.Name)
	assert.Len(t, details.Notes, 1)
}

func TestAdminDetails_NotFound(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("FindByID", mock.Anything, leadID).Return(nil, entity.ErrLeadNotFound)

	rec := f.do(http.MethodGet, "/admin/leads/"+leadID, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Lead não encontrado")
}

func TestAdminNotifications(t *testing.T) {
	f := newAdminFixture()
	since := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	isSince := mock.MatchedBy(func(t *time.Time) bool { return t != nil && t.Equal(since) })
	f.leads.On("CountCreatedAfter", mock.Anything, isSince).Return(2, nil)
	f.leads.On("RecentCreatedAfter", mock.Anything, isSince, 5).Return([]entity.LeadSummary{{ID: leadID}, {ID: leadID2}}, nil)

	rec := f.do(http.MethodGet, "/admin/leads/notifications?since=2026-03-10T12:00:00Z", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var digest entity.Digest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &digest))
	assert.Equal(t, 2, digest.Count)
	assert.Len(t, digest.RecentLeads, 2)
}

func TestAdminNotifications_BadSince(t *testing.T) {
	f := newAdminFixture()

	rec := f.do(http.MethodGet, "/admin/leads/notifications?since=yesterday", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.leads.AssertNotCalled(t, "CountCreatedAfter", mock.Anything, mock.Anything)
}

func TestAdminExportCSV(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("List", mock.Anything, entity.LeadFilter{IDs: []string{leadID}}).Return([]entity.Lead{
		{ID: leadID, Name: "Maria", Status: entity.StatusNew, CreatedAt: fixedNow},
	}, nil)

	rec := f.do(http.MethodGet, "/admin/leads/export.csv?ids="+leadID, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="leads-2026-03-10.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "ID,Nome,Email")
	assert.Contains(t, rec.Body.String(), leadID)
}

func TestAdminListReadFailure(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("List", mock.Anything, entity.LeadFilter{}).Return(nil, errors.New("db down"))

	rec := f.do(http.MethodGet, "/admin/leads", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), usecase.CodeReadFailed)
}

func TestAdminStats(t *testing.T) {
	f := newAdminFixture()
	f.leads.On("CountByStatus", mock.Anything).Return(map[entity.Status]int{entity.StatusNew: 3}, nil)
	f.leads.On("DistinctTreatments", mock.Anything).Return([]string{"Implante"}, nil)
	f.leads.On("DistinctSources", mock.Anything).Return([]string{}, nil)

	rec := f.do(http.MethodGet, "/admin/leads/stats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats entity.LeadStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 0, stats.ByStatus[entity.StatusConverted])
}

func TestAdminListOwners(t *testing.T) {
	f := newAdminFixture()
	f.owners.On("List", mock.Anything).Return([]entity.Owner{{ID: ownerID, Name: "Dr. Paulo"}}, nil)

	rec := f.do(http.MethodGet, "/admin/owners", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dr. Paulo")
}
