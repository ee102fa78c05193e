package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/infra/http/middleware"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

// AdminLeadHandler serves the back-office lead endpoints.
type AdminLeadHandler struct {
	ListUC     *usecase.ListLeadsUseCase
	StaleUC    *usecase.StaleLeadsUseCase
	DigestUC   *usecase.NotificationDigestUseCase
	ExportUC   *usecase.ExportLeadsUseCase
	TimelineUC *usecase.LeadTimelineUseCase
	StatusUC   *usecase.UpdateLeadStatusUseCase
	AssignUC   *usecase.AssignLeadUseCase
	NoteUC     *usecase.AddNoteUseCase
	DeleteUC   *usecase.DeleteLeadUseCase
	BulkUC     *usecase.BulkOperationsUseCase
	Owners     entity.OwnerRepositoryInterface
	Logger     *zap.Logger
	Now        func() time.Time
}

// Routes registra as rotas relativas a /admin.
func (h *AdminLeadHandler) Routes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Get("/stale", h.Stale)
		r.Get("/notifications", h.Notifications)
		r.Get("/export.csv", h.ExportCSV)
		r.Get("/export.xlsx", h.ExportXLSX)
		r.Post("/bulk/status", h.BulkStatus)
		r.Post("/bulk/delete", h.BulkDelete)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Details)
			r.Delete("/", h.Delete)
			r.Get("/history", h.History)
			r.Post("/status", h.UpdateStatus)
			r.Post("/assign", h.Assign)
			r.Post("/notes", h.AddNote)
		})
	})
	r.Get("/owners", h.ListOwners)
}

func listInput(r *http.Request) usecase.ListLeadsInput {
	q := r.URL.Query()
	input := usecase.ListLeadsInput{
		Query:     q.Get("q"),
		Status:    q.Get("status"),
		Treatment: q.Get("treatment"),
		Source:    q.Get("source"),
		From:      q.Get("from"),
		To:        q.Get("to"),
	}
	if raw := q.Get("ids"); raw != "" {
		input.IDs = strings.Split(raw, ",")
	}
	return input
}

func (h *AdminLeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.ListUC.Execute(r.Context(), listInput(r))
	if err != nil {
		h.Logger.Error("list leads failed", zap.Error(err))
		writeUseCaseError(w, err, "Erro ao carregar leads")
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (h *AdminLeadHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ListUC.Stats(r.Context())
	if err != nil {
		h.Logger.Error("lead stats failed", zap.Error(err))
		writeUseCaseError(w, err, "Erro ao carregar estatísticas")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminLeadHandler) Stale(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := h.StaleUC.Execute(r.Context(), limit)
	if err != nil {
		h.Logger.Error("stale leads failed", zap.Error(err))
		writeUseCaseError(w, err, "Erro ao carregar leads pendentes")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Notifications: since ausente ou vazio significa "nunca visto".
func (h *AdminLeadHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, usecase.CodeValidation, "Parâmetro since inválido")
			return
		}
		since = &t
	}

	digest, err := h.DigestUC.Execute(r.Context(), since)
	if err != nil {
		h.Logger.Error("notification digest failed", zap.Error(err))
		writeUseCaseError(w, err, "Erro ao carregar notificações")
		return
	}
	writeJSON(w, http.StatusOK, digest)
}

func (h *AdminLeadHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, usecase.ExportCSV, "text/csv; charset=utf-8")
}

func (h *AdminLeadHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, usecase.ExportXLSX, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *AdminLeadHandler) export(w http.ResponseWriter, r *http.Request, format usecase.ExportFormat, contentType string) {
	data, err := h.ExportUC.Execute(r.Context(), listInput(r), format)
	if err != nil {
		h.Logger.Error("lead export failed", zap.String("format", string(format)), zap.Error(err))
		writeUseCaseError(w, err, "Erro ao exportar leads")
		return
	}

	filename := fmt.Sprintf("leads-%s.%s", h.now().Format("2006-01-02"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *AdminLeadHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.TimelineUC.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, err, "Erro ao carregar lead")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *AdminLeadHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.TimelineUC.ListHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, err, "Erro ao carregar histórico")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminLeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateStatusInput
	if !decode(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	res := h.StatusUC.Execute(r.Context(), input)
	if res.Success {
		middleware.RecordStatusChange("single", 1)
	}
	writeResult(w, res)
}

func (h *AdminLeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var input usecase.AssignLeadInput
	if !decode(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	writeResult(w, h.AssignUC.Execute(r.Context(), input))
}

func (h *AdminLeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var input usecase.AddNoteInput
	if !decode(w, r, &input) {
		return
	}
	input.LeadID = chi.URLParam(r, "id")

	writeResult(w, h.NoteUC.Execute(r.Context(), input))
}

func (h *AdminLeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.DeleteUC.Execute(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminLeadHandler) BulkStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.BulkStatusInput
	if !decode(w, r, &input) {
		return
	}

	res := h.BulkUC.UpdateStatus(r.Context(), input)
	middleware.RecordBulkOperation("status", res.Success)
	if res.Success {
		middleware.RecordStatusChange("bulk", len(input.LeadIDs))
	}
	writeResult(w, res)
}

func (h *AdminLeadHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var input usecase.BulkDeleteInput
	if !decode(w, r, &input) {
		return
	}

	res := h.BulkUC.Delete(r.Context(), input)
	middleware.RecordBulkOperation("delete", res.Success)
	writeResult(w, res)
}

func (h *AdminLeadHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.Owners.List(r.Context())
	if err != nil {
		h.Logger.Error("list owners failed", zap.Error(err))
		writeErrorResponse(w, http.StatusInternalServerError, usecase.CodeReadFailed, "Erro ao carregar responsáveis")
		return
	}
	writeJSON(w, http.StatusOK, owners)
}

func (h *AdminLeadHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return false
	}
	return true
}
