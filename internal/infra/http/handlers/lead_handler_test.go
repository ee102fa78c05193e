package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

func newCaptureHandler(leads *MockLeadRepository, perMinute int) *LeadHandler {
	uc := usecase.NewCaptureLeadUseCase(leads, usecase.NoopCache, usecase.NoopPublisher, usecase.NewPipeline(zap.NewNop(), nil))
	return NewLeadHandler(uc, NewRateLimiter(perMinute), zap.NewNop())
}

func captureRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewReader(b))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	return req
}

var validForm = map[string]any{
	"name":       "Maria Souza",
	"email":      "Maria@Email.com",
	"phone":      "(11) 99999-8888",
	"treatment":  "Implante",
	"utm_source": "google",
}

func TestCaptureLead_Created(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("Create", mock.Anything, mock.MatchedBy(func(l *entity.Lead) bool {
		return l.IPAddress == "203.0.113.7" &&
			l.UserAgent == "Mozilla/5.0" &&
			l.Email == "maria@email.com" &&
			l.Status == entity.StatusNew
	})).Return(nil)

	rec := httptest.NewRecorder()
	newCaptureHandler(leads, 5).CaptureLead(rec, captureRequest(t, validForm))

	require.Equal(t, http.StatusCreated, rec.Code)
	var out usecase.CaptureLeadOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	assert.NotEmpty(t, out.LeadID)
	leads.AssertExpectations(t)
}

func TestCaptureLead_ValidationError(t *testing.T) {
	leads := new(MockLeadRepository)
	rec := httptest.NewRecorder()

	newCaptureHandler(leads, 5).CaptureLead(rec, captureRequest(t, map[string]any{"name": "Jo"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), usecase.CodeValidation)
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCaptureLead_InvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBufferString("{"))

	newCaptureHandler(new(MockLeadRepository), 5).CaptureLead(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_JSON")
}

func TestCaptureLead_RateLimited(t *testing.T) {
	leads := new(MockLeadRepository)
	leads.On("Create", mock.Anything, mock.Anything).Return(nil)
	h := newCaptureHandler(leads, 1)

	first := httptest.NewRecorder()
	h.CaptureLead(first, captureRequest(t, validForm))
	second := httptest.NewRecorder()
	h.CaptureLead(second, captureRequest(t, validForm))

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	leads.AssertNumberOfCalls(t, "Create", 1)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": " 198.51.100.1 , 10.0.0.1"}, "10.0.0.2:1234", "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.2:1234", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.10:5555", "192.0.2.10"},
		{"remote without port", nil, "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestRateLimiter_PerIPAndRefill(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "limits are per IP")

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("a"), "one token refills every 30s")
}

func TestRateLimiter_EvictsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(20 * time.Minute)
	rl.Allow("fresh")
	rl.evict(10 * time.Minute)

	_, oldKept := rl.visitors.Load("old")
	_, freshKept := rl.visitors.Load("fresh")
	assert.False(t, oldKept)
	assert.True(t, freshKept)
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 50; i++ {
		require.True(t, rl.Allow("a"))
	}
}
