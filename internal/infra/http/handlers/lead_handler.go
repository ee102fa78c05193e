package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sorrisoclinic/dental-crm/internal/infra/http/middleware"
	"github.com/sorrisoclinic/dental-crm/internal/usecase"
)

// LeadHandler serves the public contact form.
type LeadHandler struct {
	CaptureUC   *usecase.CaptureLeadUseCase
	RateLimiter *RateLimiter
	Logger      *zap.Logger
}

func NewLeadHandler(uc *usecase.CaptureLeadUseCase, limiter *RateLimiter, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		CaptureUC:   uc,
		RateLimiter: limiter,
		Logger:      logger,
	}
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	clientIP := getClientIP(r)
	if !h.RateLimiter.Allow(clientIP) {
		middleware.RecordRateLimited()
		w.Header().Set("Retry-After", "60")
		writeErrorResponse(w, http.StatusTooManyRequests, "RATE_LIMITED", "Muitas tentativas. Tente novamente em instantes.")
		return
	}

	var input usecase.CaptureLeadInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "JSON inválido")
		return
	}
	input.UserAgent = r.UserAgent()
	input.IPAddress = clientIP

	out := h.CaptureUC.Execute(r.Context(), input)
	if !out.Success {
		writeJSON(w, statusForCode(out.Code), out)
		return
	}

	middleware.RecordLeadCaptured(firstNonEmpty(input.UTMSource, input.Source))
	h.Logger.Info("lead captured", zap.String("lead_id", out.LeadID), zap.String("treatment", input.Treatment))
	writeJSON(w, http.StatusCreated, out)
}

// getClientIP prefere o primeiro endereço do X-Forwarded-For, depois X-Real-IP.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	visitors sync.Map // map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// NewRateLimiter allows perMinute requests per IP per minute. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{limit: rate.Inf, now: time.Now}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()
	v, _ := rl.visitors.LoadOrStore(ip, &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)})
	vis := v.(*visitor)
	vis.lastSeen.Store(now.UnixNano())
	return vis.limiter.AllowN(now, 1)
}

// Cleanup descarta visitantes inativos até ctx ser cancelado.
func (rl *RateLimiter) Cleanup(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict(idle)
		}
	}
}

func (rl *RateLimiter) evict(idle time.Duration) {
	cutoff := rl.now().Add(-idle).UnixNano()
	rl.visitors.Range(func(key, value any) bool {
		if value.(*visitor).lastSeen.Load() < cutoff {
			rl.visitors.Delete(key)
		}
		return true
	})
}
