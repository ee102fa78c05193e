package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

var secret = []byte("test-secret")

func signToken(t *testing.T, key []byte, method jwt.SigningMethod, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

// echoActor responds with the resolved actor name.
func echoActor(got *entity.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = entity.ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestIdentity_NoHeaderActsAsSystem(t *testing.T) {
	var actor entity.Actor
	rec := httptest.NewRecorder()

	Identity(secret)(echoActor(&actor)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, entity.SystemActorName, actor.Name)
	assert.Nil(t, actor.UserID)
}

func TestIdentity_ValidToken(t *testing.T) {
	var actor entity.Actor
	tok := signToken(t, secret, jwt.SigningMethodHS256, Claims{
		Name: "Dra. Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()

	Identity(secret)(echoActor(&actor)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Dra. Ana", actor.Name)
	require.NotNil(t, actor.UserID)
	assert.Equal(t, "user-7", *actor.UserID)
}

func TestIdentity_TokenWithoutNameFallsBackToSystem(t *testing.T) {
	var actor entity.Actor
	tok := signToken(t, secret, jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-7"}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	Identity(secret)(echoActor(&actor)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, entity.SystemActorName, actor.Name)
	assert.Equal(t, "user-7", *actor.UserID)
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	expired := signToken(t, secret, jwt.SigningMethodHS256, Claims{
		Name:             "Ana",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	})
	wrongKey := signToken(t, []byte("other"), jwt.SigningMethodHS256, Claims{Name: "Ana"})

	for name, header := range map[string]string{
		"expired":   "Bearer " + expired,
		"wrong key": "Bearer " + wrongKey,
		"garbage":   "Bearer abc.def.ghi",
		"scheme":    "Basic dXNlcjpwYXNz",
		"empty":     "Bearer ",
	} {
		t.Run(name, func(t *testing.T) {
			var actor entity.Actor
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()

			Identity(secret)(echoActor(&actor)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestParseToken_RequiresSecret(t *testing.T) {
	tok := signToken(t, secret, jwt.SigningMethodHS256, Claims{Name: "Ana"})

	_, err := ParseToken(nil, tok)

	assert.Error(t, err)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/admin/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/admin/leads/{id}", "418"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/leads/abc", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/admin/leads/{id}", "418"))

	assert.Equal(t, before+1, after)
}

func TestStageFailureCounter(t *testing.T) {
	counter := StageFailureCounter{}
	before := testutil.ToFloat64(sideEffectFailures.WithLabelValues("update_status", "history"))

	counter.StageFailed("update_status", "history")

	assert.Equal(t, before+1, testutil.ToFloat64(sideEffectFailures.WithLabelValues("update_status", "history")))
}
