package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"rumor-trust-system/internal/ratelimit"
	apperrors "rumor-trust-system/pkg/errors"
	"rumor-trust-system/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init("error", "text", "stderr"); err != nil {
		fmt.Println("failed to init logger:", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func TestWriteAppErrorMapsKindsStructurally(t *testing.T) {
	cases := []struct {
		kind   apperrors.Kind
		status int
	}{
		{apperrors.KindDuplicateVote, http.StatusConflict},
		{apperrors.KindClaimResolved, http.StatusConflict},
		{apperrors.KindNotFound, http.StatusNotFound},
		{apperrors.KindUnauthorized, http.StatusUnauthorized},
		{apperrors.KindValidation, http.StatusBadRequest},
		{apperrors.KindPersistenceConflict, http.StatusInternalServerError},
		{apperrors.KindInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		writeAppError(w, apperrors.New(tc.kind, "boom", nil))
		assert.Equal(t, tc.status, w.Code, "kind %s", tc.kind)
	}
}

func TestWriteAppErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	writeAppError(w, fmt.Errorf("dsn user:password@tcp failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(30, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := RateLimit(limiter, next)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
		r.Header.Set("X-Voter-ID", "voter-1")
		wrapped.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	r.Header.Set("X-Voter-ID", "voter-1")
	wrapped.ServeHTTP(w, r)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 其他投票人不受影响
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/claims", nil)
	r.Header.Set("X-Voter-ID", "voter-2")
	wrapped.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVoteHandlerRequiresIdentity(t *testing.T) {
	h := NewVoteHandler(nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/evidence/1/vote", nil)
	h.HandleVote(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoteHandlerRejectsBadPath(t *testing.T) {
	h := NewVoteHandler(nil)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/evidence/not-a-number/vote", nil)
	r.Header.Set("X-Voter-ID", "voter-1")
	h.HandleVote(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
