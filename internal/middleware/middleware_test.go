package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/auth"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAuthenticate(t *testing.T) {
	jwtManager := auth.NewJWTManager("middleware-test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	var got auth.Session
	h := Authenticate(jwtManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.SessionFrom(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"tampered", "Bearer " + token + "x", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = auth.Session{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "u1", got.UserID)
			} else {
				assert.Empty(t, got.UserID)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	called := false
	h := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/groups", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/groups", nil))
	assert.True(t, called)
}

func TestLogging_RouteTemplate(t *testing.T) {
	m := metrics.New()
	router := mux.NewRouter()
	router.Use(Logging(quietLogger, m))
	router.HandleFunc("/api/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/groups/"+id, nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(),
		`settleup_http_requests_total{code="418",method="GET",route="/api/groups/{id}"} 2`)
}

func TestRPCStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, rpcStatus(nil))
	assert.Equal(t, http.StatusForbidden, rpcStatus(connect.NewError(connect.CodePermissionDenied, errors.New("denied"))))
	assert.Equal(t, http.StatusConflict, rpcStatus(connect.NewError(connect.CodeAlreadyExists, errors.New("exists"))))
	assert.Equal(t, http.StatusInternalServerError, rpcStatus(io.EOF))
}
