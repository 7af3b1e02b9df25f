package parkingmanager

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type pingerStub struct{}

func (pingerStub) PingContext(context.Context) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *jwt.MakerImpl) {
	t.Helper()
	maker := jwt.NewJWTMaker("test-secret", time.Hour)
	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), Services{
		Tokens: maker,
		DB:     pingerStub{},
	})
	return r, maker
}

func TestRegisterRoutes_PublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestRegisterRoutes_RoleGuards(t *testing.T) {
	router, maker := newTestRouter(t)

	token := func(role models.Role) string {
		tok, err := maker.GenerateToken("user-1", "user@example.com", string(role))
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name       string
		method     string
		path       string
		role       models.Role
		wantStatus int
	}{
		{"no token on parking", http.MethodGet, "/api/v1/parking/sites", "", http.StatusUnauthorized},
		{"client on parking", http.MethodPost, "/api/v1/parking/exits", models.RoleClient, http.StatusForbidden},
		{"operator on contracts", http.MethodGet, "/api/v1/clients/contracts", models.RoleOperator, http.StatusForbidden},
		{"operator on alerts", http.MethodGet, "/api/v1/clients/alerts", models.RoleOperator, http.StatusForbidden},
		{"parking admin on users", http.MethodGet, "/api/v1/users", models.RoleAdminParking, http.StatusForbidden},
		{"no token on users", http.MethodPatch, "/api/v1/users/1/role", "", http.StatusUnauthorized},
		{"no token on profile", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"no token on logout", http.MethodPost, "/api/v1/auth/logout", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.role != "" {
				req.Header.Set("Authorization", "Bearer "+token(tt.role))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRegisterRoutes_InvalidToken(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parking/sites", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
