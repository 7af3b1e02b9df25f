package userstatus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateStatus(ctx context.Context, id string, active bool) (*models.User, error) {
	args := m.Called(ctx, id, active)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

const userID = "5d8f7a2e-1c3b-4f6a-9e0d-7b2c4a6e8f10"

func newRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/"+userID+"/status", bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", userID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUserStatusHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("disable", func(t *testing.T) {
		svc := new(MockService)
		svc.On("UpdateStatus", mock.Anything, userID, false).Return(&models.User{ID: userID, IsActive: false}, nil)

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{"is_active":false}`))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"is_active":false`)
		svc.AssertExpectations(t)
	})

	t.Run("missing field", func(t *testing.T) {
		svc := new(MockService)

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{}`))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "field IsActive is a required field")
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := new(MockService)
		svc.On("UpdateStatus", mock.Anything, userID, true).Return(nil, fmt.Errorf("users.UpdateStatus: %w", models.ErrNotFound))

		w := httptest.NewRecorder()
		New(logger, svc).ServeHTTP(w, newRequest(`{"is_active":true}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
