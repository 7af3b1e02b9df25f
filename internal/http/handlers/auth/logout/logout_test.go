package logout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Logout(ctx context.Context, userID string) (*models.Attendance, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.Attendance), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestLogoutHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	checkOut := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		userID     string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "closes attendance",
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Logout", mock.Anything, "u-1").Return(&models.Attendance{
					ID: "a-1", UserID: "u-1", CheckIn: checkOut.Add(-9 * time.Hour), CheckOut: &checkOut,
				}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"check_out":"2025-03-10T18:00:00Z"`,
		},
		{
			name:   "no open attendance",
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Logout", mock.Anything, "u-1").Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK"}`,
		},
		{
			name:       "missing user in context",
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"status":"Error","error":"user identification missing"}`,
		},
		{
			name:   "storage failure",
			userID: "u-1",
			setupMock: func(m *MockService) {
				m.On("Logout", mock.Anything, "u-1").Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"Error","error":"could not log out"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
