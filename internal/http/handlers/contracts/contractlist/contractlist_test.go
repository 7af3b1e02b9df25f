package contractlist

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListContracts(ctx context.Context) ([]*models.Contract, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.Contract), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestContractListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "contracts with alerts",
			setupMock: func(m *MockService) {
				m.On("ListContracts", mock.Anything).Return([]*models.Contract{{
					ID: "c-1", Status: models.ContractExpiringSoon,
					Alerts: []models.ContractAlert{{ID: "a-1", AlertType: models.AlertExpiringSoon, Status: models.AlertPending}},
				}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"alert_type":"EXPIRING_SOON"`,
		},
		{
			name: "empty list is an array",
			setupMock: func(m *MockService) {
				m.On("ListContracts", mock.Anything).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"OK","data":[]}`,
		},
		{
			name: "storage failure",
			setupMock: func(m *MockService) {
				m.On("ListContracts", mock.Anything).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"Error","error":"could not list contracts"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			New(logger, svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients/contracts", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
