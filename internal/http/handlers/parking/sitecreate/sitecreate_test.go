package sitecreate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
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

func (m *MockService) CreateSite(ctx context.Context, req models.DummySite) (*models.Site, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSiteCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	valid := models.DummySite{Name: "Centro", Address: "Calle 1", Capacity: 50, BaseRate: 4000}

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "created",
			body: `{"name":"Centro","address":"Calle 1","capacity":50,"base_rate":4000}`,
			setupMock: func(m *MockService) {
				m.On("CreateSite", mock.Anything, valid).Return(&models.Site{
					ID: "s-1", Name: "Centro", Address: "Calle 1", Capacity: 50, BaseRate: 4000,
				}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"id":"s-1"`,
		},
		{
			name:       "invalid json",
			body:       `{"name":`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:       "missing name",
			body:       `{"address":"Calle 1"}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Name is a required field",
		},
		{
			name:       "negative capacity",
			body:       `{"name":"Centro","address":"Calle 1","capacity":-1}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Capacity must be at least 0",
		},
		{
			name: "rejected by service",
			body: `{"name":"Centro","address":"Calle 1","capacity":50,"base_rate":4000}`,
			setupMock: func(m *MockService) {
				m.On("CreateSite", mock.Anything, valid).
					Return(nil, fmt.Errorf("parking.CreateSite: %w: name must not be blank", models.ErrValidation))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `"error":"could not create site: validation failed: name must not be blank"`,
		},
		{
			name: "storage failure",
			body: `{"name":"Centro","address":"Calle 1","capacity":50,"base_rate":4000}`,
			setupMock: func(m *MockService) {
				m.On("CreateSite", mock.Anything, valid).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"status":"Error","error":"could not create site"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/parking/sites", bytes.NewBufferString(tt.body))
			New(logger, svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
