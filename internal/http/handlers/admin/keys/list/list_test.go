package list

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

type AdminServiceMock struct {
	mock.Mock
}

func (m *AdminServiceMock) ListKeys(ctx context.Context, filter models.KeyFilter, query string) ([]models.LicenseKey, error) {
	args := m.Called(ctx, filter, query)
	if res := args.Get(0); res != nil {
		return res.([]models.LicenseKey), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AdminServiceMock) RefreshKeys(ctx context.Context) ([]models.LicenseKey, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]models.LicenseKey), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestKeysListHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys := []models.LicenseKey{{Key: "ABCD-EFGH-JKLM", Months: 12}}

	tests := []struct {
		name        string
		url         string
		setup       func(m *AdminServiceMock)
		wantStatus  int
		wantCount   float64
		wantError   string
		wantRefresh bool
	}{
		{
			name: "default filter",
			url:  "/admin/keys",
			setup: func(m *AdminServiceMock) {
				m.On("ListKeys", mock.Anything, models.KeyFilterAll, "").Return(keys, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name: "available with search after refresh",
			url:  "/admin/keys?filter=available&q=abcd&refresh=1",
			setup: func(m *AdminServiceMock) {
				m.On("RefreshKeys", mock.Anything).Return(keys, nil).Once()
				m.On("ListKeys", mock.Anything, models.KeyFilterAvailable, "abcd").Return(keys, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantCount:  1,
		},
		{
			name: "invalid filter",
			url:  "/admin/keys?filter=stolen",
			setup: func(m *AdminServiceMock) {
				m.On("ListKeys", mock.Anything, models.KeyFilter("stolen"), "").Return(nil, models.ErrInvalidFilter).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid key filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(AdminServiceMock)
			tt.setup(svc)

			rec := httptest.NewRecorder()
			New(log, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, resp["error"])
			} else {
				data := resp["data"].(map[string]any)
				assert.Equal(t, tt.wantCount, data["count"])
			}
			svc.AssertExpectations(t)
		})
	}
}
