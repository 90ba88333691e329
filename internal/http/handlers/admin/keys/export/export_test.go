package export

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type AdminServiceMock struct {
	mock.Mock
}

func (m *AdminServiceMock) ExportKeysCSV(ctx context.Context, w io.Writer) (int, error) {
	args := m.Called(ctx, w)
	_, _ = io.WriteString(w, args.String(2))
	return args.Int(0), args.Error(1)
}

func TestKeysExportHandler(t *testing.T) {
	svc := new(AdminServiceMock)
	body := "\"docId\",\"key\"\n\"ABCD-EFGH-JKLM\",\"ABCD-EFGH-JKLM\""
	svc.On("ExportKeysCSV", mock.Anything, mock.Anything).Return(1, nil, body).Once()

	rec := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/keys/export", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "license_keys.csv")
	assert.Equal(t, body, rec.Body.String())
	svc.AssertExpectations(t)
}
