package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/collab-engine/internal/errors"
)

type pingerMock struct {
	mock.Mock
}

func (m *pingerMock) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func TestReady(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		rec := httptest.NewRecorder()
		(&HealthHandler{}).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database up", func(t *testing.T) {
		db := new(pingerMock)
		db.On("PingContext", mock.Anything).Return(nil).Once()

		rec := httptest.NewRecorder()
		(&HealthHandler{DB: db}).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		db.AssertExpectations(t)
	})

	t.Run("database down", func(t *testing.T) {
		db := new(pingerMock)
		db.On("PingContext", mock.Anything).Return(errors.New("connection refused")).Once()

		rec := httptest.NewRecorder()
		(&HealthHandler{DB: db}).Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")
		db.AssertExpectations(t)
	})
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, appErrors.Internal("insert message", errors.New("pq: deadlock detected")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{"error": "internal", "message": "internal error"}, body)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"decision":"accepted","extra":1}`))
	var dst struct {
		Decision string `json:"decision"`
	}
	err := DecodeJSON(req, &dst)
	assert.Equal(t, appErrors.KindInvalidInput, appErrors.KindOf(err))
}
