package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishWithoutRedisUpdatesLatest(t *testing.T) {
	h := NewHub(nil, zap.NewNop())
	assert.Empty(t, h.Latest())

	h.Publish(context.Background(), "04A1B2C3")
	assert.Equal(t, "04A1B2C3", h.Latest())

	h.Publish(context.Background(), "09FFEE01")
	assert.Equal(t, "09FFEE01", h.Latest())
}

func TestLatestUIDEndpoint(t *testing.T) {
	h := NewHub(nil, zap.NewNop())
	h.Publish(context.Background(), "04A1B2C3")
	e := NewServer(h)

	req := httptest.NewRequest(http.MethodGet, "/uid/latest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"uid":"04A1B2C3"}`, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	e := NewServer(NewHub(nil, zap.NewNop()))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
