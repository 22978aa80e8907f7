package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"invoiceview/internal/handler"
	"invoiceview/mocks"
)

func healthRouter(client *mocks.MockExtractionClient) *gin.Engine {
	h := handler.NewHealthHandler(client, time.Second)
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func TestLiveness(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	healthRouter(new(mocks.MockExtractionClient)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestReadiness_ExtractionServiceUp(t *testing.T) {
	client := new(mocks.MockExtractionClient)
	client.On("Health", mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	healthRouter(client).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	client.AssertExpectations(t)
}

func TestReadiness_ExtractionServiceDown(t *testing.T) {
	client := new(mocks.MockExtractionClient)
	client.On("Health", mock.Anything).Return(errors.New("connection refused"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	healthRouter(client).ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not reachable")
}
