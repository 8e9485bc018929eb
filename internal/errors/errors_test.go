package errors

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/logger"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	c.Set("logger", logger.New("test"))
	c.Set(middleware.RequestIDKey, "test-request-id")

	return c, w
}

func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	var response ErrorResponse
	err := json.Unmarshal(body.Bytes(), &response)
	require.NoError(t, err, "Failed to parse error response JSON")
	return response
}

func TestNotFound(t *testing.T) {
	c, w := setupTestContext()

	NotFound(c, "Report not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Equal(t, "Report not found", response.Error.Message)
	assert.Equal(t, "test-request-id", response.Error.RequestID)
	assert.Nil(t, response.Error.Details)
}

func TestBadRequest(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid upload", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrBadRequest, response.Error.Code)
		assert.Equal(t, "Invalid upload", response.Error.Message)
	})

	t.Run("with details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid upload", map[string]interface{}{"file": "not a CSV"})

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, "not a CSV", response.Error.Details["file"])
	})
}

func TestPayloadTooLarge(t *testing.T) {
	c, w := setupTestContext()

	PayloadTooLarge(c, "Upload exceeds 32 MB")

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrPayloadTooLarge, response.Error.Code)
}

func TestInternalServerError(t *testing.T) {
	c, w := setupTestContext()

	InternalServerError(c, "Failed to persist report", assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrInternalServer, response.Error.Code)
	// The underlying error must not leak to the client.
	assert.NotContains(t, response.Error.Message, assert.AnError.Error())
}

func TestWorksWithoutLoggerInContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	NotFound(c, "missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
