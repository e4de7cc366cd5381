package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-livestock-backend/internal/services"
)

// envelopeRouter serves one route behind a fixed request id and a
// request-scoped logger writing into buf.
func envelopeRouter(buf *bytes.Buffer, method string, h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lg := zerolog.New(buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-env")
		c.Set("logger", &lg)
		c.Next()
	})
	r.Handle(method, "/x", h)
	return r
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er), w.Body.String())
	return er
}

func TestServiceError_Mapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		logsFail bool
	}{
		{
			name:    "duplicate registration",
			err:     services.ErrDuplicateActiveRecord,
			status:  http.StatusConflict,
			code:    ErrCodeConflict,
			message: services.ErrDuplicateActiveRecord.Error(),
		},
		{
			name:    "unknown catalog entry keeps its name",
			err:     &services.ReferenceError{Entity: "category", ID: uint(99)},
			status:  http.StatusUnprocessableEntity,
			code:    ErrCodeInvalidReference,
			message: "category 99: invalid reference",
		},
		{
			name:    "bad field",
			err:     &services.InputError{Field: "date", Reason: "must be YYYY-MM-DD"},
			status:  http.StatusBadRequest,
			code:    ErrCodeBadRequest,
			message: "date: must be YYYY-MM-DD",
		},
		{
			name:    "wrapped not found hides the cause",
			err:     fmt.Errorf("lookup A100: %w", services.ErrNotFound),
			status:  http.StatusNotFound,
			code:    ErrCodeNotFound,
			message: "animal not found",
		},
		{
			name:    "timeline conflict",
			err:     services.ErrInconsistentState,
			status:  http.StatusConflict,
			code:    ErrCodeInconsistentState,
			message: services.ErrInconsistentState.Error(),
		},
		{
			name:     "unexpected error is not leaked",
			err:      errors.New("pq: relation \"answers\" does not exist"),
			status:   http.StatusInternalServerError,
			code:     ErrCodeInternal,
			message:  "internal server error",
			logsFail: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := envelopeRouter(&buf, http.MethodPost, func(c *gin.Context) { serviceError(c, tc.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))

			assert.Equal(t, tc.status, w.Code)
			er := decodeEnvelope(t, w)
			assert.Equal(t, ErrorResponse{RequestID: "rid-env", Code: tc.code, Message: tc.message}, er)

			if tc.logsFail {
				assert.Contains(t, buf.String(), "service failure")
				assert.Contains(t, buf.String(), `relation \"answers\"`)
				assert.Contains(t, buf.String(), `"status":500`)
			} else {
				assert.Empty(t, buf.String(), "client errors are not logged here")
			}
		})
	}
}

func TestNotModified(t *testing.T) {
	const etag = `W/"yield-3-A100-2"`
	cases := []struct {
		name   string
		inm    string
		status int
		hit    bool
	}{
		{"no validator", "", http.StatusOK, false},
		{"stale validator", `W/"yield-3-A100-1"`, http.StatusOK, false},
		{"matching validator", etag, http.StatusNotModified, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hit bool
			r := envelopeRouter(&bytes.Buffer{}, http.MethodGet, func(c *gin.Context) {
				if hit = notModified(c, etag); hit {
					return
				}
				ok(c, http.StatusOK, gin.H{"rows": 2})
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.inm != "" {
				req.Header.Set("If-None-Match", tc.inm)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.hit, hit)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, etag, w.Header().Get("ETag"))
			if tc.hit {
				assert.Zero(t, w.Body.Len())
			} else {
				assert.JSONEq(t, `{"rows":2}`, w.Body.String())
			}
		})
	}
}

func TestFail_EnvelopeAndLogging(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf, http.MethodGet, func(c *gin.Context) {
		if c.Query("down") != "" {
			fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "database unavailable")
			return
		}
		Fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing user")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, ErrorResponse{RequestID: "rid-env", Code: ErrCodeUnauthorized, Message: "missing user"}, decodeEnvelope(t, w))
	assert.Empty(t, buf.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x?down=1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database unavailable", decodeEnvelope(t, w).Message)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"message":"api error"`)
}

func TestNoContent_EmptyBody(t *testing.T) {
	r := envelopeRouter(&bytes.Buffer{}, http.MethodDelete, noContent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}
