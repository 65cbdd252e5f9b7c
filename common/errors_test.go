package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"klinika/content"
	"klinika/validation"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"field errors", validation.FieldErrors{"name": "is required"}, http.StatusBadRequest},
		{"conflict", validation.NewConflict("slug", "taken"), http.StatusBadRequest},
		{"not found wrapped", fmt.Errorf("get: %w", content.ErrNotFound), http.StatusNotFound},
		{"stale", content.ErrStale, http.StatusConflict},
		{"dispatch", fmt.Errorf("%w: smtp down", ErrDispatch), http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func respond(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)
	RespondError(c, err)
	return w
}

func TestRespondError_Envelope(t *testing.T) {
	w := respond(validation.FieldErrors{"email": "is invalid"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, "is invalid", body.Errors["email"])

	w = respond(validation.NewConflict("slug", "Slug %q is taken", "implanti"))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, `Slug "implanti" is taken`, body.Error)
	assert.Equal(t, body.Error, body.Errors["slug"])

	w = respond(errors.New("db exploded"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "exploded")
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", func(c *gin.Context) {
		if c.Query("admin") == "1" {
			MarkAdmin(c, 3)
		}
		c.Next()
	}, RequireAdmin, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c)})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open?admin=1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":3}`, w.Body.String())
}
