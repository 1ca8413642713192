package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/videokb-backend/internal/app/service"
	"github.com/ikkim/videokb-backend/internal/validation"
	"github.com/ikkim/videokb-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &validation.Error{Fields: map[string]string{"rating.min": "must be less than or equal to 5"}}, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"invalid filter", fmt.Errorf("%w: unknown field", service.ErrInvalidFilter), http.StatusBadRequest, "SEARCH_INVALID_FILTER"},
		{"pagination", service.ErrInvalidPagination, http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"weight", service.ErrInvalidWeight, http.StatusBadRequest, "TAG_INVALID_WEIGHT"},
		{"wrapped video input", fmt.Errorf("%w: title", service.ErrInvalidVideo), http.StatusBadRequest, "VALIDATION_INVALID_INPUT"},
		{"tag not found", service.ErrTagNotFound, http.StatusNotFound, "TAG_NOT_FOUND"},
		{"video not found", service.ErrVideoNotFound, http.StatusNotFound, "VIDEO_NOT_FOUND"},
		{"name exists", service.ErrTagNameExists, http.StatusConflict, "TAG_NAME_EXISTS"},
		{"parse failed", service.ErrQueryParseFailed, http.StatusUnprocessableEntity, "SEARCH_QUERY_UNPARSABLE"},
		{"storage", errors.New("database is locked"), http.StatusInternalServerError, "INTERNAL_DATABASE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, logger.Get(), tt.err, "test", nil)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
			assert.NotContains(t, body["message"], "database is locked")
		})
	}
}

func TestParseIDList(t *testing.T) {
	ids, err := parseIDList("1, 2,,3")
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)

	ids, err = parseIDList("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDList("1,abc")
	assert.Error(t, err)

	_, err = parseIDList("0")
	assert.Error(t, err)
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/items/:id", func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	for path, status := range map[string]int{
		"/items/12":  http.StatusOK,
		"/items/0":   http.StatusBadRequest,
		"/items/abc": http.StatusBadRequest,
		"/items/-1":  http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
	}
}
