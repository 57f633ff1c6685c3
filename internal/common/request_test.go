package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-apotek/internal/common"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count"`
}

func newJSONRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDecodeJSON(t *testing.T) {
	var payload samplePayload
	err := common.DecodeJSON(newJSONRequest(`{"name":"aspirin","count":2}`), &payload)
	require.NoError(t, err)
	require.Equal(t, "aspirin", payload.Name)
	require.Equal(t, 2, payload.Count)
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	var payload samplePayload
	err := common.DecodeJSON(newJSONRequest(""), &payload)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, common.CodeBadRequest, app.Code)
	require.Equal(t, http.StatusBadRequest, app.HTTPStatus)
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var payload samplePayload
	err := common.DecodeJSON(newJSONRequest(`{"name":"x","typo":true}`), &payload)
	require.Error(t, err)
}

func TestDecodeJSONValidates(t *testing.T) {
	var payload samplePayload
	err := common.DecodeJSON(newJSONRequest(`{"count":1}`), &payload)
	var app *common.AppError
	require.ErrorAs(t, err, &app)
	require.Equal(t, common.CodeBadRequest, app.Code)
	require.NotNil(t, app.Details)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	window, total := common.Paginate(items, 1, 2)
	require.Equal(t, []int{1, 2}, window)
	require.Equal(t, 5, total)

	window, _ = common.Paginate(items, 3, 2)
	require.Equal(t, []int{5}, window)

	window, _ = common.Paginate(items, 4, 2)
	require.Empty(t, window)

	window, total = common.Paginate(items, 1, 0)
	require.Equal(t, items, window)
	require.Equal(t, 5, total)
}

func TestParsePaginationCapsPerPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=500", nil)
	page, perPage := common.ParsePagination(req, 20, 100)
	require.Equal(t, 2, page)
	require.Equal(t, 100, perPage)

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil)
	page, perPage = common.ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)
}

func TestWriteAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteAppError(rec, common.NewAppError(common.CodeNotFound, "missing", http.StatusNotFound, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"NOT_FOUND"`)

	rec = httptest.NewRecorder()
	common.WriteAppError(rec, http.ErrBodyNotAllowed)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"INTERNAL"`)
}
