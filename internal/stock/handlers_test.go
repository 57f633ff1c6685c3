package stock_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-apotek/internal/stock"
)

type entryBody struct {
	Data struct {
		Entry stock.Entry `json:"entry"`
		Level stock.Level `json:"level"`
	} `json:"data"`
}

type listBody struct {
	Data []struct {
		Entry stock.Entry `json:"entry"`
		Level stock.Level `json:"level"`
	} `json:"data"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newStockRouter(t *testing.T) *chi.Mux {
	t.Helper()
	ledger, _, _ := newTestLedger(t)
	handler := stock.NewHandler(stock.HandlerConfig{Ledger: ledger})
	r := chi.NewRouter()
	r.Route("/api/v1/stock", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Post("/", handler.Track)
		r.Get("/low", handler.Low)
		r.Get("/{itemId}", handler.Detail)
		r.Post("/{itemId}/add", handler.Add)
		r.Post("/{itemId}/remove", handler.Remove)
		r.Put("/{itemId}/quantity", handler.SetQuantity)
		r.Put("/{itemId}/reorder", handler.UpdateReorder)
	})
	return r
}

func doStockRequest(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStockHandlersLifecycle(t *testing.T) {
	r := newStockRouter(t)
	itemID := uuid.New()

	rec := doStockRequest(t, r, http.MethodPost, "/api/v1/stock",
		fmt.Sprintf(`{"itemId":%q,"quantity":30,"location":"A1"}`, itemID))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created entryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, 30, created.Data.Entry.CurrentQuantity)
	require.Equal(t, stock.LevelNeedsReorder, created.Data.Level)

	rec = doStockRequest(t, r, http.MethodPost, "/api/v1/stock/"+itemID.String()+"/add", `{"quantity":100}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var restocked entryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &restocked))
	require.Equal(t, 130, restocked.Data.Entry.CurrentQuantity)
	require.Equal(t, stock.LevelAdequate, restocked.Data.Level)

	rec = doStockRequest(t, r, http.MethodPut, "/api/v1/stock/"+itemID.String()+"/reorder",
		`{"reorderLevel":150,"reorderQuantity":200}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doStockRequest(t, r, http.MethodGet, "/api/v1/stock/low", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var low listBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &low))
	require.Len(t, low.Data, 1)
}

func TestStockRemovalRejectedWithConflict(t *testing.T) {
	r := newStockRouter(t)
	itemID := uuid.New()

	rec := doStockRequest(t, r, http.MethodPost, "/api/v1/stock",
		fmt.Sprintf(`{"itemId":%q,"quantity":30}`, itemID))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doStockRequest(t, r, http.MethodPost, "/api/v1/stock/"+itemID.String()+"/remove", `{"quantity":40}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INSUFFICIENT_STOCK", body.Error.Code)
	require.Contains(t, body.Error.Message, "requested 40")
	require.Contains(t, body.Error.Message, "available 30")

	rec = doStockRequest(t, r, http.MethodGet, "/api/v1/stock/"+itemID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry entryBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	require.Equal(t, 30, entry.Data.Entry.CurrentQuantity)
}

func TestStockHandlerValidation(t *testing.T) {
	r := newStockRouter(t)

	t.Run("invalid item id", func(t *testing.T) {
		rec := doStockRequest(t, r, http.MethodGet, "/api/v1/stock/not-a-uuid", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown item", func(t *testing.T) {
		rec := doStockRequest(t, r, http.MethodPost, "/api/v1/stock/"+uuid.NewString()+"/add", `{"quantity":5}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "NOT_FOUND", body.Error.Code)
	})

	t.Run("negative initial quantity", func(t *testing.T) {
		rec := doStockRequest(t, r, http.MethodPost, "/api/v1/stock",
			fmt.Sprintf(`{"itemId":%q,"quantity":-1}`, uuid.New()))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid reorder settings", func(t *testing.T) {
		itemID := uuid.New()
		rec := doStockRequest(t, r, http.MethodPost, "/api/v1/stock",
			fmt.Sprintf(`{"itemId":%q,"quantity":10}`, itemID))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doStockRequest(t, r, http.MethodPut, "/api/v1/stock/"+itemID.String()+"/reorder",
			`{"reorderLevel":10,"reorderQuantity":0}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
