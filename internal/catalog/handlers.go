package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-apotek/internal/common"
	"github.com/noah-isme/backend-apotek/internal/money"
)

// Handler exposes medication catalog endpoints.
type Handler struct {
	store    *Store
	currency string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Store    *Store
	Currency string
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{store: cfg.Store, currency: cfg.Currency}
}

type createMedicationRequest struct {
	Name                 string `json:"name" validate:"required"`
	Manufacturer         string `json:"manufacturer"`
	Description          string `json:"description"`
	RequiresPrescription bool   `json:"requiresPrescription"`
	UnitPrice            string `json:"unitPrice" validate:"required"`
}

// Create handles POST /api/v1/medications.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMedicationRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	price, err := money.NewFromString(req.UnitPrice, h.currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	med, err := h.store.Add(Medication{
		Name:                 req.Name,
		Manufacturer:         req.Manufacturer,
		Description:          req.Description,
		RequiresPrescription: req.RequiresPrescription,
		UnitPrice:            price,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": med})
}

// List handles GET /api/v1/medications with pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	window, total := common.Paginate(h.store.List(), page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       window,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Search handles GET /api/v1/medications/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results := h.store.Search(r.URL.Query().Get("q"))
	common.JSON(w, http.StatusOK, map[string]any{"data": results})
}

// Detail handles GET /api/v1/medications/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid medication id", nil)
		return
	}
	med, err := h.store.Get(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": med})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrInvalidMedication):
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidAmount, err.Error(), nil)
	default:
		common.WriteAppError(w, err)
	}
}
