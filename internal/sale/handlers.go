package sale

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-apotek/internal/catalog"
	"github.com/noah-isme/backend-apotek/internal/common"
	"github.com/noah-isme/backend-apotek/internal/money"
)

// Handler exposes sale lifecycle endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// saleView is the read model the presentation layer consumes; it never
// re-derives totals.
type saleView struct {
	ID             uuid.UUID   `json:"id"`
	Reference      string      `json:"reference"`
	Status         Status      `json:"status"`
	Currency       string      `json:"currency"`
	Items          []LineItem  `json:"items"`
	Subtotal       money.Money `json:"subtotal"`
	Discount       money.Money `json:"discount"`
	DiscountReason string      `json:"discountReason,omitempty"`
	TaxAmount      money.Money `json:"taxAmount"`
	Total          money.Money `json:"total"`
	RefundedToDate money.Money `json:"refundedToDate"`
	CancelReason   string      `json:"cancelReason,omitempty"`
}

func viewOf(s *Sale) saleView {
	snap := s.Snapshot()
	return saleView{
		ID:             snap.ID,
		Reference:      snap.Reference,
		Status:         snap.Status,
		Currency:       snap.Currency,
		Items:          snap.Items,
		Subtotal:       snap.Subtotal,
		Discount:       snap.Discount,
		DiscountReason: snap.DiscountReason,
		TaxAmount:      snap.TaxAmount,
		Total:          snap.Total,
		RefundedToDate: snap.RefundedToDate,
		CancelReason:   snap.CancelReason,
	}
}

// Create handles POST /api/v1/sales.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": viewOf(created)})
}

// List handles GET /api/v1/sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20, 100)
	sales := h.service.List(r.Context())
	views := make([]saleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, viewOf(s))
	}
	window, total := common.Paginate(views, page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       window,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Detail handles GET /api/v1/sales/{id}.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	found, err := h.service.Get(r.Context(), saleID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(found)})
}

// DetailByReference handles GET /api/v1/sales/reference/{ref}.
func (h *Handler) DetailByReference(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.GetByReference(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(found)})
}

type addItemRequest struct {
	ItemID   string `json:"itemId" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

// AddItem handles POST /api/v1/sales/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return
	}
	updated, err := h.service.AddItem(r.Context(), saleID, itemID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

// RemoveItem handles DELETE /api/v1/sales/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid item id", nil)
		return
	}
	removed, err := h.service.RemoveItem(r.Context(), saleID, itemID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"removed": removed}})
}

type discountRequest struct {
	Amount  *string `json:"amount"`
	Percent *string `json:"percent"`
	Reason  string  `json:"reason"`
}

// Discount handles POST /api/v1/sales/{id}/discount. Exactly one of amount or
// percent must be provided; the percentage form is sugar over the amount form.
func (h *Handler) Discount(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req discountRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if (req.Amount == nil) == (req.Percent == nil) {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "provide exactly one of amount or percent", nil)
		return
	}

	var updated *Sale
	var err error
	if req.Amount != nil {
		var amount money.Money
		amount, err = money.NewFromString(*req.Amount, h.service.Currency)
		if err == nil {
			updated, err = h.service.ApplyDiscountAmount(r.Context(), saleID, amount, req.Reason)
		}
	} else {
		var percent decimal.Decimal
		percent, err = decimal.NewFromString(*req.Percent)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid percent", nil)
			return
		}
		updated, err = h.service.ApplyDiscountPercent(r.Context(), saleID, percent, req.Reason)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

// Complete handles POST /api/v1/sales/{id}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// Refund handles POST /api/v1/sales/{id}/refund.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Refund)
}

type partialRefundRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// PartialRefund handles POST /api/v1/sales/{id}/partial-refund.
func (h *Handler) PartialRefund(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req partialRefundRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	amount, err := money.NewFromString(req.Amount, h.service.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	updated, err := h.service.PartialRefund(r.Context(), saleID, amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /api/v1/sales/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	updated, err := h.service.Cancel(r.Context(), saleID, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, saleID uuid.UUID) (*Sale, error)) {
	saleID, ok := h.saleID(w, r)
	if !ok {
		return
	}
	updated, err := op(r.Context(), saleID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewOf(updated)})
}

func (h *Handler) saleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	saleID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid sale id", nil)
		return uuid.Nil, false
	}
	return saleID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownSale), errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, err.Error(), nil)
	case errors.Is(err, ErrNotModifiable):
		common.JSONError(w, http.StatusConflict, common.CodeNotModifiable, err.Error(), nil)
	case errors.Is(err, ErrInvalidStateTransition):
		common.JSONError(w, http.StatusConflict, common.CodeInvalidStateTransition, err.Error(), nil)
	case errors.Is(err, ErrEmptySale):
		common.JSONError(w, http.StatusConflict, common.CodeEmptySale, err.Error(), nil)
	case errors.Is(err, ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidQuantity, err.Error(), nil)
	case errors.Is(err, ErrInvalidDiscount):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidDiscount, err.Error(), nil)
	case errors.Is(err, ErrInvalidRefund):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRefund, err.Error(), nil)
	case errors.Is(err, money.ErrCurrencyMismatch):
		common.JSONError(w, http.StatusBadRequest, common.CodeCurrencyMismatch, err.Error(), nil)
	case errors.Is(err, money.ErrInvalidAmount):
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidAmount, err.Error(), nil)
	default:
		common.WriteAppError(w, err)
	}
}
