package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eduhaag/GoMarketplace/internal/cart"
	"github.com/eduhaag/GoMarketplace/internal/domain"
	apperrors "github.com/eduhaag/GoMarketplace/pkg/errors"
	"github.com/eduhaag/GoMarketplace/pkg/httputil"
	"github.com/eduhaag/GoMarketplace/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. The store is taken
// from the request context, installed by CartScope.
type CartHandler struct {
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(logger *slog.Logger) *CartHandler {
	return &CartHandler{logger: logger}
}

// --- Request / response DTOs ---

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	ID       string  `json:"id" validate:"required,max=128"`
	Title    string  `json:"title" validate:"max=256"`
	ImageURL string  `json:"image_url" validate:"max=2048"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// CartResponse is the JSON representation of a cart snapshot.
type CartResponse struct {
	Version   uint64            `json:"version"`
	Products  domain.Collection `json:"products"`
	ItemCount int               `json:"item_count"`
}

func toResponse(snap cart.Snapshot) CartResponse {
	return CartResponse{
		Version:   snap.Version,
		Products:  snap.Products,
		ItemCount: snap.ItemCount(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	store, err := cart.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	snap, err := store.Products()
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, toResponse(snap))
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, err := cart.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	snap, err := store.AddToCart(r.Context(), domain.Product{
		ID:       req.ID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
		Price:    req.Price,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, toResponse(snap))
}

// Increment handles POST /api/v1/cart/items/{id}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, (*cart.Store).Increment)
}

// Decrement handles POST /api/v1/cart/items/{id}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, (*cart.Store).Decrement)
}

type adjustFunc func(s *cart.Store, ctx context.Context, id string) (cart.Snapshot, error)

// adjust applies fn to the {id} path parameter. An id that is not in the
// cart is not an error: the unchanged snapshot is returned.
func (h *CartHandler) adjust(w http.ResponseWriter, r *http.Request, fn adjustFunc) {
	store, err := cart.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("id is required"), h.logger)
		return
	}

	snap, err := fn(store, r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, toResponse(snap))
}
