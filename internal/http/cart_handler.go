package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/logger"
)

const maxQuantity = 99

// CartStore defines the cart operations the handlers use.
type CartStore interface {
	Snapshot() domain.CartSnapshot
	AddItem(ctx context.Context, product domain.Product, quantity int) domain.CartSnapshot
	RemoveItem(ctx context.Context, productID int64) domain.CartSnapshot
	SetQuantity(ctx context.Context, productID int64, quantity int) domain.CartSnapshot
	Clear(ctx context.Context) domain.CartSnapshot
}

type CartHandler struct {
	cart     CartStore
	products catalog.Source
}

func NewCartHandler(cart CartStore, products catalog.Source) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  *int  `json:"quantity,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.cart.Snapshot())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.ProductID <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if quantity <= 0 || quantity > maxQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, ok := h.products.FindProduct(req.ProductID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	if !product.InStock {
		respondError(w, r, http.StatusConflict, "out_of_stock", "product is out of stock")
		return
	}

	snap := h.cart.AddItem(r.Context(), product, quantity)
	logger.FromContext(r.Context()).Debug("item added to cart",
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity),
		zap.Int("cart_count", snap.Count),
	)
	respondJSON(w, r, http.StatusCreated, snap)
}

// UpdateQuantity sets the quantity of a cart line. Zero removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r, "product_id")
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 || *req.Quantity > maxQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	respondJSON(w, r, http.StatusOK, h.cart.SetQuantity(r.Context(), productID, *req.Quantity))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r, "product_id")
	if !ok {
		return
	}

	respondJSON(w, r, http.StatusOK, h.cart.RemoveItem(r.Context(), productID))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.cart.Clear(r.Context()))
}
