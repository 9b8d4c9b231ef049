package api

import (
	"net/http"

	"animeshop-be/internal/cart"
	"animeshop-be/internal/transport"

	"github.com/go-chi/chi/v5"
)

type cartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type upsertCartRequest struct {
	Items []cartItemRequest `json:"items" validate:"required,min=1,dive"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.GetCart(r.Context(), identity(r))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, view)
}

func (h *Handler) upsertCart(w http.ResponseWriter, r *http.Request) {
	var req upsertCartRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	items := make([]cart.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = cart.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	c, err := h.carts.UpsertItems(r.Context(), identity(r), items)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, c)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	c, err := h.carts.UpdateQuantity(r.Context(), identity(r), chi.URLParam(r, "productId"), req.Quantity)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, c)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveItem(r.Context(), identity(r), chi.URLParam(r, "productId"))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, c)
}
