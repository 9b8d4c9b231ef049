package api

import (
	"net/http"

	"animeshop-be/internal/address"
	"animeshop-be/internal/apperr"
	"animeshop-be/internal/order"
	"animeshop-be/internal/transport"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errInvalidProductRef = apperr.Validation("Invalid product reference in order items")

type orderItemRequest struct {
	Product string  `json:"product" validate:"required"`
	Name    string  `json:"name"`
	Image   string  `json:"image"`
	Price   float64 `json:"price" validate:"gte=0"`
	Qty     int     `json:"qty" validate:"gte=1"`
}

type placeOrderRequest struct {
	OrderItems      []orderItemRequest `json:"orderItems" validate:"dive"`
	ShippingAddress *address.Shipping  `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	TotalPrice      *float64           `json:"totalPrice"`
}

type payerRequest struct {
	EmailAddress string `json:"email_address"`
}

type paymentResultRequest struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	UpdateTime string        `json:"update_time"`
	Payer      *payerRequest `json:"payer"`
}

type payRequest struct {
	PaymentResult *paymentResultRequest `json:"paymentResult"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	items := make([]order.LineItem, len(req.OrderItems))
	for i, it := range req.OrderItems {
		pid, err := primitive.ObjectIDFromHex(it.Product)
		if err != nil {
			transport.Error(w, r, errInvalidProductRef)
			return
		}
		items[i] = order.LineItem{Product: pid, Name: it.Name, Image: it.Image, Price: it.Price, Qty: it.Qty}
	}

	o, err := h.orders.Place(r.Context(), identity(r), order.PlaceInput{
		OrderItems:      items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		TotalPrice:      req.TotalPrice,
	})
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.Created(w, o)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMine(r.Context(), identity(r))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), identity(r), chi.URLParam(r, "id"))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, o)
}

func (h *Handler) payOrder(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if r.ContentLength != 0 {
		if err := h.decodeJSON(w, r, &req); err != nil {
			transport.Error(w, r, err)
			return
		}
	}

	var result *order.PaymentResult
	if pr := req.PaymentResult; pr != nil {
		result = &order.PaymentResult{ID: pr.ID, Status: pr.Status, UpdateTime: pr.UpdateTime}
		if pr.Payer != nil {
			result.EmailAddress = pr.Payer.EmailAddress
		}
	}

	o, err := h.orders.MarkPaid(r.Context(), identity(r), chi.URLParam(r, "id"), result)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, o)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), identity(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, o)
}

func (h *Handler) allOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context(), identity(r))
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, orders)
}
