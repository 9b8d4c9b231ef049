// Package api is the REST surface: chi routes, request binding and handlers
// over the catalog, identity, cart and order services.
package api

import (
	"net/http"

	"animeshop-be/internal/auth"
	"animeshop-be/internal/cart"
	"animeshop-be/internal/middleware"
	"animeshop-be/internal/order"
	"animeshop-be/internal/product"
	"animeshop-be/internal/storage"
	"animeshop-be/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const defaultMaxUploadBytes = 10 << 20

type Deps struct {
	Products       product.Service
	Users          user.Service
	Carts          cart.Service
	Orders         order.Service
	Images         storage.Store
	Guard          *auth.Guard
	MaxUploadBytes int64
}

type Handler struct {
	products       product.Service
	users          user.Service
	carts          cart.Service
	orders         order.Service
	images         storage.Store
	guard          *auth.Guard
	maxUploadBytes int64
	validate       *validator.Validate
}

func NewHandler(d Deps) *Handler {
	maxUpload := d.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	return &Handler{
		products:       d.Products,
		users:          d.Users,
		carts:          d.Carts,
		orders:         d.Orders,
		images:         d.Images,
		guard:          d.Guard,
		maxUploadBytes: maxUpload,
		validate:       newValidator(),
	}
}

// Routes mounts every /api endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	protect := middleware.Authenticate(h.guard)
	admin := func(next http.Handler) http.Handler {
		return protect(middleware.RequireAdmin(next))
	}

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/categories", h.listCategories)
		r.Get("/{id}", h.getProduct)

		r.With(admin).Post("/", h.createProduct)
		r.With(admin).Put("/{id}", h.updateProduct)
		r.With(admin).Delete("/{id}", h.deleteProduct)
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(protect).Get("/profile", h.getProfile)
		r.With(protect).Put("/profile", h.updateProfile)
		r.With(admin).Post("/", h.createUser)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(protect)
		r.Get("/", h.getCart)
		r.Post("/", h.upsertCart)
		r.Put("/{productId}", h.updateCartItem)
		r.Delete("/{productId}", h.removeCartItem)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(protect)
		r.Post("/", h.placeOrder)
		r.Get("/myorders", h.myOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/pay", h.payOrder)

		r.With(middleware.RequireAdmin).Get("/", h.allOrders)
		// A missing status is reported before the admin check, so the
		// service enforces the gate on these two.
		r.Put("/{id}/status", h.updateOrderStatus)
		r.Put("/status/{id}", h.updateOrderStatus)
	})
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFrom(r.Context())
	return id
}
