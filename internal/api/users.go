package api

import (
	"net/http"

	"animeshop-be/internal/address"
	"animeshop-be/internal/apperr"
	"animeshop-be/internal/transport"
	"animeshop-be/internal/user"
)

var errAccountRequired = apperr.Authorization("Not authorized, a registered account is required")

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

func (r registerRequest) input() user.RegisterInput {
	return user.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	FirstName string           `json:"firstName" validate:"required"`
	LastName  string           `json:"lastName" validate:"required"`
	Email     string           `json:"email" validate:"required,email"`
	Password  string           `json:"password" validate:"required,min=6"`
	Phone     string           `json:"phone"`
	Address   *address.Address `json:"address"`
	Role      string           `json:"role" validate:"omitempty,oneof=user admin"`
}

type profileRequest struct {
	FirstName *string          `json:"firstName"`
	LastName  *string          `json:"lastName"`
	Email     *string          `json:"email"`
	Password  *string          `json:"password"`
	Phone     *string          `json:"phone"`
	Address   *address.Address `json:"address"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	res, err := h.users.Register(r.Context(), req.input())
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.Created(w, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, res)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := identity(r).ObjectID()
	if !ok {
		transport.Error(w, r, errAccountRequired)
		return
	}

	u, err := h.users.GetProfile(r.Context(), uid)
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := identity(r).ObjectID()
	if !ok {
		transport.Error(w, r, errAccountRequired)
		return
	}

	var req profileRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	u, err := h.users.UpdateProfile(r.Context(), uid, user.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.OK(w, u)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		transport.Error(w, r, err)
		return
	}

	u, err := h.users.CreateByAdmin(r.Context(), user.CreateInput{
		RegisterInput: user.RegisterInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Password:  req.Password,
		},
		Phone:   req.Phone,
		Address: req.Address,
		Role:    user.Role(req.Role),
	})
	if err != nil {
		transport.Error(w, r, err)
		return
	}
	transport.Created(w, u)
}
