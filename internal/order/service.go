package order

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"animeshop-be/internal/address"
	"animeshop-be/internal/apperr"
	"animeshop-be/internal/auth"
	"animeshop-be/internal/logger"
	"animeshop-be/internal/metrics"
	"animeshop-be/internal/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Owners resolves the users that own orders.
type Owners interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*user.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]user.User, error)
}

type Service interface {
	Place(ctx context.Context, caller auth.Identity, input PlaceInput) (*Order, error)
	Get(ctx context.Context, caller auth.Identity, id string) (*OwnedOrder, error)
	MarkPaid(ctx context.Context, caller auth.Identity, id string, result *PaymentResult) (*Order, error)
	UpdateStatus(ctx context.Context, caller auth.Identity, id string, status string) (*Order, error)
	ListMine(ctx context.Context, caller auth.Identity) ([]Order, error)
	ListAll(ctx context.Context, caller auth.Identity) ([]OwnedOrder, error)
}

type service struct {
	repo   Repository
	owners Owners
	now    func() time.Time
}

func NewService(repo Repository, owners Owners) Service {
	return &service{
		repo:   repo,
		owners: owners,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func parseOrderID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrOrderNotFound
	}
	return oid, nil
}

func (s *service) Place(ctx context.Context, caller auth.Identity, input PlaceInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.String("user_id", caller.ID),
	)

	userID, ok := caller.ObjectID()
	if !ok {
		return nil, ErrRegisteredOnly
	}
	if len(input.OrderItems) == 0 {
		return nil, ErrNoOrderItems
	}

	items := make([]LineItem, 0, len(input.OrderItems))
	for i, it := range input.OrderItems {
		if it.Product.IsZero() || it.Qty < 1 || it.Price < 0 || math.IsNaN(it.Price) {
			return nil, apperr.Withf(ErrInvalidLineItem, "Invalid order item at position %d", i+1)
		}
		it.Name = strings.TrimSpace(it.Name)
		items = append(items, it)
	}

	total := TotalOf(items)
	if input.TotalPrice != nil && math.Abs(*input.TotalPrice-total) >= 0.005 {
		log.Warn("client total differs from recomputed total",
			zap.Float64("client_total", *input.TotalPrice),
			zap.Float64("total", total),
		)
	}

	shipping := address.Shipping{}
	if input.ShippingAddress != nil {
		shipping = *input.ShippingAddress
	} else if u, err := s.owners.FindByID(ctx, userID); err == nil && u.Address != nil {
		shipping = address.FromProfile(*u.Address)
	}

	paymentMethod := strings.TrimSpace(input.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	o := &Order{
		User:            userID,
		OrderItems:      items,
		ShippingAddress: shipping.Normalize(),
		PaymentMethod:   paymentMethod,
		TotalPrice:      total,
		Status:          StatusPending,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	log.Info("order placed",
		zap.String("order_id", o.ID.Hex()),
		zap.Int("items", len(items)),
		zap.Float64("total", total),
	)
	return o, nil
}

func (s *service) Get(ctx context.Context, caller auth.Identity, id string) (*OwnedOrder, error) {
	o, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	owned, err := s.withOwners(ctx, []Order{*o})
	if err != nil {
		return nil, err
	}
	return &owned[0], nil
}

func (s *service) MarkPaid(ctx context.Context, caller auth.Identity, id string, result *PaymentResult) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaid"),
		zap.String("order_id", id),
	)

	o, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusCart {
		return nil, ErrCartNotPlaced
	}

	paid, err := s.repo.MarkPaid(ctx, o.ID, s.now(), result)
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return nil, err
	}

	log.Info("order marked paid")
	return paid, nil
}

func (s *service) UpdateStatus(ctx context.Context, caller auth.Identity, id string, status string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", id),
	)

	to := Status(strings.ToLower(strings.TrimSpace(status)))
	if to == "" {
		return nil, ErrStatusRequired
	}
	if !caller.IsAdmin {
		return nil, ErrNotAdmin
	}
	if !to.Valid() || to == StatusCart {
		return nil, apperr.Withf(ErrInvalidStatus, "Invalid status: %s", status)
	}

	oid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.Status, to) {
		log.Warn("rejected status transition",
			zap.String("from", string(current.Status)),
			zap.String("to", string(to)),
		)
		return nil, apperr.Withf(ErrIllegalTransition, "Cannot change status from %s to %s", current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, oid, current.Status, to, s.now())
	if err != nil {
		log.Warn("status update failed", zap.Error(err))
		return nil, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(to)).Inc()
	log.Info("order status updated",
		zap.String("from", string(current.Status)),
		zap.String("to", string(to)),
	)
	return updated, nil
}

func (s *service) ListMine(ctx context.Context, caller auth.Identity) ([]Order, error) {
	userID, ok := caller.ObjectID()
	if !ok {
		return []Order{}, nil
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ListAll(ctx context.Context, caller auth.Identity) ([]OwnedOrder, error) {
	if !caller.IsAdmin {
		return nil, ErrNotAdmin
	}

	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.withOwners(ctx, orders)
}

// load fetches an order the caller owns or, for admins, any order.
func (s *service) load(ctx context.Context, caller auth.Identity, id string) (*Order, error) {
	oid, err := parseOrderID(id)
	if err != nil {
		return nil, err
	}

	o, err := s.repo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !o.OwnedBy(caller.ID) {
		return nil, ErrNotAuthorized
	}
	return o, nil
}

func (s *service) withOwners(ctx context.Context, orders []Order) ([]OwnedOrder, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(orders))
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.User]; ok {
			continue
		}
		seen[o.User] = struct{}{}
		ids = append(ids, o.User)
	}

	users, err := s.owners.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]OwnedOrder, len(orders))
	for i, o := range orders {
		owner := user.Owner{ID: o.User}
		if u, ok := users[o.User]; ok {
			owner = u.Owner()
		}
		out[i] = OwnedOrder{Order: o, User: &owner}
	}
	return out, nil
}

// IsConflict reports whether err is a lost optimistic-concurrency race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrStatusConflict)
}
