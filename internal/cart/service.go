package cart

import (
	"context"
	"errors"
	"strings"

	"animeshop-be/internal/apperr"
	"animeshop-be/internal/auth"
	"animeshop-be/internal/logger"
	"animeshop-be/internal/metrics"
	"animeshop-be/internal/order"
	"animeshop-be/internal/product"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds the reload-and-retry loop on version conflicts.
const maxSaveAttempts = 3

// Store is the cart half of the order repository.
type Store interface {
	FindCart(ctx context.Context, userID primitive.ObjectID) (*order.Order, error)
	UpsertCart(ctx context.Context, userID primitive.ObjectID, items []order.LineItem, total float64) (*order.Order, error)
	SaveCart(ctx context.Context, cart *order.Order) error
}

// Catalog looks products up in batches.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]product.Product, error)
}

type Service interface {
	UpsertItems(ctx context.Context, caller auth.Identity, items []ItemInput) (*order.Order, error)
	GetCart(ctx context.Context, caller auth.Identity) (*View, error)
	RemoveItem(ctx context.Context, caller auth.Identity, productID string) (*order.Order, error)
	UpdateQuantity(ctx context.Context, caller auth.Identity, productID string, quantity *int) (*order.Order, error)
}

type service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) Service {
	return &service{store: store, catalog: catalog}
}

// UpsertItems replaces the whole line-item list. Every product is resolved
// before anything is written, so a missing product leaves the stored cart as
// it was.
func (s *service) UpsertItems(ctx context.Context, caller auth.Identity, items []ItemInput) (cart *order.Order, err error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpsertCartItems"),
		zap.String("user_id", caller.ID),
	)
	defer func() { metrics.CartMutations.WithLabelValues("upsert", metrics.Outcome(err)).Inc() }()

	userID, ok := caller.ObjectID()
	if !ok {
		return nil, ErrRegisteredOnly
	}

	ids, qty, err := mergeItems(items)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		log.Error("failed to look up products", zap.Error(err))
		return nil, err
	}

	lines := make([]order.LineItem, 0, len(ids))
	for _, id := range ids {
		p, found := products[id]
		if !found {
			log.Warn("cart references missing product", zap.String("product_id", id.Hex()))
			return nil, apperr.Withf(product.ErrProductNotFound, "Product not found: %s", id.Hex())
		}
		lines = append(lines, order.LineItem{
			Product: p.ID,
			Name:    p.Name,
			Image:   p.Image,
			Price:   p.Price,
			Qty:     qty[id],
		})
	}

	cart, err = s.store.UpsertCart(ctx, userID, lines, order.TotalOf(lines))
	if err != nil {
		return nil, err
	}

	log.Info("cart replaced", zap.Int("items", len(lines)), zap.Float64("total", cart.TotalPrice))
	return cart, nil
}

func (s *service) GetCart(ctx context.Context, caller auth.Identity) (*View, error) {
	userID, ok := caller.ObjectID()
	if !ok {
		return emptyView(caller.ID), nil
	}

	cart, err := s.store.FindCart(ctx, userID)
	if errors.Is(err, order.ErrCartNotFound) {
		return emptyView(caller.ID), nil
	}
	if err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, len(cart.OrderItems))
	for i, it := range cart.OrderItems {
		ids[i] = it.Product
	}
	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &View{
		ID:         &cart.ID,
		User:       cart.User.Hex(),
		OrderItems: make([]Item, len(cart.OrderItems)),
		TotalPrice: cart.TotalPrice,
		Status:     cart.Status,
		UpdatedAt:  &cart.UpdatedAt,
	}
	for i, it := range cart.OrderItems {
		p, found := products[it.Product]
		if !found {
			// Product left the catalog; fall back to the line snapshot.
			p = product.Product{ID: it.Product, Name: it.Name, Image: it.Image, Price: it.Price}
		}
		view.OrderItems[i] = Item{LineItem: it, Product: &p}
	}
	return view, nil
}

// RemoveItem drops a product from the cart. Removing an absent product is a
// successful no-op.
func (s *service) RemoveItem(ctx context.Context, caller auth.Identity, productID string) (cart *order.Order, err error) {
	defer func() { metrics.CartMutations.WithLabelValues("remove", metrics.Outcome(err)).Inc() }()

	pid := lineProductID(productID)

	return s.mutate(ctx, caller, "RemoveCartItem", func(c *order.Order) error {
		kept := make([]order.LineItem, 0, len(c.OrderItems))
		for _, it := range c.OrderItems {
			if it.Product != pid {
				kept = append(kept, it)
			}
		}
		c.OrderItems = kept
		return nil
	})
}

func (s *service) UpdateQuantity(ctx context.Context, caller auth.Identity, productID string, quantity *int) (cart *order.Order, err error) {
	defer func() { metrics.CartMutations.WithLabelValues("update_quantity", metrics.Outcome(err)).Inc() }()

	if quantity == nil || *quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	pid := lineProductID(productID)

	return s.mutate(ctx, caller, "UpdateCartQuantity", func(c *order.Order) error {
		for i := range c.OrderItems {
			if c.OrderItems[i].Product == pid {
				c.OrderItems[i].Qty = *quantity
				return nil
			}
		}
		return ErrItemNotInCart
	})
}

// lineProductID parses a cart line reference. Malformed ids map to the nil id,
// which matches no line.
func lineProductID(productID string) primitive.ObjectID {
	pid, err := primitive.ObjectIDFromHex(strings.TrimSpace(productID))
	if err != nil {
		return primitive.NilObjectID
	}
	return pid
}

// mutate runs a read-modify-write on the caller's cart, reloading and retrying
// when another writer bumped the version in between.
func (s *service) mutate(ctx context.Context, caller auth.Identity, method string, apply func(*order.Order) error) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", method),
		zap.String("user_id", caller.ID),
	)

	userID, ok := caller.ObjectID()
	if !ok {
		return nil, ErrRegisteredOnly
	}

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		cart, err := s.store.FindCart(ctx, userID)
		if err != nil {
			return nil, err
		}

		if err := apply(cart); err != nil {
			return nil, err
		}
		cart.Recalculate()

		err = s.store.SaveCart(ctx, cart)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, order.ErrVersionConflict) {
			return nil, err
		}

		metrics.CartConflicts.Inc()
		log.Warn("cart version conflict", zap.Int("attempt", attempt))
	}

	return nil, ErrCartConflict
}

// mergeItems validates the request and folds repeated products into one line,
// keeping first-seen order.
func mergeItems(items []ItemInput) ([]primitive.ObjectID, map[primitive.ObjectID]int, error) {
	if len(items) == 0 {
		return nil, nil, ErrNoItems
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	qty := make(map[primitive.ObjectID]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, nil, ErrInvalidQuantity
		}
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(it.ProductID))
		if err != nil {
			return nil, nil, apperr.Withf(product.ErrProductNotFound, "Product not found: %s", it.ProductID)
		}
		if _, seen := qty[id]; !seen {
			ids = append(ids, id)
		}
		qty[id] += it.Quantity
	}
	return ids, qty, nil
}
