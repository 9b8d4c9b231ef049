package order

import (
	"context"
	"errors"
	"time"

	"animeshop-be/internal/apperr"
	"animeshop-be/internal/db"
	"animeshop-be/internal/logger"
	"animeshop-be/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CartIndexName is the unique partial index that allows one cart per user.
const CartIndexName = "one_cart_per_user"

type Repository interface {
	FindCart(ctx context.Context, userID primitive.ObjectID) (*Order, error)
	UpsertCart(ctx context.Context, userID primitive.ObjectID, items []LineItem, total float64) (*Order, error)
	SaveCart(ctx context.Context, cart *Order) error

	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Order, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time, result *PaymentResult) (*Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to Status, at time.Time) (*Order, error)

	EnsureIndexes(ctx context.Context) error
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) Repository {
	return &repository{coll: database.Collection(db.OrdersCollection)}
}

func cartFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"user": userID, "status": StatusCart}
}

func (r *repository) FindCart(ctx context.Context, userID primitive.ObjectID) (*Order, error) {
	timer := metrics.StartTimer()

	var cart Order
	err := r.coll.FindOne(ctx, cartFilter(userID)).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.OrdersCollection, "find_cart", nil)
		return nil, ErrCartNotFound
	}
	if err = timer.ObserveStore(db.OrdersCollection, "find_cart", err); err != nil {
		return nil, apperr.Store("find cart", err)
	}
	return &cart, nil
}

// UpsertCart replaces the cart's line items in one document operation,
// creating the cart when the user has none. Two concurrent first writes race on
// the unique cart index; the loser retries once and lands on the winner's doc.
func (r *repository) UpsertCart(ctx context.Context, userID primitive.ObjectID, items []LineItem, total float64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpsertCart"),
		zap.String("user_id", userID.Hex()),
	)

	var (
		cart Order
		err  error
	)
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now().UTC()
		update := bson.M{
			"$set": bson.M{
				"orderItems": items,
				"totalPrice": total,
				"updatedAt":  now,
			},
			"$inc": bson.M{"version": 1},
			"$setOnInsert": bson.M{
				"shippingAddress": bson.M{"country": "Philippines"},
				"paymentMethod":   DefaultPaymentMethod,
				"isPaid":          false,
				"isDelivered":     false,
				"createdAt":       now,
			},
		}

		timer := metrics.StartTimer()
		err = r.coll.FindOneAndUpdate(ctx, cartFilter(userID), update,
			options.FindOneAndUpdate().
				SetUpsert(true).
				SetReturnDocument(options.After),
		).Decode(&cart)
		timer.ObserveStore(db.OrdersCollection, "upsert_cart", err)

		if !mongo.IsDuplicateKeyError(err) {
			break
		}
		log.Warn("concurrent cart creation, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		log.Error("failed to upsert cart", zap.Error(err))
		return nil, apperr.Store("upsert cart", err)
	}
	return &cart, nil
}

// SaveCart writes the cart's items only if nobody saved it since it was read.
func (r *repository) SaveCart(ctx context.Context, cart *Order) error {
	now := time.Now().UTC()

	timer := metrics.StartTimer()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": cart.ID, "status": StatusCart, "version": cart.Version},
		bson.M{
			"$set": bson.M{
				"orderItems": cart.OrderItems,
				"totalPrice": cart.TotalPrice,
				"updatedAt":  now,
			},
			"$inc": bson.M{"version": 1},
		},
	)
	if err = timer.ObserveStore(db.OrdersCollection, "save_cart", err); err != nil {
		return apperr.Store("save cart", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}

	cart.Version++
	cart.UpdatedAt = now
	return nil
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	o.CreatedAt, o.UpdatedAt = now, now

	timer := metrics.StartTimer()
	_, err := r.coll.InsertOne(ctx, o)
	if err = timer.ObserveStore(db.OrdersCollection, "insert_one", err); err != nil {
		return apperr.Store("create order", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Order, error) {
	timer := metrics.StartTimer()

	var o Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.OrdersCollection, "find_one", nil)
		return nil, ErrOrderNotFound
	}
	if err = timer.ObserveStore(db.OrdersCollection, "find_one", err); err != nil {
		return nil, apperr.Store("get order", err)
	}
	return &o, nil
}

func (r *repository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]Order, error) {
	return r.list(ctx, "list_by_user", bson.M{
		"user":   userID,
		"status": bson.M{"$ne": StatusCart},
	})
}

func (r *repository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, "list_all", bson.M{})
}

func (r *repository) list(ctx context.Context, op string, filter bson.M) ([]Order, error) {
	timer := metrics.StartTimer()

	cur, err := r.coll.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Store("list orders", timer.ObserveStore(db.OrdersCollection, op, err))
	}

	orders := make([]Order, 0)
	err = cur.All(ctx, &orders)
	if err = timer.ObserveStore(db.OrdersCollection, op, err); err != nil {
		return nil, apperr.Store("list orders", err)
	}
	return orders, nil
}

func (r *repository) MarkPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time, result *PaymentResult) (*Order, error) {
	set := bson.M{
		"isPaid":    true,
		"paidAt":    paidAt,
		"updatedAt": paidAt,
	}
	if result != nil {
		set["paymentResult"] = result
	}

	return r.findAndSet(ctx, "mark_paid",
		bson.M{"_id": id, "status": bson.M{"$ne": StatusCart}},
		set, ErrOrderNotFound)
}

// UpdateStatus moves the order from one status to another. It fails with
// ErrStatusConflict when the stored status is no longer from.
func (r *repository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to Status, at time.Time) (*Order, error) {
	set := bson.M{
		"status":    to,
		"updatedAt": at,
	}
	if to == StatusDelivered && from != StatusDelivered {
		set["isDelivered"] = true
		set["deliveredAt"] = at
	}

	return r.findAndSet(ctx, "update_status",
		bson.M{"_id": id, "status": from},
		set, ErrStatusConflict)
}

func (r *repository) findAndSet(ctx context.Context, op string, filter, set bson.M, notMatched error) (*Order, error) {
	timer := metrics.StartTimer()

	var o Order
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.OrdersCollection, op, nil)
		return nil, notMatched
	}
	if err = timer.ObserveStore(db.OrdersCollection, op, err); err != nil {
		return nil, apperr.Store(op, err)
	}
	return &o, nil
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}},
			Options: options.Index().
				SetName(CartIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": StatusCart}),
		},
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	return err
}
