package product

import (
	"context"
	"errors"
	"sort"
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

type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Categories(ctx context.Context) ([]string, error)
	InsertMany(ctx context.Context, products []Product) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) Repository {
	return &repository{coll: database.Collection(db.ProductsCollection)}
}

func (r *repository) List(ctx context.Context) ([]Product, error) {
	timer := metrics.StartTimer()

	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Store("list products", timer.ObserveStore(db.ProductsCollection, "find", err))
	}

	products := make([]Product, 0)
	err = cur.All(ctx, &products)
	if err = timer.ObserveStore(db.ProductsCollection, "find", err); err != nil {
		return nil, apperr.Store("list products", err)
	}
	return products, nil
}

func (r *repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	timer := metrics.StartTimer()

	var p Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.ProductsCollection, "find_one", nil)
		return nil, ErrProductNotFound
	}
	if err = timer.ObserveStore(db.ProductsCollection, "find_one", err); err != nil {
		return nil, apperr.Store("get product", err)
	}
	return &p, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Product, error) {
	out := make(map[primitive.ObjectID]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	timer := metrics.StartTimer()
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Store("find products", timer.ObserveStore(db.ProductsCollection, "find_in", err))
	}

	var products []Product
	err = cur.All(ctx, &products)
	if err = timer.ObserveStore(db.ProductsCollection, "find_in", err); err != nil {
		return nil, apperr.Store("find products", err)
	}

	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, p *Product) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateProduct"),
	)

	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now

	timer := metrics.StartTimer()
	_, err := r.coll.InsertOne(ctx, p)
	if err = timer.ObserveStore(db.ProductsCollection, "insert_one", err); err != nil {
		log.Error("failed to insert product", zap.Error(err))
		return apperr.Store("create product", err)
	}

	log.Info("product created", zap.String("product_id", p.ID.Hex()))
	return nil
}

func (r *repository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*Product, error) {
	set["updatedAt"] = time.Now().UTC()

	timer := metrics.StartTimer()
	var p Product
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.ProductsCollection, "update", nil)
		return nil, ErrProductNotFound
	}
	if err = timer.ObserveStore(db.ProductsCollection, "update", err); err != nil {
		return nil, apperr.Store("update product", err)
	}
	return &p, nil
}

func (r *repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	timer := metrics.StartTimer()
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err = timer.ObserveStore(db.ProductsCollection, "delete_one", err); err != nil {
		return apperr.Store("delete product", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) Categories(ctx context.Context) ([]string, error) {
	timer := metrics.StartTimer()
	values, err := r.coll.Distinct(ctx, "category", bson.D{})
	if err = timer.ObserveStore(db.ProductsCollection, "distinct", err); err != nil {
		return nil, apperr.Store("list categories", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *repository) InsertMany(ctx context.Context, products []Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	docs := make([]interface{}, len(products))
	for i := range products {
		if products[i].ID.IsZero() {
			products[i].ID = primitive.NewObjectID()
		}
		products[i].CreatedAt, products[i].UpdatedAt = now, now
		docs[i] = products[i]
	}

	timer := metrics.StartTimer()
	res, err := r.coll.InsertMany(ctx, docs)
	if err = timer.ObserveStore(db.ProductsCollection, "insert_many", err); err != nil {
		return 0, apperr.Store("insert products", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, apperr.Store("clear products", err)
	}
	return res.DeletedCount, nil
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subcategory", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}
