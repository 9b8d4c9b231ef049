package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"animeshop-be/internal/apperr"
	"animeshop-be/internal/db"
	"animeshop-be/internal/metrics"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error)
	EnsureIndexes(ctx context.Context) error
}

type repository struct {
	coll *mongo.Collection
}

func NewRepository(database *mongo.Database) Repository {
	return &repository{coll: database.Collection(db.UsersCollection)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, "find_by_email", bson.M{"email": normalizeEmail(email)})
}

func (r *repository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return r.findOne(ctx, "find_by_id", bson.M{"_id": id})
}

func (r *repository) findOne(ctx context.Context, op string, filter bson.M) (*User, error) {
	timer := metrics.StartTimer()

	var u User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		timer.ObserveStore(db.UsersCollection, op, nil)
		return nil, ErrUserNotFound
	}
	if err = timer.ObserveStore(db.UsersCollection, op, err); err != nil {
		return nil, apperr.Store("find user", err)
	}
	return &u, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]User, error) {
	out := make(map[primitive.ObjectID]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	timer := metrics.StartTimer()
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, apperr.Store("find users", timer.ObserveStore(db.UsersCollection, "find_in", err))
	}

	var users []User
	err = cur.All(ctx, &users)
	if err = timer.ObserveStore(db.UsersCollection, "find_in", err); err != nil {
		return nil, apperr.Store("find users", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *repository) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = normalizeEmail(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now

	timer := metrics.StartTimer()
	_, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		timer.ObserveStore(db.UsersCollection, "insert_one", nil)
		return ErrUserExists
	}
	if err = timer.ObserveStore(db.UsersCollection, "insert_one", err); err != nil {
		return apperr.Store("create user", err)
	}
	return nil
}

func (r *repository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*User, error) {
	if email, ok := set["email"].(string); ok {
		set["email"] = normalizeEmail(email)
	}
	set["updatedAt"] = time.Now().UTC()

	timer := metrics.StartTimer()
	var u User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		timer.ObserveStore(db.UsersCollection, "update", nil)
		return nil, ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		timer.ObserveStore(db.UsersCollection, "update", nil)
		return nil, ErrUserExists
	}
	if err = timer.ObserveStore(db.UsersCollection, "update", err); err != nil {
		return nil, apperr.Store("update user", err)
	}
	return &u, nil
}

func (r *repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	return err
}
