package product

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"animeshop-be/internal/cache"
	"animeshop-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	cacheKeyList       = "products:all"
	cacheKeyCategories = "products:categories"
	cacheKeyItemPrefix = "products:id:"
)

type Service interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

type service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration) Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &service{repo: repo, cache: c, ttl: ttl}
}

// ParseID converts a hex id; malformed ids cannot exist in the store and are
// reported as not found.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrProductNotFound
	}
	return oid, nil
}

func (s *service) List(ctx context.Context) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ListProducts"),
	)

	var cached []Product
	if ok, err := s.cache.Get(ctx, cacheKeyList, &cached); err != nil {
		log.Warn("product cache read failed", zap.Error(err))
	} else if ok {
		return cached, nil
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		log.Error("failed to list products", zap.Error(err))
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKeyList, products, s.ttl); err != nil {
		log.Warn("product cache write failed", zap.Error(err))
	}
	return products, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	key := cacheKeyItemPrefix + oid.Hex()
	var cached Product
	if ok, err := s.cache.Get(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}

	p, err := s.repo.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
		logger.FromCtx(ctx).Warn("product cache write failed", zap.Error(err))
	}
	return p, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateProduct"),
	)

	if err := validateCreate(input); err != nil {
		log.Warn("invalid create product input", zap.Error(err))
		return nil, err
	}

	p := &Product{
		Name:        strings.TrimSpace(input.Name),
		Subtitle:    input.Subtitle,
		Price:       input.Price,
		Image:       input.Image,
		Description: input.Description,
		Category:    input.Category,
		Subcategory: input.Subcategory,
		InStock:     true,
		Rating:      input.Rating,
		Sizes:       input.Sizes,
	}
	if input.InStock != nil {
		p.InStock = *input.InStock
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return p, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProduct"),
		zap.String("product_id", id),
	)

	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	set, err := updateSet(input)
	if err != nil {
		log.Warn("invalid update product input", zap.Error(err))
		return nil, err
	}

	p, err := s.repo.Update(ctx, oid, set)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, cacheKeyItemPrefix+oid.Hex())
	log.Info("product updated")
	return p, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, oid); err != nil {
		return err
	}

	s.invalidate(ctx, cacheKeyItemPrefix+oid.Hex())
	logger.FromCtx(ctx).Info("product deleted", zap.String("product_id", oid.Hex()))
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	var cached []string
	if ok, err := s.cache.Get(ctx, cacheKeyCategories, &cached); err == nil && ok {
		return cached, nil
	}

	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKeyCategories, categories, s.ttl); err != nil {
		logger.FromCtx(ctx).Warn("product cache write failed", zap.Error(err))
	}
	return categories, nil
}

func (s *service) invalidate(ctx context.Context, extra ...string) {
	keys := append([]string{cacheKeyList, cacheKeyCategories}, extra...)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromCtx(ctx).Warn("product cache invalidation failed", zap.Error(err))
	}
}

func validateCreate(in CreateInput) error {
	if strings.TrimSpace(in.Image) == "" {
		return ErrImageRequired
	}
	return ValidateDetails(in)
}

// ValidateDetails checks every create field except the image reference, so
// callers can reject a request before storing its upload.
func ValidateDetails(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if !validPrice(in.Price) {
		return ErrInvalidPrice
	}
	if in.Rating != nil && !finite(*in.Rating) {
		return ErrInvalidRating
	}
	if strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Category) == "" ||
		strings.TrimSpace(in.Subcategory) == "" {
		return ErrFieldRequired
	}
	return nil
}

// ValidateUpdate checks the provided fields without requiring any of them.
func ValidateUpdate(in UpdateInput) error {
	if _, err := updateSet(in); err != nil && !errors.Is(err, ErrNothingToUpdate) {
		return err
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validPrice(p float64) bool {
	return finite(p) && p >= 0
}

// updateSet builds the $set document for the provided fields. Required fields
// may change but not become empty.
func updateSet(in UpdateInput) (bson.M, error) {
	if in.IsEmpty() {
		return nil, ErrNothingToUpdate
	}

	set := bson.M{}
	requiredString := func(field string, v *string, errEmpty error) error {
		if v == nil {
			return nil
		}
		if strings.TrimSpace(*v) == "" {
			return errEmpty
		}
		set[field] = strings.TrimSpace(*v)
		return nil
	}

	if err := requiredString("name", in.Name, ErrNameRequired); err != nil {
		return nil, err
	}
	if err := requiredString("image", in.Image, ErrImageRequired); err != nil {
		return nil, err
	}
	if err := requiredString("description", in.Description, ErrFieldRequired); err != nil {
		return nil, err
	}
	if err := requiredString("category", in.Category, ErrFieldRequired); err != nil {
		return nil, err
	}
	if err := requiredString("subcategory", in.Subcategory, ErrFieldRequired); err != nil {
		return nil, err
	}

	if in.Subtitle != nil {
		set["subtitle"] = *in.Subtitle
	}
	if in.Price != nil {
		if !validPrice(*in.Price) {
			return nil, ErrInvalidPrice
		}
		set["price"] = *in.Price
	}
	if in.InStock != nil {
		set["inStock"] = *in.InStock
	}
	if in.Rating != nil {
		if !finite(*in.Rating) {
			return nil, ErrInvalidRating
		}
		set["rating"] = *in.Rating
	}
	if in.Sizes != nil {
		set["sizes"] = in.Sizes
	}
	return set, nil
}
