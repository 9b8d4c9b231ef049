package user

import (
	"context"
	"errors"
	"strings"

	"animeshop-be/internal/address"
	"animeshop-be/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string, isAdmin bool) (string, error)
}

type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	GetProfile(ctx context.Context, id primitive.ObjectID) (*User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, input UpdateProfileInput) (*User, error)
	CreateByAdmin(ctx context.Context, input CreateInput) (*User, error)
	EnsureAdmin(ctx context.Context, input RegisterInput) (*User, error)
}

type service struct {
	repo   Repository
	issuer TokenIssuer
}

func NewService(repo Repository, issuer TokenIssuer) Service {
	return &service{repo: repo, issuer: issuer}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Register"),
	)

	u, err := s.create(ctx, input, RoleUser, "", nil)
	if err != nil {
		log.Warn("register failed", zap.String("email", input.Email), zap.Error(err))
		return nil, err
	}

	res, err := s.authResult(u)
	if err != nil {
		log.Error("failed to issue token", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID.Hex()))
	return res, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		log.Info("login for unknown email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("password mismatch", zap.String("user_id", u.ID.Hex()))
		return nil, ErrInvalidCredentials
	}

	return s.authResult(u)
}

func (s *service) GetProfile(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id primitive.ObjectID, input UpdateProfileInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateProfile"),
		zap.String("user_id", id.Hex()),
	)

	set := bson.M{}
	setName := func(field string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			set[field] = strings.TrimSpace(*v)
		}
	}
	setName("firstName", input.FirstName)
	setName("lastName", input.LastName)
	setName("email", input.Email)

	if input.Phone != nil {
		set["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		set["address"] = *input.Address
	}

	// The hash only changes when a new plaintext password is supplied.
	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := HashPassword(*input.Password)
		if err != nil {
			log.Error("failed to hash password", zap.Error(err))
			return nil, err
		}
		set["password"] = hashed
	}

	if len(set) == 0 {
		return s.repo.FindByID(ctx, id)
	}

	u, err := s.repo.Update(ctx, id, set)
	if err != nil {
		log.Warn("profile update failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *service) CreateByAdmin(ctx context.Context, input CreateInput) (*User, error) {
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	u, err := s.create(ctx, input.RegisterInput, role, input.Phone, input.Address)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("user created by admin",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", string(role)),
	)
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account when its email is absent.
// An existing account is left as is.
func (s *service) EnsureAdmin(ctx context.Context, input RegisterInput) (*User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "EnsureAdmin"),
	)

	existing, err := s.repo.FindByEmail(ctx, input.Email)
	if err == nil {
		log.Debug("admin user already present", zap.String("user_id", existing.ID.Hex()))
		return existing, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u, err := s.create(ctx, input, RoleAdmin, "", nil)
	if errors.Is(err, ErrUserExists) {
		return s.repo.FindByEmail(ctx, input.Email)
	}
	if err != nil {
		return nil, err
	}

	log.Info("admin user created", zap.String("user_id", u.ID.Hex()))
	return u, nil
}

func (s *service) create(ctx context.Context, in RegisterInput, role Role, phone string, addr *address.Address) (*User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)

	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  hashed,
		Phone:     phone,
		Address:   addr,
		Role:      role,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) authResult(u *User) (*AuthResult, error) {
	token, err := s.issuer.Issue(u.ID.Hex(), u.IsAdmin())
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		Token:     token,
	}, nil
}
