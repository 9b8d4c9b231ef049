package user

import (
	"time"

	"animeshop-be/internal/address"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FirstName string             `bson:"firstName" json:"firstName"`
	LastName  string             `bson:"lastName" json:"lastName"`
	Email     string             `bson:"email" json:"email"`
	Password  string             `bson:"password" json:"-"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address   *address.Address   `bson:"address,omitempty" json:"address,omitempty"`
	Role      Role               `bson:"role" json:"role"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// AuthResult is returned by register and login.
type AuthResult struct {
	ID        primitive.ObjectID `json:"_id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
	Role      Role               `json:"role"`
	Token     string             `json:"token"`
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// CreateInput is an admin-created account; Role may elevate.
type CreateInput struct {
	RegisterInput
	Phone   string
	Address *address.Address
	Role    Role
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Password  *string
	Phone     *string
	Address   *address.Address
}

// Owner is the public projection attached to orders.
type Owner struct {
	ID        primitive.ObjectID `json:"_id"`
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Email     string             `json:"email"`
}

func (u User) Owner() Owner {
	return Owner{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}
