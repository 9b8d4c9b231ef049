package product

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Subtitle    string             `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"image" json:"image"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Subcategory string             `bson:"subcategory" json:"subcategory"`
	InStock     bool               `bson:"inStock" json:"inStock"`
	Rating      *float64           `bson:"rating,omitempty" json:"rating,omitempty"`
	Sizes       []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CreateInput is a validated create request. Image is the stored reference
// of the uploaded file.
type CreateInput struct {
	Name        string
	Subtitle    string
	Price       float64
	Image       string
	Description string
	Category    string
	Subcategory string
	InStock     *bool
	Rating      *float64
	Sizes       []string
}

// UpdateInput carries only the fields the caller sent.
type UpdateInput struct {
	Name        *string
	Subtitle    *string
	Price       *float64
	Image       *string
	Description *string
	Category    *string
	Subcategory *string
	InStock     *bool
	Rating      *float64
	Sizes       []string
}

func (in UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.Subtitle == nil && in.Price == nil &&
		in.Image == nil && in.Description == nil && in.Category == nil &&
		in.Subcategory == nil && in.InStock == nil && in.Rating == nil &&
		in.Sizes == nil
}
