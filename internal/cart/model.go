package cart

import (
	"time"

	"animeshop-be/internal/order"
	"animeshop-be/internal/product"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemInput is one requested line of a full cart replace.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// Item is a cart line with its product reference resolved.
type Item struct {
	order.LineItem
	Product *product.Product `json:"product"`
}

// View is the populated cart returned by GetCart. ID is nil until the user's
// first cart write.
type View struct {
	ID         *primitive.ObjectID `json:"_id,omitempty"`
	User       string              `json:"user,omitempty"`
	OrderItems []Item              `json:"orderItems"`
	TotalPrice float64             `json:"totalPrice"`
	Status     order.Status        `json:"status"`
	UpdatedAt  *time.Time          `json:"updatedAt,omitempty"`
}

func emptyView(userID string) *View {
	return &View{
		User:       userID,
		OrderItems: []Item{},
		TotalPrice: 0,
		Status:     order.StatusCart,
	}
}
