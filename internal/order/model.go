package order

import (
	"math"
	"time"

	"animeshop-be/internal/address"
	"animeshop-be/internal/user"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusCart       Status = "cart"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

const DefaultPaymentMethod = "cash on delivery"

// rank orders the fulfilment states; cancelled and cart sit outside it.
var rank = map[Status]int{
	StatusPending:    1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

func (s Status) Valid() bool {
	switch s {
	case StatusCart, StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order in from may move to to. Fulfilment
// only moves forward, cancelled is reachable before delivery, and re-applying
// the current status is accepted.
func CanTransition(from, to Status) bool {
	if !to.Valid() || to == StatusCart || from == StatusCart {
		return false
	}
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return rank[to] > rank[from]
}

type LineItem struct {
	Product primitive.ObjectID `bson:"product" json:"product"`
	Name    string             `bson:"name" json:"name"`
	Image   string             `bson:"image" json:"image"`
	Price   float64            `bson:"price" json:"price"`
	Qty     int                `bson:"qty" json:"qty"`
}

type PaymentResult struct {
	ID           string `bson:"id,omitempty" json:"id,omitempty"`
	Status       string `bson:"status,omitempty" json:"status,omitempty"`
	UpdateTime   string `bson:"update_time,omitempty" json:"update_time,omitempty"`
	EmailAddress string `bson:"email_address,omitempty" json:"email_address,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	OrderItems      []LineItem         `bson:"orderItems" json:"orderItems"`
	ShippingAddress address.Shipping   `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentResult   *PaymentResult     `bson:"paymentResult,omitempty" json:"paymentResult,omitempty"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	IsPaid          bool               `bson:"isPaid" json:"isPaid"`
	PaidAt          *time.Time         `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	IsDelivered     bool               `bson:"isDelivered" json:"isDelivered"`
	DeliveredAt     *time.Time         `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	Status          Status             `bson:"status" json:"status"`
	Version         int64              `bson:"version" json:"version"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// OwnedOrder is an order with its owner's public fields resolved.
type OwnedOrder struct {
	Order
	User *user.Owner `json:"user"`
}

// TotalOf sums price times quantity, rounded to cents.
func TotalOf(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Qty)
	}
	return math.Round(total*100) / 100
}

// Recalculate refreshes TotalPrice from the current line items.
func (o *Order) Recalculate() {
	o.TotalPrice = TotalOf(o.OrderItems)
}

func (o *Order) OwnedBy(userID string) bool {
	return o.User.Hex() == userID
}

// PlaceInput is a checkout request. TotalPrice is what the client claims and
// is only compared against the recomputed total.
type PlaceInput struct {
	OrderItems      []LineItem
	ShippingAddress *address.Shipping
	PaymentMethod   string
	TotalPrice      *float64
}
