// Package address holds the structured address values shared by user profiles
// and order shipping details.
package address

import "strings"

const DefaultCountry = "Philippines"

// Address is the optional postal address on a user profile.
type Address struct {
	AddressLine1 string `bson:"addressLine1,omitempty" json:"addressLine1,omitempty"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city,omitempty" json:"city,omitempty"`
	State        string `bson:"state,omitempty" json:"state,omitempty"`
	Zip          string `bson:"zip,omitempty" json:"zip,omitempty"`
	Country      string `bson:"country,omitempty" json:"country,omitempty"`
	Telephone    string `bson:"telephone,omitempty" json:"telephone,omitempty"`
}

func (a Address) IsZero() bool {
	return a == Address{}
}

// Shipping is the delivery address stored on an order.
type Shipping struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// Normalize trims every field and fills the default country.
func (s Shipping) Normalize() Shipping {
	out := Shipping{
		Street:     strings.TrimSpace(s.Street),
		City:       strings.TrimSpace(s.City),
		State:      strings.TrimSpace(s.State),
		PostalCode: strings.TrimSpace(s.PostalCode),
		Country:    strings.TrimSpace(s.Country),
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// FromProfile maps a profile address onto a shipping address, used when an
// order is placed without explicit shipping details.
func FromProfile(a Address) Shipping {
	street := strings.TrimSpace(a.AddressLine1)
	if l2 := strings.TrimSpace(a.AddressLine2); l2 != "" {
		if street != "" {
			street += ", "
		}
		street += l2
	}
	return Shipping{
		Street:     street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.Zip,
		Country:    a.Country,
	}.Normalize()
}
