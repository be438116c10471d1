package models

import "fmt"

// Category is the wire code of an offer category.
type Category int

const (
	CategoryRestaurant Category = 1
	CategoryRetail     Category = 2
	CategoryActivity   Category = 4
)

// Known reports whether c is one of the recognized categories.
func (c Category) Known() bool {
	switch c {
	case CategoryRestaurant, CategoryRetail, CategoryActivity:
		return true
	}
	return false
}

// String returns the display name used in presentation records.
func (c Category) String() string {
	switch c {
	case CategoryRestaurant:
		return "Restaurant"
	case CategoryRetail:
		return "Retail"
	case CategoryActivity:
		return "Activity"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Merchant is a location where an offer can be redeemed.
type Merchant struct {
	ID       int     `json:"id" yaml:"id"`
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	Distance float64 `json:"distance" yaml:"distance" validate:"gte=0"`
}

// Offer is a catalog entry as supplied by callers.
type Offer struct {
	ID           int                `json:"id" yaml:"id" validate:"gt=0"`
	Title        string             `json:"title" yaml:"title" validate:"required,max=200"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
	Category     Category           `json:"category" yaml:"category"`
	ValidTo      string             `json:"valid_to" yaml:"valid_to" validate:"required,datetime=2006-01-02"`
	Merchants    []Merchant         `json:"merchants" yaml:"merchants" validate:"required,min=1,dive"`
	GenderScores map[string]float64 `json:"gender_scores" yaml:"gender_scores" validate:"required,min=1"`
	AgeScores    map[string]float64 `json:"age_scores" yaml:"age_scores" validate:"required,min=1"`
}

// OfferView is the presentation shape of a selected offer. Which optional
// fields are set depends on the category.
type OfferView struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	ValidTo     *string `json:"valid_to,omitempty"`
	Category    string  `json:"category"`
}

// RecommendRequest is the request body for selecting offers from an inline list.
type RecommendRequest struct {
	Checkin  string  `json:"checkin" validate:"required"`
	AgeGroup string  `json:"age_group" validate:"required,max=64"`
	Gender   string  `json:"gender" validate:"required,max=64"`
	Offers   []Offer `json:"offers"`
}

// RecommendResponse is returned by both recommendation endpoints.
type RecommendResponse struct {
	Checkin  string      `json:"checkin"`
	AgeGroup string      `json:"age_group"`
	Gender   string      `json:"gender"`
	Offers   []OfferView `json:"offers"`
}

// ListOffersResponse wraps the stored catalog.
type ListOffersResponse struct {
	Offers []Offer `json:"offers"`
	Count  int     `json:"count"`
}

// ImportOffersResponse reports how many offers a catalog import stored.
type ImportOffersResponse struct {
	Imported int `json:"imported"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
