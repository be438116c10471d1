package selection

import "checkin-offers-api/internal/models"

// policy holds everything that varies by category. Filtering and formatting
// both read from policies, so a category is either fully supported or dropped.
type policy struct {
	leadDays int
	project  func(models.Offer) models.OfferView
}

var policies = map[models.Category]policy{
	models.CategoryRestaurant: {
		leadDays: 3,
		project: func(o models.Offer) models.OfferView {
			return models.OfferView{
				ID:          o.ID,
				Title:       o.Title,
				Description: stringPtr(o.Description),
				Category:    models.CategoryRestaurant.String(),
			}
		},
	},
	models.CategoryRetail: {
		leadDays: 5,
		project: func(o models.Offer) models.OfferView {
			return models.OfferView{
				ID:       o.ID,
				Title:    o.Title,
				Category: models.CategoryRetail.String(),
			}
		},
	},
	models.CategoryActivity: {
		leadDays: 7,
		project: func(o models.Offer) models.OfferView {
			return models.OfferView{
				ID:          o.ID,
				Title:       o.Title,
				Description: stringPtr(o.Description),
				ValidTo:     stringPtr(o.ValidTo),
				Category:    models.CategoryActivity.String(),
			}
		},
	},
}

// LeadDays returns the number of days that must remain between check-in and
// expiry for an offer of category c. ok is false for unrecognized categories.
func LeadDays(c models.Category) (days int, ok bool) {
	p, ok := policies[c]
	return p.leadDays, ok
}

func stringPtr(s string) *string {
	return &s
}
