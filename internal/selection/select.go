package selection

import (
	"fmt"

	"checkin-offers-api/internal/models"
)

// MaxSelected is the number of distinct categories returned.
const MaxSelected = 2

// Format projects offer into the presentation shape of its category.
func Format(offer models.Offer) (models.OfferView, error) {
	p, ok := policies[offer.Category]
	if !ok {
		return models.OfferView{}, fmt.Errorf("%w: offer %d reached formatting with %s",
			ErrInvariantViolation, offer.ID, offer.Category)
	}
	return p.project(offer), nil
}

// SelectBest walks offers in order and returns the first offer plus the first
// following offer of a different category.
func SelectBest(offers []RankedOffer) ([]models.OfferView, error) {
	selected := make([]models.OfferView, 0, MaxSelected)
	taken := make(map[models.Category]bool, MaxSelected)

	for _, ro := range offers {
		if taken[ro.Offer.Category] {
			continue
		}

		view, err := Format(ro.Offer)
		if err != nil {
			return nil, err
		}
		selected = append(selected, view)
		taken[ro.Offer.Category] = true

		if len(selected) == MaxSelected {
			break
		}
	}

	return selected, nil
}
