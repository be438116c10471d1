package selection

import (
	"fmt"
	"sort"

	"checkin-offers-api/internal/models"
)

// RankedOffer is a scored offer paired with its nearest merchant.
type RankedOffer struct {
	ScoredOffer
	Nearest models.Merchant
}

// NearestMerchant returns the first merchant with the smallest distance.
func NearestMerchant(offer models.Offer) (models.Merchant, error) {
	if len(offer.Merchants) == 0 {
		return models.Merchant{}, fmt.Errorf("%w: offer %d", ErrEmptyMerchantList, offer.ID)
	}

	nearest := offer.Merchants[0]
	for _, m := range offer.Merchants[1:] {
		if m.Distance < nearest.Distance {
			nearest = m
		}
	}
	return nearest, nil
}

// ReduceAndSort attaches the nearest merchant to every offer and orders them
// by ascending distance. Equal distances keep the score order from the
// previous stage.
func ReduceAndSort(offers []ScoredOffer) ([]RankedOffer, error) {
	ranked := make([]RankedOffer, 0, len(offers))

	for _, so := range offers {
		nearest, err := NearestMerchant(so.Offer)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedOffer{ScoredOffer: so, Nearest: nearest})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Nearest.Distance < ranked[j].Nearest.Distance
	})

	return ranked, nil
}
