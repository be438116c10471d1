package selection

import (
	"fmt"
	"sort"

	"checkin-offers-api/internal/models"
)

// Fixed affinity weights.
const (
	GenderWeight = 1.5
	AgeWeight    = 1.25
)

// ScoredOffer is an offer with its combined demographic score.
type ScoredOffer struct {
	Offer models.Offer
	Score float64
}

// Score returns the combined affinity of offer for the given demographic.
func Score(offer models.Offer, ageGroup, gender string) (float64, error) {
	genderScore, ok := offer.GenderScores[gender]
	if !ok {
		return 0, fmt.Errorf("%w: offer %d has no gender score for %q", ErrKeyLookup, offer.ID, gender)
	}
	ageScore, ok := offer.AgeScores[ageGroup]
	if !ok {
		return 0, fmt.Errorf("%w: offer %d has no age score for %q", ErrKeyLookup, offer.ID, ageGroup)
	}
	return genderScore*GenderWeight + ageScore*AgeWeight, nil
}

// ScoreAndSort scores every offer and orders them by descending score.
// Offers with equal scores keep their input order.
func ScoreAndSort(offers []models.Offer, ageGroup, gender string) ([]ScoredOffer, error) {
	scored := make([]ScoredOffer, 0, len(offers))

	for _, offer := range offers {
		score, err := Score(offer, ageGroup, gender)
		if err != nil {
			return nil, err
		}
		scored = append(scored, ScoredOffer{Offer: offer, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored, nil
}
