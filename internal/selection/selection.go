// Package selection picks the offers presented to a guest at check-in.
//
// The pipeline runs four stages, each returning a new slice:
//
//	FilterValid -> ScoreAndSort -> ReduceAndSort -> SelectBest
//
// Offers handed to the pipeline are never modified.
package selection

import (
	"fmt"
	"time"

	"checkin-offers-api/internal/models"
)

// Stage names reported to Hooks.
const (
	StageFilterValid   = "filter_valid"
	StageScoreAndSort  = "score_and_sort"
	StageReduceAndSort = "reduce_and_sort"
	StageSelectBest    = "select_best"
)

// Hooks observe the pipeline. Before is called as a stage starts; After gets
// the stage's input and output sizes and its error. Either may be nil.
type Hooks struct {
	Before func(stage string)
	After  func(stage string, in, out int, err error)
}

func (h Hooks) before(stage string) {
	if h.Before != nil {
		h.Before(stage)
	}
}

func (h Hooks) after(stage string, in, out int, err error) {
	if h.After != nil {
		h.After(stage, in, out, err)
	}
}

// MerchantOffers selects up to two offers of distinct categories for a guest
// checking in on checkin (YYYY-MM-DD).
func MerchantOffers(checkin string, offers []models.Offer, ageGroup, gender string) ([]models.OfferView, error) {
	checkinDate, err := ParseDate(checkin)
	if err != nil {
		return nil, fmt.Errorf("checkin: %w", err)
	}
	return Run(checkinDate, offers, ageGroup, gender, Hooks{})
}

// Run executes the four stages in order, stopping at the first error.
func Run(checkin time.Time, offers []models.Offer, ageGroup, gender string, hooks Hooks) ([]models.OfferView, error) {
	hooks.before(StageFilterValid)
	valid, err := FilterValid(checkin, offers)
	hooks.after(StageFilterValid, len(offers), len(valid), err)
	if err != nil {
		return nil, err
	}

	hooks.before(StageScoreAndSort)
	scored, err := ScoreAndSort(valid, ageGroup, gender)
	hooks.after(StageScoreAndSort, len(valid), len(scored), err)
	if err != nil {
		return nil, err
	}

	hooks.before(StageReduceAndSort)
	ranked, err := ReduceAndSort(scored)
	hooks.after(StageReduceAndSort, len(scored), len(ranked), err)
	if err != nil {
		return nil, err
	}

	hooks.before(StageSelectBest)
	selected, err := SelectBest(ranked)
	hooks.after(StageSelectBest, len(ranked), len(selected), err)
	if err != nil {
		return nil, err
	}
	return selected, nil
}
