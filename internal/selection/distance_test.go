package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin-offers-api/internal/models"
)

func TestNearestMerchant(t *testing.T) {
	offer := makeOffer(1, models.CategoryRetail, "2030-01-01", 4.2, 0.7, 3.1)

	nearest, err := NearestMerchant(offer)
	require.NoError(t, err)
	assert.Equal(t, 11, nearest.ID)
	assert.InDelta(t, 0.7, nearest.Distance, 1e-9)
}

func TestNearestMerchant_TieKeepsFirst(t *testing.T) {
	offer := makeOffer(1, models.CategoryRetail, "2030-01-01", 2.0, 0.5, 0.5, 0.5)

	nearest, err := NearestMerchant(offer)
	require.NoError(t, err)
	assert.Equal(t, 11, nearest.ID)
}

func TestNearestMerchant_Empty(t *testing.T) {
	_, err := NearestMerchant(makeOffer(4, models.CategoryRetail, "2030-01-01"))
	assert.ErrorIs(t, err, ErrEmptyMerchantList)
}

func TestReduceAndSort_AscendingDistance(t *testing.T) {
	in := []ScoredOffer{
		{Offer: makeOffer(1, models.CategoryRetail, "2030-01-01", 5, 3), Score: 3},
		{Offer: makeOffer(2, models.CategoryRetail, "2030-01-01", 1), Score: 2},
		{Offer: makeOffer(3, models.CategoryRetail, "2030-01-01", 9, 2), Score: 1},
	}

	got, err := ReduceAndSort(in)
	require.NoError(t, err)

	var order []int
	for _, ro := range got {
		order = append(order, ro.Offer.ID)
	}
	assert.Equal(t, []int{2, 3, 1}, order)
	assert.InDelta(t, 3.0, got[2].Nearest.Distance, 1e-9)
}

func TestReduceAndSort_EqualDistanceKeepsScoreOrder(t *testing.T) {
	in := []ScoredOffer{
		{Offer: makeOffer(8, models.CategoryRetail, "2030-01-01", 1.0), Score: 9},
		{Offer: makeOffer(4, models.CategoryRetail, "2030-01-01", 0.5), Score: 5},
		{Offer: makeOffer(6, models.CategoryRetail, "2030-01-01", 1.0), Score: 4},
		{Offer: makeOffer(2, models.CategoryRetail, "2030-01-01", 1.0), Score: 1},
	}

	got, err := ReduceAndSort(in)
	require.NoError(t, err)

	var order []int
	for _, ro := range got {
		order = append(order, ro.Offer.ID)
	}
	assert.Equal(t, []int{4, 8, 6, 2}, order)
}

func TestReduceAndSort_KeepsMerchantList(t *testing.T) {
	in := []ScoredOffer{{Offer: makeOffer(1, models.CategoryRetail, "2030-01-01", 5, 3)}}

	got, err := ReduceAndSort(in)
	require.NoError(t, err)
	assert.Len(t, got[0].Offer.Merchants, 2)
	assert.Len(t, in[0].Offer.Merchants, 2)
}

func TestReduceAndSort_EmptyMerchants(t *testing.T) {
	in := []ScoredOffer{
		{Offer: makeOffer(1, models.CategoryRetail, "2030-01-01", 5)},
		{Offer: makeOffer(2, models.CategoryRetail, "2030-01-01")},
	}

	got, err := ReduceAndSort(in)
	assert.ErrorIs(t, err, ErrEmptyMerchantList)
	assert.Nil(t, got)
}
