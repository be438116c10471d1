package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin-offers-api/internal/models"
)

func TestFilterValid_LeadTimeBoundaries(t *testing.T) {
	checkin := date(t, "2023-05-15")

	tests := []struct {
		name     string
		category models.Category
		validTo  string
		want     bool
	}{
		{"restaurant on boundary", models.CategoryRestaurant, "2023-05-18", true},
		{"restaurant one day short", models.CategoryRestaurant, "2023-05-17", false},
		{"retail on boundary", models.CategoryRetail, "2023-05-20", true},
		{"retail one day short", models.CategoryRetail, "2023-05-19", false},
		{"activity on boundary", models.CategoryActivity, "2023-05-22", true},
		{"activity one day short", models.CategoryActivity, "2023-05-21", false},
		{"activity well ahead", models.CategoryActivity, "2024-01-01", true},
		{"already expired", models.CategoryRestaurant, "2023-05-01", false},
		{"unrecognized category", models.Category(3), "2030-01-01", false},
		{"zero category", models.Category(0), "2030-01-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterValid(checkin, []models.Offer{makeOffer(1, tt.category, tt.validTo, 1)})
			require.NoError(t, err)
			if tt.want {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterValid_PreservesOrder(t *testing.T) {
	offers := []models.Offer{
		makeOffer(5, models.CategoryActivity, "2023-06-30", 1),
		makeOffer(2, models.CategoryRestaurant, "2023-05-01", 1),
		makeOffer(9, models.CategoryRetail, "2023-06-30", 1),
		makeOffer(1, models.CategoryRestaurant, "2023-06-30", 1),
	}

	got, err := FilterValid(date(t, "2023-05-15"), offers)
	require.NoError(t, err)

	var gotIDs []int
	for _, o := range got {
		gotIDs = append(gotIDs, o.ID)
	}
	assert.Equal(t, []int{5, 9, 1}, gotIDs)
}

func TestFilterValid_MalformedValidTo(t *testing.T) {
	offers := []models.Offer{
		makeOffer(1, models.CategoryRetail, "2023-06-30", 1),
		makeOffer(2, models.Category(8), "30/06/2023", 1),
	}

	got, err := FilterValid(date(t, "2023-05-15"), offers)
	assert.ErrorIs(t, err, ErrParse)
	assert.Nil(t, got)
}

func TestFilterValid_Empty(t *testing.T) {
	got, err := FilterValid(date(t, "2023-05-15"), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2023-05-15")
	assert.NoError(t, err)

	for _, bad := range []string{"", "2023-5-15", "2023-02-30", "2023-05-15T00:00:00Z", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.ErrorIs(t, err, ErrParse, bad)
	}
}

func TestLeadDays(t *testing.T) {
	days, ok := LeadDays(models.CategoryRestaurant)
	assert.True(t, ok)
	assert.Equal(t, 3, days)

	days, ok = LeadDays(models.CategoryRetail)
	assert.True(t, ok)
	assert.Equal(t, 5, days)

	days, ok = LeadDays(models.CategoryActivity)
	assert.True(t, ok)
	assert.Equal(t, 7, days)

	_, ok = LeadDays(models.Category(3))
	assert.False(t, ok)
}

// Every recognized category must have a policy and vice versa.
func TestPolicies_MatchKnownCategories(t *testing.T) {
	for c := models.Category(-1); c <= 8; c++ {
		_, hasPolicy := policies[c]
		assert.Equal(t, c.Known(), hasPolicy, c.String())
	}
}
