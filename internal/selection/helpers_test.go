package selection

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"checkin-offers-api/internal/catalog"
	"checkin-offers-api/internal/models"
)

func loadSample(t *testing.T) []models.Offer {
	t.Helper()
	offers, err := catalog.LoadFile(filepath.Join("testdata", "offers.json"))
	require.NoError(t, err)
	return offers
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func makeOffer(id int, category models.Category, validTo string, distances ...float64) models.Offer {
	merchants := make([]models.Merchant, len(distances))
	for i, d := range distances {
		merchants[i] = models.Merchant{ID: id*10 + i, Distance: d}
	}
	return models.Offer{
		ID:           id,
		Title:        "Offer",
		Description:  "Description",
		Category:     category,
		ValidTo:      validTo,
		Merchants:    merchants,
		GenderScores: map[string]float64{"male": 1, "female": 1},
		AgeScores:    map[string]float64{"teens": 1, "seniors": 1},
	}
}

func ids(views []models.OfferView) []int {
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = v.ID
	}
	return out
}
