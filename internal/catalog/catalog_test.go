package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin-offers-api/internal/models"
)

const yamlCatalog = `
- id: 10
  title: Sunset Cruise
  description: Two for one
  category: 4
  valid_to: "2023-06-01"
  merchants:
    - id: 1
      name: Pier 9
      distance: 2.5
  gender_scores:
    male: 0.5
  age_scores:
    adults: 0.75
`

func TestLoadFile_JSON(t *testing.T) {
	offers, err := LoadFile(filepath.Join("..", "selection", "testdata", "offers.json"))
	require.NoError(t, err)
	require.Len(t, offers, 7)

	assert.Equal(t, 3, offers[2].ID)
	assert.Equal(t, models.CategoryActivity, offers[2].Category)
	assert.Equal(t, "2023-05-24", offers[2].ValidTo)
	assert.Len(t, offers[2].Merchants, 2)
	assert.InDelta(t, 0.8, offers[2].GenderScores["male"], 1e-9)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0o600))

	offers, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, offers, 1)

	o := offers[0]
	assert.Equal(t, 10, o.ID)
	assert.Equal(t, "Sunset Cruise", o.Title)
	assert.Equal(t, models.CategoryActivity, o.Category)
	assert.Equal(t, "2023-06-01", o.ValidTo)
	require.Len(t, o.Merchants, 1)
	assert.Equal(t, "Pier 9", o.Merchants[0].Name)
	assert.InDelta(t, 2.5, o.Merchants[0].Distance, 1e-9)
	assert.InDelta(t, 0.75, o.AgeScores["adults"], 1e-9)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	_, err := LoadFile("offers.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecode_EmptyYAML(t *testing.T) {
	offers, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, offers)
	assert.NotNil(t, offers)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode(strings.NewReader("{not json"), FormatJSON)
	assert.Error(t, err)
}
