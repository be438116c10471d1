package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"checkin-offers-api/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testOffer(id int, category models.Category) models.Offer {
	return models.Offer{
		ID:          id,
		Title:       "Offer",
		Description: "Offer description",
		Category:    category,
		ValidTo:     "2023-06-01",
		Merchants: []models.Merchant{
			{ID: 1, Name: "Near", Distance: 0.5},
			{ID: 2, Name: "Far", Distance: 4},
		},
		GenderScores: map[string]float64{"male": 0.5, "female": 0.75},
		AgeScores:    map[string]float64{"teens": 0.25},
	}
}

func TestUpsertOffer_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	want := testOffer(7, models.CategoryActivity)
	if err := db.UpsertOffer(ctx, want); err != nil {
		t.Fatalf("Failed to upsert offer: %v", err)
	}

	got, err := db.GetOffer(ctx, 7)
	if err != nil {
		t.Fatalf("Failed to get offer: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestUpsertOffer_Updates(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	offer := testOffer(1, models.CategoryRetail)
	if err := db.UpsertOffer(ctx, offer); err != nil {
		t.Fatalf("Failed to upsert offer: %v", err)
	}

	offer.Title = "Renamed"
	offer.Category = models.CategoryRestaurant
	if err := db.UpsertOffer(ctx, offer); err != nil {
		t.Fatalf("Failed to update offer: %v", err)
	}

	got, err := db.GetOffer(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to get offer: %v", err)
	}
	if got.Title != "Renamed" || got.Category != models.CategoryRestaurant {
		t.Errorf("Expected updated offer, got %+v", got)
	}

	count, err := db.CountOffers(ctx)
	if err != nil {
		t.Fatalf("Failed to count offers: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 offer, got %d", count)
	}
}

func TestUpsertOffers_ListOrderedByID(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	offers := []models.Offer{
		testOffer(3, models.CategoryActivity),
		testOffer(1, models.CategoryRestaurant),
		testOffer(2, models.Category(3)),
	}
	n, err := db.UpsertOffers(ctx, offers)
	if err != nil {
		t.Fatalf("Failed to upsert offers: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 inserted, got %d", n)
	}

	list, err := db.ListOffers(ctx)
	if err != nil {
		t.Fatalf("Failed to list offers: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 offers, got %d", len(list))
	}
	for i, want := range []int{1, 2, 3} {
		if list[i].ID != want {
			t.Errorf("Expected offer %d at position %d, got %d", want, i, list[i].ID)
		}
	}
	if list[1].Category != models.Category(3) {
		t.Errorf("Expected unrecognized category to round-trip, got %v", list[1].Category)
	}
}

func TestListOffers_Empty(t *testing.T) {
	db := setupTestDB(t)

	list, err := db.ListOffers(context.Background())
	if err != nil {
		t.Fatalf("Failed to list offers: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", list)
	}
}

func TestGetOffer_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetOffer(context.Background(), 99)
	if !errors.Is(err, ErrOfferNotFound) {
		t.Errorf("Expected ErrOfferNotFound, got %v", err)
	}
}

func TestDeleteOffer(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertOffer(ctx, testOffer(5, models.CategoryRetail)); err != nil {
		t.Fatalf("Failed to upsert offer: %v", err)
	}
	if err := db.DeleteOffer(ctx, 5); err != nil {
		t.Fatalf("Failed to delete offer: %v", err)
	}
	if err := db.DeleteOffer(ctx, 5); !errors.Is(err, ErrOfferNotFound) {
		t.Errorf("Expected ErrOfferNotFound on second delete, got %v", err)
	}
}
