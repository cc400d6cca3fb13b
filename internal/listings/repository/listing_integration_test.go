//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	listingserrors "pisos/internal/listings/errors"
	"pisos/pkg/client"
	"pisos/pkg/config"
	"pisos/pkg/logger"
	"pisos/pkg/model"
)

const testDatabaseName = "pisos_integration"

// newTestRepository connects to MONGO_URI (or localhost) and starts from an
// empty Listings collection.
func newTestRepository(t *testing.T) ListingRepository {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = config.DefaultMongoURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	require.NoError(t, mongoClient.Ping(ctx, nil), "MongoDB must be reachable at %s", uri)

	coll := mongoClient.Database(testDatabaseName).Collection(CollectionName)
	require.NoError(t, coll.Drop(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = coll.Drop(ctx)
		_ = mongoClient.Disconnect(ctx)
	})

	return NewMongoListingRepository(&config.Config{
		MongoDatabaseName: testDatabaseName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: mongoClient},
	})
}

func newListing(city string, price float64, guests int, active bool) *model.Listing {
	return &model.Listing{
		ListingAttributes: model.ListingAttributes{
			Title:       "Listing in " + city,
			Description: "Bright and quiet",
			Price:       price,
			MaxGuests:   guests,
			Location:    model.Location{Province: city, City: city},
		},
		IsActive: active,
	}
}

func TestMongoListingRepository_CreateAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	madrid := newListing("Madrid", 90, 2, true)
	require.NoError(t, repo.Create(ctx, madrid))
	require.NotEmpty(t, madrid.ID)
	assert.Equal(t, int64(1), madrid.Version)

	require.NoError(t, repo.Create(ctx, newListing("Sevilla", 150, 4, true)))
	require.NoError(t, repo.Create(ctx, newListing("Madrid", 300, 6, false)))

	found, err := repo.FindByID(ctx, madrid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Madrid", found.Location.City)
	assert.NotNil(t, found.Reservations)

	byCity, err := repo.Find(ctx, model.ListingFilter{City: "madrid"})
	require.NoError(t, err)
	require.Len(t, byCity, 1, "inactive listings are excluded by default")
	assert.Equal(t, madrid.ID, byCity[0].ID)

	withInactive, err := repo.Find(ctx, model.ListingFilter{City: "MADRID", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, withInactive, 2)

	minGuests := 3
	roomy, err := repo.Find(ctx, model.ListingFilter{MinGuests: &minGuests})
	require.NoError(t, err)
	require.Len(t, roomy, 1)
	assert.Equal(t, "Sevilla", roomy[0].Location.City)

	maxPrice, err := repo.MaxPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150.0, maxPrice, "inactive listings do not raise the max price")
}

func TestMongoListingRepository_SaveVersionGuard(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	listing := newListing("Valencia", 80, 2, true)
	require.NoError(t, repo.Create(ctx, listing))

	first, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	stale, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)

	first.Reservations = append(first.Reservations, model.Reservation{
		Email:     "a@example.com",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	stale.Reservations = append(stale.Reservations, model.Reservation{
		Email:     "b@example.com",
		StartDate: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
	})
	err = repo.Save(ctx, stale)
	assert.True(t, errors.Is(err, listingserrors.ErrVersionConflict), "got %v", err)

	stored, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, stored.Reservations, 1)
	assert.Equal(t, "a@example.com", stored.Reservations[0].Email)
}

func TestMongoListingRepository_SetActive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	listing := newListing("Bilbao", 70, 2, true)
	require.NoError(t, repo.Create(ctx, listing))

	updated, err := repo.SetActive(ctx, listing.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, int64(2), updated.Version)

	_, err = repo.SetActive(ctx, "65f0c0ffee65f0c0ffee65f0", true)
	assert.True(t, errors.Is(err, listingserrors.ErrNotFound))

	_, err = repo.FindByID(ctx, "not-an-object-id")
	assert.True(t, errors.Is(err, listingserrors.ErrInvalidID))
}
