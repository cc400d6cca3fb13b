package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	listingserrors "pisos/internal/listings/errors"
	"pisos/pkg/config"
	"pisos/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Listings"
)

type ListingRepository interface {
	Find(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error)
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	Create(ctx context.Context, listing *model.Listing) error
	// Save replaces the stored listing if its version still matches and bumps
	// the version on success.
	Save(ctx context.Context, listing *model.Listing) error
	SetActive(ctx context.Context, id string, active bool) (*model.Listing, error)
	MaxPrice(ctx context.Context) (float64, error)
}

type mongoListingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoListingRepository(cfg *config.Config) ListingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoListingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout uses the shorter of the caller's remaining deadline and timeout.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoListingRepository) Find(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildListingFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := make([]*model.Listing, 0)
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

// buildListingFilter translates the structural criteria into a query document.
// Criteria combine with AND; an empty filter matches every active listing.
func buildListingFilter(filter model.ListingFilter) bson.M {
	query := bson.M{}

	if !filter.IncludeInactive {
		query["isActive"] = true
	}
	if filter.City != "" {
		query["location.city"] = primitive.Regex{
			Pattern: "^" + regexp.QuoteMeta(filter.City) + "$",
			Options: "i",
		}
	}
	if filter.MinGuests != nil {
		query["maxGuests"] = bson.M{"$gte": *filter.MinGuests}
	}

	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	return query
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	var listing model.Listing
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", listingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	return &listing, nil
}

func (r *mongoListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	listing.CreatedAt = now
	listing.UpdatedAt = now
	listing.Version = 1
	if listing.Reservations == nil {
		listing.Reservations = []model.Reservation{}
	}

	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		listing.ID = oid.Hex()
	}
	return nil
}

func (r *mongoListingRepository) Save(ctx context.Context, listing *model.Listing) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(listing.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, listing.ID)
	}

	doc := *listing
	doc.ID = "" // _id is immutable, the filter selects it
	doc.Version = listing.Version + 1
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if doc.Reservations == nil {
		doc.Reservations = []model.Reservation{}
	}

	result, err := r.collection.ReplaceOne(ctx, versionFilter(objectID, listing.Version), doc)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objectID})
		if err != nil {
			return fmt.Errorf("failed to check listing existence: %w", err)
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", listingserrors.ErrNotFound, listing.ID)
		}
		return fmt.Errorf("%w: %s", listingserrors.ErrVersionConflict, listing.ID)
	}

	listing.Version = doc.Version
	listing.UpdatedAt = doc.UpdatedAt
	listing.Reservations = doc.Reservations
	return nil
}

// versionFilter matches the listing only while it still carries version. Documents
// written before versioning have no field and count as version 0.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{
			"_id": id,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"_id": id, "version": version}
}

func (r *mongoListingRepository) SetActive(ctx context.Context, id string, active bool) (*model.Listing, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", listingserrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"isActive":  active,
			"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var listing model.Listing
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", listingserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update listing status: %w", err)
	}
	return &listing, nil
}

// MaxPrice returns the highest price among active listings, 0 when there are none.
func (r *mongoListingRepository) MaxPrice(ctx context.Context) (float64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "price", Value: -1}}).
		SetProjection(bson.M{"price": 1})

	var result struct {
		Price float64 `bson:"price"`
	}
	err := r.collection.FindOne(ctx, bson.M{"isActive": true}, opts).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to compute max price: %w", err)
	}
	return result.Price, nil
}
