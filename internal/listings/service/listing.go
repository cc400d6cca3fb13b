package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"pisos/internal/listings/availability"
	listingserrors "pisos/internal/listings/errors"
	"pisos/internal/listings/events"
	"pisos/internal/listings/locker"
	"pisos/internal/listings/repository"
	"pisos/internal/listings/validator"
	"pisos/pkg/config"
	"pisos/pkg/contracts"
	apperrors "pisos/pkg/errors"
	"pisos/pkg/model"
	"pisos/pkg/sanitizer"
)

const (
	InfoListingCreated     = "Listing created"
	InfoListingUpdated     = "Listing updated"
	InfoListingDeactivated = "Listing deactivated; it is no longer visible to visitors"
	InfoListingReactivated = "Listing reactivated"
)

// WriteResult is the outcome of an admin write plus the one-shot message shown
// to the admin.
type WriteResult struct {
	Listing *model.Listing
	Info    string
}

type SearchResult struct {
	Listings []*model.Listing
	MaxPrice float64
}

type ListingService interface {
	Search(ctx context.Context, query model.SearchQuery) ([]*model.Listing, error)
	List(ctx context.Context, query model.SearchQuery) (*SearchResult, error)
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	GetPublicByID(ctx context.Context, id string) (*model.Listing, error)
	Create(ctx context.Context, input *model.ListingInput) (*WriteResult, error)
	Update(ctx context.Context, id string, input *model.ListingInput) (*WriteResult, error)
	Deactivate(ctx context.Context, id string) (*WriteResult, error)
	Reactivate(ctx context.Context, id string) (*WriteResult, error)
	Reserve(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error)
}

type listingService struct {
	repo      repository.ListingRepository
	locker    locker.Locker
	validator *validator.ListingValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewListingService(
	repo repository.ListingRepository,
	locker locker.Locker,
	validator *validator.ListingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ListingService {
	return &listingService{
		repo:      repo,
		locker:    locker,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Search runs the structural filter in the store, drops listings that are booked
// during the requested range and applies the requested order.
func (s *listingService) Search(ctx context.Context, query model.SearchQuery) ([]*model.Listing, error) {
	if query.Range != nil && !query.Range.Valid() {
		return nil, apperrors.InvalidRange("Start date must be before end date")
	}

	listings, err := s.repo.Find(ctx, query.Filter)
	if err != nil {
		s.cfg.Log.Error("Failed to search listings", "city", query.Filter.City, "error", err)
		return nil, apperrors.PersistenceFailure("search listings", err)
	}

	listings = availability.FilterAvailable(listings, query.Range)
	availability.Sort(listings, query.Sort)

	s.cfg.Log.Debug("Listing search completed",
		"city", query.Filter.City,
		"has_range", query.Range != nil,
		"sort", query.Sort,
		"count", len(listings),
	)
	return listings, nil
}

// List backs the browse pages: the search results plus the upper bound for the
// price filter, fetched concurrently.
func (s *listingService) List(ctx context.Context, query model.SearchQuery) (*SearchResult, error) {
	if query.Range != nil && !query.Range.Valid() {
		return nil, apperrors.InvalidRange("Start date must be before end date")
	}

	var listings []*model.Listing
	var maxPrice float64
	var errSearch, errMax error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		listings, errSearch = s.Search(ctx, query)
	}()

	go func() {
		defer wg.Done()
		var err error
		maxPrice, err = s.repo.MaxPrice(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to compute max price", "error", err)
			errMax = apperrors.PersistenceFailure("compute max price", err)
		}
	}()

	wg.Wait()
	if errSearch != nil {
		return nil, errSearch
	}
	if errMax != nil {
		return nil, errMax
	}

	return &SearchResult{Listings: listings, MaxPrice: maxPrice}, nil
}

func (s *listingService) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id, "retrieve listing")
	}
	return listing, nil
}

// GetPublicByID hides deactivated listings from visitors.
func (s *listingService) GetPublicByID(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.IsActive {
		return nil, apperrors.NotFoundWithID("Listing", id)
	}
	return listing, nil
}

func (s *listingService) Create(ctx context.Context, input *model.ListingInput) (*WriteResult, error) {
	listing := &model.Listing{
		ListingAttributes: input.ListingAttributes,
		Reservations:      []model.Reservation{},
		IsActive:          true,
	}
	if input.IsActive != nil {
		listing.IsActive = *input.IsActive
	}

	sanitize(&listing.ListingAttributes)
	if err := s.validate(listing); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		s.cfg.Log.Error("Failed to create listing", "error", err)
		return nil, apperrors.PersistenceFailure("create listing", err)
	}

	s.cfg.Log.Info("Listing created successfully", "id", listing.ID, "city", listing.Location.City)
	s.publishListing(ctx, contracts.EventListingCreated, listing)
	return &WriteResult{Listing: listing, Info: InfoListingCreated}, nil
}

// Update replaces the editable attributes. Reservations, status and version are
// never taken from the input.
func (s *listingService) Update(ctx context.Context, id string, input *model.ListingInput) (*WriteResult, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := existing.Clone()
	merged.ListingAttributes = input.ListingAttributes
	sanitize(&merged.ListingAttributes)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, merged); err != nil {
		if errors.Is(err, listingserrors.ErrVersionConflict) {
			return nil, apperrors.Conflict("Listing was modified by another request, reload and try again")
		}
		return nil, s.mapStoreError(err, id, "update listing")
	}

	s.cfg.Log.Info("Listing updated successfully", "id", id, "version", merged.Version)
	s.publishListing(ctx, contracts.EventListingUpdated, merged)
	return &WriteResult{Listing: merged, Info: InfoListingUpdated}, nil
}

// Deactivate is the soft delete: the listing and its reservations stay stored.
func (s *listingService) Deactivate(ctx context.Context, id string) (*WriteResult, error) {
	listing, err := s.setActive(ctx, id, false)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Listing deactivated", "id", id)
	s.publishListing(ctx, contracts.EventListingDeactivated, listing)
	return &WriteResult{Listing: listing, Info: InfoListingDeactivated}, nil
}

func (s *listingService) Reactivate(ctx context.Context, id string) (*WriteResult, error) {
	listing, err := s.setActive(ctx, id, true)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Listing reactivated", "id", id)
	s.publishListing(ctx, contracts.EventListingUpdated, listing)
	return &WriteResult{Listing: listing, Info: InfoListingReactivated}, nil
}

func (s *listingService) setActive(ctx context.Context, id string, active bool) (*model.Listing, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	listing, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, s.mapStoreError(err, id, "update listing status")
	}
	return listing, nil
}

// Reserve admits a stay on one listing. Admissions on the same listing are
// serialized by the locker and the save is conditional on the version read, so
// a reservation is never written over data it did not check.
func (s *listingService) Reserve(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Listing ID cannot be empty")
	}

	normalized := *req
	normalized.Email = sanitizer.NormalizeEmail(req.Email)
	req = &normalized
	if err := s.validator.ValidateReservation(req); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "listing_id", id, "error", err)
		return nil, validationError("Reservation validation failed", err)
	}

	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return nil, s.mapLockError(err, id)
	}
	defer release()

	attempts := max(s.cfg.MaxAdmissionAttempts, 1)
	for attempt := 1; ; attempt++ {
		listing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, s.mapStoreError(err, id, "load listing")
		}
		if !listing.IsActive {
			return nil, apperrors.NotFoundWithID("Listing", id)
		}

		reservation, err := availability.Admit(listing, req.StartDate, req.EndDate, req.Email, s.now())
		if err != nil {
			return nil, admissionError(err)
		}

		err = s.repo.Save(ctx, listing)
		if err == nil {
			s.cfg.Log.Info("Reservation created",
				"listing_id", id,
				"start_date", reservation.StartDate,
				"end_date", reservation.EndDate,
				"attempt", attempt,
			)
			if pubErr := s.publisher.ReservationCreated(ctx, listing, reservation); pubErr != nil {
				s.cfg.Log.Error("Failed to publish reservation event", "listing_id", id, "error", pubErr)
			}
			return reservation, nil
		}

		if !errors.Is(err, listingserrors.ErrVersionConflict) {
			return nil, s.mapStoreError(err, id, "save reservation")
		}
		if attempt >= attempts {
			s.cfg.Log.Warn("Reservation abandoned after concurrent modifications", "listing_id", id, "attempts", attempt)
			return nil, apperrors.Conflict("Listing is being modified concurrently, please retry")
		}
		s.cfg.Log.Warn("Listing changed during admission, retrying", "listing_id", id, "attempt", attempt)
	}
}

// --- Helpers ---

func sanitize(attrs *model.ListingAttributes) {
	attrs.Title = sanitizer.TrimAndNormalize(attrs.Title)
	attrs.Description = sanitizer.TrimLines(attrs.Description)
	attrs.Rules = sanitizer.TrimLines(attrs.Rules)
	attrs.Location.Province = sanitizer.TrimAndNormalize(attrs.Location.Province)
	attrs.Location.City = sanitizer.NormalizeCity(attrs.Location.City)
	attrs.Location.MapLink = sanitizer.NormalizeURL(attrs.Location.MapLink)
	if gps := attrs.Location.GPS; gps != nil && gps.Lat == nil && gps.Lng == nil {
		attrs.Location.GPS = nil
	}

	photos := make([]model.Photo, 0, len(attrs.Photos))
	for _, p := range attrs.Photos {
		p.URL = sanitizer.NormalizeURL(p.URL)
		if p.URL == "" {
			continue
		}
		p.Description = sanitizer.TrimAndNormalize(p.Description)
		photos = append(photos, p)
	}
	attrs.Photos = photos
}

func (s *listingService) validate(listing *model.Listing) error {
	if err := s.validator.Validate(listing); err != nil {
		s.cfg.Log.Warn("Listing validation failed", "id", listing.ID, "error", err)
		return validationError("Listing validation failed", err)
	}
	return nil
}

func validationError(message string, err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func admissionError(err error) error {
	var conflict *availability.ConflictError
	switch {
	case errors.As(err, &conflict):
		return apperrors.DateConflict("The requested dates are not available", map[string]any{
			"conflictStart": conflict.Existing.Start,
			"conflictEnd":   conflict.Existing.End,
		})
	case errors.Is(err, listingserrors.ErrInvalidRange):
		return apperrors.InvalidRange("Start and end dates are required and start must be before end")
	default:
		return apperrors.Internal("Reservation admission failed", err)
	}
}

func (s *listingService) mapStoreError(err error, id, operation string) error {
	switch {
	case errors.Is(err, listingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Listing", id)
	case errors.Is(err, listingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid listing ID format")
	default:
		s.cfg.Log.Error("Listing store failure", "id", id, "operation", operation, "error", err)
		return apperrors.PersistenceFailure(operation, err)
	}
}

func (s *listingService) mapLockError(err error, id string) error {
	switch {
	case errors.Is(err, listingserrors.ErrLockHeld):
		s.cfg.Log.Warn("Listing lock wait exceeded", "listing_id", id)
		return apperrors.Conflict("Listing is busy with another reservation, please retry")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.Timeout("Timed out waiting for the listing")
	default:
		s.cfg.Log.Error("Failed to acquire listing lock", "listing_id", id, "error", err)
		return apperrors.PersistenceFailure("lock listing", err)
	}
}

func (s *listingService) publishListing(ctx context.Context, eventType string, listing *model.Listing) {
	if err := s.publisher.ListingChanged(ctx, eventType, listing); err != nil {
		s.cfg.Log.Error("Failed to publish listing event", "id", listing.ID, "event_type", eventType, "error", err)
	}
}
