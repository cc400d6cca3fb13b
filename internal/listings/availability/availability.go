// Package availability decides which listings can host a stay and admits new
// reservations. It holds no state and never touches the store.
package availability

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	listingserrors "pisos/internal/listings/errors"
	"pisos/pkg/model"
)

// FilterAvailable keeps the listings with no reservation overlapping requested,
// in their original order. A nil range keeps everything.
func FilterAvailable(listings []*model.Listing, requested *model.DateRange) []*model.Listing {
	if requested == nil {
		return listings
	}

	available := make([]*model.Listing, 0, len(listings))
	for _, l := range listings {
		if l.IsAvailable(*requested) {
			available = append(available, l)
		}
	}
	return available
}

// Admit appends a reservation for [start, end] to listing if the range is valid
// and free. On error the listing is left untouched.
func Admit(listing *model.Listing, start, end *time.Time, email string, now time.Time) (*model.Reservation, error) {
	requested := model.NewDateRange(start, end)
	if requested == nil {
		return nil, fmt.Errorf("%w: start and end dates are required", listingserrors.ErrInvalidRange)
	}
	if !requested.Valid() {
		return nil, fmt.Errorf("%w: start date must be before end date", listingserrors.ErrInvalidRange)
	}

	if conflict := FirstConflict(listing, *requested); conflict != nil {
		return nil, &ConflictError{Existing: conflict.Range()}
	}

	reservation := model.Reservation{
		Email:     email,
		StartDate: requested.Start,
		EndDate:   requested.End,
		CreatedAt: now,
	}
	listing.Reservations = append(listing.Reservations, reservation)
	return &reservation, nil
}

// FirstConflict returns the earliest stored reservation overlapping requested.
func FirstConflict(listing *model.Listing, requested model.DateRange) *model.Reservation {
	for i := range listing.Reservations {
		if listing.Reservations[i].Range().Overlaps(requested) {
			return &listing.Reservations[i]
		}
	}
	return nil
}

// ConflictError carries the reservation that blocked an admission.
type ConflictError struct {
	Existing model.DateRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%s - %s)", listingserrors.ErrDateConflict,
		e.Existing.Start.Format(time.DateOnly), e.Existing.End.Format(time.DateOnly))
}

func (e *ConflictError) Unwrap() error {
	return listingserrors.ErrDateConflict
}

// Sort orders listings in place with a stable sort. Unknown keys keep the
// incoming order.
func Sort(listings []*model.Listing, key model.SortKey) {
	var compare func(a, b *model.Listing) int

	switch key {
	case model.SortPriceAsc:
		compare = func(a, b *model.Listing) int { return cmp.Compare(a.Price, b.Price) }
	case model.SortPriceDesc:
		compare = func(a, b *model.Listing) int { return cmp.Compare(b.Price, a.Price) }
	case model.SortAreaAsc:
		compare = func(a, b *model.Listing) int { return cmp.Compare(a.SquareMeters, b.SquareMeters) }
	case model.SortAreaDesc:
		compare = func(a, b *model.Listing) int { return cmp.Compare(b.SquareMeters, a.SquareMeters) }
	default:
		return
	}

	slices.SortStableFunc(listings, compare)
}
