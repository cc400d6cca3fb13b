package contracts

import "time"

// Event types carried in the event-type header.
const (
	EventListingCreated     = "listing.created"
	EventListingUpdated     = "listing.updated"
	EventListingDeactivated = "listing.deactivated"
	EventReservationCreated = "reservation.created"

	EventSchemaVersion = "1"
)

// ListingEvent is published on every change of a listing's attributes or status.
type ListingEvent struct {
	ListingID  string    `json:"listingId"`
	Title      string    `json:"title"`
	City       string    `json:"city"`
	Price      float64   `json:"price"`
	MaxGuests  int       `json:"maxGuests"`
	IsActive   bool      `json:"isActive"`
	Version    int64     `json:"version"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ReservationCreatedEvent is consumed by the notifier to confirm a stay to its requester.
type ReservationCreatedEvent struct {
	ListingID    string    `json:"listingId"`
	ListingTitle string    `json:"listingTitle"`
	City         string    `json:"city"`
	Email        string    `json:"email"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	CreatedAt    time.Time `json:"createdAt"`
}
