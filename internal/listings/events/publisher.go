package events

import (
	"context"
	"time"

	"pisos/pkg/contracts"
	"pisos/pkg/kafka"
	"pisos/pkg/middleware"
	"pisos/pkg/model"
)

const source = "listings"

// Publisher announces listing and reservation changes.
type Publisher interface {
	ListingChanged(ctx context.Context, eventType string, listing *model.Listing) error
	ReservationCreated(ctx context.Context, listing *model.Listing, reservation *model.Reservation) error
}

// MessagePublisher is the subset of kafka.Producer the events need.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	listings     MessagePublisher
	reservations MessagePublisher
}

func NewKafkaPublisher(listings, reservations MessagePublisher) Publisher {
	return &kafkaPublisher{
		listings:     listings,
		reservations: reservations,
	}
}

func (p *kafkaPublisher) ListingChanged(ctx context.Context, eventType string, listing *model.Listing) error {
	event := contracts.ListingEvent{
		ListingID:  listing.ID,
		Title:      listing.Title,
		City:       listing.Location.City,
		Price:      listing.Price,
		MaxGuests:  listing.MaxGuests,
		IsActive:   listing.IsActive,
		Version:    listing.Version,
		OccurredAt: time.Now().UTC(),
	}
	return p.publish(ctx, p.listings, eventType, listing.ID, event)
}

func (p *kafkaPublisher) ReservationCreated(ctx context.Context, listing *model.Listing, reservation *model.Reservation) error {
	event := contracts.ReservationCreatedEvent{
		ListingID:    listing.ID,
		ListingTitle: listing.Title,
		City:         listing.Location.City,
		Email:        reservation.Email,
		StartDate:    reservation.StartDate,
		EndDate:      reservation.EndDate,
		CreatedAt:    reservation.CreatedAt,
	}
	return p.publish(ctx, p.reservations, contracts.EventReservationCreated, listing.ID, event)
}

func (p *kafkaPublisher) publish(ctx context.Context, to MessagePublisher, eventType, key string, payload any) error {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSchemaVersion(contracts.EventSchemaVersion).
		WithSource(source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		Build()
	if err != nil {
		return err
	}
	return to.Publish(ctx, msg)
}

type noopPublisher struct{}

// NewNoopPublisher is used when KAFKA_ENABLED is false.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) ListingChanged(context.Context, string, *model.Listing) error { return nil }

func (noopPublisher) ReservationCreated(context.Context, *model.Listing, *model.Reservation) error {
	return nil
}
