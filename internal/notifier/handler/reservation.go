package handler

import (
	"context"
	"fmt"
	"strings"

	"pisos/internal/notifier/email"
	"pisos/pkg/contracts"
	"pisos/pkg/kafka"
	"pisos/pkg/logger"
)

const dateLayout = "2006-01-02"

type ReservationHandler struct {
	sender email.Sender
	log    *logger.Logger
}

func NewReservationHandler(sender email.Sender, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		sender: sender,
		log:    log,
	}
}

// Handle turns a reservation.created event into a confirmation email. Payloads
// that cannot be decoded are permanent failures; delivery errors are retried.
func (h *ReservationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	if eventType := msg.GetEventType(); eventType != contracts.EventReservationCreated {
		h.log.Debug("Ignoring event", "event_type", eventType, "event_id", msg.GetEventID())
		return nil
	}

	var event contracts.ReservationCreatedEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("failed to decode reservation event", err)
	}
	if event.Email == "" || event.ListingID == "" {
		return kafka.NewPermanentError("reservation event is missing email or listing id", nil)
	}

	if err := h.sender.Send(ctx, confirmation(event)); err != nil {
		return kafka.NewTransientError("failed to send reservation confirmation", err)
	}

	h.log.Info("Reservation confirmation handled",
		"listing_id", event.ListingID,
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
	)
	return nil
}

func confirmation(event contracts.ReservationCreatedEvent) email.Message {
	title := event.ListingTitle
	if title == "" {
		title = "your stay"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Your reservation for %s", title)
	if event.City != "" {
		fmt.Fprintf(&body, " in %s", event.City)
	}
	fmt.Fprintf(&body, " is confirmed.\n\nCheck-in: %s\nCheck-out: %s\n",
		event.StartDate.Format(dateLayout),
		event.EndDate.Format(dateLayout),
	)

	return email.Message{
		To:      event.Email,
		Subject: "Reservation confirmed: " + title,
		Body:    body.String(),
	}
}
