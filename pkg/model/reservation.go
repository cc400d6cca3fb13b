package model

import "time"

type Reservation struct {
	Email     string    `json:"email,omitempty" bson:"email"`
	StartDate time.Time `json:"startDate" bson:"startDate"`
	EndDate   time.Time `json:"endDate" bson:"endDate"`
	CreatedAt time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
}

func (r Reservation) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

// ReservationRequest is a booking attempt as received from a visitor. Dates stay
// optional here so a missing boundary can be reported as an invalid range.
type ReservationRequest struct {
	Email     string     `json:"email" validate:"required,max=254"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
}
