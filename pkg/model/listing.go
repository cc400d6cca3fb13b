package model

import "time"

const MaxPhotos = 4

type Services struct {
	Wifi            bool `json:"wifi" bson:"wifi"`
	Parking         bool `json:"parking" bson:"parking"`
	Disability      bool `json:"disability" bson:"disability"`
	AirConditioning bool `json:"airConditioning" bson:"airConditioning"`
	Heating         bool `json:"heating" bson:"heating"`
	TV              bool `json:"tv" bson:"tv"`
	Kitchen         bool `json:"kitchen" bson:"kitchen"`
	Internet        bool `json:"internet" bson:"internet"`
}

// Coordinates are optional, but lat and lng always travel together.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty" bson:"lat,omitempty" validate:"omitempty,latitude"`
	Lng *float64 `json:"lng,omitempty" bson:"lng,omitempty" validate:"omitempty,longitude"`
}

type Location struct {
	Province string       `json:"province" bson:"province" validate:"required,max=100"`
	City     string       `json:"city" bson:"city" validate:"required,max=100"`
	GPS      *Coordinates `json:"gps,omitempty" bson:"gps,omitempty"`
	MapLink  string       `json:"mapLink,omitempty" bson:"mapLink,omitempty" validate:"omitempty,url"`
}

type Photo struct {
	URL         string `json:"url" bson:"url" validate:"required,url"`
	Description string `json:"description,omitempty" bson:"description,omitempty" validate:"max=200"`
	IsMain      bool   `json:"isMain" bson:"isMain"`
}

// ListingAttributes is everything an admin can edit on a listing.
type ListingAttributes struct {
	Title        string   `json:"title" bson:"title" validate:"required,max=40"`
	Description  string   `json:"description" bson:"description" validate:"required"`
	Rules        string   `json:"rules,omitempty" bson:"rules,omitempty"`
	Rooms        int      `json:"rooms" bson:"rooms" validate:"gte=0"`
	Beds         int      `json:"beds" bson:"beds" validate:"gte=0"`
	Bathrooms    int      `json:"bathrooms" bson:"bathrooms" validate:"gte=0"`
	Price        float64  `json:"price" bson:"price" validate:"gte=0"`
	SquareMeters float64  `json:"squareMeters" bson:"squareMeters" validate:"gte=0"`
	MaxGuests    int      `json:"maxGuests" bson:"maxGuests" validate:"gte=0"`
	Services     Services `json:"services" bson:"services"`
	Location     Location `json:"location" bson:"location"`
	Photos       []Photo  `json:"photos" bson:"photos" validate:"max=4,dive"`
}

type Listing struct {
	ID                string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ListingAttributes `bson:",inline"`
	Reservations      []Reservation `json:"reservations" bson:"reservations"`
	IsActive          bool          `json:"isActive" bson:"isActive"`
	Version           int64         `json:"-" bson:"version"`
	CreatedAt         time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// IsAvailable reports whether no reservation of the listing overlaps the requested stay.
func (l *Listing) IsAvailable(requested DateRange) bool {
	for _, r := range l.Reservations {
		if r.Range().Overlaps(requested) {
			return false
		}
	}
	return true
}

// Clone copies the listing deeply enough that appending reservations to the copy
// leaves the original untouched.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Reservations = append([]Reservation(nil), l.Reservations...)
	c.Photos = append([]Photo(nil), l.Photos...)
	if l.Location.GPS != nil {
		gps := *l.Location.GPS
		c.Location.GPS = &gps
	}
	return &c
}

// ListingInput is the admin payload for creating or editing a listing. IsActive
// is only honoured on creation and defaults to true.
type ListingInput struct {
	ListingAttributes
	IsActive *bool `json:"isActive,omitempty"`
}
