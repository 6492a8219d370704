package domain

import (
	"context"
	"fmt"
	"time"
)

const (
	ShowDateLayout = "2006-01-02"
	ShowTimeLayout = "15:04"
)

type VenueClass string

const (
	VenueLarge    VenueClass = "large"
	VenueMid      VenueClass = "mid"
	VenueBoutique VenueClass = "boutique"
)

// ShowtimeKey identifies one Seat Map: a venue on a given date and time.
type ShowtimeKey struct {
	VenueID  string
	ShowDate string
	ShowTime string
}

func (k ShowtimeKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.VenueID, k.ShowDate, k.ShowTime)
}

// VenueCatalog resolves a venue to the class its seat grid is generated from.
type VenueCatalog interface {
	VenueClass(ctx context.Context, venueID string) (VenueClass, error)
}

// SeedStore keeps the layout seed of every showtime so the same grid is
// regenerated across requests and restarts. GetOrCreate stores candidate only
// if no seed exists yet and returns whichever seed won.
type SeedStore interface {
	GetOrCreate(ctx context.Context, key ShowtimeKey, class VenueClass, candidate int64) (int64, error)
}

// Validate checks the key is addressable: a venue id and a well-formed date and time.
func (k ShowtimeKey) Validate() error {
	if k.VenueID == "" {
		return NewValidationError("venueId", "must be provided")
	}

	if _, err := time.Parse(ShowDateLayout, k.ShowDate); err != nil {
		return NewValidationError("showDate", "must be a date formatted as %s", ShowDateLayout)
	}

	if _, err := time.Parse(ShowTimeLayout, k.ShowTime); err != nil {
		return NewValidationError("showTime", "must be a time formatted as %s", ShowTimeLayout)
	}

	return nil
}

// StartsAt returns the moment the showtime begins in loc.
func (k ShowtimeKey) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(ShowDateLayout+" "+ShowTimeLayout, k.ShowDate+" "+k.ShowTime, loc)
}
