package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/layout"
)

// StaticVenueCatalog maps venue ids to their class from configuration.
type StaticVenueCatalog struct {
	venues map[string]domain.VenueClass
}

// ParseVenueCatalog reads entries of the form "imax=large,pvr=mid".
func ParseVenueCatalog(entries string) (*StaticVenueCatalog, error) {
	known := make(map[domain.VenueClass]bool)
	for _, class := range layout.Classes() {
		known[class] = true
	}

	venues := make(map[string]domain.VenueClass)

	for _, entry := range strings.Split(entries, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		venueID, class, ok := strings.Cut(entry, "=")
		venueID, class = strings.TrimSpace(venueID), strings.TrimSpace(class)
		if !ok || venueID == "" {
			return nil, fmt.Errorf("invalid venue entry %q, expected <venue>=<class>", entry)
		}

		if !known[domain.VenueClass(class)] {
			return nil, fmt.Errorf("venue %s: %w: %q", venueID, domain.ErrUnknownVenueClass, class)
		}

		venues[venueID] = domain.VenueClass(class)
	}

	return &StaticVenueCatalog{venues: venues}, nil
}

func (c *StaticVenueCatalog) VenueClass(ctx context.Context, venueID string) (domain.VenueClass, error) {
	class, ok := c.venues[venueID]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownVenue, venueID)
	}

	return class, nil
}
