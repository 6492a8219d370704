package integration_test

import (
	"time"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

const (
	testJWTSecret = "integration-jwt-secret"
	testVenues    = "pvr=mid,imax=large"
	testSeed      = 7

	TestSubjectId    = "u1"
	TestSubjectEmail = "u1@example.com"
	OtherSubjectId   = "u2"
)

// TestShowDate lies in the future so holds are accepted.
var TestShowDate = time.Now().AddDate(0, 0, 7).Format(domain.ShowDateLayout)

func testShowtime(showTime string) domain.ShowtimeKey {
	return domain.ShowtimeKey{VenueID: "pvr", ShowDate: TestShowDate, ShowTime: showTime}
}
