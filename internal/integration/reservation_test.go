package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/app"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReservationTestSuite struct {
	BaseSuite
}

func TestReservationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suite.Run(t, new(ReservationTestSuite))
}

func holdBody(key domain.ShowtimeKey, seats ...string) string {
	return fmt.Sprintf(`{"venueId":%q,"showDate":%q,"showTime":%q,"seatIds":["%s"]}`,
		key.VenueID, key.ShowDate, key.ShowTime, strings.Join(seats, `","`))
}

func seatMapURL(key domain.ShowtimeKey) string {
	return fmt.Sprintf("/venues/%s/showtimes/%s/%s/seat-map", key.VenueID, key.ShowDate, key.ShowTime)
}

func seatState(t testing.TB, resp api.SeatMapResponse, id string) api.SeatState {
	for _, row := range resp.SeatRows {
		for _, seat := range row.Seats {
			if seat.Id == id {
				return seat.State
			}
		}
	}

	t.Fatalf("seat %s not in seat map", id)
	return ""
}

func (s *ReservationTestSuite) TestCreateHold() {
	key := testShowtime("14:00")

	scenarios := []Scenario{
		{
			Name:    "should hold free seats and price them server side",
			Method:  http.MethodPost,
			URL:     "/holds",
			Body:    strings.NewReader(holdBody(key, "C4", "R5")),
			Headers: s.app.bearer(s.T(), TestSubjectId, TestSubjectEmail, ""),
			BeforeTestFunc: func(t testing.TB, testApp *TestApp) {
				testApp.seedShowtime(t, key)
			},
			ExpectedStatus: http.StatusCreated,
			ExpectedResponse: fmt.Sprintf(`{
				"venueId": "pvr",
				"showDate": %q,
				"showTime": "14:00",
				"seatIds": ["C4", "R5"],
				"totalPrice": "900",
				"currency": "inr"
			}`, key.ShowDate),
		},
		{
			Name:           "should reject a seat already held by another subject",
			Method:         http.MethodPost,
			URL:            "/holds",
			Body:           strings.NewReader(holdBody(key, "C5", "C4")),
			Headers:        s.app.bearer(s.T(), OtherSubjectId, "", ""),
			ExpectedStatus: http.StatusConflict,
			ExpectedResponse: `{
				"message": "One or more seats are no longer available",
				"seatIds": ["C4"]
			}`,
		},
		{
			Name:           "should reject a gap cell",
			Method:         http.MethodPost,
			URL:            "/holds",
			Body:           strings.NewReader(holdBody(key, "C11")),
			Headers:        s.app.bearer(s.T(), OtherSubjectId, "", ""),
			ExpectedStatus: http.StatusUnprocessableEntity,
		},
		{
			Name:           "should fail without a bearer token",
			Method:         http.MethodPost,
			URL:            "/holds",
			Body:           strings.NewReader(holdBody(key, "C6")),
			ExpectedStatus: http.StatusUnauthorized,
			ExpectedResponse: `{
				"message": "You must be authenticated to access this resource"
			}`,
		},
	}

	for _, scenario := range scenarios {
		scenario.Run(s.T(), s.app)
	}
}

func (s *ReservationTestSuite) TestHoldConfirmAndList() {
	t := s.T()
	key := testShowtime("16:00")
	s.app.seedShowtime(t, key)

	owner := s.app.bearer(t, TestSubjectId, TestSubjectEmail, "")

	req, err := prepareRequest(http.MethodPost, "/holds", strings.NewReader(holdBody(key, "D7", "D8")), owner)
	require.NoError(t, err)

	res := s.serve(req)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	hold := decodeResponse[api.HoldResponse](t, res)

	seatMap := s.seatMap(key)
	assert.Equal(t, api.Held, seatState(t, seatMap, "D7"))
	assert.Equal(t, 2, seatMap.Summary.Held)

	req, err = prepareRequest(http.MethodPost, "/holds/"+hold.HoldId+"/confirm", nil, owner)
	require.NoError(t, err)

	res = s.serve(req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	booking := decodeResponse[api.BookingResponse](t, res)

	assert.Equal(t, domain.BookingIDForHold(hold.HoldId), booking.BookingId)
	assert.Equal(t, []string{"D7", "D8"}, booking.SeatIds)
	assert.True(t, hold.TotalPrice.Equal(booking.TotalPrice))

	// a repeated confirm returns the recorded booking
	req, err = prepareRequest(http.MethodPost, "/holds/"+hold.HoldId+"/confirm", nil, owner)
	require.NoError(t, err)

	res = s.serve(req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, booking.BookingId, decodeResponse[api.BookingResponse](t, res).BookingId)

	seatMap = s.seatMap(key)
	assert.Equal(t, api.Booked, seatState(t, seatMap, "D7"))
	assert.Equal(t, 2, seatMap.Summary.Booked)
	assert.Zero(t, seatMap.Summary.Held)

	req, err = prepareRequest(http.MethodGet, "/subjects/"+TestSubjectId+"/bookings", nil, owner)
	require.NoError(t, err)

	res = s.serve(req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	ids := make([]string, 0)
	for _, b := range decodeResponse[api.BookingsResponse](t, res).Bookings {
		ids = append(ids, b.BookingId)
	}
	assert.Contains(t, ids, booking.BookingId)

	admin := s.app.bearer(t, "ops", "", app.RoleAdmin)
	req, err = prepareRequest(http.MethodGet, strings.TrimSuffix(seatMapURL(key), "/seat-map")+"/bookings", nil, admin)
	require.NoError(t, err)

	res = s.serve(req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	showtimeBookings := decodeResponse[api.ShowtimeBookingsResponse](t, res).Bookings
	require.Len(t, showtimeBookings, 1)
	assert.Equal(t, TestSubjectId, showtimeBookings[0].SubjectId)
}

func (s *ReservationTestSuite) TestBookedSeatsSurviveRestart() {
	t := s.T()
	key := testShowtime("19:00")
	s.app.seedShowtime(t, key)

	owner := s.app.bearer(t, TestSubjectId, TestSubjectEmail, "")

	req, err := prepareRequest(http.MethodPost, "/holds", strings.NewReader(holdBody(key, "H2")), owner)
	require.NoError(t, err)

	res := s.serve(req)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	hold := decodeResponse[api.HoldResponse](t, res)

	req, err = prepareRequest(http.MethodPost, "/holds/"+hold.HoldId+"/confirm", nil, owner)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, s.serve(req).StatusCode)

	// a second process over the same database rebuilds the seat map from the ledger
	cfg := app.Config{
		Env:       "test",
		Currency:  "inr",
		Venues:    testVenues,
		JWTSecret: testJWTSecret,
		DB:        app.DBConfig{DSN: s.dbContainer.ConnectionString, MaxOpenConns: 5},
		Reservation: app.ReservationConfig{
			HoldTTL:         10 * time.Minute,
			LedgerTimeout:   3 * time.Second,
			SweepInterval:   30 * time.Second,
			MaxSeatsPerHold: 10,
			TimeZone:        "UTC",
			NotifyTimeout:   time.Second,
		},
	}

	restarted, err := newTestApp(cfg)
	require.NoError(t, err)
	defer restarted.Close()

	req, err = prepareRequest(http.MethodGet, seatMapURL(key), nil, nil)
	require.NoError(t, err)

	res = s.serveWith(restarted, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, api.Booked, seatState(t, decodeResponse[api.SeatMapResponse](t, res), "H2"))
}

func (s *ReservationTestSuite) TestSweepKeepsLiveHolds() {
	t := s.T()
	key := testShowtime("21:00")
	s.app.seedShowtime(t, key)

	req, err := prepareRequest(http.MethodPost, "/holds", strings.NewReader(holdBody(key, "J5")),
		s.app.bearer(t, TestSubjectId, "", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, s.serve(req).StatusCode)

	s.app.App.Sweeper().Sweep(context.Background())

	assert.Equal(t, api.Held, seatState(t, s.seatMap(key), "J5"))
}

func (s *ReservationTestSuite) seatMap(key domain.ShowtimeKey) api.SeatMapResponse {
	req, err := prepareRequest(http.MethodGet, seatMapURL(key), nil, nil)
	s.Require().NoError(err)

	res := s.serve(req)
	s.Require().Equal(http.StatusOK, res.StatusCode)

	return decodeResponse[api.SeatMapResponse](s.T(), res)
}

func (s *ReservationTestSuite) serve(req *http.Request) *http.Response {
	return s.serveWith(s.app, req)
}

func (s *ReservationTestSuite) serveWith(testApp *TestApp, req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	testApp.App.Routes().ServeHTTP(rec, req)

	return rec.Result()
}
