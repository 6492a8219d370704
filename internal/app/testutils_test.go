package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/metinatakli/seat-reservation-engine/internal/api"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/notify"
	"github.com/metinatakli/seat-reservation-engine/internal/repository"
	"github.com/metinatakli/seat-reservation-engine/internal/reservation"
	"github.com/metinatakli/seat-reservation-engine/internal/validator"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "whsec_test"
)

var (
	testShowtime = domain.ShowtimeKey{VenueID: "pvr", ShowDate: "2025-03-14", ShowTime: "18:30"}
	testStart    = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	discard      = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestApplication(opts ...func(*Application)) *Application {
	app := &Application{
		config: Config{
			Env:       "test",
			Currency:  "inr",
			JWTSecret: testJWTSecret,
			Stripe: StripeConfig{
				WebhookSecret: testWebhookSecret,
			},
		},
		validator:     validator.NewValidator(),
		logger:        discard,
		notifications: notify.NewDispatcher(discard, time.Second),
	}

	withCoordinator(repository.NewMemoryBookingLedger(), &testClock{now: testStart})(app)

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// withCoordinator wires a coordinator for the pvr venue whose seat map for
// testShowtime is generated from seed 7. Holds live for one minute.
func withCoordinator(ledger domain.BookingLedger, clock *testClock) func(*Application) {
	return func(app *Application) {
		ctx := context.Background()

		catalog, err := repository.ParseVenueCatalog("pvr=mid")
		if err != nil {
			panic(err)
		}

		seeds := repository.NewMemorySeedStore()
		if _, err := seeds.GetOrCreate(ctx, testShowtime, domain.VenueMid, 7); err != nil {
			panic(err)
		}

		cfg := reservation.DefaultConfig()
		cfg.HoldTTL = time.Minute

		coordinator, err := reservation.NewCoordinator(cfg, reservation.NewRegistry(catalog, seeds, ledger), ledger,
			reservation.WithClock(clock.Now),
			reservation.WithLogger(discard),
		)
		if err != nil {
			panic(err)
		}

		app.coordinator = coordinator
		app.ledger = ledger
	}
}

func issueToken(t testing.TB, subjectID, email, role string) string {
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}

	return token
}

// executeRequest encodes body as JSON unless it is nil or already a string.
func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func authorize(r *http.Request, token string) {
	r.Header.Set("Authorization", "Bearer "+token)
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}
