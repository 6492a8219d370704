package integration_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-engine/internal/app"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	"github.com/metinatakli/seat-reservation-engine/internal/repository"
	"github.com/stretchr/testify/require"
)

type TestApp struct {
	App     *app.Application
	DB      *pgxpool.Pool
	cleanup func()
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	application, cleanup, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.New(context.Background(), cfg.DB.DSN)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &TestApp{
		App:     application,
		DB:      db,
		cleanup: cleanup,
	}, nil
}

func (a *TestApp) Close() {
	a.DB.Close()
	a.cleanup()
}

// seedShowtime pins the layout of key to testSeed before the app first
// materializes it.
func (a *TestApp) seedShowtime(t testing.TB, key domain.ShowtimeKey) {
	seed, err := repository.NewPostgresSeedStore(a.DB).GetOrCreate(context.Background(), key, domain.VenueMid, testSeed)
	require.NoError(t, err)
	require.Equal(t, int64(testSeed), seed)
}

func (a *TestApp) bearer(t testing.TB, subjectID, email, role string) map[string]string {
	claims := app.Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return map[string]string{"Authorization": "Bearer " + token}
}
