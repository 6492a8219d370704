package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

type PostgresSeedStore struct {
	db *pgxpool.Pool
}

func NewPostgresSeedStore(db *pgxpool.Pool) *PostgresSeedStore {
	return &PostgresSeedStore{
		db: db,
	}
}

// GetOrCreate inserts candidate unless a seed exists and returns the stored seed.
// Concurrent callers across processes agree on the first committed seed.
func (p *PostgresSeedStore) GetOrCreate(
	ctx context.Context,
	key domain.ShowtimeKey,
	class domain.VenueClass,
	candidate int64) (int64, error) {

	query := `
		INSERT INTO showtime_seeds (venue_id, show_date, show_time, venue_class, seed)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (venue_id, show_date, show_time) DO NOTHING
	`

	_, err := p.db.Exec(ctx, query, key.VenueID, key.ShowDate, key.ShowTime, string(class), candidate)
	if err != nil {
		return 0, err
	}

	query = `
		SELECT seed
		FROM showtime_seeds
		WHERE venue_id = $1 AND show_date = $2 AND show_time = $3
	`

	var seed int64
	err = p.db.QueryRow(ctx, query, key.VenueID, key.ShowDate, key.ShowTime).Scan(&seed)
	if err != nil {
		return 0, err
	}

	return seed, nil
}
