package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation-engine/internal/domain"
)

type PostgresBookingLedger struct {
	db *pgxpool.Pool
}

func NewPostgresBookingLedger(db *pgxpool.Pool) *PostgresBookingLedger {
	return &PostgresBookingLedger{
		db: db,
	}
}

func (p *PostgresBookingLedger) Append(ctx context.Context, booking domain.Booking) error {
	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bookings (id, subject_id, venue_id, show_date, show_time, total_price, confirmed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.Exec(
			ctx,
			query,
			booking.ID,
			booking.SubjectID,
			booking.VenueID,
			booking.ShowDate,
			booking.ShowTime,
			booking.TotalPrice,
			booking.ConfirmedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(booking.SeatIDs))
		for i, seatID := range booking.SeatIDs {
			rows = append(rows, []any{
				booking.ID,
				booking.VenueID,
				booking.ShowDate,
				booking.ShowTime,
				string(seatID),
				i,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"booking_seats"},
			[]string{"booking_id", "venue_id", "show_date", "show_time", "seat_id", "position"},
			pgx.CopyFromRows(rows),
		)

		return err
	})

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if pgErr.ConstraintName == "bookings_pkey" {
			return domain.ErrDuplicateBooking
		}

		return &domain.SeatUnavailableError{SeatIDs: booking.SeatIDs}
	}

	return err
}

const bookingColumns = `
	b.id, b.subject_id, b.venue_id, b.show_date, b.show_time,
	b.total_price, b.confirmed_at,
	ARRAY(SELECT bs.seat_id FROM booking_seats bs WHERE bs.booking_id = b.id ORDER BY bs.position)
`

func (p *PostgresBookingLedger) Get(ctx context.Context, bookingID string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(p.db.QueryRow(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return booking, nil
}

func (p *PostgresBookingLedger) ListBySubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.subject_id = $1
		ORDER BY b.confirmed_at DESC, b.id
	`

	return p.list(ctx, query, subjectID)
}

func (p *PostgresBookingLedger) ListBySeatMap(ctx context.Context, key domain.ShowtimeKey) ([]domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.venue_id = $1 AND b.show_date = $2 AND b.show_time = $3
		ORDER BY b.confirmed_at DESC, b.id
	`

	return p.list(ctx, query, key.VenueID, key.ShowDate, key.ShowTime)
}

func (p *PostgresBookingLedger) list(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}

		bookings = append(bookings, *booking)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return bookings, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		booking domain.Booking
		seatIDs []string
	)

	err := row.Scan(
		&booking.ID,
		&booking.SubjectID,
		&booking.VenueID,
		&booking.ShowDate,
		&booking.ShowTime,
		&booking.TotalPrice,
		&booking.ConfirmedAt,
		&seatIDs,
	)
	if err != nil {
		return nil, err
	}

	booking.SeatIDs = make([]domain.SeatID, len(seatIDs))
	for i, id := range seatIDs {
		booking.SeatIDs[i] = domain.SeatID(id)
	}

	return &booking, nil
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}
