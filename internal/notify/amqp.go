package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/metinatakli/seat-reservation-engine/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const BookingConfirmedQueue = "booking.confirmed"

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// BookingConfirmedEvent is the message body published for every new booking.
type BookingConfirmedEvent struct {
	BookingID   string    `json:"bookingId"`
	SubjectID   string    `json:"subjectId"`
	VenueID     string    `json:"venueId"`
	ShowDate    string    `json:"showDate"`
	ShowTime    string    `json:"showTime"`
	SeatIDs     []string  `json:"seatIds"`
	TotalPrice  string    `json:"totalPrice"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

// AMQPNotifier publishes persistent booking.confirmed messages on the default
// exchange.
type AMQPNotifier struct {
	conn *amqp.Connection
	ch   publisher
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(BookingConfirmedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &AMQPNotifier{conn: conn, ch: ch}, nil
}

func (n *AMQPNotifier) BookingConfirmed(ctx context.Context, booking domain.Booking, recipient string) error {
	body, err := json.Marshal(BookingConfirmedEvent{
		BookingID:   booking.ID,
		SubjectID:   booking.SubjectID,
		VenueID:     booking.VenueID,
		ShowDate:    booking.ShowDate,
		ShowTime:    booking.ShowTime,
		SeatIDs:     domain.SeatIDStrings(booking.SeatIDs),
		TotalPrice:  booking.TotalPrice.StringFixed(2),
		ConfirmedAt: booking.ConfirmedAt.UTC(),
	})
	if err != nil {
		return err
	}

	return n.ch.PublishWithContext(ctx, "", BookingConfirmedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    booking.ID,
		Timestamp:    booking.ConfirmedAt.UTC(),
		Body:         body,
	})
}

func (n *AMQPNotifier) Close() error {
	if c, ok := n.ch.(*amqp.Channel); ok {
		_ = c.Close()
	}

	if n.conn != nil {
		return n.conn.Close()
	}

	return nil
}
