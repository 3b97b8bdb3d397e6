// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// ReservationQueueName is the durable queue reservation events go to.
const ReservationQueueName = "reservation.created"

// ReservationCreatedEvent is published after a reservation is committed.
// It carries enough for downstream consumers to log, notify or run
// analytics without querying the primary store.
type ReservationCreatedEvent struct {
    ReservationID uint64    `json:"reservation_id"`
    ScreeningID   uint64    `json:"screening_id"`
    MovieID       uint64    `json:"movie_id"`
    RoomID        uint64    `json:"room_id"`
    SeatNumbers   []int     `json:"seats"`
    ClientEmail   string    `json:"client_email"`
    InvoiceNumber string    `json:"invoice_number"`
    Total         int64     `json:"total"`
    Currency      string    `json:"currency"`
    CreatedAt     time.Time `json:"created_at"`
}
