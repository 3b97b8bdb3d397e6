// Package fulfillment turns a committed reservation into an invoice
// document and mails it to the client.  The pipeline is built from two
// narrow collaborators, a Renderer and a Mailer, so either side can be
// replaced (or stubbed in tests) without touching booking logic.
package fulfillment

import (
	"time"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// Recipient is the addressee of a mail.
type Recipient struct {
	Name  string
	Email string
}

// LineItem is one invoice row: all seats of one type.
type LineItem struct {
	SeatType  model.SeatType
	Quantity  int
	UnitPrice int64
	Total     int64
}

// ScreeningSummary is the part of a screening printed on an invoice.
// Date is already in the cinema's zone.
type ScreeningSummary struct {
	ID         uint64
	MovieTitle string
	RoomName   string
	Date       time.Time
}

// Invoice describes everything the renderer needs.  Amounts are minor
// currency units.
type Invoice struct {
	Number        string
	ReservationID uint64
	IssuedAt      time.Time
	Client        Recipient
	Screening     ScreeningSummary
	Seats         []model.Seat
	LineItems     []LineItem
	Currency      string
	Total         int64
}

// Attachment is a file attached to a mail.  Encoding is the
// Content-Transfer-Encoding of the part; empty means base64, which is
// also the only encoding SMTPMailer supports.
type Attachment struct {
	Filename    string
	ContentType string
	Encoding    string
	Data        []byte
}

// Message is a mail ready for dispatch.
type Message struct {
	To          Recipient
	Subject     string
	Body        string
	Attachments []Attachment
}
