package model

// Client identifies the person who made a reservation.
type Client struct {
    LastName  string `json:"lastName" validate:"required"`
    FirstName string `json:"firstName" validate:"required"`
    Email     string `json:"email" validate:"required,email"`
}

// FullName returns "First Last".
func (c Client) FullName() string {
    if c.FirstName == "" {
        return c.LastName
    }
    if c.LastName == "" {
        return c.FirstName
    }
    return c.FirstName + " " + c.LastName
}

// Reservation is a client's booking of one or more seats.  It has no
// lifecycle of its own: it lives and dies with its screening.
//
// Fields:
//  ID     – reservations.id
//  Seats  – reservation_seats where reservation_id = ID, request order
//  Client – reservations.client_*
type Reservation struct {
    ID     uint64 `json:"_id"`
    Seats  []Seat `json:"seats"`
    Client Client `json:"client"`
}

// SeatNumbers returns the seat numbers of the reservation in order.
func (r Reservation) SeatNumbers() []int {
    out := make([]int, 0, len(r.Seats))
    for _, s := range r.Seats {
        out = append(out, s.SeatNumber)
    }
    return out
}

// Clone returns a copy that does not share the seat slice.
func (r Reservation) Clone() Reservation {
    out := r
    out.Seats = append([]Seat(nil), r.Seats...)
    return out
}
