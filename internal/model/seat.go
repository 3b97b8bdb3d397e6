package model

// SeatType is the ticket category of a booked seat.
type SeatType string

const (
    // SeatDiscounted is the reduced-price ticket.
    SeatDiscounted SeatType = "ulgowy"
    // SeatStandard is the full-price ticket.
    SeatStandard SeatType = "normalny"
)

// SeatTypes lists the known seat types in invoice order.
var SeatTypes = []SeatType{SeatDiscounted, SeatStandard}

// Valid reports whether t is one of the known seat types.
func (t SeatType) Valid() bool {
    return t == SeatDiscounted || t == SeatStandard
}

// Seat is a numbered position in a room together with the ticket type
// it was booked at.
//
// Fields:
//  SeatNumber – reservation_seats.seat_number (1..room.NumberOfSeats)
//  TypeOfSeat – reservation_seats.type_of_seat
type Seat struct {
    SeatNumber int      `json:"seatNumber"`
    TypeOfSeat SeatType `json:"typeOfSeat" validate:"required,oneof=ulgowy normalny"`
}
