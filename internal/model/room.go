package model

// Room is a screening room.  NumberOfSeats defines the valid seat
// number domain [1, NumberOfSeats] for every screening held in it.
//
// Fields:
//  ID            – rooms.id
//  Name          – rooms.name
//  NumberOfSeats – rooms.number_of_seats (> 0)
type Room struct {
    ID            uint64 `json:"_id"`
    Name          string `json:"name"`
    NumberOfSeats int    `json:"numberOfSeats"`
}

// HasSeat reports whether n is a seat number that exists in the room.
func (r Room) HasSeat(n int) bool {
    return n >= 1 && n <= r.NumberOfSeats
}
