package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestIntervalOverlapIsHalfOpen(t *testing.T) {
    ten := time.Date(2024, 10, 12, 10, 0, 0, 0, time.UTC)
    a := EffectiveInterval(ten, 15, 120)
    assert.Equal(t, ten.Add(135*time.Minute), a.End)

    assert.True(t, a.Overlaps(EffectiveInterval(ten.Add(90*time.Minute), 0, 10)))
    assert.True(t, a.Overlaps(EffectiveInterval(ten.Add(-time.Hour), 0, 61)))
    assert.False(t, a.Overlaps(EffectiveInterval(ten.Add(135*time.Minute), 5, 60)))
    assert.False(t, a.Overlaps(EffectiveInterval(ten.Add(-time.Hour), 10, 50)))
}

func TestBookedSeatsAndFind(t *testing.T) {
    s := Screening{Reservations: []Reservation{
        {ID: 1, Seats: []Seat{{SeatNumber: 5}, {SeatNumber: 6}}},
        {ID: 4, Seats: []Seat{{SeatNumber: 9}}},
    }}
    assert.Equal(t, map[int]struct{}{5: {}, 6: {}, 9: {}}, s.BookedSeats())
    assert.Equal(t, 1, s.FindReservation(4))
    assert.Equal(t, -1, s.FindReservation(2))

    c := s.Clone()
    c.Reservations[0].Seats[0].SeatNumber = 50
    assert.Equal(t, 5, s.Reservations[0].Seats[0].SeatNumber)
}

func TestMoviePatchApply(t *testing.T) {
    m := Movie{Title: "Old", Duration: 100, Cast: []string{"A"}}
    title, genres := "New", []string{"drama"}
    out := MoviePatch{Title: &title, Genres: &genres}.Apply(m)
    assert.Equal(t, "New", out.Title)
    assert.Equal(t, 100, out.Duration)
    assert.Equal(t, []string{"A"}, out.Cast)
    assert.Equal(t, []string{"drama"}, out.Genres)
    assert.Equal(t, "Old", m.Title)
}

func TestSeatTypeAndRoom(t *testing.T) {
    assert.True(t, SeatDiscounted.Valid())
    assert.True(t, SeatStandard.Valid())
    assert.False(t, SeatType("vip").Valid())

    r := Room{NumberOfSeats: 50}
    assert.True(t, r.HasSeat(1))
    assert.True(t, r.HasSeat(50))
    assert.False(t, r.HasSeat(0))
    assert.False(t, r.HasSeat(51))

    assert.Equal(t, "Jan Kowalski", Client{FirstName: "Jan", LastName: "Kowalski"}.FullName())
}
