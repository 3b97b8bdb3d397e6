package model

import "time"

// DateLayout is the wire format of persisted screening dates.
const DateLayout = "2006-01-02 15:04:05"

// Screening is a scheduled showing of a movie in a room.  The movie and
// room are references; stores populate them on reads so that callers
// can compute the effective interval and the seat domain without a
// second lookup.  Reservations are owned by the screening and keep
// booking order.
//
// Fields:
//  ID                     – screenings.id
//  Date                   – screenings.starts_at (second precision)
//  Movie                  – screenings.movie_id, populated
//  Room                   – screenings.room_id, populated
//  AdvertisementsDuration – screenings.advertisements_duration (minutes)
//  Reservations           – reservations where screening_id = ID
type Screening struct {
    ID                     uint64        `json:"_id"`
    Date                   time.Time     `json:"date"`
    Movie                  Movie         `json:"movie"`
    Room                   Room          `json:"room"`
    AdvertisementsDuration int           `json:"advertisementsDuration"`
    Reservations           []Reservation `json:"reservations"`
}

// Interval is a half-open time span [Start, End).
type Interval struct {
    Start time.Time
    End   time.Time
}

// Overlaps reports whether the two half-open intervals share any instant.
// Touching intervals do not overlap.
func (i Interval) Overlaps(o Interval) bool {
    return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// EffectiveInterval returns the span a screening starting at start
// occupies its room: advertisements first, then the feature.
func EffectiveInterval(start time.Time, adsMinutes, movieMinutes int) Interval {
    return Interval{
        Start: start,
        End:   start.Add(time.Duration(adsMinutes+movieMinutes) * time.Minute),
    }
}

// Interval returns the screening's effective interval.
func (s Screening) Interval() Interval {
    return EffectiveInterval(s.Date, s.AdvertisementsDuration, s.Movie.Duration)
}

// BookedSeats returns the set of seat numbers claimed by all
// reservations of the screening.
func (s Screening) BookedSeats() map[int]struct{} {
    booked := make(map[int]struct{})
    for _, r := range s.Reservations {
        for _, seat := range r.Seats {
            booked[seat.SeatNumber] = struct{}{}
        }
    }
    return booked
}

// FindReservation returns the index of the reservation with the given id
// or -1.
func (s Screening) FindReservation(id uint64) int {
    for i, r := range s.Reservations {
        if r.ID == id {
            return i
        }
    }
    return -1
}

// Clone returns a deep copy so callers can hand out snapshots of stored
// screenings.
func (s Screening) Clone() Screening {
    out := s
    out.Movie.Cast = append([]string{}, s.Movie.Cast...)
    out.Movie.Genres = append([]string{}, s.Movie.Genres...)
    out.Reservations = make([]Reservation, len(s.Reservations))
    for i, r := range s.Reservations {
        out.Reservations[i] = r.Clone()
    }
    return out
}
