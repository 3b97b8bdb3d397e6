package repository

import (
	"sort"
	"time"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// ScreeningFilter narrows ListScreenings.  From/To select screenings
// whose date lies in [From, To); MovieID selects an exact movie.  Nil
// fields do not filter.
type ScreeningFilter struct {
	From    *time.Time
	To      *time.Time
	MovieID *uint64
}

func (f ScreeningFilter) match(s model.Screening) bool {
	if f.From != nil && s.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && !s.Date.Before(*f.To) {
		return false
	}
	if f.MovieID != nil && s.Movie.ID != *f.MovieID {
		return false
	}
	return true
}

// ScheduleCheck is run by InsertScreening inside the room's atomic
// section.  candidate has its movie and room populated; existing holds
// every screening already scheduled in the same room.  A non-nil error
// aborts the insert and is returned unchanged.
type ScheduleCheck func(candidate model.Screening, existing []model.Screening) error

// MovieCheck is run by UpdateMovie inside the movie's atomic section
// against the patched movie.  A non-nil error aborts the update and is
// returned unchanged.
type MovieCheck func(updated model.Movie) error

// ReservationCheck is run by AppendReservation inside the screening's
// atomic section against the current screening, reservations included.
// A non-nil error aborts the append and is returned unchanged.
type ReservationCheck func(screening model.Screening, r model.Reservation) error

// sortScreenings orders by date ascending, ties by movie id ascending.
func sortScreenings(list []model.Screening) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Movie.ID < list[j].Movie.ID
	})
}
