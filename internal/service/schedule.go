package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/iliyamo/cinema-screenings/internal/model"
	"github.com/iliyamo/cinema-screenings/internal/repository"
)

// ScreeningInput is a request to schedule a movie in a room.
type ScreeningInput struct {
	MovieID                uint64
	RoomID                 uint64
	Date                   time.Time
	AdvertisementsDuration int
}

// ScreeningQuery narrows ListScreenings.  Day selects the calendar day
// Day falls on, in Day's own location.
type ScreeningQuery struct {
	Day     *time.Time
	MovieID *uint64
}

// SeatMap is the availability of a screening's seats.
type SeatMap struct {
	Total  int   `json:"total"`
	Booked []int `json:"booked"`
	Free   []int `json:"free"`
}

// ScheduleService creates screenings so that no two screenings in the
// same room have overlapping effective intervals.
type ScheduleService struct {
	store ScreeningStore
	log   *slog.Logger
}

// NewScheduleService returns a schedule engine over store.
func NewScheduleService(store ScreeningStore, log *slog.Logger) *ScheduleService {
	return &ScheduleService{store: store, log: orDiscard(log)}
}

// CreateScreening schedules in.MovieID in in.RoomID at in.Date.  The
// overlap check and the insert form one atomic section per room, so
// concurrent creates in the same room cannot both pass against a stale
// view while creates in different rooms do not wait for each other.
func (s *ScheduleService) CreateScreening(ctx context.Context, in ScreeningInput) (*model.Screening, error) {
	if in.Date.IsZero() {
		return nil, InvalidArgumentf("screening date is required")
	}
	if in.AdvertisementsDuration < 0 {
		return nil, InvalidArgumentf("advertisementsDuration must not be negative, got %d", in.AdvertisementsDuration)
	}

	sc := &model.Screening{
		Date:                   in.Date.Truncate(time.Second),
		Movie:                  model.Movie{ID: in.MovieID},
		Room:                   model.Room{ID: in.RoomID},
		AdvertisementsDuration: in.AdvertisementsDuration,
	}
	check := func(candidate model.Screening, existing []model.Screening) error {
		want := candidate.Interval()
		for _, other := range existing {
			if want.Overlaps(other.Interval()) {
				s.log.Debug("room time conflict",
					"room_id", candidate.Room.ID, "existing_screening_id", other.ID)
				return Conflictf("room %d not available at the specified time", candidate.Room.ID)
			}
		}
		return nil
	}
	if err := s.store.InsertScreening(ctx, sc, check); err != nil {
		return nil, translate(err, "create screening")
	}
	s.log.Info("screening created",
		"screening_id", sc.ID, "movie_id", sc.Movie.ID, "room_id", sc.Room.ID, "date", sc.Date)
	return sc, nil
}

// ListScreenings returns a snapshot of matching screenings ordered by
// date, ties broken by movie id.
func (s *ScheduleService) ListScreenings(ctx context.Context, q ScreeningQuery) ([]model.Screening, error) {
	var f repository.ScreeningFilter
	if q.Day != nil {
		from, to := DayBounds(*q.Day)
		f.From, f.To = &from, &to
	}
	f.MovieID = q.MovieID
	list, err := s.store.ListScreenings(ctx, f)
	if err != nil {
		return nil, translate(err, "list screenings")
	}
	return list, nil
}

// DayBounds returns [start of day, start of next day) for the calendar
// day t falls on in t's location.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *ScheduleService) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, err := s.store.GetScreening(ctx, id)
	if err != nil {
		return nil, translate(err, "load screening")
	}
	return sc, nil
}

// DeleteScreening removes the screening and every reservation it owns.
func (s *ScheduleService) DeleteScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, err := s.store.DeleteScreening(ctx, id)
	if err != nil {
		return nil, translate(err, "delete screening")
	}
	s.log.Info("screening deleted", "screening_id", id, "reservations", len(sc.Reservations))
	return sc, nil
}

// SeatMap lists booked and free seat numbers of a screening.
func (s *ScheduleService) SeatMap(ctx context.Context, id uint64) (*SeatMap, error) {
	sc, err := s.store.GetScreening(ctx, id)
	if err != nil {
		return nil, translate(err, "load screening")
	}
	booked := sc.BookedSeats()
	out := &SeatMap{
		Total:  sc.Room.NumberOfSeats,
		Booked: make([]int, 0, len(booked)),
		Free:   make([]int, 0, max(0, sc.Room.NumberOfSeats-len(booked))),
	}
	for n := range booked {
		out.Booked = append(out.Booked, n)
	}
	sort.Ints(out.Booked)
	for n := 1; n <= sc.Room.NumberOfSeats; n++ {
		if _, ok := booked[n]; !ok {
			out.Free = append(out.Free, n)
		}
	}
	return out, nil
}
