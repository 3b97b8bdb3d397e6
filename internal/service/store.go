package service

import (
	"context"

	"github.com/iliyamo/cinema-screenings/internal/model"
	"github.com/iliyamo/cinema-screenings/internal/repository"
)

// MovieStore is the movie half of the catalog store.
type MovieStore interface {
	ListMovies(ctx context.Context) ([]model.Movie, error)
	GetMovie(ctx context.Context, id uint64) (*model.Movie, error)
	CreateMovie(ctx context.Context, m *model.Movie) error
	UpdateMovie(ctx context.Context, id uint64, patch model.MoviePatch, check repository.MovieCheck) (*model.Movie, error)
	DeleteMovie(ctx context.Context, id uint64) (*model.Movie, error)
}

// RoomStore is the room half of the catalog store.
type RoomStore interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	CreateRoom(ctx context.Context, r *model.Room) error
	DeleteRoom(ctx context.Context, id uint64) (*model.Room, error)
}

// ScreeningStore holds screenings and their owned reservations.
// InsertScreening and AppendReservation run their check inside an
// atomic section scoped to the room and the screening respectively.
type ScreeningStore interface {
	GetScreening(ctx context.Context, id uint64) (*model.Screening, error)
	ListScreenings(ctx context.Context, f repository.ScreeningFilter) ([]model.Screening, error)
	InsertScreening(ctx context.Context, s *model.Screening, check repository.ScheduleCheck) error
	DeleteScreening(ctx context.Context, id uint64) (*model.Screening, error)
	AppendReservation(ctx context.Context, screeningID uint64, r *model.Reservation, check repository.ReservationCheck) error
	DeleteReservation(ctx context.Context, screeningID, reservationID uint64) error
}

var (
	_ MovieStore     = (*repository.MemoryStore)(nil)
	_ RoomStore      = (*repository.MemoryStore)(nil)
	_ ScreeningStore = (*repository.MemoryStore)(nil)
	_ MovieStore     = (*repository.MovieRepo)(nil)
	_ RoomStore      = (*repository.RoomRepo)(nil)
	_ ScreeningStore = (*repository.ScreeningRepo)(nil)
)
