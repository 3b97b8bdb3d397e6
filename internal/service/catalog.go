package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// CatalogService manages the movies and rooms that screenings refer to.
type CatalogService struct {
	movies MovieStore
	rooms  RoomStore
	log    *slog.Logger
}

// NewCatalogService wires a catalog service.  A nil logger discards.
func NewCatalogService(movies MovieStore, rooms RoomStore, log *slog.Logger) *CatalogService {
	return &CatalogService{movies: movies, rooms: rooms, log: orDiscard(log)}
}

// ---- Movies ----

func (s *CatalogService) ListMovies(ctx context.Context) ([]model.Movie, error) {
	list, err := s.movies.ListMovies(ctx)
	return list, translate(err, "list movies")
}

func (s *CatalogService) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.movies.GetMovie(ctx, id)
	if err != nil {
		return nil, translate(err, "load movie")
	}
	return m, nil
}

// CreateMovie validates m and stores it.
func (s *CatalogService) CreateMovie(ctx context.Context, m model.Movie) (*model.Movie, error) {
	if err := validateMovie(m); err != nil {
		return nil, err
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if err := s.movies.CreateMovie(ctx, &m); err != nil {
		return nil, translate(err, "create movie")
	}
	s.log.Info("movie created", "movie_id", m.ID, "title", m.Title)
	return &m, nil
}

// UpdateMovie applies a partial update.  The patched movie is validated
// inside the store's update so concurrent patches cannot combine into an
// invalid movie.
func (s *CatalogService) UpdateMovie(ctx context.Context, id uint64, patch model.MoviePatch) (*model.Movie, error) {
	m, err := s.movies.UpdateMovie(ctx, id, patch, validateMovie)
	if err != nil {
		return nil, translate(err, "update movie")
	}
	return m, nil
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, err := s.movies.DeleteMovie(ctx, id)
	if err != nil {
		return nil, translate(err, "delete movie")
	}
	s.log.Info("movie deleted", "movie_id", id)
	return m, nil
}

func validateMovie(m model.Movie) error {
	switch {
	case strings.TrimSpace(m.Title) == "":
		return InvalidArgumentf("movie title is required")
	case strings.TrimSpace(m.Director) == "":
		return InvalidArgumentf("movie director is required")
	case m.Release.Year <= 0 || strings.TrimSpace(m.Release.Country) == "":
		return InvalidArgumentf("movie release year and country are required")
	case m.Duration <= 0:
		return InvalidArgumentf("movie duration must be positive, got %d", m.Duration)
	case m.AgeRestriction < 0:
		return InvalidArgumentf("age restriction must not be negative, got %d", m.AgeRestriction)
	case strings.TrimSpace(m.Description) == "":
		return InvalidArgumentf("movie description is required")
	}
	return nil
}

// ---- Rooms ----

func (s *CatalogService) ListRooms(ctx context.Context) ([]model.Room, error) {
	list, err := s.rooms.ListRooms(ctx)
	return list, translate(err, "list rooms")
}

func (s *CatalogService) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	r, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return nil, translate(err, "load room")
	}
	return r, nil
}

// CreateRoom stores a room with at least one seat.
func (s *CatalogService) CreateRoom(ctx context.Context, r model.Room) (*model.Room, error) {
	if strings.TrimSpace(r.Name) == "" {
		return nil, InvalidArgumentf("room name is required")
	}
	if r.NumberOfSeats <= 0 {
		return nil, InvalidArgumentf("room must have at least one seat, got %d", r.NumberOfSeats)
	}
	if err := s.rooms.CreateRoom(ctx, &r); err != nil {
		return nil, translate(err, "create room")
	}
	s.log.Info("room created", "room_id", r.ID, "seats", r.NumberOfSeats)
	return &r, nil
}

func (s *CatalogService) DeleteRoom(ctx context.Context, id uint64) (*model.Room, error) {
	r, err := s.rooms.DeleteRoom(ctx, id)
	if err != nil {
		return nil, translate(err, "delete room")
	}
	s.log.Info("room deleted", "room_id", id)
	return r, nil
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
