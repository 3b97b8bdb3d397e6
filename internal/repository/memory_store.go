package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// screeningRecord is the stored form of a screening: references by id,
// reservations owned inline.
type screeningRecord struct {
	head         model.Screening
	reservations []model.Reservation
}

// MemoryStore keeps the catalog, screenings and their reservations in
// process memory.  Map access is guarded by mu; the validate-then-write
// sections of InsertScreening and AppendReservation are additionally
// serialized per room and per screening through locks, so that work on
// different keys runs in parallel.
type MemoryStore struct {
	mu         sync.RWMutex
	locks      *KeyedMutex
	movies     map[uint64]model.Movie
	rooms      map[uint64]model.Room
	screenings map[uint64]*screeningRecord

	nextMovieID       uint64
	nextRoomID        uint64
	nextScreeningID   uint64
	nextReservationID uint64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:      NewKeyedMutex(),
		movies:     make(map[uint64]model.Movie),
		rooms:      make(map[uint64]model.Room),
		screenings: make(map[uint64]*screeningRecord),
	}
}

func roomKey(id uint64) string      { return "room:" + strconv.FormatUint(id, 10) }
func screeningKey(id uint64) string { return "screening:" + strconv.FormatUint(id, 10) }

// ---- Movies ----

// ListMovies returns all movies ordered by title.
func (m *MemoryStore) ListMovies(ctx context.Context) ([]model.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Movie, 0, len(m.movies))
	for _, mv := range m.movies {
		out = append(out, cloneMovie(mv))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetMovie returns the movie with the given id.
func (m *MemoryStore) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mv, ok := m.movies[id]
	if !ok {
		return nil, NotFound("movie", id)
	}
	out := cloneMovie(mv)
	return &out, nil
}

// CreateMovie stores mv and sets its ID.
func (m *MemoryStore) CreateMovie(ctx context.Context, mv *model.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMovieID++
	mv.ID = m.nextMovieID
	m.movies[mv.ID] = cloneMovie(*mv)
	return nil
}

// UpdateMovie applies patch to the stored movie and runs check on the
// result before it is written.  Changing the duration of a movie that
// screenings reference is rejected with ErrConflict.
func (m *MemoryStore) UpdateMovie(ctx context.Context, id uint64, patch model.MoviePatch, check MovieCheck) (*model.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.movies[id]
	if !ok {
		return nil, NotFound("movie", id)
	}
	updated := patch.Apply(mv)
	if check != nil {
		if err := check(updated); err != nil {
			return nil, err
		}
	}
	if updated.Duration != mv.Duration && m.movieReferencedLocked(id) {
		return nil, Conflictf("movie %d is scheduled; its duration cannot change", id)
	}
	m.movies[id] = cloneMovie(updated)
	out := cloneMovie(updated)
	return &out, nil
}

// DeleteMovie removes an unreferenced movie and returns it.
func (m *MemoryStore) DeleteMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv, ok := m.movies[id]
	if !ok {
		return nil, NotFound("movie", id)
	}
	if m.movieReferencedLocked(id) {
		return nil, Conflictf("movie %d is referenced by screenings", id)
	}
	delete(m.movies, id)
	return &mv, nil
}

func (m *MemoryStore) movieReferencedLocked(id uint64) bool {
	for _, rec := range m.screenings {
		if rec.head.Movie.ID == id {
			return true
		}
	}
	return false
}

// ---- Rooms ----

// ListRooms returns all rooms ordered by id.
func (m *MemoryStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetRoom returns the room with the given id.
func (m *MemoryStore) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, NotFound("room", id)
	}
	return &r, nil
}

// CreateRoom stores r and sets its ID.
func (m *MemoryStore) CreateRoom(ctx context.Context, r *model.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRoomID++
	r.ID = m.nextRoomID
	m.rooms[r.ID] = *r
	return nil
}

// DeleteRoom removes a room that no screening is scheduled in.
func (m *MemoryStore) DeleteRoom(ctx context.Context, id uint64) (*model.Room, error) {
	unlock := m.locks.Lock(roomKey(id))
	defer unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, NotFound("room", id)
	}
	for _, rec := range m.screenings {
		if rec.head.Room.ID == id {
			return nil, Conflictf("room %d has scheduled screenings", id)
		}
	}
	delete(m.rooms, id)
	return &r, nil
}

// ---- Screenings ----

// InsertScreening resolves s.Movie.ID and s.Room.ID, runs check against
// every screening already in that room and stores s when check passes.
// The whole sequence holds the room's lock.
func (m *MemoryStore) InsertScreening(ctx context.Context, s *model.Screening, check ScheduleCheck) error {
	unlock := m.locks.Lock(roomKey(s.Room.ID))
	defer unlock()

	m.mu.RLock()
	mv, ok := m.movies[s.Movie.ID]
	if !ok {
		m.mu.RUnlock()
		return NotFound("movie", s.Movie.ID)
	}
	room, ok := m.rooms[s.Room.ID]
	if !ok {
		m.mu.RUnlock()
		return NotFound("room", s.Room.ID)
	}
	candidate := model.Screening{
		Date:                   s.Date,
		Movie:                  cloneMovie(mv),
		Room:                   room,
		AdvertisementsDuration: s.AdvertisementsDuration,
		Reservations:           []model.Reservation{},
	}
	var existing []model.Screening
	for _, rec := range m.screenings {
		if rec.head.Room.ID == room.ID {
			existing = append(existing, m.populateLocked(rec))
		}
	}
	m.mu.RUnlock()

	sortScreenings(existing)
	if check != nil {
		if err := check(candidate, existing); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// The movie is not covered by the room lock; make sure the one that
	// was checked is still the one being referenced.
	current, ok := m.movies[mv.ID]
	if !ok {
		return NotFound("movie", mv.ID)
	}
	if current.Duration != mv.Duration {
		return Conflictf("movie %d changed while the screening was being scheduled", mv.ID)
	}
	m.nextScreeningID++
	candidate.ID = m.nextScreeningID
	m.screenings[candidate.ID] = &screeningRecord{
		head: model.Screening{
			ID:                     candidate.ID,
			Date:                   candidate.Date,
			Movie:                  model.Movie{ID: mv.ID},
			Room:                   model.Room{ID: room.ID},
			AdvertisementsDuration: candidate.AdvertisementsDuration,
		},
		reservations: []model.Reservation{},
	}
	*s = candidate
	return nil
}

// GetScreening returns a populated snapshot of the screening.
func (m *MemoryStore) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.screenings[id]
	if !ok {
		return nil, NotFound("screening", id)
	}
	s := m.populateLocked(rec)
	return &s, nil
}

// ListScreenings returns the screenings matching f ordered by date, ties
// broken by movie id.
func (m *MemoryStore) ListScreenings(ctx context.Context, f ScreeningFilter) ([]model.Screening, error) {
	m.mu.RLock()
	out := make([]model.Screening, 0, len(m.screenings))
	for _, rec := range m.screenings {
		s := m.populateLocked(rec)
		if f.match(s) {
			out = append(out, s)
		}
	}
	m.mu.RUnlock()
	sortScreenings(out)
	return out, nil
}

// DeleteScreening removes the screening together with its reservations
// and returns what was removed.
func (m *MemoryStore) DeleteScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	unlock := m.locks.Lock(screeningKey(id))
	defer unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.screenings[id]
	if !ok {
		return nil, NotFound("screening", id)
	}
	s := m.populateLocked(rec)
	delete(m.screenings, id)
	return &s, nil
}

// ---- Reservations ----

// AppendReservation runs check against the current screening and, when
// it passes, appends r to the screening's reservations and sets r.ID.
// The sequence holds the screening's lock.
func (m *MemoryStore) AppendReservation(ctx context.Context, screeningID uint64, r *model.Reservation, check ReservationCheck) error {
	unlock := m.locks.Lock(screeningKey(screeningID))
	defer unlock()

	m.mu.RLock()
	rec, ok := m.screenings[screeningID]
	if !ok {
		m.mu.RUnlock()
		return NotFound("screening", screeningID)
	}
	snapshot := m.populateLocked(rec)
	m.mu.RUnlock()

	if check != nil {
		if err := check(snapshot, *r); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextReservationID++
	r.ID = m.nextReservationID
	rec.reservations = append(rec.reservations, r.Clone())
	return nil
}

// DeleteReservation removes one reservation from its screening.
func (m *MemoryStore) DeleteReservation(ctx context.Context, screeningID, reservationID uint64) error {
	unlock := m.locks.Lock(screeningKey(screeningID))
	defer unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.screenings[screeningID]
	if !ok {
		return NotFound("screening", screeningID)
	}
	for i, r := range rec.reservations {
		if r.ID == reservationID {
			rec.reservations = append(rec.reservations[:i:i], rec.reservations[i+1:]...)
			return nil
		}
	}
	return NotFound("reservation", reservationID)
}

// populateLocked expands references.  Caller holds mu.
func (m *MemoryStore) populateLocked(rec *screeningRecord) model.Screening {
	s := rec.head
	s.Movie = m.movies[rec.head.Movie.ID]
	s.Room = m.rooms[rec.head.Room.ID]
	s.Reservations = rec.reservations
	return s.Clone()
}

func cloneMovie(mv model.Movie) model.Movie {
	mv.Cast = append([]string{}, mv.Cast...)
	mv.Genres = append([]string{}, mv.Genres...)
	return mv
}
