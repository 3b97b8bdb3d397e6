package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

func seedStore(t *testing.T) (*MemoryStore, *model.Movie, *model.Room) {
	t.Helper()
	ctx := context.Background()
	st := NewMemoryStore()
	mv := &model.Movie{Title: "Solaris", Director: "Tarkovsky", Duration: 167, Description: "x", Cast: []string{"Banionis"}}
	require.NoError(t, st.CreateMovie(ctx, mv))
	room := &model.Room{Name: "Duza", NumberOfSeats: 20}
	require.NoError(t, st.CreateRoom(ctx, room))
	return st, mv, room
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("room:1")
			defer unlock()
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyedMutex()
	unlockA := k.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := k.Lock("b")
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b waited for a")
	}
	assert.Equal(t, 1, k.size())
	unlockA()
	assert.Equal(t, 0, k.size())
}

func TestInsertScreeningRunsCheckWithRoomScreenings(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)
	other := &model.Room{Name: "Mala", NumberOfSeats: 5}
	require.NoError(t, st.CreateRoom(ctx, other))

	first := &model.Screening{Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}
	require.NoError(t, st.InsertScreening(ctx, first, nil))
	assert.Equal(t, "Solaris", first.Movie.Title)
	assert.Equal(t, 20, first.Room.NumberOfSeats)

	elsewhere := &model.Screening{Date: first.Date, Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: other.ID}}
	require.NoError(t, st.InsertScreening(ctx, elsewhere, nil))

	var seen []model.Screening
	rejected := errors.New("rejected")
	second := &model.Screening{Date: first.Date.Add(time.Hour), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}
	err := st.InsertScreening(ctx, second, func(c model.Screening, existing []model.Screening) error {
		seen = existing
		return rejected
	})
	assert.Same(t, rejected, err)
	require.Len(t, seen, 1)
	assert.Equal(t, first.ID, seen[0].ID)
	assert.Equal(t, 167, seen[0].Movie.Duration)

	list, err := st.ListScreenings(ctx, ScreeningFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInsertScreeningMissingReferences(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)

	err := st.InsertScreening(ctx, &model.Screening{Movie: model.Movie{ID: 42}, Room: model.Room{ID: room.ID}}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "no movie with ID: 42")

	err = st.InsertScreening(ctx, &model.Screening{Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: 42}}, nil)
	assert.EqualError(t, err, "no room with ID: 42")
}

func TestAppendReservationSnapshotsAreIsolated(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)
	sc := &model.Screening{Date: time.Now().UTC(), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}
	require.NoError(t, st.InsertScreening(ctx, sc, nil))

	r := &model.Reservation{Seats: []model.Seat{{SeatNumber: 1, TypeOfSeat: model.SeatStandard}}}
	require.NoError(t, st.AppendReservation(ctx, sc.ID, r, nil))
	assert.NotZero(t, r.ID)

	// mutating the caller's copy must not leak into the store
	r.Seats[0].SeatNumber = 99
	got, err := st.GetScreening(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, got.Reservations, 1)
	assert.Equal(t, 1, got.Reservations[0].Seats[0].SeatNumber)

	got.Reservations[0].Seats[0].SeatNumber = 77
	got.Movie.Cast[0] = "nobody"
	again, err := st.GetScreening(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Reservations[0].Seats[0].SeatNumber)
	assert.Equal(t, []string{"Banionis"}, again.Movie.Cast)

	err = st.AppendReservation(ctx, 999, &model.Reservation{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListScreeningsFilter(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)
	day := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	for _, h := range []int{20, 9} {
		s := &model.Screening{Date: day.Add(time.Duration(h) * time.Hour), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}
		require.NoError(t, st.InsertScreening(ctx, s, nil))
	}
	next := day.AddDate(0, 0, 1)
	list, err := st.ListScreenings(ctx, ScreeningFilter{From: &day, To: &next})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].Date.Before(list[1].Date))

	other := mv.ID + 1
	list, err = st.ListScreenings(ctx, ScreeningFilter{MovieID: &other})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteReservationAndScreening(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)
	sc := &model.Screening{Date: time.Now().UTC(), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}
	require.NoError(t, st.InsertScreening(ctx, sc, nil))
	r := &model.Reservation{Seats: []model.Seat{{SeatNumber: 2, TypeOfSeat: model.SeatDiscounted}}}
	require.NoError(t, st.AppendReservation(ctx, sc.ID, r, nil))

	assert.EqualError(t, st.DeleteReservation(ctx, sc.ID, r.ID+1), fmt.Sprintf("no reservation with ID: %d", r.ID+1))
	require.NoError(t, st.DeleteReservation(ctx, sc.ID, r.ID))
	assert.ErrorIs(t, st.DeleteReservation(ctx, sc.ID, r.ID), ErrNotFound)

	_, err := st.DeleteMovie(ctx, mv.ID)
	assert.ErrorIs(t, err, ErrConflict)

	deleted, err := st.DeleteScreening(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, deleted.ID)
	_, err = st.GetScreening(ctx, sc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.DeleteMovie(ctx, mv.ID)
	assert.NoError(t, err)
}

func TestUpdateMovieDurationLockedWhileScheduled(t *testing.T) {
	ctx := context.Background()
	st, mv, room := seedStore(t)
	require.NoError(t, st.InsertScreening(ctx, &model.Screening{Date: time.Now().UTC(), Movie: model.Movie{ID: mv.ID}, Room: model.Room{ID: room.ID}}, nil))

	d := 90
	_, err := st.UpdateMovie(ctx, mv.ID, model.MoviePatch{Duration: &d}, nil)
	assert.ErrorIs(t, err, ErrConflict)

	desc := "restored print"
	updated, err := st.UpdateMovie(ctx, mv.ID, model.MoviePatch{Description: &desc}, nil)
	require.NoError(t, err)
	assert.Equal(t, "restored print", updated.Description)
	assert.Equal(t, 167, updated.Duration)
}

func TestUpdateMovieCheckHoldsTheStore(t *testing.T) {
	ctx := context.Background()
	st, mv, _ := seedStore(t)

	done := make(chan struct{})
	title := "Stalker"
	_, err := st.UpdateMovie(ctx, mv.ID, model.MoviePatch{Title: &title}, func(updated model.Movie) error {
		assert.Equal(t, "Stalker", updated.Title)
		go func() {
			d := 100
			_, _ = st.UpdateMovie(ctx, mv.ID, model.MoviePatch{Duration: &d}, nil)
			close(done)
		}()
		select {
		case <-done:
			t.Error("a concurrent update completed while the check was running")
		case <-time.After(50 * time.Millisecond):
		}
		return nil
	})
	require.NoError(t, err)
	<-done

	got, err := st.GetMovie(ctx, mv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stalker", got.Title)
	assert.Equal(t, 100, got.Duration)

	rejected := errors.New("invalid")
	empty := ""
	_, err = st.UpdateMovie(ctx, mv.ID, model.MoviePatch{Title: &empty}, func(model.Movie) error { return rejected })
	assert.Same(t, rejected, err)
	got, err = st.GetMovie(ctx, mv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stalker", got.Title)
}

func TestListMoviesSortedByTitle(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	for _, title := range []string{"Stalker", "Andrei Rublev", "Mirror"} {
		require.NoError(t, st.CreateMovie(ctx, &model.Movie{Title: title, Duration: 100}))
	}
	list, err := st.ListMovies(ctx)
	require.NoError(t, err)
	titles := []string{list[0].Title, list[1].Title, list[2].Title}
	assert.Equal(t, []string{"Andrei Rublev", "Mirror", "Stalker"}, titles)
	assert.NotNil(t, list[0].Cast)
}
