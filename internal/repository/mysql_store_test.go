package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

var (
	screeningCols = []string{
		"s.id", "s.starts_at", "s.advertisements_duration",
		"m.id", "m.title", "m.director", "m.release_year", "m.release_country", "m.duration", "m.age_restriction",
		"m.cast_members", "m.genres", "m.description",
		"r.id", "r.name", "r.number_of_seats",
	}
	reservationCols = []string{
		"screening_id", "id", "client_last_name", "client_first_name", "client_email", "seat_number", "type_of_seat",
	}
	movieCols = []string{
		"id", "title", "director", "release_year", "release_country", "duration", "age_restriction",
		"cast_members", "genres", "description",
	}
)

var screeningStart = time.Date(2024, 10, 12, 18, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func sqlFragment(s string) string { return regexp.QuoteMeta(s) }

func addScreeningRow(rows *sqlmock.Rows, id uint64, start time.Time) *sqlmock.Rows {
	return rows.AddRow(id, start, 15,
		1, "Solaris", "Tarkovsky", 1972, "USSR", 167, 12,
		`["Banionis"]`, nil, "Ocean planet.",
		2, "Duza", 20)
}

func client() model.Client {
	return model.Client{LastName: "Kowalski", FirstName: "Jan", Email: "jan@example.com"}
}

func TestScreeningRepoAppendReservationLocksScreening(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("WHERE s.id = ? FOR UPDATE OF s")).
		WithArgs(3).
		WillReturnRows(addScreeningRow(sqlmock.NewRows(screeningCols), 3, screeningStart))
	mock.ExpectQuery(sqlFragment("WHERE res.screening_id IN (?)")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(3, 10, "Nowak", "Anna", "anna@example.com", 5, "normalny"))
	mock.ExpectExec(sqlFragment("INSERT INTO reservations")).
		WithArgs(3, "Kowalski", "Jan", "jan@example.com").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(sqlFragment("INSERT INTO reservation_seats (reservation_id, screening_id, position, seat_number, type_of_seat) VALUES (?, ?, ?, ?, ?),(?, ?, ?, ?, ?)")).
		WithArgs(11, 3, 0, 6, "normalny", 11, 3, 1, 7, "ulgowy").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	res := &model.Reservation{
		Seats:  []model.Seat{{SeatNumber: 6, TypeOfSeat: model.SeatStandard}, {SeatNumber: 7, TypeOfSeat: model.SeatDiscounted}},
		Client: client(),
	}
	var seen model.Screening
	err := repo.AppendReservation(context.Background(), 3, res, func(sc model.Screening, r model.Reservation) error {
		seen = sc
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), res.ID)
	require.Len(t, seen.Reservations, 1)
	assert.Equal(t, []int{5}, seen.Reservations[0].SeatNumbers())
	assert.Equal(t, 20, seen.Room.NumberOfSeats)
	assert.Equal(t, []string{"Banionis"}, seen.Movie.Cast)
	assert.Equal(t, []string{}, seen.Movie.Genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoAppendReservationCheckAborts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FOR UPDATE OF s")).
		WithArgs(3).
		WillReturnRows(addScreeningRow(sqlmock.NewRows(screeningCols), 3, screeningStart))
	mock.ExpectQuery(sqlFragment("FROM reservations res")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectRollback()

	rejected := errors.New("seat 21 is out of range")
	res := &model.Reservation{Seats: []model.Seat{{SeatNumber: 21, TypeOfSeat: model.SeatStandard}}, Client: client()}
	err := repo.AppendReservation(context.Background(), 3, res, func(model.Screening, model.Reservation) error {
		return rejected
	})
	assert.Same(t, rejected, err)
	assert.Zero(t, res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoAppendReservationDuplicateSeat(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FOR UPDATE OF s")).
		WithArgs(3).
		WillReturnRows(addScreeningRow(sqlmock.NewRows(screeningCols), 3, screeningStart))
	mock.ExpectQuery(sqlFragment("FROM reservations res")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(reservationCols))
	mock.ExpectExec(sqlFragment("INSERT INTO reservations")).
		WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectExec(sqlFragment("INSERT INTO reservation_seats")).
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry '3-6'"})
	mock.ExpectRollback()

	res := &model.Reservation{Seats: []model.Seat{{SeatNumber: 6, TypeOfSeat: model.SeatStandard}}, Client: client()}
	err := repo.AppendReservation(context.Background(), 3, res, nil)
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "conflict: seats [6] already booked")
	assert.Zero(t, res.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoAppendReservationMissingScreening(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FOR UPDATE OF s")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(screeningCols))
	mock.ExpectRollback()

	err := repo.AppendReservation(context.Background(), 9, &model.Reservation{Client: client()}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "no screening with ID: 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoInsertScreeningLocksMovieAndRoom(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FROM movies WHERE id = ? FOR SHARE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(movieCols).
			AddRow(1, "Solaris", "Tarkovsky", 1972, "USSR", 167, 12, nil, `["sci-fi"]`, "Ocean planet."))
	mock.ExpectQuery(sqlFragment("FROM rooms WHERE id = ? FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "number_of_seats"}).AddRow(2, "Duza", 20))
	mock.ExpectQuery(sqlFragment("WHERE s.room_id = ? ORDER BY s.starts_at ASC, m.id ASC")).
		WithArgs(2).
		WillReturnRows(addScreeningRow(sqlmock.NewRows(screeningCols), 4, screeningStart.Add(-5*time.Hour)))
	mock.ExpectExec(sqlFragment("INSERT INTO screenings (movie_id, room_id, starts_at, advertisements_duration)")).
		WithArgs(1, 2, sqlmock.AnyArg(), 10).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	s := &model.Screening{
		Date:                   screeningStart,
		Movie:                  model.Movie{ID: 1},
		Room:                   model.Room{ID: 2},
		AdvertisementsDuration: 10,
	}
	var existing []model.Screening
	err := repo.InsertScreening(context.Background(), s, func(candidate model.Screening, others []model.Screening) error {
		assert.Equal(t, 167, candidate.Movie.Duration)
		existing = others
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), s.ID)
	assert.Equal(t, "Duza", s.Room.Name)
	assert.Equal(t, []string{"sci-fi"}, s.Movie.Genres)
	require.Len(t, existing, 1)
	assert.Equal(t, uint64(4), existing[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoInsertScreeningCheckAborts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FOR SHARE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(movieCols).
			AddRow(1, "Solaris", "Tarkovsky", 1972, "USSR", 167, 12, nil, nil, "Ocean planet."))
	mock.ExpectQuery(sqlFragment("FROM rooms WHERE id = ? FOR UPDATE")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "number_of_seats"}).AddRow(2, "Duza", 20))
	mock.ExpectQuery(sqlFragment("WHERE s.room_id = ?")).
		WithArgs(2).
		WillReturnRows(addScreeningRow(sqlmock.NewRows(screeningCols), 4, screeningStart))
	mock.ExpectRollback()

	busy := Conflictf("room 2 is busy")
	s := &model.Screening{Date: screeningStart, Movie: model.Movie{ID: 1}, Room: model.Room{ID: 2}}
	err := repo.InsertScreening(context.Background(), s, func(model.Screening, []model.Screening) error { return busy })
	assert.Same(t, busy, err)
	assert.Zero(t, s.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoListGroupsReservations(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	rows := sqlmock.NewRows(screeningCols)
	addScreeningRow(rows, 1, screeningStart)
	addScreeningRow(rows, 2, screeningStart.Add(4*time.Hour))
	mock.ExpectQuery(sqlFragment("ORDER BY s.starts_at ASC, m.id ASC")).WillReturnRows(rows)
	mock.ExpectQuery(sqlFragment("WHERE res.screening_id IN (?,?)")).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(1, 10, "Nowak", "Anna", "anna@example.com", 1, "normalny").
			AddRow(1, 10, "Nowak", "Anna", "anna@example.com", 2, "ulgowy").
			AddRow(2, 11, "Lis", "Ewa", "ewa@example.com", 3, "normalny").
			AddRow(1, 12, "Kot", "Adam", "adam@example.com", nil, nil))

	list, err := repo.ListScreenings(context.Background(), ScreeningFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	first := list[0]
	require.Len(t, first.Reservations, 2)
	assert.Equal(t, uint64(10), first.Reservations[0].ID)
	assert.Equal(t, []int{1, 2}, first.Reservations[0].SeatNumbers())
	assert.Equal(t, model.SeatDiscounted, first.Reservations[0].Seats[1].TypeOfSeat)
	assert.Equal(t, uint64(12), first.Reservations[1].ID)
	assert.Equal(t, []model.Seat{}, first.Reservations[1].Seats)

	second := list[1]
	require.Len(t, second.Reservations, 1)
	assert.Equal(t, "ewa@example.com", second.Reservations[0].Client.Email)
	assert.Equal(t, []int{3}, second.Reservations[0].SeatNumbers())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoListFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewScreeningRepo(db)

	from := screeningStart.Add(-18 * time.Hour)
	to := from.Add(24 * time.Hour)
	movieID := uint64(1)
	mock.ExpectQuery(sqlFragment("WHERE s.starts_at >= ? AND s.starts_at < ? AND s.movie_id = ? ORDER BY")).
		WithArgs(from, to, 1).
		WillReturnRows(sqlmock.NewRows(screeningCols))

	list, err := repo.ListScreenings(context.Background(), ScreeningFilter{From: &from, To: &to, MovieID: &movieID})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepoDeleteReservation(t *testing.T) {
	const del = "DELETE FROM reservations WHERE id = ? AND screening_id = ?"
	const exists = "SELECT EXISTS(SELECT 1 FROM screenings WHERE id = ?)"

	t.Run("deleted", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(sqlFragment(del)).WithArgs(10, 3).WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewScreeningRepo(db).DeleteReservation(context.Background(), 3, 10))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing reservation", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(sqlFragment(del)).WithArgs(10, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(sqlFragment(exists)).WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := NewScreeningRepo(db).DeleteReservation(context.Background(), 3, 10)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "no reservation with ID: 10")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing screening", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(sqlFragment(del)).WithArgs(10, 3).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(sqlFragment(exists)).WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		err := NewScreeningRepo(db).DeleteReservation(context.Background(), 3, 10)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "no screening with ID: 3")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovieRepoUpdateRunsCheckInsideTransaction(t *testing.T) {
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(movieCols).
			AddRow(1, "Solaris", "Tarkovsky", 1972, "USSR", 167, 12, nil, nil, "Ocean planet.")
	}

	t.Run("rejected", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlFragment("FROM movies WHERE id = ? FOR UPDATE")).WithArgs(1).WillReturnRows(row())
		mock.ExpectRollback()

		invalid := errors.New("movie title is required")
		empty := ""
		_, err := NewMovieRepo(db).UpdateMovie(context.Background(), 1, model.MoviePatch{Title: &empty},
			func(updated model.Movie) error {
				assert.Equal(t, "", updated.Title)
				assert.Equal(t, 167, updated.Duration)
				return invalid
			})
		assert.Same(t, invalid, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duration locked while scheduled", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlFragment("FOR UPDATE")).WithArgs(1).WillReturnRows(row())
		mock.ExpectQuery(sqlFragment("SELECT EXISTS(SELECT 1 FROM screenings WHERE movie_id = ?)")).WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		d := 90
		_, err := NewMovieRepo(db).UpdateMovie(context.Background(), 1, model.MoviePatch{Duration: &d}, nil)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("applied", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(sqlFragment("FOR UPDATE")).WithArgs(1).WillReturnRows(row())
		mock.ExpectExec(sqlFragment("UPDATE movies")).
			WithArgs("Stalker", "Tarkovsky", 1972, "USSR", 167, 12, "[]", "[]", "Ocean planet.", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		title := "Stalker"
		m, err := NewMovieRepo(db).UpdateMovie(context.Background(), 1, model.MoviePatch{Title: &title},
			func(model.Movie) error { return nil })
		require.NoError(t, err)
		assert.Equal(t, "Stalker", m.Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRoomRepoDeleteReferencedRoom(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(sqlFragment("FROM rooms WHERE id = ? FOR UPDATE")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "number_of_seats"}).AddRow(2, "Duza", 20))
	mock.ExpectQuery(sqlFragment("SELECT EXISTS(SELECT 1 FROM screenings WHERE room_id = ?)")).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := NewRoomRepo(db).DeleteRoom(context.Background(), 2)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
