package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// ScreeningRepo stores screenings and their owned reservations in MySQL.
// Reservations live in the reservations table, their seats in
// reservation_seats keyed by (reservation_id, position) so request order
// is preserved.  The validate-then-write operations run inside a
// transaction that first locks the row the invariant is scoped to: the
// room for InsertScreening and the screening for AppendReservation.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo returns a new ScreeningRepo bound to the given database.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

const screeningSelect = `SELECT s.id, s.starts_at, s.advertisements_duration,
       m.id, m.title, m.director, m.release_year, m.release_country, m.duration, m.age_restriction,
       m.cast_members, m.genres, m.description,
       r.id, r.name, r.number_of_seats
FROM screenings s
JOIN movies m ON m.id = s.movie_id
JOIN rooms r  ON r.id = s.room_id`

func scanScreening(row rowScanner, s *model.Screening) error {
	var castJSON, genresJSON sql.NullString
	m := &s.Movie
	if err := row.Scan(
		&s.ID, &s.Date, &s.AdvertisementsDuration,
		&m.ID, &m.Title, &m.Director, &m.Release.Year, &m.Release.Country, &m.Duration, &m.AgeRestriction,
		&castJSON, &genresJSON, &m.Description,
		&s.Room.ID, &s.Room.Name, &s.Room.NumberOfSeats,
	); err != nil {
		return err
	}
	s.Reservations = []model.Reservation{}
	return decodeLists(m, castJSON, genresJSON)
}

func queryScreenings(ctx context.Context, q queryer, where string, args ...any) ([]model.Screening, error) {
	rows, err := q.QueryContext(ctx, screeningSelect+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// loadReservations fills in the reservations of every screening in list,
// in booking order.
func loadReservations(ctx context.Context, q queryer, list []model.Screening) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[uint64]int, len(list))
	placeholders := make([]string, 0, len(list))
	args := make([]any, 0, len(list))
	for i, s := range list {
		index[s.ID] = i
		placeholders = append(placeholders, "?")
		args = append(args, s.ID)
	}
	query := `SELECT res.screening_id, res.id, res.client_last_name, res.client_first_name, res.client_email,
	                 rs.seat_number, rs.type_of_seat
	          FROM reservations res
	          LEFT JOIN reservation_seats rs ON rs.reservation_id = res.id
	          WHERE res.screening_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY res.id, rs.position`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			screeningID uint64
			res         model.Reservation
			seatNumber  sql.NullInt64
			seatType    sql.NullString
		)
		if err := rows.Scan(&screeningID, &res.ID, &res.Client.LastName, &res.Client.FirstName, &res.Client.Email,
			&seatNumber, &seatType); err != nil {
			return err
		}
		s := &list[index[screeningID]]
		n := len(s.Reservations)
		if n == 0 || s.Reservations[n-1].ID != res.ID {
			res.Seats = []model.Seat{}
			s.Reservations = append(s.Reservations, res)
			n++
		}
		if seatNumber.Valid {
			s.Reservations[n-1].Seats = append(s.Reservations[n-1].Seats, model.Seat{
				SeatNumber: int(seatNumber.Int64),
				TypeOfSeat: model.SeatType(seatType.String),
			})
		}
	}
	return rows.Err()
}

func getScreening(ctx context.Context, q queryer, id uint64, lock string) (*model.Screening, error) {
	var s model.Screening
	if err := scanScreening(q.QueryRowContext(ctx, screeningSelect+` WHERE s.id = ?`+lock, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("screening", id)
		}
		return nil, err
	}
	list := []model.Screening{s}
	if err := loadReservations(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// GetScreening returns the screening with its movie, room and
// reservations populated.
func (r *ScreeningRepo) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	return getScreening(ctx, r.db, id, "")
}

// ListScreenings returns the screenings matching f ordered by date, ties
// broken by movie id.
func (r *ScreeningRepo) ListScreenings(ctx context.Context, f ScreeningFilter) ([]model.Screening, error) {
	where := []string{}
	args := []any{}
	if f.From != nil {
		where = append(where, "s.starts_at >= ?")
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		where = append(where, "s.starts_at < ?")
		args = append(args, f.To.UTC())
	}
	if f.MovieID != nil {
		where = append(where, "s.movie_id = ?")
		args = append(args, *f.MovieID)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	list, err := queryScreenings(ctx, r.db, cond+` ORDER BY s.starts_at ASC, m.id ASC`, args...)
	if err != nil {
		return nil, err
	}
	if err := loadReservations(ctx, r.db, list); err != nil {
		return nil, err
	}
	return list, nil
}

// InsertScreening locks the room row, loads every screening already in
// the room, runs check and inserts s when it passes.  Screenings handed
// to check do not carry reservations.  The movie row is read with a
// shared lock so its duration cannot change before commit.
func (r *ScreeningRepo) InsertScreening(ctx context.Context, s *model.Screening, check ScheduleCheck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	movie, err := getMovie(ctx, tx, s.Movie.ID, " FOR SHARE")
	if err != nil {
		return err
	}
	room, err := getRoom(ctx, tx, s.Room.ID, " FOR UPDATE")
	if err != nil {
		return err
	}
	candidate := model.Screening{
		Date:                   s.Date.UTC(),
		Movie:                  *movie,
		Room:                   *room,
		AdvertisementsDuration: s.AdvertisementsDuration,
		Reservations:           []model.Reservation{},
	}
	existing, err := queryScreenings(ctx, tx, ` WHERE s.room_id = ? ORDER BY s.starts_at ASC, m.id ASC`, room.ID)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(candidate, existing); err != nil {
			return err
		}
	}

	const ins = `INSERT INTO screenings (movie_id, room_id, starts_at, advertisements_duration) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, movie.ID, room.ID, candidate.Date, candidate.AdvertisementsDuration)
	if err != nil {
		return translateMySQLError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	candidate.ID = uint64(id)
	*s = candidate
	return nil
}

// DeleteScreening removes the screening; reservations and their seats go
// with it through ON DELETE CASCADE.
func (r *ScreeningRepo) DeleteScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	s, err := getScreening(ctx, tx, id, " FOR UPDATE OF s")
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM screenings WHERE id = ?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return s, nil
}

// AppendReservation locks the screening row, runs check against the
// screening and its current reservations and, when it passes, inserts
// the reservation and its seats.  The unique key on
// (screening_id, seat_number) turns any seat that slipped past check into
// ErrConflict.
func (r *ScreeningRepo) AppendReservation(ctx context.Context, screeningID uint64, res *model.Reservation, check ReservationCheck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	s, err := getScreening(ctx, tx, screeningID, " FOR UPDATE OF s")
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(*s, *res); err != nil {
			return err
		}
	}

	const ins = `INSERT INTO reservations (screening_id, client_last_name, client_first_name, client_email) VALUES (?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, ins, screeningID, res.Client.LastName, res.Client.FirstName, res.Client.Email)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	if err := insertSeatsTx(ctx, tx, uint64(id), screeningID, res.Seats); err != nil {
		if isDuplicate(err) {
			return Conflictf("seats %v already booked", res.SeatNumbers())
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	res.ID = uint64(id)
	return nil
}

// insertSeatsTx inserts all seats of a reservation in a single statement.
func insertSeatsTx(ctx context.Context, tx *sql.Tx, reservationID, screeningID uint64, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_seats (reservation_id, screening_id, position, seat_number, type_of_seat) VALUES `
	args := make([]any, 0, len(seats)*5)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, reservationID, screeningID, i, seat.SeatNumber, string(seat.TypeOfSeat))
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// DeleteReservation removes a reservation from its screening.
func (r *ScreeningRepo) DeleteReservation(ctx context.Context, screeningID, reservationID uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ? AND screening_id = ?`, reservationID, screeningID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM screenings WHERE id = ?)`, screeningID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return NotFound("screening", screeningID)
	}
	return NotFound("reservation", reservationID)
}
