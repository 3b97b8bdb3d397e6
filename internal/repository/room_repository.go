package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// RoomRepo provides methods to create, list and delete screening rooms.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// CreateRoom inserts a new room and sets its ID.
func (r *RoomRepo) CreateRoom(ctx context.Context, room *model.Room) error {
	const q = `INSERT INTO rooms (name, number_of_seats) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, room.Name, room.NumberOfSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// GetRoom retrieves a room by id.  It returns a NotFoundError when no
// row is found.
func (r *RoomRepo) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return getRoom(ctx, r.db, id, "")
}

func getRoom(ctx context.Context, q queryer, id uint64, lock string) (*model.Room, error) {
	var room model.Room
	err := q.QueryRowContext(ctx, `SELECT id, name, number_of_seats FROM rooms WHERE id = ?`+lock, id).
		Scan(&room.ID, &room.Name, &room.NumberOfSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("room", id)
		}
		return nil, err
	}
	return &room, nil
}

// ListRooms returns all rooms ordered by id.
func (r *RoomRepo) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, number_of_seats FROM rooms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.NumberOfSeats); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRoom removes a room that has no screenings.  The room row is
// locked so that a concurrent InsertScreening either sees the room gone
// or blocks the delete until it commits.
func (r *RoomRepo) DeleteRoom(ctx context.Context, id uint64) (*model.Room, error) {
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
	room, err := getRoom(ctx, tx, id, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	var referenced bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM screenings WHERE room_id = ?)`, id).Scan(&referenced); err != nil {
		return nil, err
	}
	if referenced {
		return nil, Conflictf("room %d has scheduled screenings", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
		return nil, translateMySQLError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return room, nil
}

// MySQL error numbers the repositories translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translateMySQLError maps constraint violations onto ErrConflict and
// passes everything else through.
func translateMySQLError(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlDuplicateEntry:
			return Conflictf("duplicate entry: %s", me.Message)
		case mysqlRowIsReferenced:
			return Conflictf("row is still referenced: %s", me.Message)
		}
	}
	return err
}
