package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/iliyamo/cinema-screenings/internal/model"
)

// MovieRepo provides CRUD operations for the movie catalog backed by the
// movies table.  Cast and genres are stored as JSON arrays.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, director, release_year, release_country, duration, age_restriction, cast_members, genres, description`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanMovie(s rowScanner, m *model.Movie) error {
	var castJSON, genresJSON sql.NullString
	if err := s.Scan(&m.ID, &m.Title, &m.Director, &m.Release.Year, &m.Release.Country,
		&m.Duration, &m.AgeRestriction, &castJSON, &genresJSON, &m.Description); err != nil {
		return err
	}
	return decodeLists(m, castJSON, genresJSON)
}

func decodeLists(m *model.Movie, castJSON, genresJSON sql.NullString) error {
	m.Cast, m.Genres = []string{}, []string{}
	if castJSON.Valid && castJSON.String != "" {
		if err := json.Unmarshal([]byte(castJSON.String), &m.Cast); err != nil {
			return err
		}
	}
	if genresJSON.Valid && genresJSON.String != "" {
		if err := json.Unmarshal([]byte(genresJSON.String), &m.Genres); err != nil {
			return err
		}
	}
	return nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	return string(b), err
}

// ListMovies returns all movies ordered by title.
func (r *MovieRepo) ListMovies(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMovie retrieves a movie by id.
func (r *MovieRepo) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	return getMovie(ctx, r.db, id, "")
}

func getMovie(ctx context.Context, q queryer, id uint64, lock string) (*model.Movie, error) {
	var m model.Movie
	err := scanMovie(q.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = ?`+lock, id), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFound("movie", id)
		}
		return nil, err
	}
	return &m, nil
}

// CreateMovie inserts m and sets its ID.
func (r *MovieRepo) CreateMovie(ctx context.Context, m *model.Movie) error {
	castJSON, err := encodeList(m.Cast)
	if err != nil {
		return err
	}
	genresJSON, err := encodeList(m.Genres)
	if err != nil {
		return err
	}
	const q = `INSERT INTO movies (title, director, release_year, release_country, duration, age_restriction, cast_members, genres, description)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Director, m.Release.Year, m.Release.Country,
		m.Duration, m.AgeRestriction, castJSON, genresJSON, m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// UpdateMovie applies patch inside a transaction holding the movie row
// and runs check on the result before writing it.  A duration change on
// a movie that screenings reference is rejected with ErrConflict.
func (r *MovieRepo) UpdateMovie(ctx context.Context, id uint64, patch model.MoviePatch, check MovieCheck) (*model.Movie, error) {
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
	current, err := getMovie(ctx, tx, id, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*current)
	if check != nil {
		if err := check(updated); err != nil {
			return nil, err
		}
	}
	if updated.Duration != current.Duration {
		referenced, err := movieReferenced(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if referenced {
			return nil, Conflictf("movie %d is scheduled; its duration cannot change", id)
		}
	}
	castJSON, err := encodeList(updated.Cast)
	if err != nil {
		return nil, err
	}
	genresJSON, err := encodeList(updated.Genres)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE movies
	           SET title = ?, director = ?, release_year = ?, release_country = ?, duration = ?,
	               age_restriction = ?, cast_members = ?, genres = ?, description = ?
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, updated.Title, updated.Director, updated.Release.Year, updated.Release.Country,
		updated.Duration, updated.AgeRestriction, castJSON, genresJSON, updated.Description, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &updated, nil
}

// DeleteMovie removes a movie that no screening references.
func (r *MovieRepo) DeleteMovie(ctx context.Context, id uint64) (*model.Movie, error) {
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
	m, err := getMovie(ctx, tx, id, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	referenced, err := movieReferenced(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if referenced {
		return nil, Conflictf("movie %d is referenced by screenings", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id); err != nil {
		return nil, translateMySQLError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return m, nil
}

func movieReferenced(ctx context.Context, q queryer, id uint64) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM screenings WHERE movie_id = ?)`, id).Scan(&exists)
	return exists, err
}
