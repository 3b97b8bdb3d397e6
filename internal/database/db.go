package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema creates the catalog, screening and reservation tables.
// Reservations and their seats are owned by a screening and go away with
// it (ON DELETE CASCADE).  Movies and rooms are only referenced, so a
// referenced row cannot be deleted (ON DELETE RESTRICT).  The unique key
// on reservation_seats backs the one-booking-per-seat rule.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title           VARCHAR(255) NOT NULL,
		director        VARCHAR(255) NOT NULL,
		release_year    INT NOT NULL,
		release_country VARCHAR(128) NOT NULL,
		duration        INT NOT NULL,
		age_restriction INT NOT NULL DEFAULT 0,
		cast_members    JSON NULL,
		genres          JSON NULL,
		description     TEXT NOT NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CHECK (duration > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name            VARCHAR(255) NOT NULL,
		number_of_seats INT NOT NULL,
		created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK (number_of_seats > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS screenings (
		id                      BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		movie_id                BIGINT UNSIGNED NOT NULL,
		room_id                 BIGINT UNSIGNED NOT NULL,
		starts_at               DATETIME NOT NULL,
		advertisements_duration INT NOT NULL DEFAULT 0,
		created_at              DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_screenings_room_start (room_id, starts_at),
		KEY idx_screenings_movie (movie_id),
		CONSTRAINT fk_screenings_movie FOREIGN KEY (movie_id) REFERENCES movies (id) ON DELETE RESTRICT,
		CONSTRAINT fk_screenings_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id                BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		screening_id      BIGINT UNSIGNED NOT NULL,
		client_last_name  VARCHAR(255) NOT NULL,
		client_first_name VARCHAR(255) NOT NULL,
		client_email      VARCHAR(255) NOT NULL,
		created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_reservations_screening (screening_id),
		CONSTRAINT fk_reservations_screening FOREIGN KEY (screening_id) REFERENCES screenings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservation_seats (
		reservation_id BIGINT UNSIGNED NOT NULL,
		screening_id   BIGINT UNSIGNED NOT NULL,
		position       INT NOT NULL,
		seat_number    INT NOT NULL,
		type_of_seat   ENUM('ulgowy','normalny') NOT NULL,
		PRIMARY KEY (reservation_id, position),
		UNIQUE KEY uq_reservation_seats_seat (screening_id, seat_number),
		CONSTRAINT fk_reservation_seats_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id) ON DELETE CASCADE,
		CONSTRAINT fk_reservation_seats_screening FOREIGN KEY (screening_id) REFERENCES screenings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
