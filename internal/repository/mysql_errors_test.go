package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestTranslateMySQLError(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry '3-5'"})
	assert.ErrorIs(t, translateMySQLError(dup), ErrConflict)
	assert.True(t, isDuplicate(dup))

	ref := &mysql.MySQLError{Number: mysqlRowIsReferenced, Message: "a foreign key constraint fails"}
	assert.ErrorIs(t, translateMySQLError(ref), ErrConflict)
	assert.False(t, isDuplicate(ref))

	other := errors.New("bad connection")
	assert.Same(t, other, translateMySQLError(other))
}

func TestNotFoundError(t *testing.T) {
	err := NotFound("screening", 7)
	assert.EqualError(t, err, "no screening with ID: 7")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	c := Conflictf("room %d has scheduled screenings", 3)
	assert.EqualError(t, c, "conflict: room 3 has scheduled screenings")
}
