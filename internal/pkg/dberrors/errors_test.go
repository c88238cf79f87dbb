package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	assert.True(t, IsDuplicateConstraintError(err, "users_username_key"))
	assert.False(t, IsDuplicateConstraintError(err, "students_user_id_key"))
	assert.False(t, IsDuplicateConstraintError(errors.New("plain"), "users_username_key"))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503", ConstraintName: "classes_course_id_fkey"})

	name, ok := IsForeignKeyViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "classes_course_id_fkey", name)

	_, ok = IsForeignKeyViolation(&pgconn.PgError{Code: "23505"})
	assert.False(t, ok)
}
