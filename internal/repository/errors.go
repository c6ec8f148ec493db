package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned on a uniqueness violation.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrTokenInactive is returned when a refresh token cannot be rotated because it is
	// unknown, revoked, expired or owned by someone else.
	ErrTokenInactive = errors.New("refresh token inactive")
	// ErrInvalidValue is returned when a value outside its enumeration reaches storage.
	ErrInvalidValue = errors.New("value outside enumeration")
)

const (
	uniqueViolation      = "23505"
	checkViolation       = "23514"
	invalidTextRepresent = "22P02"
)

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return ErrAlreadyExists
		case checkViolation:
			return ErrInvalidValue
		case invalidTextRepresent:
			// malformed uuid in a lookup
			return ErrNotFound
		}
	}
	return err
}
