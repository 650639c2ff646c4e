package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound se devuelve cuando el registro pedido no existe en ningun backend.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate se devuelve cuando una clave unica ya existe.
	ErrDuplicate = errors.New("duplicate key")
)

// ErrInvalidRole rechaza turnos con un rol que no es user ni model.
var ErrInvalidRole = errors.New("turn role must be user or model")

const pgUniqueViolation = "23505"

func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}

func translateMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
