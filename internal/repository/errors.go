// Package repository holds the MongoDB data access layer.  Repositories
// return the sentinel errors below so handlers can map failures to HTTP
// status codes without inspecting driver errors.  ErrNotFound becomes a
// 404, ErrEmailExists a 409, ErrInvalidID a 400 and ErrConflict a 409 (a
// conditional update lost to a concurrent writer or hit a terminal state).
package repository

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when the addressed document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmailExists is returned on signup with an email already taken in
	// the target collection.
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidID is returned when a path or body id is not a valid
	// ObjectID hex string.
	ErrInvalidID = errors.New("invalid id")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a conditional update matched nothing
	// because the document changed state underneath the caller.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyAccounted is returned by the quota accountant when the
	// ledger already holds an entry for the interview.
	ErrAlreadyAccounted = errors.New("quota already accounted")
	// ErrQuotaExhausted is returned by Reserve when the owner has no unit
	// left to hold for a new interview.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
