package apperr

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind classifies an application failure and decides its HTTP status.
type Kind int

const (
	BadRequest Kind = iota
	Unauthorized
	Forbidden
	NotFound
	Conflict
	Unavailable
	Internal
)

var statusByKind = map[Kind]int{
	BadRequest:   http.StatusBadRequest,
	Unauthorized: http.StatusUnauthorized,
	Forbidden:    http.StatusForbidden,
	NotFound:     http.StatusNotFound,
	Conflict:     http.StatusConflict,
	Unavailable:  http.StatusServiceUnavailable,
	Internal:     http.StatusInternalServerError,
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or Internal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Status maps err to its HTTP status code.
func Status(err error) int {
	return statusByKind[KindOf(err)]
}

// Message returns the user-facing message for err. Untyped errors never
// leak their text to a client.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "erreur interne"
}

// FromDB translates a storage-layer error into a typed application error.
// Typed errors pass through untouched so business failures raised inside a
// transaction keep their kind.
func FromDB(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(NotFound, "ressource introuvable", err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Wrap(Conflict, "contrainte d'intégrité violée", err)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return Wrap(BadRequest, "référence invalide", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return Wrap(Conflict, "contrainte d'intégrité violée", err)
		case pgErr.Code == "23503", pgErr.Code == "23502", pgErr.Code == "23514":
			return Wrap(BadRequest, "donnée invalide ou contrainte violée", err)
		case strings.HasPrefix(pgErr.Code, "08"), pgErr.Code == "57P01":
			return Wrap(Unavailable, "service database indisponible", err)
		}
	}
	return Wrap(Internal, "erreur interne", err)
}
