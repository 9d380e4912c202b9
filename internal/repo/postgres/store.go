package postgres

import (
	"errors"

	"github.com/geocoder89/printhub/internal/apperr"
	"github.com/geocoder89/printhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// store is embedded by every repo: one pool and optional DB metrics.
type store struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func (s store) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveDB(op, fn)
	}
	return fn()
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == "23503"
}

// isInvalidText reports a value Postgres could not parse for its column type,
// such as a malformed uuid in a path parameter.
func isInvalidText(err error) bool {
	return pgCode(err) == "22P02"
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps driver errors onto the apperr taxonomy so callers never see
// pgx types.
func translate(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), isInvalidText(err):
		return apperr.NotFound(resource)
	case IsUniqueViolation(err):
		return apperr.Conflict(resource+"_exists", resource+" already exists")
	case isForeignKeyViolation(err):
		return apperr.Validation("referenced record does not exist", nil)
	default:
		return apperr.Upstream(op, err)
	}
}

// translateDelete is translate for DELETE statements, where a foreign key
// violation means other rows still point at the record.
func translateDelete(op, resource, inUseCode, inUseMessage string, err error) error {
	if isForeignKeyViolation(err) {
		return apperr.Conflict(inUseCode, inUseMessage)
	}
	return translate(op, resource, err)
}
