package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	"gameforge.gg/platform/internal/apperr"
)

// Classify maps a write error onto the shared error taxonomy. Connection
// and resource failures become Unavailable, constraint violations become
// Validation and a missing row becomes NotFound. Anything else is returned
// wrapped as Unknown.
func Classify(op string, err error) error {
	return classify(op, err, apperr.Unavailable)
}

// ClassifyRead is Classify for reads: an unreachable datastore is a
// Transport failure, so read views can fall back to static data.
func ClassifyRead(op string, err error) error {
	return classify(op, err, apperr.Transport)
}

func classify(op string, err error, unreachable func(string, error) error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, "record not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57":
			return unreachable(op, err)
		case "23":
			return &apperr.Error{Kind: apperr.KindValidation, Op: op, Message: constraintMessage(pqErr), Err: err}
		}
		return apperr.Wrap(apperr.KindUnknown, op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return unreachable(op, err)
	}
	return apperr.Wrap(apperr.KindUnknown, op, err)
}

func constraintMessage(err *pq.Error) string {
	switch err.Code.Name() {
	case "unique_violation":
		return "a record with this value already exists"
	case "not_null_violation":
		return "a required field is missing"
	case "foreign_key_violation":
		return "referenced record does not exist"
	default:
		return "value violates a data constraint"
	}
}
