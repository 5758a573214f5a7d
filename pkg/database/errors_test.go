package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"gameforge.gg/platform/internal/apperr"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"no rows", sql.ErrNoRows, apperr.KindNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), apperr.KindNotFound},
		{"connection failure", &pq.Error{Code: "08006"}, apperr.KindUnavailable},
		{"too many connections", &pq.Error{Code: "53300"}, apperr.KindUnavailable},
		{"admin shutdown", &pq.Error{Code: "57P01"}, apperr.KindUnavailable},
		{"unique violation", &pq.Error{Code: "23505"}, apperr.KindValidation},
		{"syntax error", &pq.Error{Code: "42601"}, apperr.KindUnknown},
		{"conn done", sql.ErrConnDone, apperr.KindUnavailable},
		{"already classified", apperr.Validation("x", "bad"), apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify("test", tc.err)
			if got := apperr.KindOf(err); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyReadTreatsUnreachableAsTransport(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"connection failure", &pq.Error{Code: "08006"}, apperr.KindTransport},
		{"too many connections", &pq.Error{Code: "53300"}, apperr.KindTransport},
		{"conn done", sql.ErrConnDone, apperr.KindTransport},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperr.KindTransport},
		{"no rows", sql.ErrNoRows, apperr.KindNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, apperr.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := apperr.KindOf(ClassifyRead("test", tc.err)); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestClassifyKeepsCause(t *testing.T) {
	cause := &pq.Error{Code: "23505", Constraint: "locations_name_key"}
	err := Classify("store.CreateLocation", cause)

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Constraint != "locations_name_key" {
		t.Fatalf("driver error lost: %v", err)
	}
	if msg := apperr.PublicMessage(err); msg != "a record with this value already exists" {
		t.Fatalf("public message: %q", msg)
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify("test", nil) != nil {
		t.Fatal("nil should stay nil")
	}
}
