package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMatchesSentinelOfKind(t *testing.T) {
	err := fmt.Errorf("list services: %w", Transport("GetClientsProducts", errors.New("dial tcp: timeout")))

	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport match, got %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatalf("transport must not match unavailable")
	}
	if KindOf(err) != KindTransport {
		t.Fatalf("kind: got %v", KindOf(err))
	}
}

func TestHTTPStatusDistinguishesKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("create", "name required"), http.StatusBadRequest},
		{Authentication("login", "bad password"), http.StatusUnauthorized},
		{NotFound("get", "no row"), http.StatusNotFound},
		{ClientNotFound("resolve", "a@b.c"), http.StatusNotFound},
		{Misconfigured("login", "billing"), http.StatusServiceUnavailable},
		{Unavailable("insert", errors.New("conn refused")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessageForClientNotFound(t *testing.T) {
	got := PublicMessage(ClientNotFound("create ticket", "x@example.com"))
	if got != "Please log into the client portal first" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestErrorString(t *testing.T) {
	err := Unavailable("update setting", errors.New("connection refused"))
	want := "update setting: temporarily_unavailable: connection refused"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
