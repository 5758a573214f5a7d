package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/logger"
)

type memorySnapshots struct {
	data    map[string][]byte
	loadErr error
	saveErr error
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: make(map[string][]byte)}
}

func (m *memorySnapshots) Load(_ context.Context, key string, dest interface{}) (bool, error) {
	if m.loadErr != nil {
		return false, m.loadErr
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memorySnapshots) Save(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func quietPolicy(store SnapshotStore) *Policy {
	return NewPolicy(store, time.Hour, logger.NewWithOutput(io.Discard, logger.ERROR), nil)
}

func staticTickets() []models.SupportTicket { return StaticTickets() }

func TestReadLiveSavesSnapshot(t *testing.T) {
	store := newMemorySnapshots()
	p := quietPolicy(store)
	live := []models.SupportTicket{{TicketID: "T-1", Subject: "live"}}

	got, src, err := Read(context.Background(), p, "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
		return live, nil
	}, staticTickets)
	if err != nil || src != SourceLive {
		t.Fatalf("expected live read, got %s, %v", src, err)
	}
	if len(got) != 1 || got[0].TicketID != "T-1" {
		t.Fatalf("unexpected value: %+v", got)
	}
	if _, ok := store.data["fallback:tickets:42"]; !ok {
		t.Fatal("expected snapshot to be saved")
	}
}

func TestReadTransportFailureUsesSnapshot(t *testing.T) {
	store := newMemorySnapshots()
	p := quietPolicy(store)
	ctx := context.Background()

	_, _, _ = Read(ctx, p, "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
		return []models.SupportTicket{{TicketID: "T-9"}}, nil
	}, staticTickets)

	got, src, err := Read(ctx, p, "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
		return nil, apperr.Transport("GetTickets", errors.New("i/o timeout"))
	}, staticTickets)
	if err != nil {
		t.Fatalf("transport failures must not surface on reads: %v", err)
	}
	if src != SourceSnapshot || len(got) != 1 || got[0].TicketID != "T-9" {
		t.Fatalf("expected snapshot value, got %s %+v", src, got)
	}
}

func TestReadFallsBackToStaticWhenSnapshotStoreFails(t *testing.T) {
	store := newMemorySnapshots()
	store.loadErr = errors.New("redis: connection refused")

	got, src, err := Read(context.Background(), quietPolicy(store), "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
		return nil, apperr.Transport("GetTickets", errors.New("no such host"))
	}, staticTickets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src != SourceStatic || len(got) != len(StaticTickets()) {
		t.Fatalf("expected static fixture, got %s %+v", src, got)
	}
}

func TestReadWithoutSnapshotStore(t *testing.T) {
	got, src, err := Read(context.Background(), quietPolicy(nil), "products", "", func(context.Context) ([]models.Product, error) {
		return nil, apperr.Transport("GetProducts", errors.New("502"))
	}, StaticProducts)
	if err != nil || src != SourceStatic || len(got) == 0 {
		t.Fatalf("expected static products, got %s %d %v", src, len(got), err)
	}
}

func TestReadPassesThroughNonTransportErrors(t *testing.T) {
	for _, want := range []error{
		apperr.Authentication("GetTickets", "Authentication Failed"),
		apperr.ClientNotFound("GetTickets", "x@example.com"),
		apperr.Misconfigured("GetTickets", "billing"),
	} {
		_, _, err := Read(context.Background(), quietPolicy(nil), "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
			return nil, want
		}, staticTickets)
		if !errors.Is(err, want) {
			t.Fatalf("expected %v to propagate, got %v", want, err)
		}
	}
}

func TestReadEmptyResultIsNotFailure(t *testing.T) {
	got, src, err := Read(context.Background(), quietPolicy(nil), "tickets", "42", func(context.Context) ([]models.SupportTicket, error) {
		return []models.SupportTicket{}, nil
	}, staticTickets)
	if err != nil || src != SourceLive || len(got) != 0 {
		t.Fatalf("empty live result must pass through, got %s %+v %v", src, got, err)
	}
}

func TestWriteClassification(t *testing.T) {
	err := Write("OpenTicket", apperr.Transport("OpenTicket", errors.New("timeout")))
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if errors.Is(err, apperr.ErrValidation) {
		t.Fatal("unavailable must be distinct from validation")
	}

	validation := apperr.Validation("OpenTicket", "subject required")
	if got := Write("OpenTicket", validation); !errors.Is(got, apperr.ErrValidation) {
		t.Fatalf("validation should pass through, got %v", got)
	}
	if Write("OpenTicket", nil) != nil {
		t.Fatal("nil stays nil")
	}
}

func TestPlaceholderServersShape(t *testing.T) {
	servers := PlaceholderServers()
	if len(servers) != 3 {
		t.Fatalf("expected 3 placeholder servers, got %d", len(servers))
	}
	var online, offline int
	for _, s := range servers {
		switch s.Status {
		case models.PanelOnline:
			online++
		case models.PanelOffline:
			offline++
		}
	}
	if online == 0 || offline == 0 {
		t.Fatalf("placeholder set must mix online and offline: %d/%d", online, offline)
	}
	if len(PlaceholderLogs()) != 4 {
		t.Fatal("expected 4 placeholder log lines")
	}

	servers[0].Name = "mutated"
	if PlaceholderServers()[0].Name == "mutated" {
		t.Fatal("fixtures must return fresh copies")
	}
}
