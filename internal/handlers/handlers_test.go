package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/middleware"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/internal/panel"
	"gameforge.gg/platform/internal/portal"
	"gameforge.gg/platform/internal/store"
	"gameforge.gg/platform/pkg/logger"
)

const ssoSecret = "sso-secret"

type stubBilling struct {
	client      *models.ExternalClientIdentity
	err         error
	ticketCalls int
}

func (s *stubBilling) TestConnection(context.Context) bool { return s.err == nil }
func (s *stubBilling) ValidateLogin(context.Context, string, string) (*models.ExternalClientIdentity, error) {
	return s.client, s.err
}
func (s *stubBilling) GetClientDetails(context.Context, string) (*models.ExternalClientIdentity, error) {
	return s.client, s.err
}
func (s *stubBilling) GetClientByEmail(context.Context, string) (*models.ExternalClientIdentity, error) {
	return s.client, s.err
}
func (s *stubBilling) GetClientServices(context.Context, string) ([]billing.Service, error) {
	return nil, s.err
}
func (s *stubBilling) GetClientInvoices(context.Context, string) ([]models.InvoiceRecord, error) {
	return nil, s.err
}
func (s *stubBilling) GetSupportTickets(context.Context, string) ([]models.SupportTicket, error) {
	return nil, s.err
}
func (s *stubBilling) CreateSupportTicket(context.Context, billing.TicketRequest) (string, error) {
	s.ticketCalls++
	return "99", s.err
}
func (s *stubBilling) GetSupportDepartments(context.Context) ([]models.Department, error) {
	return nil, s.err
}
func (s *stubBilling) GetProducts(context.Context) ([]models.Product, error) {
	return nil, s.err
}

type testEnv struct {
	router http.Handler
	auth   *middleware.Authenticator
	mock   sqlmock.Sqlmock
	h      *Handler
}

func newTestEnv(t *testing.T, b portal.Billing) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})

	log := logger.NewWithOutput(io.Discard, logger.ERROR)
	auth := middleware.NewAuthenticator("admin-secret", "client-secret", time.Hour)
	p := panel.NewClient(panel.Config{}, log, nil)
	h := New(Deps{
		Store:     store.New(db),
		Portal:    portal.New(b, p, nil, portal.Options{}, log),
		Auth:      auth,
		SSOSecret: ssoSecret,
		SiteURL:   "https://gameforge.gg/sso",
	}, log)
	return &testEnv{router: h.Router(nil, nil), auth: auth, mock: mock, h: h}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) clientToken(t *testing.T) string {
	t.Helper()
	token, err := e.auth.IssueClientToken("7", "player@example.com")
	if err != nil {
		t.Fatalf("IssueClientToken: %v", err)
	}
	return token
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestProductsWithoutBilling(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/products", "", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get(DataSourceHeader); got != string(fallback.SourceStatic) {
		t.Fatalf("source header %q", got)
	}
	if resp := decodeResponse(t, rec); !resp.Success || resp.Data == nil {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestClientRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, &stubBilling{})
	if rec := env.do(t, http.MethodGet, "/api/client/services", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCreateTicketForUnknownEmail(t *testing.T) {
	b := &stubBilling{}
	env := newTestEnv(t, b)

	rec := env.do(t, http.MethodPost, "/api/client/tickets", env.clientToken(t), map[string]string{
		"email": "stranger@example.com", "subject": "Help", "message": "Server down", "department_id": "1",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if resp.Code != "client_not_found" || resp.Error != "Please log into the client portal first" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if b.ticketCalls != 0 {
		t.Fatalf("ticket action called %d times", b.ticketCalls)
	}
}

func TestServicesServeStaticOnTransportFailure(t *testing.T) {
	env := newTestEnv(t, &stubBilling{err: apperr.Transport("test", errors.New("timeout"))})
	rec := env.do(t, http.MethodGet, "/api/client/services", env.clientToken(t), nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get(DataSourceHeader); got != string(fallback.SourceStatic) {
		t.Fatalf("source header %q", got)
	}
}

func TestServicesWithoutBillingIsMisconfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/client/services", env.clientToken(t), nil)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Code != "integration_not_configured" {
		t.Fatalf("code %q", resp.Code)
	}
}

func TestPowerIsSimulatedWithoutPanel(t *testing.T) {
	env := newTestEnv(t, &stubBilling{})
	rec := env.do(t, http.MethodPost, "/api/client/servers/demo-1/power", env.clientToken(t), map[string]string{"action": "Restart"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	if data["simulated"] != true || data["action"] != "restart" {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestClientSSO(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	b := &stubBilling{client: &models.ExternalClientIdentity{ClientID: "7", Email: "player@example.com"}}
	env := newTestEnv(t, b)
	env.h.now = func() time.Time { return now }

	link := func(issued time.Time) string {
		ts := strconv.FormatInt(issued.Unix(), 10)
		q := url.Values{
			"userid":    {"7"},
			"token":     {"f00d"},
			"timestamp": {ts},
			"hash":      {billing.SignToken("f00d", ts, ssoSecret)},
		}
		return "/api/client/sso?" + q.Encode()
	}

	rec := env.do(t, http.MethodGet, link(now.Add(-time.Minute)), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh link: status %d: %s", rec.Code, rec.Body.String())
	}
	data := decodeResponse(t, rec).Data.(map[string]interface{})
	if token, _ := data["token"].(string); token == "" {
		t.Fatal("no session token issued")
	}

	if rec := env.do(t, http.MethodGet, link(now.Add(-301*time.Second)), "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("stale link: status %d", rec.Code)
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	hash, err := bcrypt.GenerateFromPassword([]byte("Correct-Horse-1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cols := []string{"id", "email", "password_hash", "full_name", "is_active", "created_at"}

	env.mock.ExpectQuery(`FROM admin_users`).WithArgs("ops@gameforge.gg").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "ops@gameforge.gg", string(hash), "Ops", true, time.Now()))
	env.mock.ExpectExec(`UPDATE admin_users SET last_login_at`).WithArgs(sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`FROM admin_users`).WithArgs("ops@gameforge.gg").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "ops@gameforge.gg", string(hash), "Ops", true, time.Now()))

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ops@gameforge.gg", Password: "Correct-Horse-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: "ops@gameforge.gg", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", rec.Code)
	}
}

func TestAdminRoutesRejectClientSession(t *testing.T) {
	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodGet, "/api/admin/settings", env.clientToken(t), nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestCreateLocationDatastoreDown(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.auth.IssueAdminToken(1, "ops@gameforge.gg", middleware.RoleAdmin)
	env.mock.ExpectQuery(`INSERT INTO locations`).WillReturnError(&pq.Error{Code: "08006"})

	rec := env.do(t, http.MethodPost, "/api/admin/locations", token, LocationRequest{Name: "Dallas", Endpoint: "dal.gameforge.gg:25565"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decodeResponse(t, rec); resp.Code != "temporarily_unavailable" {
		t.Fatalf("code %q", resp.Code)
	}
}

func TestPublicLocationsDatastoreDown(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mock.ExpectQuery(`FROM locations WHERE is_active = true`).WillReturnError(&pq.Error{Code: "08006"})

	rec := env.do(t, http.MethodGet, "/api/locations", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if src := rec.Header().Get(DataSourceHeader); src != string(fallback.SourceStatic) {
		t.Fatalf("source %q", src)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success || resp.Code != "" {
		t.Fatalf("degraded read surfaced an error: %+v", resp)
	}
	if locs, ok := resp.Data.([]interface{}); !ok || len(locs) != len(fallback.StaticLocations()) {
		t.Fatalf("data: %#v", resp.Data)
	}
}

func TestPublicLocationsLive(t *testing.T) {
	env := newTestEnv(t, nil)
	now := time.Now().UTC()
	env.mock.ExpectQuery(`FROM locations WHERE is_active = true`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "region", "endpoint", "latency_ms", "status", "last_checked", "is_active", "created_at", "updated_at",
		}).AddRow(1, "Ashburn", "US East", "ash.gameforge.gg:25565", 24, "online", now, true, now, now))

	rec := env.do(t, http.MethodGet, "/api/locations", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get(DataSourceHeader) != string(fallback.SourceLive) {
		t.Fatalf("status %d source %q", rec.Code, rec.Header().Get(DataSourceHeader))
	}
}

func TestClientLookupRevealsNoIdentity(t *testing.T) {
	env := newTestEnv(t, &stubBilling{client: &models.ExternalClientIdentity{
		ClientID: "7", Email: "player@example.com", FirstName: "Pat", Status: models.ClientActive,
	}})

	rec := env.do(t, http.MethodPost, "/api/client/lookup", "", LookupRequest{Email: "player@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, leak := range []string{"clientId", "client_id", `"7"`, "Pat", "Active"} {
		if strings.Contains(body, leak) {
			t.Fatalf("lookup leaked %q: %s", leak, body)
		}
	}
	data, ok := decodeResponse(t, rec).Data.(map[string]interface{})
	if !ok || data["found"] != true {
		t.Fatalf("data: %#v", decodeResponse(t, rec).Data)
	}
}

func TestDashboardSource(t *testing.T) {
	got := dashboardSource(map[string]fallback.Source{
		"services": fallback.SourceLive,
		"invoices": fallback.SourceSnapshot,
		"servers":  fallback.SourcePlaceholder,
	})
	if got != fallback.SourceSnapshot {
		t.Fatalf("got %s", got)
	}
}
