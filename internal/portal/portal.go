// Package portal composes the billing and panel adapters into the views the
// client portal and public site need. It is the only layer that substitutes
// fallback data for failed upstream reads.
package portal

import (
	"context"
	"strings"
	"time"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/identity"
	"gameforge.gg/platform/internal/models"
	"gameforge.gg/platform/pkg/logger"
)

// Billing is the billing adapter as used by the portal. *billing.Client implements it.
type Billing interface {
	TestConnection(ctx context.Context) bool
	ValidateLogin(ctx context.Context, email, password string) (*models.ExternalClientIdentity, error)
	GetClientDetails(ctx context.Context, clientID string) (*models.ExternalClientIdentity, error)
	GetClientByEmail(ctx context.Context, email string) (*models.ExternalClientIdentity, error)
	GetClientServices(ctx context.Context, clientID string) ([]billing.Service, error)
	GetClientInvoices(ctx context.Context, clientID string) ([]models.InvoiceRecord, error)
	GetSupportTickets(ctx context.Context, clientID string) ([]models.SupportTicket, error)
	CreateSupportTicket(ctx context.Context, req billing.TicketRequest) (string, error)
	GetSupportDepartments(ctx context.Context) ([]models.Department, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
}

// Panel is the panel adapter as used by the portal. *panel.Client implements it.
type Panel interface {
	Configured() bool
	TestConnection(ctx context.Context) bool
	ListServers(ctx context.Context, email string) ([]models.PanelServer, error)
	GetServer(ctx context.Context, id string) (*models.PanelServer, error)
	PerformAction(ctx context.Context, id string, action models.PowerAction) (bool, error)
	GetLogs(ctx context.Context, id string, lines int) ([]string, error)
}

type Options struct {
	CurrencyPrefix string
	Now            func() time.Time
}

type Service struct {
	billing  Billing
	panel    Panel
	resolver *identity.Resolver
	policy   *fallback.Policy
	currency string
	now      func() time.Time
	logger   *logger.Logger
}

// New wires the portal. billing is nil when the integration is not
// configured; client-specific billing views then fail as Misconfigured.
func New(b Billing, p Panel, policy *fallback.Policy, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.New()
	}
	if policy == nil {
		policy = fallback.NewPolicy(nil, 0, log, nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CurrencyPrefix == "" {
		opts.CurrencyPrefix = "$"
	}
	var directory identity.Directory
	if b != nil {
		directory = b
	}
	return &Service{
		billing:  b,
		panel:    p,
		resolver: identity.NewResolver(directory),
		policy:   policy,
		currency: opts.CurrencyPrefix,
		now:      opts.Now,
		logger:   log.With("component", "portal"),
	}
}

func (s *Service) BillingConfigured() bool { return s.billing != nil }

func (s *Service) requireBilling(op string) error {
	if s.billing == nil {
		return apperr.Misconfigured(op, "billing")
	}
	return nil
}

// Login validates portal credentials against the billing platform.
func (s *Service) Login(ctx context.Context, email, password string) (*models.ExternalClientIdentity, error) {
	const op = "portal.Login"
	if err := s.requireBilling(op); err != nil {
		return nil, err
	}
	client, err := s.billing.ValidateLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if client == nil || !client.Resolved() {
		return nil, apperr.Authentication(op, "invalid email or password")
	}
	return client, nil
}

// Lookup resolves an identity from an email alone.
func (s *Service) Lookup(ctx context.Context, email string) (*models.ExternalClientIdentity, error) {
	return s.resolver.Resolve(ctx, email)
}

// ClientByID loads an identity for a client id handed over by SSO.
func (s *Service) ClientByID(ctx context.Context, clientID string) (*models.ExternalClientIdentity, error) {
	const op = "portal.ClientByID"
	if err := s.requireBilling(op); err != nil {
		return nil, err
	}
	client, err := s.billing.GetClientDetails(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperr.ClientNotFound(op, clientID)
	}
	return client, nil
}

func (s *Service) Services(ctx context.Context, clientID string) ([]models.ServiceRecord, fallback.Source, error) {
	const op = "portal.Services"
	if err := s.requireClient(op, clientID); err != nil {
		return nil, fallback.SourceLive, err
	}
	return fallback.Read(ctx, s.policy, "services", clientID, func(ctx context.Context) ([]models.ServiceRecord, error) {
		raw, err := s.billing.GetClientServices(ctx, clientID)
		if err != nil {
			return nil, err
		}
		return EnrichServices(raw), nil
	}, fallback.StaticServices)
}

// Invoices are snapshotted raw and enriched on every call so DaysOverdue
// tracks the current date.
func (s *Service) Invoices(ctx context.Context, clientID string) ([]models.InvoiceRecord, fallback.Source, error) {
	const op = "portal.Invoices"
	if err := s.requireClient(op, clientID); err != nil {
		return nil, fallback.SourceLive, err
	}
	raw, src, err := fallback.Read(ctx, s.policy, "invoices", clientID, func(ctx context.Context) ([]models.InvoiceRecord, error) {
		return s.billing.GetClientInvoices(ctx, clientID)
	}, fallback.StaticInvoices)
	if err != nil {
		return nil, src, err
	}
	return EnrichInvoices(raw, s.now(), s.currency), src, nil
}

func (s *Service) Tickets(ctx context.Context, clientID string) ([]models.SupportTicket, fallback.Source, error) {
	const op = "portal.Tickets"
	if err := s.requireClient(op, clientID); err != nil {
		return nil, fallback.SourceLive, err
	}
	return fallback.Read(ctx, s.policy, "tickets", clientID, func(ctx context.Context) ([]models.SupportTicket, error) {
		return s.billing.GetSupportTickets(ctx, clientID)
	}, fallback.StaticTickets)
}

func (s *Service) Departments(ctx context.Context) ([]models.Department, fallback.Source, error) {
	if err := s.requireBilling("portal.Departments"); err != nil {
		return nil, fallback.SourceLive, err
	}
	return fallback.Read(ctx, s.policy, "departments", "", s.billing.GetSupportDepartments, fallback.StaticDepartments)
}

// Products backs the public pricing page, so it degrades to the static
// catalogue even when billing is not configured.
func (s *Service) Products(ctx context.Context) ([]models.Product, fallback.Source, error) {
	if s.billing == nil {
		return fallback.StaticProducts(), fallback.SourceStatic, nil
	}
	return fallback.Read(ctx, s.policy, "products", "", s.billing.GetProducts, fallback.StaticProducts)
}

type TicketInput struct {
	Email        string `json:"email"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	Priority     string `json:"priority"`
	DepartmentID string `json:"department_id"`
}

// CreateTicket resolves the client from the email before opening the ticket;
// an unknown email fails with ClientNotFound and no ticket call is made.
func (s *Service) CreateTicket(ctx context.Context, in TicketInput) (string, error) {
	const op = "portal.CreateTicket"
	if err := s.requireBilling(op); err != nil {
		return "", err
	}
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Message) == "" {
		return "", apperr.Validation(op, "subject and message are required")
	}
	if strings.TrimSpace(in.DepartmentID) == "" {
		return "", apperr.Validation(op, "department_id is required")
	}
	clientID, err := s.resolver.ResolveClientID(ctx, in.Email)
	if err != nil {
		return "", fallback.Write(op, err)
	}
	tid, err := s.billing.CreateSupportTicket(ctx, billing.TicketRequest{
		ClientID:     clientID,
		Subject:      strings.TrimSpace(in.Subject),
		Message:      in.Message,
		Priority:     in.Priority,
		DepartmentID: strings.TrimSpace(in.DepartmentID),
	})
	if err != nil {
		return "", fallback.Write(op, err)
	}
	s.logger.Info("support ticket opened", "client_id", clientID, "ticket", tid)
	return tid, nil
}

func (s *Service) requireClient(op, clientID string) error {
	if err := s.requireBilling(op); err != nil {
		return err
	}
	if strings.TrimSpace(clientID) == "" {
		return apperr.ClientNotFound(op, "")
	}
	return nil
}
