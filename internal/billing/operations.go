package billing

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/models"
)

// Service is a billing product/service line normalized from the platform's
// response. Derived display fields are added by the portal.
type Service struct {
	ID              string              `json:"id"`
	ProductName     string              `json:"product_name"`
	GroupName       string              `json:"group_name"`
	Domain          string              `json:"domain"`
	DomainStatus    models.DomainStatus `json:"domain_status"`
	BillingCycle    string              `json:"billing_cycle"`
	RecurringAmount decimal.Decimal     `json:"recurring_amount"`
	NextDueDate     string              `json:"next_due_date"`
	DedicatedIP     string              `json:"dedicated_ip"`
	ServerIP        string              `json:"server_ip"`
	ServerName      string              `json:"server_name"`
	// Fields holds custom fields and configurable options keyed by lower-cased name.
	Fields map[string]string `json:"fields,omitempty"`
}

// TicketRequest is the input of CreateSupportTicket.
type TicketRequest struct {
	ClientID     string
	Subject      string
	Message      string
	Priority     string
	DepartmentID string
}

// TestConnection reports whether the platform answers a low-privilege read.
// Any failure, including timeouts, is reported as false.
func (c *Client) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	_, err := c.call(ctx, "WhmcsDetails", nil, false)
	return err == nil
}

// ValidateLogin checks end-user credentials. Invalid credentials return
// (nil, nil); transport failures return an error.
func (c *Client) ValidateLogin(ctx context.Context, email, password string) (*models.ExternalClientIdentity, error) {
	const op = "ValidateLogin"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(op, "email and password are required")
	}
	body, err := c.call(ctx, op, url.Values{"email": {email}, "password2": {password}}, true)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	var login rawLogin
	if err := decode(op, body, &login); err != nil {
		return nil, err
	}
	clientID := firstNonEmpty(login.UserID, login.UserID2, login.ClientID)
	if clientID == "" {
		return nil, nil
	}
	return c.GetClientDetails(ctx, clientID)
}

// GetClientDetails returns (nil, nil) when the platform has no such client.
func (c *Client) GetClientDetails(ctx context.Context, clientID string) (*models.ExternalClientIdentity, error) {
	const op = "GetClientsDetails"
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, nil
	}
	body, err := c.call(ctx, op, url.Values{"clientid": {clientID}, "stats": {"false"}}, true)
	if err != nil {
		if isAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	var details rawClientDetails
	if err := decode(op, body, &details); err != nil {
		return nil, err
	}
	raw := details.rawClient
	if details.Client != nil && details.Client.id() != "" {
		raw = *details.Client
	}
	identity := toIdentity(raw)
	if identity.ClientID == "" {
		identity.ClientID = clientID
	}
	return &identity, nil
}

// ListClients returns one page of clients starting at offset, plus the
// platform's reported total.
func (c *Client) ListClients(ctx context.Context, offset int, search string) ([]models.ExternalClientIdentity, int, error) {
	const op = "GetClients"
	params := url.Values{
		"limitstart": {strconv.Itoa(offset)},
		"limitnum":   {strconv.Itoa(c.pageSize)},
	}
	if search != "" {
		params.Set("search", search)
	}
	body, err := c.call(ctx, op, params, true)
	if err != nil {
		if isAbsent(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var page rawClientList
	if err := decode(op, body, &page); err != nil {
		return nil, 0, err
	}
	out := make([]models.ExternalClientIdentity, 0, len(page.Clients))
	for _, raw := range page.Clients {
		out = append(out, toIdentity(raw))
	}
	total, _ := strconv.Atoi(page.TotalResults.String())
	return out, total, nil
}

// GetClientByEmail scans the first page of GetClients (BILLING_CLIENT_PAGE_SIZE
// rows) for a case-insensitive email match. Clients beyond that page are not
// found; callers needing more must page with ListClients.
func (c *Client) GetClientByEmail(ctx context.Context, email string) (*models.ExternalClientIdentity, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, nil
	}
	clients, _, err := c.ListClients(ctx, 0, email)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if strings.EqualFold(strings.TrimSpace(clients[i].Email), email) {
			return &clients[i], nil
		}
	}
	return nil, nil
}

func (c *Client) GetClientServices(ctx context.Context, clientID string) ([]Service, error) {
	const op = "GetClientsProducts"
	if clientID == "" {
		return nil, apperr.ClientNotFound(op, "")
	}
	body, err := c.call(ctx, op, url.Values{"clientid": {clientID}}, true)
	if err != nil {
		if isAbsent(err) {
			return []Service{}, nil
		}
		return nil, err
	}
	var list rawServiceList
	if err := decode(op, body, &list); err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(list.Products))
	for _, raw := range list.Products {
		out = append(out, toService(raw))
	}
	return out, nil
}

func (c *Client) GetClientInvoices(ctx context.Context, clientID string) ([]models.InvoiceRecord, error) {
	const op = "GetInvoices"
	if clientID == "" {
		return nil, apperr.ClientNotFound(op, "")
	}
	params := url.Values{
		"userid":   {clientID},
		"limitnum": {strconv.Itoa(c.pageSize)},
		"orderby":  {"duedate"},
		"order":    {"desc"},
	}
	body, err := c.call(ctx, op, params, true)
	if err != nil {
		if isAbsent(err) {
			return []models.InvoiceRecord{}, nil
		}
		return nil, err
	}
	var list rawInvoiceList
	if err := decode(op, body, &list); err != nil {
		return nil, err
	}
	out := make([]models.InvoiceRecord, 0, len(list.Invoices))
	for _, raw := range list.Invoices {
		out = append(out, toInvoice(raw))
	}
	return out, nil
}

// GetSupportTickets lists tickets, optionally for one client. The result is
// always a slice even when the platform returns a single ticket object.
func (c *Client) GetSupportTickets(ctx context.Context, clientID string) ([]models.SupportTicket, error) {
	const op = "GetTickets"
	params := url.Values{"limitnum": {strconv.Itoa(c.pageSize)}}
	if clientID != "" {
		params.Set("clientid", clientID)
	}
	body, err := c.call(ctx, op, params, true)
	if err != nil {
		if isAbsent(err) {
			return []models.SupportTicket{}, nil
		}
		return nil, err
	}
	var list rawTicketList
	if err := decode(op, body, &list); err != nil {
		return nil, err
	}
	out := make([]models.SupportTicket, 0, len(list.Tickets))
	for _, raw := range list.Tickets {
		out = append(out, toTicket(raw))
	}
	return out, nil
}

// CreateSupportTicket opens a ticket and returns its public ticket id. The
// caller resolves ClientID first; an empty one fails without a network call.
func (c *Client) CreateSupportTicket(ctx context.Context, req TicketRequest) (string, error) {
	const op = "OpenTicket"
	if strings.TrimSpace(req.ClientID) == "" {
		return "", apperr.ClientNotFound(op, "")
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		return "", apperr.Validation(op, "subject and message are required")
	}
	if strings.TrimSpace(req.DepartmentID) == "" {
		return "", apperr.Validation(op, "department is required")
	}
	params := url.Values{
		"clientid": {req.ClientID},
		"deptid":   {req.DepartmentID},
		"subject":  {req.Subject},
		"message":  {req.Message},
		"priority": {NormalizePriority(req.Priority)},
	}
	body, err := c.call(ctx, op, params, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return "", apperr.Validation(op, apiErr.Message)
		}
		return "", err
	}
	var opened rawOpenTicket
	if err := decode(op, body, &opened); err != nil {
		return "", err
	}
	if tid := opened.TID.String(); tid != "" {
		return tid, nil
	}
	return opened.ID.String(), nil
}

func (c *Client) GetSupportDepartments(ctx context.Context) ([]models.Department, error) {
	const op = "GetSupportDepartments"
	body, err := c.call(ctx, op, nil, true)
	if err != nil {
		if isAbsent(err) {
			return []models.Department{}, nil
		}
		return nil, err
	}
	var list rawDepartmentList
	if err := decode(op, body, &list); err != nil {
		return nil, err
	}
	out := make([]models.Department, 0, len(list.Departments))
	for _, raw := range list.Departments {
		out = append(out, models.Department{ID: raw.ID.String(), Name: strings.TrimSpace(raw.Name)})
	}
	return out, nil
}

func (c *Client) GetProducts(ctx context.Context) ([]models.Product, error) {
	const op = "GetProducts"
	body, err := c.call(ctx, op, nil, true)
	if err != nil {
		if isAbsent(err) {
			return []models.Product{}, nil
		}
		return nil, err
	}
	var list rawProductList
	if err := decode(op, body, &list); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(list.Products))
	for _, raw := range list.Products {
		price, _ := raw.monthly(c.currency)
		out = append(out, models.Product{
			ID:           raw.PID.String(),
			GroupName:    raw.GroupName,
			Name:         raw.Name,
			Description:  raw.Description,
			MonthlyPrice: price,
		})
	}
	return out, nil
}

// NormalizePriority maps free-form input to Low, Medium or High, defaulting to Medium.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "low":
		return models.PriorityLow
	case "high", "urgent":
		return models.PriorityHigh
	default:
		return models.PriorityMedium
	}
}

func MapClientStatus(s string) models.ClientStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return models.ClientActive
	case "inactive", "closed":
		return models.ClientInactive
	case "suspended":
		return models.ClientSuspended
	default:
		return models.ClientUnknown
	}
}

func MapDomainStatus(s string) models.DomainStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return models.DomainActive
	case "suspended":
		return models.DomainSuspended
	case "terminated", "cancelled":
		return models.DomainTerminated
	default:
		return models.DomainUnknown
	}
}

func MapInvoiceStatus(s string) models.InvoiceStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return models.InvoicePaid
	case "unpaid", "overdue":
		return models.InvoiceUnpaid
	default:
		return models.InvoiceOther
	}
}

func MapTicketStatus(s string) models.TicketStatus {
	switch strings.ToLower(strings.Join(strings.Fields(s), "")) {
	case "open":
		return models.TicketOpen
	case "answered":
		return models.TicketAnswered
	case "customer-reply", "customerreply":
		return models.TicketCustomerReply
	case "closed":
		return models.TicketClosed
	default:
		return models.TicketOther
	}
}

func toIdentity(raw rawClient) models.ExternalClientIdentity {
	return models.ExternalClientIdentity{
		ClientID:  raw.id(),
		Email:     strings.TrimSpace(raw.Email),
		FirstName: strings.TrimSpace(raw.FirstName),
		LastName:  strings.TrimSpace(raw.LastName),
		Status:    MapClientStatus(raw.Status),
	}
}

func toService(raw rawService) Service {
	name := strings.TrimSpace(raw.TranslatedName)
	if name == "" {
		name = strings.TrimSpace(raw.Name)
	}
	fields := make(map[string]string)
	for _, group := range [][]rawNamedValue{raw.CustomFields, raw.ConfigOptions} {
		for _, f := range group {
			key := f.Name
			if key == "" {
				key = f.Option
			}
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" || f.Value.String() == "" {
				continue
			}
			if _, seen := fields[key]; !seen {
				fields[key] = f.Value.String()
			}
		}
	}
	if len(fields) == 0 {
		fields = nil
	}
	serverIP := strings.TrimSpace(raw.ServerIP)
	return Service{
		ID:              raw.ID.String(),
		ProductName:     name,
		GroupName:       strings.TrimSpace(raw.GroupName),
		Domain:          strings.TrimSpace(raw.Domain),
		DomainStatus:    MapDomainStatus(raw.Status),
		BillingCycle:    strings.TrimSpace(raw.BillingCycle),
		RecurringAmount: parseAmount(raw.RecurringAmount),
		NextDueDate:     zeroDate(raw.NextDueDate),
		DedicatedIP:     strings.TrimSpace(raw.DedicatedIP),
		ServerIP:        serverIP,
		ServerName:      firstNonEmptyString(raw.ServerName, raw.ServerHostname),
		Fields:          fields,
	}
}

func toInvoice(raw rawInvoice) models.InvoiceRecord {
	number := raw.InvoiceNum.String()
	if number == "" {
		number = raw.ID.String()
	}
	return models.InvoiceRecord{
		InvoiceNumber: number,
		Date:          zeroDate(raw.Date),
		DueDate:       zeroDate(raw.DueDate),
		Total:         parseAmount(raw.Total),
		Status:        MapInvoiceStatus(raw.Status),
		RawStatus:     strings.TrimSpace(raw.Status),
		PaymentMethod: strings.TrimSpace(raw.PaymentMethod),
	}
}

func toTicket(raw rawTicket) models.SupportTicket {
	id := raw.TID.String()
	if id == "" {
		id = raw.ID.String()
	}
	dept := strings.TrimSpace(raw.DeptName)
	if dept == "" {
		dept = raw.DeptID.String()
	}
	priority := strings.TrimSpace(raw.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}
	return models.SupportTicket{
		TicketID:   id,
		Subject:    strings.TrimSpace(raw.Subject),
		Department: dept,
		Status:     MapTicketStatus(raw.Status),
		Priority:   priority,
		CreatedAt:  zeroDate(raw.Date),
	}
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if s := v.String(); s != "" && s != "0" {
			return s
		}
	}
	return ""
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
