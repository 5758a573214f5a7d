package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClientStatus string

const (
	ClientActive    ClientStatus = "Active"
	ClientInactive  ClientStatus = "Inactive"
	ClientSuspended ClientStatus = "Suspended"
	ClientUnknown   ClientStatus = "Unknown"
)

// ExternalClientIdentity is a billing-platform account. ClientID is required
// for every service, invoice and ticket lookup.
type ExternalClientIdentity struct {
	ClientID  string       `json:"client_id"`
	Email     string       `json:"email"`
	FirstName string       `json:"first_name"`
	LastName  string       `json:"last_name"`
	Status    ClientStatus `json:"status"`
}

func (c ExternalClientIdentity) Resolved() bool {
	return c.ClientID != ""
}

type DomainStatus string

const (
	DomainActive     DomainStatus = "Active"
	DomainSuspended  DomainStatus = "Suspended"
	DomainTerminated DomainStatus = "Terminated"
	DomainUnknown    DomainStatus = "Unknown"
)

type ServerState string

const (
	ServerStateOnline  ServerState = "Online"
	ServerStateOffline ServerState = "Offline"
)

type Specs struct {
	RAM       string `json:"ram"`
	Storage   string `json:"storage"`
	CPU       string `json:"cpu"`
	Bandwidth string `json:"bandwidth"`
}

// ServerDetails is derived for every service; every field always has a value.
type ServerDetails struct {
	IP            string      `json:"ip"`
	Port          string      `json:"port"`
	Location      string      `json:"location"`
	GameType      string      `json:"game_type"`
	Specs         Specs       `json:"specs"`
	Status        ServerState `json:"status"`
	UptimePercent float64     `json:"uptime_percent"`
}

type ServiceRecord struct {
	ID              string          `json:"id"`
	ProductName     string          `json:"product_name"`
	DomainStatus    DomainStatus    `json:"domain_status"`
	BillingCycle    string          `json:"billing_cycle"`
	RecurringAmount decimal.Decimal `json:"recurring_amount"`
	NextDueDate     string          `json:"next_due_date"`
	ServerDetails   ServerDetails   `json:"server_details"`
}

type InvoiceStatus string

const (
	InvoicePaid   InvoiceStatus = "Paid"
	InvoiceUnpaid InvoiceStatus = "Unpaid"
	InvoiceOther  InvoiceStatus = "Other"
)

type InvoiceRecord struct {
	InvoiceNumber  string          `json:"invoice_number"`
	Date           string          `json:"date"`
	DueDate        string          `json:"due_date"`
	Total          decimal.Decimal `json:"total"`
	Status         InvoiceStatus   `json:"status"`
	RawStatus      string          `json:"raw_status,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	DaysOverdue    int             `json:"days_overdue"`
	FormattedTotal string          `json:"formatted_total"`
}

type TicketStatus string

const (
	TicketOpen          TicketStatus = "Open"
	TicketAnswered      TicketStatus = "Answered"
	TicketCustomerReply TicketStatus = "CustomerReply"
	TicketClosed        TicketStatus = "Closed"
	TicketOther         TicketStatus = "Other"
)

type SupportTicket struct {
	TicketID   string       `json:"ticket_id"`
	Subject    string       `json:"subject"`
	Department string       `json:"department"`
	Status     TicketStatus `json:"status"`
	Priority   string       `json:"priority"`
	CreatedAt  string       `json:"created_at"`
}

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID           string          `json:"id"`
	GroupName    string          `json:"group_name"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
}

type PanelStatus string

const (
	PanelOnline   PanelStatus = "online"
	PanelOffline  PanelStatus = "offline"
	PanelStarting PanelStatus = "starting"
	PanelStopping PanelStatus = "stopping"
)

type Usage struct {
	Used  int64 `json:"used"`
	Total int64 `json:"total"`
}

// PanelServer numeric fields are zero, never absent, when upstream omits them.
type PanelServer struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Game           string      `json:"game"`
	Status         PanelStatus `json:"status"`
	IP             string      `json:"ip"`
	Port           int         `json:"port"`
	MaxPlayers     int         `json:"max_players"`
	CurrentPlayers int         `json:"current_players"`
	CPUPercent     float64     `json:"cpu_percent"`
	Memory         Usage       `json:"memory"`
	Disk           Usage       `json:"disk"`
	Node           string      `json:"node"`
	Location       string      `json:"location"`
	UptimeSeconds  int64       `json:"uptime_seconds"`
}

type PowerAction string

const (
	PowerStart   PowerAction = "start"
	PowerStop    PowerAction = "stop"
	PowerRestart PowerAction = "restart"
)

func (a PowerAction) Valid() bool {
	switch a {
	case PowerStart, PowerStop, PowerRestart:
		return true
	}
	return false
}

type LocationStatus string

const (
	LocationOnline   LocationStatus = "online"
	LocationDegraded LocationStatus = "degraded"
	LocationOffline  LocationStatus = "offline"
	LocationUnknown  LocationStatus = "unknown"
)

type Location struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Region      string         `json:"region"`
	Endpoint    string         `json:"endpoint"`
	LatencyMs   int            `json:"latency_ms"`
	Status      LocationStatus `json:"status"`
	LastChecked *time.Time     `json:"last_checked"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type AdminUser struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
