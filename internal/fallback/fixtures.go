package fallback

import (
	"github.com/shopspring/decimal"

	"gameforge.gg/platform/internal/models"
)

// Defaults for the derived ServerDetails block when neither upstream fields
// nor the product name supply a value.
const (
	DefaultIP            = "Pending assignment"
	DefaultPort          = "25565"
	DefaultLocation      = "US East"
	DefaultGameType      = "Minecraft"
	DefaultRAM           = "4GB RAM"
	DefaultStorage       = "50GB NVMe SSD"
	DefaultCPU           = "2 vCPU Cores"
	DefaultBandwidth     = "Unmetered"
	DefaultUptimePercent = 99.9
)

func DefaultServerDetails() models.ServerDetails {
	return models.ServerDetails{
		IP:       DefaultIP,
		Port:     DefaultPort,
		Location: DefaultLocation,
		GameType: DefaultGameType,
		Specs: models.Specs{
			RAM:       DefaultRAM,
			Storage:   DefaultStorage,
			CPU:       DefaultCPU,
			Bandwidth: DefaultBandwidth,
		},
		Status:        models.ServerStateOffline,
		UptimePercent: DefaultUptimePercent,
	}
}

// PlaceholderServers is the demo server list shown when the panel has no API
// key: exactly three servers, mixing online and offline.
func PlaceholderServers() []models.PanelServer {
	return []models.PanelServer{
		{
			ID: "demo-1", Name: "Survival SMP", Game: "Minecraft", Status: models.PanelOnline,
			IP: "192.0.2.10", Port: 25565, MaxPlayers: 20, CurrentPlayers: 7, CPUPercent: 34.5,
			Memory: models.Usage{Used: 2_684_354_560, Total: 4_294_967_296},
			Disk:   models.Usage{Used: 12_884_901_888, Total: 53_687_091_200},
			Node:   "node-us-east-1", Location: "US East", UptimeSeconds: 273_600,
		},
		{
			ID: "demo-2", Name: "Rust Weekly Wipe", Game: "Rust", Status: models.PanelOffline,
			IP: "192.0.2.11", Port: 28015, MaxPlayers: 100,
			Memory: models.Usage{Total: 8_589_934_592},
			Disk:   models.Usage{Used: 21_474_836_480, Total: 107_374_182_400},
			Node:   "node-eu-west-1", Location: "EU West",
		},
		{
			ID: "demo-3", Name: "Valheim Vikings", Game: "Valheim", Status: models.PanelOnline,
			IP: "192.0.2.12", Port: 2456, MaxPlayers: 10, CurrentPlayers: 3, CPUPercent: 18.2,
			Memory: models.Usage{Used: 1_610_612_736, Total: 4_294_967_296},
			Disk:   models.Usage{Used: 3_221_225_472, Total: 53_687_091_200},
			Node:   "node-us-west-1", Location: "US West", UptimeSeconds: 86_400,
		},
	}
}

// UnreachableServer stands in for a single server while the panel cannot be reached.
func UnreachableServer(id string) *models.PanelServer {
	return &models.PanelServer{ID: id, Name: "Server " + id, Game: "Unknown", Status: models.PanelOffline}
}

func PlaceholderLogs() []string {
	return []string{
		"[00:00:00 INFO]: Starting server (demo mode)",
		"[00:00:01 INFO]: Loading world data",
		"[00:00:03 INFO]: Done! Server is ready for connections",
		"[00:00:03 WARN]: Panel integration not configured, showing placeholder output",
	}
}

func StaticServices() []models.ServiceRecord {
	mc := DefaultServerDetails()
	mc.Status = models.ServerStateOnline

	rust := DefaultServerDetails()
	rust.GameType = "Rust"
	rust.Port = "28015"
	rust.Specs.RAM = "8GB RAM"
	rust.Location = "EU West"

	return []models.ServiceRecord{
		{
			ID: "static-1", ProductName: "4GB Minecraft Starter", DomainStatus: models.DomainActive,
			BillingCycle: "Monthly", RecurringAmount: decimal.RequireFromString("9.99"), ServerDetails: mc,
		},
		{
			ID: "static-2", ProductName: "8GB Rust Standard", DomainStatus: models.DomainActive,
			BillingCycle: "Monthly", RecurringAmount: decimal.RequireFromString("19.99"), ServerDetails: rust,
		},
	}
}

func StaticInvoices() []models.InvoiceRecord {
	return []models.InvoiceRecord{
		{
			InvoiceNumber: "static-1001", Date: "2024-01-01", DueDate: "2024-01-15",
			Total: decimal.RequireFromString("9.99"), Status: models.InvoicePaid, RawStatus: "Paid",
			PaymentMethod: "stripe", FormattedTotal: "$9.99",
		},
		{
			InvoiceNumber: "static-1002", Date: "2024-02-01", DueDate: "2024-02-15",
			Total: decimal.RequireFromString("19.99"), Status: models.InvoicePaid, RawStatus: "Paid",
			PaymentMethod: "stripe", FormattedTotal: "$19.99",
		},
	}
}

func StaticTickets() []models.SupportTicket {
	return []models.SupportTicket{
		{
			TicketID: "static-1", Subject: "Welcome to GameForge", Department: "Support",
			Status: models.TicketClosed, Priority: models.PriorityLow, CreatedAt: "2024-01-01 00:00:00",
		},
	}
}

func StaticDepartments() []models.Department {
	return []models.Department{
		{ID: "1", Name: "Technical Support"},
		{ID: "2", Name: "Billing"},
		{ID: "3", Name: "Sales"},
	}
}

// StaticProducts is the pricing-page catalogue used when billing is disabled or unreachable.
func StaticProducts() []models.Product {
	return []models.Product{
		{ID: "static-mc-2", GroupName: "Minecraft", Name: "2GB Minecraft Lite", Description: "Up to 10 players", MonthlyPrice: decimal.RequireFromString("4.99")},
		{ID: "static-mc-4", GroupName: "Minecraft", Name: "4GB Minecraft Starter", Description: "Up to 25 players", MonthlyPrice: decimal.RequireFromString("9.99")},
		{ID: "static-mc-8", GroupName: "Minecraft", Name: "8GB Minecraft Pro", Description: "Modpacks and 60+ players", MonthlyPrice: decimal.RequireFromString("19.99")},
		{ID: "static-rust-8", GroupName: "Rust", Name: "8GB Rust Standard", Description: "Up to 100 players", MonthlyPrice: decimal.RequireFromString("19.99")},
		{ID: "static-valheim-4", GroupName: "Valheim", Name: "4GB Valheim", Description: "Up to 10 vikings", MonthlyPrice: decimal.RequireFromString("9.99")},
	}
}

// StaticLocations mirrors the seeded locations with no probe data, for the
// public list when the datastore is unreachable.
func StaticLocations() []models.Location {
	return []models.Location{
		{ID: 1, Name: "Ashburn", Region: "US East", Endpoint: "ash.gameforge.gg:25565", Status: models.LocationUnknown, IsActive: true},
		{ID: 2, Name: "Dallas", Region: "US Central", Endpoint: "dal.gameforge.gg:25565", Status: models.LocationUnknown, IsActive: true},
		{ID: 3, Name: "Frankfurt", Region: "EU West", Endpoint: "fra.gameforge.gg:25565", Status: models.LocationUnknown, IsActive: true},
		{ID: 4, Name: "Singapore", Region: "Asia", Endpoint: "sgp.gameforge.gg:25565", Status: models.LocationUnknown, IsActive: true},
	}
}
