package portal

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

func TestEnrichServiceExtractsRAMFromProductName(t *testing.T) {
	rec := EnrichService(billing.Service{ID: "1", ProductName: "8GB Minecraft Pro", DomainStatus: models.DomainActive})

	d := rec.ServerDetails
	if d.Specs.RAM != "8GB RAM" {
		t.Fatalf("ram: got %q", d.Specs.RAM)
	}
	if d.GameType != "Minecraft" || d.Port != "25565" {
		t.Fatalf("game keyword not applied: %+v", d)
	}
	if d.Specs.Storage != fallback.DefaultStorage || d.IP != fallback.DefaultIP {
		t.Fatalf("missing fields should use defaults: %+v", d)
	}
	if d.Status != models.ServerStateOnline {
		t.Fatalf("active service should be online, got %s", d.Status)
	}
}

func TestEnrichServiceResolvesFieldsIndependently(t *testing.T) {
	svc := billing.Service{
		ID:           "2",
		ProductName:  "Rust Server 16GB 200GB NVMe EU West",
		DomainStatus: models.DomainSuspended,
		ServerIP:     "203.0.113.9",
		Domain:       "rust.example.gg:28100",
		Fields:       map[string]string{"cpu": "6", "location": "Frankfurt"},
	}
	d := EnrichService(svc).ServerDetails

	if d.IP != "203.0.113.9" {
		t.Fatalf("explicit ip should win, got %q", d.IP)
	}
	if d.Port != "28100" {
		t.Fatalf("domain port should beat the game default, got %q", d.Port)
	}
	if d.Location != "Frankfurt" {
		t.Fatalf("custom field should beat the name pattern, got %q", d.Location)
	}
	if d.Specs.RAM != "16GB RAM" || d.Specs.Storage != "200GB NVMe" || d.Specs.CPU != "6 vCPU Cores" {
		t.Fatalf("unexpected specs: %+v", d.Specs)
	}
	if d.Specs.Bandwidth != fallback.DefaultBandwidth {
		t.Fatalf("bandwidth should default, got %q", d.Specs.Bandwidth)
	}
	if d.Status != models.ServerStateOffline || d.UptimePercent != 0 {
		t.Fatalf("suspended service should be offline: %+v", d)
	}
}

func TestEnrichServiceSkipsStorageWhenReadingRAM(t *testing.T) {
	cases := map[string]string{
		"Minecraft 100GB NVMe 8GB": "8GB RAM",
		"Rust 200 GB SSD - 12 GB":  "12GB RAM",
		"Valheim 50GB Storage":     fallback.DefaultRAM,
		"16GB Palworld 250GB NVMe": "16GB RAM",
	}
	for name, want := range cases {
		d := EnrichService(billing.Service{ID: "1", ProductName: name}).ServerDetails
		if d.Specs.RAM != want {
			t.Fatalf("%q: got %q, want %q", name, d.Specs.RAM, want)
		}
	}
	d := EnrichService(billing.Service{ID: "1", ProductName: "Minecraft 100GB NVMe 8GB"}).ServerDetails
	if d.Specs.Storage != "100GB NVMe" {
		t.Fatalf("storage: got %q", d.Specs.Storage)
	}
}

func TestEnrichServiceIsIdempotent(t *testing.T) {
	svc := billing.Service{
		ID:              "3",
		ProductName:     "4GB Valheim",
		DomainStatus:    models.DomainActive,
		RecurringAmount: decimal.RequireFromString("9.99"),
		Fields:          map[string]string{"port": "2457"},
	}
	first := EnrichService(svc)
	second := EnrichService(svc)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("enrichment not idempotent:\n%+v\n%+v", first, second)
	}
	if len(svc.Fields) != 1 || svc.Fields["port"] != "2457" {
		t.Fatalf("input was mutated: %v", svc.Fields)
	}
}

func TestDaysOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		inv  models.InvoiceRecord
		want int
	}{
		{"paid past due", models.InvoiceRecord{Status: models.InvoicePaid, DueDate: "2024-01-01"}, 0},
		{"unpaid future", models.InvoiceRecord{Status: models.InvoiceUnpaid, DueDate: "2024-03-20"}, 0},
		{"unpaid due today", models.InvoiceRecord{Status: models.InvoiceUnpaid, DueDate: "2024-03-10"}, 0},
		{"unpaid five days", models.InvoiceRecord{Status: models.InvoiceUnpaid, DueDate: "2024-03-05"}, 5},
		{"unpaid with time", models.InvoiceRecord{Status: models.InvoiceUnpaid, DueDate: "2024-02-29 00:00:00"}, 10},
		{"unpaid no date", models.InvoiceRecord{Status: models.InvoiceUnpaid}, 0},
		{"other status", models.InvoiceRecord{Status: models.InvoiceOther, DueDate: "2020-01-01"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysOverdue(tc.inv, now); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEnrichInvoiceReturnsCopy(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	raw := models.InvoiceRecord{InvoiceNumber: "9", Status: models.InvoiceUnpaid, DueDate: "2024-03-01", Total: decimal.RequireFromString("1234.5")}

	once := EnrichInvoice(raw, now, "$")
	twice := EnrichInvoice(once, now, "$")
	if raw.DaysOverdue != 0 || raw.FormattedTotal != "" {
		t.Fatalf("raw record mutated: %+v", raw)
	}
	if once.DaysOverdue != 9 || once.FormattedTotal != "$1,234.50" {
		t.Fatalf("unexpected enrichment: %+v", once)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatal("invoice enrichment not idempotent")
	}
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "€0.00",
		"9.999":     "€10.00",
		"1234567.8": "€1,234,567.80",
		"-0.5":      "-€0.50",
	}
	for in, want := range cases {
		if got := FormatMoney(decimal.RequireFromString(in), "€"); got != want {
			t.Fatalf("FormatMoney(%s): got %q, want %q", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(models.PanelServer{
		ID: "a", IP: "198.51.100.4", Port: 25565, UptimeSeconds: 93_784,
		Memory: models.Usage{Used: 2 << 30, Total: 4 << 30},
	})
	if s.MemoryPercent != 50 || s.DiskPercent != 0 {
		t.Fatalf("percentages: %+v", s)
	}
	if s.Address != "198.51.100.4:25565" || s.Uptime != "1d 2h" {
		t.Fatalf("display fields: %q %q", s.Address, s.Uptime)
	}
	if s.MemoryDisplay != "2.0 GiB / 4.0 GiB" {
		t.Fatalf("memory display: %q", s.MemoryDisplay)
	}
}
