package portal

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"gameforge.gg/platform/internal/billing"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

var (
	ramPattern     = regexp.MustCompile(`(?i)(\d+)\s*GB(\s*(?:NVMe|SSD|HDD|storage|disk))?`)
	storagePattern = regexp.MustCompile(`(?i)(\d+)\s*(GB|TB)\s*(NVMe|SSD|HDD|storage|disk)`)
	cpuPattern     = regexp.MustCompile(`(?i)(\d+)\s*(vCPU|vCores?|cores?|threads?)`)
	regionPattern  = regexp.MustCompile(`(?i)\b(US East|US West|US Central|EU West|EU Central|UK|Asia|Singapore|Australia|Brazil)\b`)
)

type gameKeyword struct {
	pattern *regexp.Regexp
	game    string
	port    string
}

// gameKeywords is checked in order; the first word found in the product name
// or group decides the game and its default port.
var gameKeywords = []gameKeyword{
	keyword("minecraft", "Minecraft", "25565"),
	keyword("rust", "Rust", "28015"),
	keyword("valheim", "Valheim", "2456"),
	keyword("ark", "ARK: Survival Evolved", "7777"),
	keyword("terraria", "Terraria", "7777"),
	keyword("palworld", "Palworld", "8211"),
	keyword("counter-strike", "Counter-Strike 2", "27015"),
	keyword("cs2", "Counter-Strike 2", "27015"),
	keyword("7 days", "7 Days to Die", "26900"),
	keyword("garry", "Garry's Mod", "27015"),
}

func keyword(word, game, port string) gameKeyword {
	return gameKeyword{
		pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		game:    game,
		port:    port,
	}
}

// EnrichService derives ServerDetails for a billing service. Each field is
// resolved on its own: explicit upstream values first, then values parsed from
// the product name or domain, then defaults. The input is not modified.
func EnrichService(svc billing.Service) models.ServiceRecord {
	d := fallback.DefaultServerDetails()
	text := svc.ProductName + " " + svc.GroupName
	domainHost, domainPort := splitHostPort(svc.Domain)

	d.IP = first(svc.DedicatedIP, svc.ServerIP, field(svc, "ip address", "server ip", "ip"), domainHost, fallback.DefaultIP)

	game, gamePort := matchGame(text)
	d.GameType = first(field(svc, "game", "game type"), game, fallback.DefaultGameType)
	d.Port = first(field(svc, "port", "server port", "game port"), domainPort, gamePort, fallback.DefaultPort)
	d.Location = first(field(svc, "location", "region", "datacenter"), match(regionPattern, text, "%s"), fallback.DefaultLocation)

	d.Specs.RAM = first(units(field(svc, "ram", "memory"), "GB RAM"), matchRAM(svc.ProductName), fallback.DefaultRAM)
	d.Specs.Storage = first(units(field(svc, "storage", "disk", "disk space"), "GB NVMe SSD"), matchStorage(text), fallback.DefaultStorage)
	d.Specs.CPU = first(units(field(svc, "cpu", "cpu cores", "cores"), " vCPU Cores"), match(cpuPattern, text, "%s vCPU Cores"), fallback.DefaultCPU)
	d.Specs.Bandwidth = first(field(svc, "bandwidth"), fallback.DefaultBandwidth)

	if svc.DomainStatus == models.DomainActive {
		d.Status = models.ServerStateOnline
	} else {
		d.Status = models.ServerStateOffline
		d.UptimePercent = 0
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(field(svc, "uptime"), "%"), 64); err == nil && v >= 0 && v <= 100 {
		d.UptimePercent = v
	}

	return models.ServiceRecord{
		ID:              svc.ID,
		ProductName:     svc.ProductName,
		DomainStatus:    svc.DomainStatus,
		BillingCycle:    svc.BillingCycle,
		RecurringAmount: svc.RecurringAmount,
		NextDueDate:     svc.NextDueDate,
		ServerDetails:   d,
	}
}

func EnrichServices(services []billing.Service) []models.ServiceRecord {
	out := make([]models.ServiceRecord, 0, len(services))
	for _, svc := range services {
		out = append(out, EnrichService(svc))
	}
	return out
}

// EnrichInvoice returns a copy with DaysOverdue and FormattedTotal derived.
func EnrichInvoice(inv models.InvoiceRecord, now time.Time, prefix string) models.InvoiceRecord {
	inv.DaysOverdue = DaysOverdue(inv, now)
	inv.FormattedTotal = FormatMoney(inv.Total, prefix)
	return inv
}

func EnrichInvoices(invoices []models.InvoiceRecord, now time.Time, prefix string) []models.InvoiceRecord {
	out := make([]models.InvoiceRecord, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, EnrichInvoice(inv, now, prefix))
	}
	return out
}

// DaysOverdue counts whole calendar days past the due date for unpaid
// invoices. Paid, future-dated and undated invoices are 0.
func DaysOverdue(inv models.InvoiceRecord, now time.Time) int {
	if inv.Status != models.InvoiceUnpaid {
		return 0
	}
	due, ok := parseDate(inv.DueDate)
	if !ok {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// FormatMoney renders an amount as prefix plus thousands-grouped value with two decimals.
func FormatMoney(amount decimal.Decimal, prefix string) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
	}
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + prefix + fixed
	}
	return sign + prefix + humanize.Comma(n) + "." + frac
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func field(svc billing.Service, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(svc.Fields[n]); v != "" {
			return v
		}
	}
	return ""
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// units appends suffix to a bare number, leaving descriptive values alone.
func units(v, suffix string) string {
	if v == "" {
		return ""
	}
	if _, err := strconv.Atoi(v); err == nil {
		return v + suffix
	}
	return v
}

func match(re *regexp.Regexp, text, format string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return fmt.Sprintf(format, m[1])
}

// matchRAM takes the first GB figure that is not followed by a storage word.
func matchRAM(text string) string {
	for _, m := range ramPattern.FindAllStringSubmatch(text, -1) {
		if m[2] == "" {
			return m[1] + "GB RAM"
		}
	}
	return ""
}

func matchStorage(text string) string {
	m := storagePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s%s %s", m[1], strings.ToUpper(m[2]), m[3])
}

func matchGame(text string) (game, port string) {
	for _, g := range gameKeywords {
		if g.pattern.MatchString(text) {
			return g.game, g.port
		}
	}
	return "", ""
}

func splitHostPort(domain string) (host, port string) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return "", ""
	}
	if h, p, err := net.SplitHostPort(domain); err == nil {
		return h, p
	}
	if net.ParseIP(domain) != nil || (strings.Contains(domain, ".") && !strings.ContainsAny(domain, " /")) {
		return domain, ""
	}
	return "", ""
}
