package portal

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"gameforge.gg/platform/internal/apperr"
	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

// ServerSummary is a panel server with derived utilisation fields.
type ServerSummary struct {
	models.PanelServer
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	MemoryDisplay string  `json:"memory_display"`
	DiskDisplay   string  `json:"disk_display"`
	Address       string  `json:"address"`
	Uptime        string  `json:"uptime"`
}

func Summarize(s models.PanelServer) ServerSummary {
	out := ServerSummary{
		PanelServer:   s,
		MemoryPercent: percent(s.Memory),
		DiskPercent:   percent(s.Disk),
		MemoryDisplay: usageDisplay(s.Memory),
		DiskDisplay:   usageDisplay(s.Disk),
		Uptime:        formatUptime(s.UptimeSeconds),
	}
	if s.IP != "" {
		out.Address = s.IP
		if s.Port > 0 {
			out.Address = fmt.Sprintf("%s:%d", s.IP, s.Port)
		}
	}
	return out
}

func SummarizeAll(servers []models.PanelServer) []ServerSummary {
	out := make([]ServerSummary, 0, len(servers))
	for _, s := range servers {
		out = append(out, Summarize(s))
	}
	return out
}

func percent(u models.Usage) float64 {
	if u.Total <= 0 || u.Used <= 0 {
		return 0
	}
	p := float64(u.Used) / float64(u.Total) * 100
	return math.Round(p*10) / 10
}

func usageDisplay(u models.Usage) string {
	if u.Total <= 0 {
		return humanize.IBytes(uint64(max(u.Used, 0)))
	}
	return humanize.IBytes(uint64(max(u.Used, 0))) + " / " + humanize.IBytes(uint64(u.Total))
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// Servers lists the panel servers for an account email. Panel data is never
// snapshotted; an unreachable panel yields the placeholder set.
func (s *Service) Servers(ctx context.Context, email string) ([]ServerSummary, fallback.Source, error) {
	if !s.panel.Configured() {
		servers, err := s.panel.ListServers(ctx, email)
		return SummarizeAll(servers), fallback.SourcePlaceholder, err
	}
	servers, src, err := fallback.Read(ctx, s.policy.WithoutSnapshots(), "servers", normalizeEmail(email), func(ctx context.Context) ([]models.PanelServer, error) {
		return s.panel.ListServers(ctx, email)
	}, fallback.PlaceholderServers)
	if err != nil {
		return nil, src, err
	}
	return SummarizeAll(servers), src, nil
}

func (s *Service) Server(ctx context.Context, email, id string) (*ServerSummary, fallback.Source, error) {
	const op = "portal.Server"
	if !s.panel.Configured() {
		server, err := s.panel.GetServer(ctx, id)
		if err != nil {
			return nil, fallback.SourcePlaceholder, err
		}
		if server == nil {
			return nil, fallback.SourcePlaceholder, apperr.NotFound(op, "server not found")
		}
		summary := Summarize(*server)
		return &summary, fallback.SourcePlaceholder, nil
	}
	server, src, err := fallback.Read(ctx, s.policy.WithoutSnapshots(), "server", id, func(ctx context.Context) (*models.PanelServer, error) {
		if err := s.checkOwner(ctx, op, email, id); err != nil {
			return nil, err
		}
		return s.panel.GetServer(ctx, id)
	}, func() *models.PanelServer { return fallback.UnreachableServer(id) })
	if err != nil {
		return nil, src, err
	}
	if server == nil {
		return nil, src, apperr.NotFound(op, "server not found")
	}
	summary := Summarize(*server)
	return &summary, src, nil
}

// Power sends a power action. simulated is true when the panel is not
// configured and nothing was sent.
func (s *Service) Power(ctx context.Context, email, id string, action models.PowerAction) (simulated bool, err error) {
	const op = "portal.Power"
	if !action.Valid() {
		return false, apperr.Validation(op, "action must be start, stop or restart")
	}
	configured := s.panel.Configured()
	if configured {
		if err := s.checkOwner(ctx, op, email, id); err != nil {
			return false, fallback.Write(op, err)
		}
	}
	ok, err := s.panel.PerformAction(ctx, id, action)
	if err != nil {
		return false, fallback.Write(op, err)
	}
	if !ok {
		return false, apperr.New(apperr.KindUnavailable, op, "power action was not accepted")
	}
	return !configured, nil
}

func (s *Service) Logs(ctx context.Context, email, id string, lines int) ([]string, fallback.Source, error) {
	const op = "portal.Logs"
	if !s.panel.Configured() {
		logs, err := s.panel.GetLogs(ctx, id, lines)
		return logs, fallback.SourcePlaceholder, err
	}
	return fallback.Read(ctx, s.policy.WithoutSnapshots(), "logs", id, func(ctx context.Context) ([]string, error) {
		if err := s.checkOwner(ctx, op, email, id); err != nil {
			return nil, err
		}
		return s.panel.GetLogs(ctx, id, lines)
	}, fallback.PlaceholderLogs)
}

// checkOwner confirms id is among the servers listed for email. The join is
// by email only, so a server the panel does not attribute is not found.
func (s *Service) checkOwner(ctx context.Context, op, email, id string) error {
	if normalizeEmail(email) == "" {
		return apperr.NotFound(op, "server not found")
	}
	servers, err := s.panel.ListServers(ctx, email)
	if err != nil {
		return err
	}
	for _, srv := range servers {
		if srv.ID == id {
			return nil
		}
	}
	return apperr.NotFound(op, "server not found")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
