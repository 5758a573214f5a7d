package panel

import (
	"strings"

	"gameforge.gg/platform/internal/models"
)

// MapWispStatus is total: every input, including "", maps to one of the four
// panel states. Anything unrecognized is offline.
func MapWispStatus(s string) models.PanelStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "running", "online", "on", "started":
		return models.PanelOnline
	case "starting", "booting", "restarting":
		return models.PanelStarting
	case "stopping":
		return models.PanelStopping
	default:
		return models.PanelOffline
	}
}

const megabyte = 1 << 20

func toServer(raw rawServer) models.PanelServer {
	id := raw.Identifier
	if id == "" {
		id = raw.UUIDShort
	}
	if id == "" {
		id = raw.ID.String()
	}

	status := raw.Status
	if status == "" {
		status = raw.State
	}

	s := models.PanelServer{
		ID:       id,
		Name:     strings.TrimSpace(raw.Name),
		Game:     gameOf(raw),
		Status:   MapWispStatus(status),
		Node:     raw.Node.String(),
		Location: strings.TrimSpace(raw.Location),
		Memory:   models.Usage{Total: raw.Limits.Memory.Int64() * megabyte},
		Disk:     models.Usage{Total: raw.Limits.Disk.Int64() * megabyte},
	}
	if raw.Allocation != nil {
		s.IP = raw.Allocation.Alias
		if s.IP == "" {
			s.IP = raw.Allocation.IP
		}
		s.Port = raw.Allocation.Port.Int()
	}

	s.MaxPlayers = raw.MaxPlayers.Int()
	s.CurrentPlayers = raw.Players.Int()
	applyQuery(&s, raw.Query)

	if raw.Resources != nil {
		applyResources(&s, *raw.Resources)
	}
	return s
}

func gameOf(raw rawServer) string {
	for _, v := range []string{raw.Game, named(raw.Egg), named(raw.Nest)} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return "Unknown"
}

func named(n *rawNamed) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func applyQuery(s *models.PanelServer, q *rawQuery) {
	if q == nil {
		return
	}
	if p := q.Players.Int(); p > 0 {
		s.CurrentPlayers = p
	}
	for _, m := range []int{q.MaxPlayers.Int(), q.Max.Int()} {
		if m > 0 {
			s.MaxPlayers = m
			break
		}
	}
}

func applyResources(s *models.PanelServer, r rawResources) {
	s.Memory.Used = r.MemoryBytes.Int64()
	if limit := r.MemoryLimitBytes.Int64(); limit > 0 {
		s.Memory.Total = limit
	}
	s.Disk.Used = r.DiskBytes.Int64()
	s.CPUPercent = float64(r.CPUAbsolute)
	s.UptimeSeconds = r.Uptime.Int64() / 1000
}

func applyStats(s *models.PanelServer, stats rawStats) {
	state := stats.State
	if state == "" {
		state = stats.Status
	}
	if state != "" {
		s.Status = MapWispStatus(state)
	}
	applyResources(s, stats.Resources)
	applyQuery(s, stats.Query)
}
