package panel

import (
	"bytes"
	"encoding/json"
	"strings"

	"gameforge.gg/platform/pkg/clients"
)

// Panel responses wrap every entity as {"object": "...", "attributes": {...}}
// and lists as {"object": "list", "data": [...]}. Game-specific fields vary
// by egg, so most of rawServer is optional.

type rawList struct {
	Data []rawObject `json:"data"`
}

type rawObject struct {
	Object     string    `json:"object"`
	Attributes rawServer `json:"attributes"`
}

type rawServer struct {
	ID         clients.FlexString `json:"id"`
	Identifier string             `json:"identifier"`
	UUIDShort  string             `json:"uuid_short"`
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	State      string             `json:"current_state"`
	Game       string             `json:"game"`
	Egg        *rawNamed          `json:"egg"`
	Nest       *rawNamed          `json:"nest"`
	Node       clients.FlexString `json:"node"`
	Location   string             `json:"location"`
	Allocation *rawAllocation     `json:"allocation"`
	Limits     rawLimits          `json:"limits"`
	MaxPlayers clients.FlexFloat  `json:"max_players"`
	Players    clients.FlexFloat  `json:"players"`
	Query      *rawQuery          `json:"query"`
	Owner      *rawOwner          `json:"owner"`
	Resources  *rawResources      `json:"resources"`
}

type rawNamed struct {
	Name string `json:"name"`
}

type rawAllocation struct {
	IP    string            `json:"ip"`
	Alias string            `json:"alias"`
	Port  clients.FlexFloat `json:"port"`
}

// rawLimits are in megabytes.
type rawLimits struct {
	Memory clients.FlexFloat `json:"memory"`
	Disk   clients.FlexFloat `json:"disk"`
	CPU    clients.FlexFloat `json:"cpu"`
}

type rawQuery struct {
	Players    clients.FlexFloat `json:"players"`
	MaxPlayers clients.FlexFloat `json:"maxplayers"`
	Max        clients.FlexFloat `json:"max_players"`
}

type rawOwner struct {
	Email string `json:"email"`
}

type rawStatsEnvelope struct {
	Attributes rawStats `json:"attributes"`
}

type rawStats struct {
	State     string       `json:"current_state"`
	Status    string       `json:"status"`
	Resources rawResources `json:"resources"`
	Query     *rawQuery    `json:"query"`
}

// rawResources carries live usage; byte counts, cpu as percent, uptime in ms.
type rawResources struct {
	MemoryBytes      clients.FlexFloat `json:"memory_bytes"`
	MemoryLimitBytes clients.FlexFloat `json:"memory_limit_bytes"`
	DiskBytes        clients.FlexFloat `json:"disk_bytes"`
	CPUAbsolute      clients.FlexFloat `json:"cpu_absolute"`
	Uptime           clients.FlexFloat `json:"uptime"`
}

type rawServerEnvelope struct {
	Attributes rawServer `json:"attributes"`
}

// rawLogs accepts {"data": [...]}, {"data": "a\nb"} and {"attributes": {"lines": [...]}}.
type rawLogs struct {
	Data       json.RawMessage `json:"data"`
	Attributes struct {
		Lines []string `json:"lines"`
	} `json:"attributes"`
}

func (r rawLogs) lines() []string {
	if len(r.Attributes.Lines) > 0 {
		return r.Attributes.Lines
	}
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		return arr
	}
	var blob string
	if err := json.Unmarshal(data, &blob); err == nil && blob != "" {
		return strings.Split(strings.TrimRight(blob, "\n"), "\n")
	}
	return nil
}
