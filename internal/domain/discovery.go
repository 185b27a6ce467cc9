package domain

import "time"

// DiscoveryStatus summarizes the last discovery run. It is not persisted.
type DiscoveryStatus struct {
	LastStartedAt      *time.Time `json:"last_started_at,omitempty"`
	LastFinishedAt     *time.Time `json:"last_finished_at,omitempty"`
	LastError          *string    `json:"last_error,omitempty"`
	ScannedUnits       int        `json:"scanned_units"`
	ActiveUnits        int        `json:"active_units"`
	MatchedPorts       int        `json:"matched_ports"`
	DiscoveredServices int        `json:"discovered_services"`
	Added              int        `json:"added"`
	Updated            int        `json:"updated"`
	Unchanged          int        `json:"unchanged"`
}

func (s DiscoveryStatus) Clone() DiscoveryStatus {
	out := s
	out.LastStartedAt = clonePtr(s.LastStartedAt)
	out.LastFinishedAt = clonePtr(s.LastFinishedAt)
	out.LastError = clonePtr(s.LastError)
	return out
}
