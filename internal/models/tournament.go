package models

import "time"

// Tournament is a discovered event window
type Tournament struct {
	ID               string     `json:"id"`
	TotalMatches     int        `json:"total_matches"`
	ProcessedMatches int        `json:"processed_matches"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	DiscoveredAt     time.Time  `json:"discovered_at"`
}

// MatchOption is a selectable match in the filter widgets
type MatchOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// WeaponOption is a selectable weapon type
type WeaponOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
