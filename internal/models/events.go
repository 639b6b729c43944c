package models

import (
	"time"

	"github.com/google/uuid"
)

// TelemetryType discriminates ingested telemetry records
type TelemetryType string

const (
	TelemetryElimination TelemetryType = "elimination"
	TelemetryDamage      TelemetryType = "damage"
	TelemetryMatchPlayer TelemetryType = "match_player"
)

// TelemetryEvent is one line of the ingest stream. Elimination and damage
// records carry combat fields; match_player records link an actor of a match
// to the player's Epic account.
type TelemetryEvent struct {
	Type    TelemetryType `json:"type" validate:"required,oneof=elimination damage match_player"`
	MatchID string        `json:"match_id" validate:"required"`
	ActorID string        `json:"actor_id" validate:"required"`

	// Combat
	RecipientID     string  `json:"recipient_id,omitempty"`
	WeaponType      *string `json:"weapon_type,omitempty"` // nil when the weapon is unclassified
	GameTimeSeconds float64 `json:"game_time_seconds" validate:"gte=0"`
	Distance        float64 `json:"distance" validate:"gte=0"` // storage units (cm)
	Amount          float64 `json:"amount" validate:"gte=0"`   // damage only

	// Identity (match_player only)
	EpicID       string `json:"epic_id,omitempty" validate:"required_if=Type match_player"`
	EpicUsername string `json:"epic_username,omitempty"`

	EventWindowID string `json:"event_window_id,omitempty"`
}

// Identity returns the canonical identity carried by a match_player record
func (e *TelemetryEvent) Identity() PlayerIdentity {
	name := e.EpicUsername
	if name == "" {
		name = e.EpicID
	}
	return PlayerIdentity{EpicID: e.EpicID, DisplayName: name}
}

// Key returns the per-match actor key of the record
func (e *TelemetryEvent) Key() RawKey {
	return RawKey{MatchID: e.MatchID, ActorID: e.ActorID}
}

// ClickHouseEvent is the normalized row written to the combat event tables
type ClickHouseEvent struct {
	EventID         uuid.UUID
	MatchID         string
	ActorID         string
	RecipientID     string
	WeaponType      *string
	GameTimeSeconds float64
	Distance        float64
	Amount          float64
	IngestedAt      time.Time
}
