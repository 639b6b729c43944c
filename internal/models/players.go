package models

import "strconv"

// RawKey identifies an actor inside a single match. The same player has a
// different RawKey in every match they appear in.
type RawKey struct {
	MatchID string `json:"match_id"`
	ActorID string `json:"actor_id"`
}

func (k RawKey) String() string {
	return k.MatchID + ":" + k.ActorID
}

// CacheField encodes the key as "<len(match)>:<match>:<actor>". The length
// prefix keeps ids containing ':' from colliding.
func (k RawKey) CacheField() string {
	return strconv.Itoa(len(k.MatchID)) + ":" + k.MatchID + ":" + k.ActorID
}

// PlayerIdentity is the canonical, cross-match identity of a player
type PlayerIdentity struct {
	EpicID      string `json:"epic_id"`
	DisplayName string `json:"display_name"`
}

// PlayerRow is one aggregated result row. Every numeric field corresponds to
// exactly one statistic kind.
type PlayerRow struct {
	Player         string `json:"player"`
	EpicID         string `json:"epicId"`
	Eliminations   int64  `json:"eliminations"`
	DamageDealt    int64  `json:"damageDealt"`
	DamageReceived int64  `json:"damageReceived"`
}

// PlayerOption is a selectable player in the tournament view
type PlayerOption struct {
	EpicID      string `json:"epicId"`
	DisplayName string `json:"displayName"`
}
