package logic

import "github.com/fnanalytics/stats-api/internal/models"

// StatKind names one statistic column of the result row
type StatKind string

const (
	StatEliminations   StatKind = "eliminations"
	StatDamageDealt    StatKind = "damageDealt"
	StatDamageReceived StatKind = "damageReceived"
)

// Capability declares which filter dimensions a statistic honors.
// A dimension that is not supported never appears in the statistic's predicate.
type Capability struct {
	SupportsMatches       bool `json:"supportsMatches"`
	SupportsWeaponTypes   bool `json:"supportsWeaponTypes"`
	SupportsTimeRange     bool `json:"supportsTimeRange"`
	SupportsDistanceRange bool `json:"supportsDistanceRange"`
}

// EventStream is a stored combat event collection
type EventStream string

const (
	StreamEliminations EventStream = "elimination_events"
	StreamDamageDealt  EventStream = "damage_dealt_events"
)

// GroupBy selects which raw key of an event a statistic is attributed to
type GroupBy int

const (
	GroupByActor GroupBy = iota
	GroupByRecipient
)

// Measure is the per-group reduction
type Measure int

const (
	MeasureCount Measure = iota
	MeasureSum
)

// StatDefinition is one row of the capability matrix: how a statistic is
// filtered, which stream it reads, how it reduces and where it lands in the row.
type StatDefinition struct {
	Kind       StatKind
	Capability Capability
	Stream     EventStream
	GroupBy    GroupBy
	Measure    Measure
	field      func(*models.PlayerRow) *int64
}

// Field returns the row column this statistic accumulates into
func (d StatDefinition) Field(row *models.PlayerRow) *int64 {
	return d.field(row)
}

var allDimensions = Capability{
	SupportsMatches:       true,
	SupportsWeaponTypes:   true,
	SupportsTimeRange:     true,
	SupportsDistanceRange: true,
}

// statDefinitions is the capability matrix. Adding a statistic means adding a
// row here and a field on models.PlayerRow.
var statDefinitions = []StatDefinition{
	{
		Kind:       StatEliminations,
		Capability: allDimensions,
		Stream:     StreamEliminations,
		GroupBy:    GroupByActor,
		Measure:    MeasureCount,
		field:      func(r *models.PlayerRow) *int64 { return &r.Eliminations },
	},
	{
		Kind:       StatDamageDealt,
		Capability: allDimensions,
		Stream:     StreamDamageDealt,
		GroupBy:    GroupByActor,
		Measure:    MeasureSum,
		field:      func(r *models.PlayerRow) *int64 { return &r.DamageDealt },
	},
	{
		Kind:       StatDamageReceived,
		Capability: allDimensions,
		Stream:     StreamDamageDealt,
		GroupBy:    GroupByRecipient,
		Measure:    MeasureSum,
		field:      func(r *models.PlayerRow) *int64 { return &r.DamageReceived },
	},
}

// StatDefinitions returns a copy of the capability matrix
func StatDefinitions() []StatDefinition {
	out := make([]StatDefinition, len(statDefinitions))
	copy(out, statDefinitions)
	return out
}

// CapabilityOf looks up the capability entry of a statistic
func CapabilityOf(kind StatKind) (Capability, bool) {
	for _, d := range statDefinitions {
		if d.Kind == kind {
			return d.Capability, true
		}
	}
	return Capability{}, false
}
