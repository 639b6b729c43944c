package logic

import "github.com/fnanalytics/stats-api/internal/models"

// SetClause matches events whose column value is one of Values
type SetClause struct {
	Values []string
}

// RangeClause matches events whose column value lies in [Lo, Hi], in storage units
type RangeClause struct {
	Lo float64
	Hi float64
}

// Predicate is a conjunction of independent clauses. A nil clause is absent
// from the predicate, which is not the same as a clause that matches nothing.
type Predicate struct {
	Matches  *SetClause
	Weapons  *SetClause
	Time     *RangeClause
	Distance *RangeClause
}

// BuildPredicate derives the selection predicate of one statistic from the
// filters, honoring only the dimensions the capability declares.
func BuildPredicate(f models.StatFilters, c Capability) Predicate {
	var p Predicate

	if c.SupportsMatches && len(f.SelectedMatches) > 0 {
		p.Matches = &SetClause{Values: cloneStrings(f.SelectedMatches)}
	}
	if c.SupportsWeaponTypes && len(f.WeaponTypes) > 0 {
		p.Weapons = &SetClause{Values: cloneStrings(f.WeaponTypes)}
	}
	if c.SupportsTimeRange {
		lo, hi := f.TimeRangeSeconds()
		p.Time = &RangeClause{Lo: lo, Hi: hi}
	}
	if c.SupportsDistanceRange {
		lo, hi := f.DistanceRangeUnits()
		p.Distance = &RangeClause{Lo: lo, Hi: hi}
	}

	return p
}

// ClauseCount returns how many clauses the predicate carries
func (p Predicate) ClauseCount() int {
	n := 0
	if p.Matches != nil {
		n++
	}
	if p.Weapons != nil {
		n++
	}
	if p.Time != nil {
		n++
	}
	if p.Distance != nil {
		n++
	}
	return n
}

func (c *SetClause) contains(v string) bool {
	for _, s := range c.Values {
		if s == v {
			return true
		}
	}
	return false
}

func (c *RangeClause) contains(v float64) bool {
	return v >= c.Lo && v <= c.Hi
}

// Match reports whether an event satisfies every present clause. An event
// with an unclassified weapon never satisfies a weapon clause.
func (p Predicate) Match(matchID string, weaponType *string, gameTimeSeconds, distance float64) bool {
	if p.Matches != nil && !p.Matches.contains(matchID) {
		return false
	}
	if p.Weapons != nil && (weaponType == nil || !p.Weapons.contains(*weaponType)) {
		return false
	}
	if p.Time != nil && !p.Time.contains(gameTimeSeconds) {
		return false
	}
	if p.Distance != nil && !p.Distance.contains(distance) {
		return false
	}
	return true
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
