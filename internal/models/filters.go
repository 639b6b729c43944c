package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidFilters is wrapped by every filter validation failure
var ErrInvalidFilters = errors.New("invalid filters")

// Storage unit conversions applied at the boundary with the event store
const (
	SecondsPerMinute      = 60
	DistanceUnitsPerMeter = 100
	DefaultMaxDistanceM   = 400
	DefaultMaxTimeMinutes = 30
)

// StatFilters describes the scope of a filtered stats query.
// Empty SelectedMatches / WeaponTypes mean "no restriction".
type StatFilters struct {
	SelectedMatches []string   `json:"selectedMatches" validate:"dive,required"`
	WeaponTypes     []string   `json:"weaponTypes" validate:"dive,required"`
	TimeRange       [2]float64 `json:"timeRange" validate:"dive,gte=0"`     // minutes of in-game time
	DistanceRange   [2]float64 `json:"distanceRange" validate:"dive,gte=0"` // meters
}

// UnmarshalJSON rejects range arrays that do not hold exactly two bounds
func (f *StatFilters) UnmarshalJSON(data []byte) error {
	var raw struct {
		SelectedMatches []string  `json:"selectedMatches"`
		WeaponTypes     []string  `json:"weaponTypes"`
		TimeRange       []float64 `json:"timeRange"`
		DistanceRange   []float64 `json:"distanceRange"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out StatFilters
	for _, r := range []struct {
		name string
		src  []float64
		dst  *[2]float64
	}{
		{"timeRange", raw.TimeRange, &out.TimeRange},
		{"distanceRange", raw.DistanceRange, &out.DistanceRange},
	} {
		if r.src == nil {
			continue
		}
		if len(r.src) != 2 {
			return fmt.Errorf("%w: %s must hold exactly 2 bounds, got %d", ErrInvalidFilters, r.name, len(r.src))
		}
		copy(r.dst[:], r.src)
	}
	out.SelectedMatches = raw.SelectedMatches
	out.WeaponTypes = raw.WeaponTypes

	*f = out
	return nil
}

var (
	filterValidator     *validator.Validate
	filterValidatorOnce sync.Once
)

func getFilterValidator() *validator.Validate {
	filterValidatorOnce.Do(func() {
		filterValidator = validator.New()
	})
	return filterValidator
}

// Validate rejects negative bounds, inverted ranges and blank set members
func (f StatFilters) Validate() error {
	if err := getFilterValidator().Struct(f); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	if f.TimeRange[0] > f.TimeRange[1] {
		return fmt.Errorf("%w: timeRange lower bound %v exceeds upper bound %v", ErrInvalidFilters, f.TimeRange[0], f.TimeRange[1])
	}
	if f.DistanceRange[0] > f.DistanceRange[1] {
		return fmt.Errorf("%w: distanceRange lower bound %v exceeds upper bound %v", ErrInvalidFilters, f.DistanceRange[0], f.DistanceRange[1])
	}
	return nil
}

// TimeRangeSeconds converts the minute window to event store seconds
func (f StatFilters) TimeRangeSeconds() (float64, float64) {
	return f.TimeRange[0] * SecondsPerMinute, f.TimeRange[1] * SecondsPerMinute
}

// DistanceRangeUnits converts the meter window to event store distance units
func (f StatFilters) DistanceRangeUnits() (float64, float64) {
	return f.DistanceRange[0] * DistanceUnitsPerMeter, f.DistanceRange[1] * DistanceUnitsPerMeter
}

// DefaultFilters is the initial tournament view: every match and weapon,
// the full distance slider and the full time slider.
func DefaultFilters(matches []MatchOption, weapons []WeaponOption) StatFilters {
	f := StatFilters{
		SelectedMatches: make([]string, 0, len(matches)),
		WeaponTypes:     make([]string, 0, len(weapons)),
		TimeRange:       [2]float64{0, DefaultMaxTimeMinutes},
		DistanceRange:   [2]float64{0, DefaultMaxDistanceM},
	}
	for _, m := range matches {
		f.SelectedMatches = append(f.SelectedMatches, m.ID)
	}
	for _, w := range weapons {
		f.WeaponTypes = append(f.WeaponTypes, w.ID)
	}
	return f
}
