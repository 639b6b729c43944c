package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// telemetryFieldMap caches JSON tag -> struct field index mappings
var (
	telemetryFieldMap     map[string]int
	telemetryFieldMapOnce sync.Once
)

func getTelemetryFieldMap() map[string]int {
	telemetryFieldMapOnce.Do(func() {
		t := reflect.TypeOf(TelemetryEvent{})
		telemetryFieldMap = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			tag := t.Field(i).Tag.Get("json")
			if tag == "" || tag == "-" {
				continue
			}
			name := strings.Split(tag, ",")[0]
			telemetryFieldMap[name] = i
		}
	})
	return telemetryFieldMap
}

// UnmarshalJSON accepts both native JSON values and string-encoded numbers.
// Match exporters frequently stringify every value ("distance": "5000.0").
func (e *TelemetryEvent) UnmarshalJSON(data []byte) error {
	type Alias TelemetryEvent
	a := (*Alias)(e)

	if err := json.Unmarshal(data, a); err == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	// Reset anything the failed fast path may have partially written
	*e = TelemetryEvent{}

	fieldMap := getTelemetryFieldMap()
	v := reflect.ValueOf(a).Elem()

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}

		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil {
				continue
			}
			if s == "" {
				continue
			}
			if err := coerceStringToField(fv, s); err != nil {
				return fmt.Errorf("flex unmarshal %s: %w", key, err)
			}
		}
	}

	return nil
}

// coerceStringToField converts a string value to the field's native type.
func coerceStringToField(fv reflect.Value, s string) error {
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(n)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		fv.SetInt(int64(n))
	case reflect.String:
		fv.SetString(s)
	}
	return nil
}
