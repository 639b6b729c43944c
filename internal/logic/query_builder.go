package logic

import (
	"fmt"
	"strings"
)

// AggregateQuery holds parameters for one grouped aggregation over an event stream
type AggregateQuery struct {
	Stream    EventStream
	GroupBy   GroupBy
	Measure   Measure
	Predicate Predicate
}

// allowedStreams maps streams to ClickHouse tables
var allowedStreams = map[EventStream]string{
	StreamEliminations: "elimination_events",
	StreamDamageDealt:  "damage_dealt_events",
}

// allowedKeyColumns maps the attribution side to the raw key column
var allowedKeyColumns = map[GroupBy]string{
	GroupByActor:     "actor_id",
	GroupByRecipient: "recipient_id",
}

// allowedMeasures maps reductions to select expressions. Values are always
// Float64 so counts and sums scan the same way.
var allowedMeasures = map[Measure]string{
	MeasureCount: "toFloat64(count())",
	MeasureSum:   "toFloat64(sum(amount))",
}

// BuildAggregateQuery constructs a safe ClickHouse SQL query
func BuildAggregateQuery(q AggregateQuery) (string, []interface{}, error) {
	// 1. Validate source
	table, ok := allowedStreams[q.Stream]
	if !ok {
		return "", nil, fmt.Errorf("invalid stream: %s", q.Stream)
	}
	keyCol, ok := allowedKeyColumns[q.GroupBy]
	if !ok {
		return "", nil, fmt.Errorf("invalid group by: %d", q.GroupBy)
	}
	measure, ok := allowedMeasures[q.Measure]
	if !ok {
		return "", nil, fmt.Errorf("invalid measure: %d", q.Measure)
	}

	// 2. Select
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT match_id, %s AS raw_key, %s AS value FROM %s WHERE 1=1", keyCol, measure, table)
	var args []interface{}

	// 3. Filters
	p := q.Predicate
	if p.Matches != nil {
		sb.WriteString(" AND has(?, match_id)")
		args = append(args, p.Matches.Values)
	}
	if p.Weapons != nil {
		// NULL weapon_type never matches has()
		sb.WriteString(" AND has(?, weapon_type)")
		args = append(args, p.Weapons.Values)
	}
	if p.Time != nil {
		sb.WriteString(" AND game_time_seconds BETWEEN ? AND ?")
		args = append(args, p.Time.Lo, p.Time.Hi)
	}
	if p.Distance != nil {
		sb.WriteString(" AND distance BETWEEN ? AND ?")
		args = append(args, p.Distance.Lo, p.Distance.Hi)
	}

	// 4. Group By
	fmt.Fprintf(&sb, " GROUP BY match_id, %s", keyCol)

	return sb.String(), args, nil
}
