package logic

import (
	"math"

	"github.com/fnanalytics/stats-api/internal/models"
)

// mergePartials folds every partial into one row per canonical player.
// Contributions are added, never assigned, so a player seen under several raw
// keys (one per match) is summed, and the order of partials does not matter.
func mergePartials(partials []PartialAggregate, ids map[models.RawKey]models.PlayerIdentity) map[string]*models.PlayerRow {
	rows := make(map[string]*models.PlayerRow)

	for _, p := range partials {
		for key, value := range p.values {
			id, ok := ids[key]
			if !ok {
				continue
			}

			row, ok := rows[id.EpicID]
			if !ok {
				row = &models.PlayerRow{Player: id.DisplayName, EpicID: id.EpicID}
				rows[id.EpicID] = row
			}

			*p.def.Field(row) += contribution(p.def, value)
		}
	}

	return rows
}

// contribution rounds sums per raw key at accumulation time
func contribution(def StatDefinition, value float64) int64 {
	if def.Measure == MeasureSum {
		return int64(math.Round(value))
	}
	return int64(value)
}
