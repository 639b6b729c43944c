package logic

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fnanalytics/stats-api/internal/models"
)

// assembleRows orders merged rows by display name using the collation rules of
// lang. Equal names fall back to the canonical id so output is deterministic.
func assembleRows(rows map[string]*models.PlayerRow, lang language.Tag) []models.PlayerRow {
	out := make([]models.PlayerRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}

	// Collators keep internal buffers; one per call
	c := collate.New(lang)
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := c.CompareString(out[i].Player, out[j].Player); cmp != 0 {
			return cmp < 0
		}
		return out[i].EpicID < out[j].EpicID
	})

	return out
}
