package logic

import (
	"context"
	"fmt"

	"github.com/fnanalytics/stats-api/internal/models"
)

// resolveIdentities looks up the union of raw keys across all partials in a
// single bulk call. Unresolved keys are simply absent from the result.
func resolveIdentities(ctx context.Context, store IdentityStore, partials []PartialAggregate) (map[models.RawKey]models.PlayerIdentity, error) {
	seen := make(map[models.RawKey]struct{})
	for _, p := range partials {
		for k := range p.values {
			seen[k] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return map[models.RawKey]models.PlayerIdentity{}, nil
	}

	keys := make([]models.RawKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sortRawKeys(keys)

	ids, err := store.LookupIdentities(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("identity lookup: %w", err)
	}
	if ids == nil {
		ids = map[models.RawKey]models.PlayerIdentity{}
	}

	unresolved := 0
	for _, k := range keys {
		if _, ok := ids[k]; !ok {
			unresolved++
		}
	}
	unresolvedKeys.Add(float64(unresolved))

	return ids, nil
}
