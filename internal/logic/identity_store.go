package logic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/fnanalytics/stats-api/internal/models"
)

// IdentityCacheKey is the Redis hash holding RawKey.CacheField -> identity JSON
const IdentityCacheKey = "player_identities"

const identityLookupQuery = `
	SELECT mp.match_id, mp.actor_id, mp.epic_id, COALESCE(NULLIF(mp.epic_username, ''), mp.epic_id)
	FROM match_players mp
	JOIN unnest($1::text[], $2::text[]) AS k(match_id, actor_id)
	  ON mp.match_id = k.match_id AND mp.actor_id = k.actor_id
	WHERE mp.epic_id IS NOT NULL AND mp.epic_id <> ''
`

// PostgresIdentityStore resolves raw keys from the match_players table
type PostgresIdentityStore struct {
	pg PgPool
}

func NewPostgresIdentityStore(pg PgPool) *PostgresIdentityStore {
	return &PostgresIdentityStore{pg: pg}
}

// LookupIdentities resolves every key with one query
func (s *PostgresIdentityStore) LookupIdentities(ctx context.Context, keys []models.RawKey) (map[models.RawKey]models.PlayerIdentity, error) {
	out := make(map[models.RawKey]models.PlayerIdentity, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	matchIDs := make([]string, len(keys))
	actorIDs := make([]string, len(keys))
	for i, k := range keys {
		matchIDs[i] = k.MatchID
		actorIDs[i] = k.ActorID
	}

	rows, err := s.pg.Query(ctx, identityLookupQuery, matchIDs, actorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query match players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k models.RawKey
		var id models.PlayerIdentity
		if err := rows.Scan(&k.MatchID, &k.ActorID, &id.EpicID, &id.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan match player: %w", err)
		}
		out[k] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("match player iteration failed: %w", err)
	}

	return out, nil
}

// CachedIdentityStore serves identities from a Redis hash and forwards misses
// to the wrapped store in one call. Raw keys never change owner, so cached
// entries do not expire. Cache errors degrade to the wrapped store.
type CachedIdentityStore struct {
	cache RedisClient
	next  IdentityStore
}

func NewCachedIdentityStore(cache RedisClient, next IdentityStore) *CachedIdentityStore {
	return &CachedIdentityStore{cache: cache, next: next}
}

func (s *CachedIdentityStore) LookupIdentities(ctx context.Context, keys []models.RawKey) (map[models.RawKey]models.PlayerIdentity, error) {
	out := make(map[models.RawKey]models.PlayerIdentity, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = k.CacheField()
	}

	misses := keys
	vals, err := s.cache.HMGet(ctx, IdentityCacheKey, fields...).Result()
	if err != nil && err != redis.Nil {
		identityCacheLookups.WithLabelValues("error").Inc()
	} else {
		misses = make([]models.RawKey, 0, len(keys))
		for i, k := range keys {
			if i < len(vals) {
				if id, ok := decodeCachedIdentity(vals[i]); ok {
					out[k] = id
					continue
				}
			}
			misses = append(misses, k)
		}
		identityCacheLookups.WithLabelValues("hit").Add(float64(len(keys) - len(misses)))
		identityCacheLookups.WithLabelValues("miss").Add(float64(len(misses)))
	}

	if len(misses) == 0 {
		return out, nil
	}

	resolved, err := s.next.LookupIdentities(ctx, misses)
	if err != nil {
		return nil, err
	}

	writeBack := make([]interface{}, 0, len(resolved)*2)
	for k, id := range resolved {
		out[k] = id
		if data, err := json.Marshal(id); err == nil {
			writeBack = append(writeBack, k.CacheField(), string(data))
		}
	}
	if len(writeBack) > 0 {
		if err := s.cache.HSet(ctx, IdentityCacheKey, writeBack...).Err(); err != nil {
			identityCacheLookups.WithLabelValues("error").Inc()
		}
	}

	return out, nil
}

func decodeCachedIdentity(v interface{}) (models.PlayerIdentity, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return models.PlayerIdentity{}, false
	}
	var id models.PlayerIdentity
	if err := json.Unmarshal([]byte(s), &id); err != nil || id.EpicID == "" {
		return models.PlayerIdentity{}, false
	}
	return id, true
}
