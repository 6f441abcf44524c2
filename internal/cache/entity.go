package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/social-graph/internal/metrics"
	"github.com/d60-Lab/social-graph/pkg/logger"
)

// DefaultTTL applies when a non-positive ttl is given.
const DefaultTTL = 5 * time.Minute

// entityCache stores JSON snapshots of one entity kind under "<prefix>:<id>".
// Redis failures are logged and treated as misses; the store stays the
// source of truth.
type entityCache[T any] struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	entity  string
	idOf    func(*T) string
	metrics *metrics.Collector
}

func newEntityCache[T any](rdb redis.UniversalClient, ttl time.Duration, entity string, idOf func(*T) string, m *metrics.Collector) *entityCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &entityCache[T]{rdb: rdb, ttl: ttl, entity: entity, idOf: idOf, metrics: m}
}

func (c *entityCache[T]) key(id string) string { return c.entity + ":" + id }

// genKey counts invalidations of one entry; epochKey counts flushes of the
// whole entity kind. Neither matches the "<entity>:*" flush pattern.
func (c *entityCache[T]) genKey(id string) string { return "gen:" + c.entity + ":" + id }
func (c *entityCache[T]) epochKey() string { return "epoch:" + c.entity }

// stamp records the invalidation counters seen when a lookup missed. A
// loaded entry is written back only if they are unchanged, so a load that
// raced an update or delete cannot reinstate the old document.
type stamp struct {
	ok    bool
	epoch string
	gens  map[string]string
}

// storeIfCurrent sets KEYS[1] only while KEYS[2] and KEYS[3] still hold the
// stamped values. A missing counter reads as "".
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or ''
local epoch = redis.call('GET', KEYS[3]) or ''
if gen ~= ARGV[1] or epoch ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[3], 'PX', ARGV[4])
return 1
`)

// lookup returns the cached entries for ids, the ids that missed and the
// stamp to pass to store for those misses.
func (c *entityCache[T]) lookup(ctx context.Context, ids []string) (map[string]*T, []string, stamp) {
	found := make(map[string]*T, len(ids))
	st := stamp{gens: make(map[string]string, len(ids))}
	if len(ids) == 0 {
		return found, nil, st
	}
	// entries, then their counters, then the epoch
	keys := make([]string, 0, 2*len(ids)+1)
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	for _, id := range ids {
		keys = append(keys, c.genKey(id))
	}
	keys = append(keys, c.epochKey())

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		logger.Warn("cache mget failed", zap.String("entity", c.entity), zap.Error(err))
		vals = nil
	}
	if len(vals) == len(keys) {
		st.ok = true
		st.epoch = asString(vals[len(vals)-1])
		for i, id := range ids {
			st.gens[id] = asString(vals[len(ids)+i])
			str, ok := vals[i].(string)
			if !ok {
				continue
			}
			var item T
			if err := json.Unmarshal([]byte(str), &item); err == nil {
				found[id] = &item
			}
		}
	}

	missing := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.metrics.CacheLookup(c.entity, true, len(seen)-len(missing))
	c.metrics.CacheLookup(c.entity, false, len(missing))
	return found, missing, st
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// store writes loaded items back under the stamp taken by lookup. Items
// whose entry was invalidated or flushed since then are skipped.
func (c *entityCache[T]) store(ctx context.Context, st stamp, items ...*T) {
	if len(items) == 0 || !st.ok {
		return
	}
	ttlMillis := c.ttl.Milliseconds()
	pipe := c.rdb.Pipeline()
	for _, it := range items {
		id := c.idOf(it)
		gen, ok := st.gens[id]
		if !ok {
			continue
		}
		payload, err := json.Marshal(it)
		if err != nil {
			continue
		}
		storeIfCurrent.Eval(ctx, pipe,
			[]string{c.key(id), c.genKey(id), c.epochKey()},
			gen, st.epoch, string(payload), ttlMillis)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("cache store failed", zap.String("entity", c.entity), zap.Error(err))
	}
}

// invalidate bumps each entry's counter before dropping it. The counters
// only need to outlive an in-flight load, so they share the entry ttl.
func (c *entityCache[T]) invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Incr(ctx, c.genKey(id))
			pipe.Expire(ctx, c.genKey(id), c.ttl)
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		logger.Warn("cache invalidate failed", zap.String("entity", c.entity), zap.Error(err))
	}
}

// flush drops every entry of this entity kind and bumps the epoch so that
// loads started before the flush are not written back.
func (c *entityCache[T]) flush(ctx context.Context) {
	if err := c.rdb.Incr(ctx, c.epochKey()).Err(); err != nil {
		logger.Warn("cache epoch bump failed", zap.String("entity", c.entity), zap.Error(err))
	}
	iter := c.rdb.Scan(ctx, 0, c.entity+":*", 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn("cache scan failed", zap.String("entity", c.entity), zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			logger.Warn("cache flush failed", zap.String("entity", c.entity), zap.Error(err))
		}
	}
}

// ordered returns found entries in ids order, skipping ids with no entry.
func ordered[T any](ids []string, found map[string]*T) []*T {
	out := make([]*T, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if it, ok := found[id]; ok {
			out = append(out, it)
		}
	}
	return out
}
