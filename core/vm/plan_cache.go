package vm

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethforge/evmcore/metrics"
)

// PlanCache is a capacity-bounded LRU cache mapping (bytecode, hardfork)
// to its compiled Plan. PlanCache is safe for concurrent use: its lookups,
// inserts and counters are guarded by mu. Plans are built outside the lock,
// so concurrent misses on the same key may each build the plan.
type PlanCache struct {
	mu    sync.Mutex
	cache *lru.Cache[uint64, *Plan]
	opts  CacheOptions
	hits  uint64
	miss  uint64
}

// NewPlanCache creates a plan cache with the given tuning options.
func NewPlanCache(opts CacheOptions) *PlanCache {
	if opts.CacheCapacity <= 0 {
		opts.CacheCapacity = DefaultCacheOptions().CacheCapacity
	}
	c, _ := lru.New[uint64, *Plan](opts.CacheCapacity)
	return &PlanCache{cache: c, opts: opts}
}

// GetOrBuild returns the cached Plan for (code, hardfork), building and
// inserting one on a miss. On hit, the entry is promoted to
// most-recently-used.
func (pc *PlanCache) GetOrBuild(code []byte, hf Hardfork) (*Plan, error) {
	key := planKey(code, hf)

	pc.mu.Lock()
	if plan, ok := pc.cache.Get(key); ok {
		pc.hits++
		pc.mu.Unlock()
		metrics.PlanCacheHits.Inc()
		return plan, nil
	}
	pc.mu.Unlock()

	plan, err := buildPlan(code, hf, pc.opts)
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	evicted := pc.cache.Add(key, plan)
	pc.miss++
	pc.mu.Unlock()

	metrics.PlanCacheMisses.Inc()
	if evicted {
		metrics.PlanCacheEvictions.Inc()
	}
	return plan, nil
}

// Clear empties the cache. Exposed for deterministic testing.
func (pc *PlanCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache.Purge()
	pc.hits, pc.miss = 0, 0
}

// Stats returns the cumulative hit/miss counters.
func (pc *PlanCache) Stats() (hits, misses uint64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.hits, pc.miss
}

// Len returns the number of plans currently cached.
func (pc *PlanCache) Len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.cache.Len()
}
