package metrics

// Pre-defined metrics for the evmcore execution engine. All metrics
// live in DefaultRegistry so they are globally accessible without passing a
// registry around.

var (
	// ---- EVM metrics ----

	// EVMExecutions counts top-level execute() invocations.
	EVMExecutions = DefaultRegistry.Counter("evm.executions")
	// EVMGasUsed counts total gas consumed by EVM execution.
	EVMGasUsed = DefaultRegistry.Counter("evm.gas_used")
	// EVMReverts counts executions that ended in Revert.
	EVMReverts = DefaultRegistry.Counter("evm.reverts")
	// EVMFailures counts executions that ended in Halt.
	EVMFailures = DefaultRegistry.Counter("evm.failures")
	// EVMCallDepth tracks the current call stack depth.
	EVMCallDepth = DefaultRegistry.Gauge("evm.call_depth")

	// ---- Plan cache metrics ----

	// PlanCacheHits counts get_or_build calls served from cache.
	PlanCacheHits = DefaultRegistry.Counter("evm.plan_cache.hits")
	// PlanCacheMisses counts get_or_build calls that built a new plan.
	PlanCacheMisses = DefaultRegistry.Counter("evm.plan_cache.misses")
	// PlanCacheEvictions counts LRU evictions from the plan cache.
	PlanCacheEvictions = DefaultRegistry.Counter("evm.plan_cache.evictions")
	// PlanBuildTime records analysis+planning duration in microseconds.
	PlanBuildTime = DefaultRegistry.Histogram("evm.plan_cache.build_us")
)
