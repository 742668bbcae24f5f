// Package monitoring retrieves stop monitoring data from the PRIM API.
//
// The Client performs one GET per stop point behind a per-instance LRU memo.
// The Orchestrator fans fetch+flatten tasks over a bounded worker pool,
// isolates per-stop failures, appends rows through a single writer and
// derives the run summary. The Service ties catalog selection, retrieval and
// persistence into the one operation exposed to callers.
package monitoring
