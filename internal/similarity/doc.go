// Package similarity provides AI-powered ticket similarity matching with
// caching.
//
// # Overview
//
// The package answers one question in two time frames: which tickets
// resemble this one? Real-time lookups ("active" matches) compare an open
// ticket against other currently open tickets and are cached for an hour.
// The weekly reconciliation sweep ("historical" matches) compares every
// open ticket against the corpus of resolved tickets and caches results
// for a week, so agents see how similar problems were solved before.
//
// # Architecture
//
//	Service / Sweep
//	    → Cache (storage-backed, TTL, full-snapshot replace)
//	    → Comparator (batches of 20 candidates per model call)
//	        → ai.Gateway (JSON mode) through ai.Retryer and ai.IntervalLimiter
//
// The Comparator fails open: any model, parse, or validation failure
// surfaces to callers of Compare as an empty result set, never as an
// error. The sweep isolates failures per ticket and reports summary
// counts instead of aborting.
//
// # Thresholds and TTLs
//
// Active matches are kept at score >= 60 and cached for 1 hour.
// Historical matches are kept at score >= 80 and cached for 168 hours.
// Both are configuration (see Config), applied by the orchestration layer;
// the cache itself stores whatever it is given.
package similarity
