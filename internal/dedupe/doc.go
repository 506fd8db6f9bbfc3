// Package dedupe guards against reprocessing Telegram updates that the
// Bot API redelivers. Every incoming update id passes through a Guard
// before any handler runs; a key seen within the TTL window is dropped.
//
// Two implementations exist: an in-process TTL cache for single-instance
// deployments, and a Redis-backed guard that shares the seen-set across
// replicas behind one webhook URL.
package dedupe
