// Package cache maintains the merged, process-wide view of targets
// across every registered broker session.
//
// Refresh fans out one parallel list call per session, waits for all of
// them, and merges the results into a Snapshot keyed by fullid. A
// broker that fails only degrades its own contribution to zero targets;
// it never aborts the round. The snapshot is immutable once published:
// refresh and single-target updates publish whole new maps, so readers
// never observe a half-merged state.
//
// Invalidation uses a generation counter. Invalidate bumps it; a
// refresh only publishes its result if the generation it started under
// is still current. The caller that requested the refresh still gets
// the merged result of its own round, but a concurrent invalidator is
// guaranteed a fresh fan-out on its next read.
//
// There is no implicit global cache: construct one with New and pass it
// where it is needed.
package cache
