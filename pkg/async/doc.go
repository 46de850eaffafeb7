// Package async implements a small future abstraction over goroutines.
//
// A Future[T] represents the eventual result of a function launched with
// Exec. Callers can block on the result (Await), bound the wait
// (AwaitWithTimeout) or poll without blocking (IsComplete). Exactly one
// goroutine is spawned per Exec call; there is no pool and no queue, which
// keeps the fan-out width equal to the number of Exec calls made.
//
// The multi-broker cache uses one future per registered broker session for
// its parallel list fan-out:
//
//	futures := make([]*async.Future[[]broker.Target], 0, len(sessions))
//	for _, s := range sessions {
//		futures = append(futures, async.Exec(ctx, s, listOne))
//	}
//	for i, f := range futures {
//		targets, err := f.Await()
//		// per-session error handling
//	}
//
// Context cancellation is honored before the function starts: a future
// created with an already-canceled context completes immediately with the
// context's error and never runs its function.
package async
