// Package rangepool splits a fixed index range [0, N) among a growing number of workers.
//
// A Pool never executes work itself. Whoever drives the work asks the pool for a
// Worker when it has spare capacity, reports progress with Worker.Advance, and calls
// Worker.Dispose when it gives up on a range before finishing it.
//
// Allocation
// CreateWorker picks, in order:
//   - Reuse: the earliest disposed worker that still has unprocessed indices. The
//     very same *Worker is reactivated, so any handle the caller kept sees it again.
//   - First worker: [0, N) when the pool has no workers yet.
//   - Split: the tail of the unprocessed range of the active worker with the most
//     remaining indices; ties go to the earliest one. The split worker keeps the
//     leading half, rounded away from zero, so 949 remaining indices become 475 kept
//     and 474 handed out. Indices already processed are never reassigned.
//
// Invariants
//   - The ranges of all workers tile [0, N) with no gaps and no overlaps.
//   - CompletedSteps() + Remaining() == Length().
//
// Concurrency
// Pool and Worker have no internal locking. Every call on a pool and on its workers
// must be serialized by the caller. The coordinator sub-package wraps a Pool with a
// mutex and a capacity limit for use from many goroutines.
//
// Snapshots
// Serialize and Restore convert a pool to and from PoolSnapshot. EncodeSnapshot and
// DecodeSnapshot read and write snapshots as JSON (validated against a JSON Schema)
// or YAML.
//
// Metrics
// WithMetrics records pool instruments into a metrics.Provider. By default nothing
// is recorded.
package rangepool
