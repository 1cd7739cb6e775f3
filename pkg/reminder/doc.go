// Package reminder implements the daily reading reminder pipeline: deciding
// who is owed a reminder, enqueueing at most one reminder per user, day and
// session, and delivering queued reminders with bounded retries.
//
// The package is organised around three main components:
//
//   - Resolver  — computes the eligible recipients for a date and session
//   - Enqueuer  — turns eligible recipients into deduplicated queue rows
//   - Worker    — claims pending rows, sends them, and records the outcome
//
// Components interact only through small repository interfaces, keeping the
// pipeline logic decoupled from persistence. The production implementation
// lives in internal/storage (PostgreSQL); MemoryStorage in this package backs
// tests and local development.
//
// # Coordination model
//
// Enqueuer and Worker are invoked by independent external cron triggers that
// may overlap or be retried; all coordination lives in the persisted queue:
//
//  1. The queue has a uniqueness constraint on (user, reminder date, session),
//     so repeated enqueue runs are no-ops rather than duplicates.
//  2. ClaimBatch atomically flips rows from pending to processing, so
//     overlapping worker runs never observe the same row as claimable.
//  3. Rows stuck in processing longer than the claim timeout (a crashed
//     worker run) become claimable again.
//
// Within one worker run entries are processed sequentially with a fixed delay
// between sends. That is a deliberate rate limiter for the delivery channel,
// not an accidental serialization.
//
// # Error Handling
//
// Package-level sentinel errors (e.g. ErrInvalidSession, ErrRepositoryNil)
// signal violations of business invariants and can be checked with errors.Is.
// Per-entry delivery failures are captured as data on the queue row and in
// the audit log; they never abort a batch.
package reminder
