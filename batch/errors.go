package batch

import "errors"

// ErrCoordinatorClosed is returned by Submit once the coordinator's
// scope has begun exiting. It is never delivered through a result
// slot; the submitter gets it synchronously.
var ErrCoordinatorClosed = errors.New("batch: coordinator closed")

// ErrWaitTimeout is returned by PendingResult.Wait when the per-call
// timeout elapses. Only the wait is abandoned; the queued call still
// executes with its batch.
var ErrWaitTimeout = errors.New("batch: timed out waiting for result")
