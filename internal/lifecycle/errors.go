package lifecycle

import "errors"

// The full failure taxonomy of the lifecycle engine. Every precondition
// failure is detected before any mutation and returned as one of these;
// none is retried, since a stale precondition check has to be re-validated
// anyway.
var (
	// ErrNotFound means the referenced item or request does not exist.
	ErrNotFound = errors.New("not found")

	// ErrItemInactive means the item has been soft-deleted and no longer
	// accepts requests.
	ErrItemInactive = errors.New("item inactive")

	// ErrOutOfStock means the item's available quantity was 0 at decrement
	// time.
	ErrOutOfStock = errors.New("out of stock")

	// ErrAlreadyProcessed means the request was not in the expected source
	// state for the transition; another actor got there first.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrNotApproved means a return was attempted on a request that is not
	// currently approved.
	ErrNotApproved = errors.New("request not approved")

	// ErrUnauthorized means the actor is missing or not privileged to
	// perform the transition.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAuditWriteFailed means the primary mutation committed but the
	// transaction log entry did not persist. The operation succeeded with
	// a degraded guarantee; the failure is logged for reconciliation.
	ErrAuditWriteFailed = errors.New("audit write failed")
)
