package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuslend/lendhub/internal/metrics"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
)

// Engine drives the request state machine:
//
//	pending -> approved -> returned
//	pending -> rejected
//
// Each transition is one logical unit: a compare-and-swap on the request
// status, the paired stock mutation, then exactly one transaction log
// entry. Preconditions that matter under concurrency are never checked by
// reading first; the conditional write is the check. There is no
// cross-store transaction — if the stock mutation fails after the status
// swap, the swap is compensated before the error is reported.
type Engine struct {
	items    *repo.ItemRepo
	requests *repo.RequestRepo
	audit    *repo.AuditRepo

	// now is swappable for tests.
	now func() time.Time
}

func NewEngine(items *repo.ItemRepo, requests *repo.RequestRepo, audit *repo.AuditRepo) *Engine {
	return &Engine{
		items:    items,
		requests: requests,
		audit:    audit,
		now:      time.Now,
	}
}

// authorize is the single authorization predicate for every mutating
// transition. Handling requests takes a super, or a member whose account
// a super has approved.
func authorize(actor models.Actor) error {
	if !actor.Staff() {
		return ErrUnauthorized
	}
	return nil
}

// Submit creates a pending request for one unit of an item. Anyone may
// submit; there is no actor. Stock is not touched — units are only
// reserved on approval.
func (e *Engine) Submit(ctx context.Context, itemID int, requester models.Requester) (models.Request, error) {
	item, err := e.items.GetByID(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Request{}, ErrNotFound
	}
	if err != nil {
		return models.Request{}, fmt.Errorf("load item: %w", err)
	}
	if !item.Active {
		return models.Request{}, ErrItemInactive
	}
	if item.Quantity <= 0 {
		return models.Request{}, ErrOutOfStock
	}

	req, err := e.requests.Create(ctx, itemID, requester)
	if err != nil {
		return models.Request{}, fmt.Errorf("create request: %w", err)
	}
	metrics.IncTransition(models.TypeRequestCreated)

	// Creation is anonymous; the entry carries no user.
	err = e.appendAudit(ctx, models.TransactionLogEntry{
		Type:      models.TypeRequestCreated,
		ItemID:    &item.ID,
		RequestID: &req.ID,
		Timestamp: e.now(),
	})
	return req, err
}

// Approve moves a pending request to approved and takes one unit of
// stock. Exactly one of two racing approvals can win the status swap, and
// with one unit left exactly one of two approvals against different
// requests can win the decrement.
func (e *Engine) Approve(ctx context.Context, requestID int, actor models.Actor) (models.Request, error) {
	if err := authorize(actor); err != nil {
		return models.Request{}, err
	}

	req, err := e.requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Request{}, ErrNotFound
	}
	if err != nil {
		return models.Request{}, fmt.Errorf("load request: %w", err)
	}
	if req.Status != models.StatusPending {
		return models.Request{}, ErrAlreadyProcessed
	}

	now := e.now()
	swapped, err := e.requests.TransitionStatus(ctx, requestID, models.StatusPending, models.StatusApproved, &actor.ID, &now)
	if err != nil {
		return models.Request{}, fmt.Errorf("transition request: %w", err)
	}
	if !swapped {
		// Lost the race to another handler.
		return models.Request{}, ErrAlreadyProcessed
	}

	if _, err := e.items.DecrementAvailable(ctx, req.ItemID); err != nil {
		// The status swap committed without a stock reservation to back
		// it; revert before reporting so the request is pending again.
		e.compensate(ctx, requestID, models.StatusApproved, models.StatusPending)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Request{}, ErrOutOfStock
		}
		return models.Request{}, fmt.Errorf("decrement stock: %w", err)
	}

	req.Status = models.StatusApproved
	req.HandledBy = &actor.ID
	req.HandledAt = &now
	metrics.IncTransition(models.TypeRequestApproved)

	err = e.appendAudit(ctx, models.TransactionLogEntry{
		Type:      models.TypeRequestApproved,
		ItemID:    &req.ItemID,
		RequestID: &req.ID,
		UserID:    &actor.ID,
		Timestamp: now,
	})
	return req, err
}

// Reject moves a pending request to rejected. Terminal; no stock change.
func (e *Engine) Reject(ctx context.Context, requestID int, actor models.Actor) (models.Request, error) {
	if err := authorize(actor); err != nil {
		return models.Request{}, err
	}

	req, err := e.requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Request{}, ErrNotFound
	}
	if err != nil {
		return models.Request{}, fmt.Errorf("load request: %w", err)
	}
	if req.Status != models.StatusPending {
		return models.Request{}, ErrAlreadyProcessed
	}

	now := e.now()
	swapped, err := e.requests.TransitionStatus(ctx, requestID, models.StatusPending, models.StatusRejected, &actor.ID, &now)
	if err != nil {
		return models.Request{}, fmt.Errorf("transition request: %w", err)
	}
	if !swapped {
		return models.Request{}, ErrAlreadyProcessed
	}

	req.Status = models.StatusRejected
	req.HandledBy = &actor.ID
	req.HandledAt = &now
	metrics.IncTransition(models.TypeRequestRejected)

	err = e.appendAudit(ctx, models.TransactionLogEntry{
		Type:      models.TypeRequestRejected,
		RequestID: &req.ID,
		UserID:    &actor.ID,
		Timestamp: now,
	})
	return req, err
}

// Return moves an approved request to returned and puts the unit back.
// Only approved requests can be returned; anything else is ErrNotApproved,
// not a no-op. The request keeps handled_by/handled_at from the approval;
// who performed the return is recorded in the transaction log only.
func (e *Engine) Return(ctx context.Context, requestID int, actor models.Actor) (models.Request, error) {
	if err := authorize(actor); err != nil {
		return models.Request{}, err
	}

	req, err := e.requests.GetByID(ctx, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Request{}, ErrNotFound
	}
	if err != nil {
		return models.Request{}, fmt.Errorf("load request: %w", err)
	}
	if req.Status != models.StatusApproved {
		return models.Request{}, ErrNotApproved
	}

	now := e.now()
	swapped, err := e.requests.TransitionStatus(ctx, requestID, models.StatusApproved, models.StatusReturned, nil, nil)
	if err != nil {
		return models.Request{}, fmt.Errorf("transition request: %w", err)
	}
	if !swapped {
		// Someone else returned it between the read and the swap.
		return models.Request{}, ErrNotApproved
	}

	if _, err := e.items.IncrementAvailable(ctx, req.ItemID); err != nil {
		// Revert to approved, keeping the approval's handled fields.
		reverted, rerr := e.requests.TransitionStatus(ctx, requestID, models.StatusReturned, models.StatusApproved, nil, nil)
		if rerr != nil || !reverted {
			slog.Error("failed to revert request transition after stock error",
				"request_id", requestID,
				"from", models.StatusReturned,
				"to", models.StatusApproved,
				"error", rerr)
		}
		return models.Request{}, fmt.Errorf("increment stock: %w", err)
	}

	req.Status = models.StatusReturned
	metrics.IncTransition(models.TypeRequestReturned)

	err = e.appendAudit(ctx, models.TransactionLogEntry{
		Type:      models.TypeRequestReturned,
		ItemID:    &req.ItemID,
		RequestID: &req.ID,
		UserID:    &actor.ID,
		Timestamp: now,
	})
	return req, err
}

// compensate reverts a status swap whose paired stock mutation failed.
// A failed compensation leaves the request parked in the wrong state;
// that is logged loudly for manual reconciliation but cannot be fixed
// here without inventing the stock reservation it lacks.
func (e *Engine) compensate(ctx context.Context, requestID int, from, to string) {
	reverted, err := e.requests.RevertTransition(ctx, requestID, from, to)
	if err != nil || !reverted {
		slog.Error("failed to revert request transition after stock error",
			"request_id", requestID,
			"from", from,
			"to", to,
			"error", err)
	}
}

// appendAudit writes the transaction log entry for a committed mutation.
// The mutation stands either way: a failed append is surfaced as
// ErrAuditWriteFailed so the caller knows the operation succeeded with a
// degraded guarantee, and logged for reconciliation.
func (e *Engine) appendAudit(ctx context.Context, entry models.TransactionLogEntry) error {
	if err := e.audit.Append(ctx, entry); err != nil {
		metrics.IncAuditWriteFailure(entry.Type)
		slog.Error("transaction log write failed",
			"type", entry.Type,
			"request_id", entry.RequestID,
			"item_id", entry.ItemID,
			"error", err)
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}
	return nil
}
