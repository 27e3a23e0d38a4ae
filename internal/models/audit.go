package models

import "time"

// Transaction log entry types. The enumeration is closed; reporting
// endpoints filter on the request_* subset.
const (
	TypeRequestCreated  = "request_created"
	TypeRequestApproved = "request_approved"
	TypeRequestRejected = "request_rejected"
	TypeRequestReturned = "request_returned"
	TypeItemAdded       = "item_added"
	TypeItemUpdated     = "item_updated"
	TypeItemDeleted     = "item_deleted"
	TypeMemberApproved  = "member_approved"
)

// RequestLogTypes is the subset of entry types emitted by the lifecycle
// engine, in the order they can occur for a single request.
var RequestLogTypes = []string{
	TypeRequestCreated,
	TypeRequestApproved,
	TypeRequestRejected,
	TypeRequestReturned,
}

// TransactionLogEntry is one immutable audit fact. Entries are written
// once and never updated or deleted.
type TransactionLogEntry struct {
	ID        int            `json:"id"`
	Type      string         `json:"type"`
	ItemID    *int           `json:"item_id,omitempty"`
	RequestID *int           `json:"request_id,omitempty"`
	UserID    *int           `json:"user_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Meta      map[string]any `json:"meta,omitempty"`

	// Joined for listings.
	ItemName string `json:"item_name,omitempty"`
	UserName string `json:"user_name,omitempty"`
}
