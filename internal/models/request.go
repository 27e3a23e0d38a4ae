package models

import "time"

// Request statuses. A request only ever moves forward:
// pending -> approved -> returned, or pending -> rejected.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReturned = "returned"
)

// Requester holds the free-text identity fields submitted with a request.
// Requests are anonymous in the auth sense; these fields are whatever the
// requester wrote on the form.
type Requester struct {
	CollegeID string `json:"college_id"`
	Name      string `json:"requester_name"`
	ClassName string `json:"class_name"`
	Phone     string `json:"phone"`
}

// Request is a single lending transaction for one unit of one item.
// HandledBy and HandledAt record the staff actor who approved or rejected
// it; the returner is recorded in the transaction log only.
type Request struct {
	ID        int        `json:"id"`
	ItemID    int        `json:"item_id"`
	Requester Requester  `json:"requester"`
	Status    string     `json:"status"`
	HandledBy *int       `json:"handled_by,omitempty"`
	HandledAt *time.Time `json:"handled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Joined for listings; not stored on the request row.
	ItemName      string `json:"item_name,omitempty"`
	HandledByName string `json:"handled_by_name,omitempty"`
}
