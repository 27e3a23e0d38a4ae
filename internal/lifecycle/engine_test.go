package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/campuslend/lendhub/internal/models"
	"github.com/campuslend/lendhub/internal/repo"
)

var (
	staff    = models.Actor{ID: 7, Role: models.RoleMember, Approved: true}
	superA   = models.Actor{ID: 1, Role: models.RoleSuper}
	outsider = models.Actor{ID: 9, Role: models.RoleMember, Approved: false}
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock, time.Time, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	e := NewEngine(repo.NewItemRepo(db), repo.NewRequestRepo(db), repo.NewAuditRepo(db))
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	e.now = func() time.Time { return now }
	return e, mock, now, func() { db.Close() }
}

func itemRow(id, quantity int, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "description", "image_url", "quantity", "active", "created_at", "updated_at"}).
		AddRow(id, "camera", "", "", quantity, active, now, now)
}

func requestRow(id, itemID int, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "item_id", "college_id", "requester_name", "class_name", "phone", "status", "handled_by", "handled_at", "created_at"}).
		AddRow(id, itemID, "C123", "Ada", "CS-2", "555-0100", status, nil, nil, time.Now())
}

//
// ==========================
// Submit
// ==========================
//

func TestEngine_Submit(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM items`).WithArgs(5).WillReturnRows(itemRow(5, 2, true))
	mock.ExpectQuery(`INSERT INTO requests`).
		WithArgs(5, "C123", "Ada", "CS-2", "555-0100").
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "college_id", "requester_name", "class_name", "phone", "status", "created_at"}).
			AddRow(42, 5, "C123", "Ada", "CS-2", "555-0100", models.StatusPending, now))
	mock.ExpectExec(`INSERT INTO transaction_log`).
		WithArgs(models.TypeRequestCreated, 5, 42, nil, now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, err := e.Submit(context.Background(), 5, models.Requester{
		CollegeID: "C123", Name: "Ada", ClassName: "CS-2", Phone: "555-0100",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.ID != 42 || req.Status != models.StatusPending {
		t.Errorf("unexpected request: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEngine_Submit_ItemNotFound(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM items`).WithArgs(99).WillReturnError(sql.ErrNoRows)

	_, err := e.Submit(context.Background(), 99, models.Requester{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Inactive wins over stock: a soft-deleted item with units left still
// rejects new requests.
func TestEngine_Submit_ItemInactive(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM items`).WithArgs(5).WillReturnRows(itemRow(5, 3, false))

	_, err := e.Submit(context.Background(), 5, models.Requester{})
	if !errors.Is(err, ErrItemInactive) {
		t.Errorf("expected ErrItemInactive, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// No request row and no log entry when the item is exhausted.
func TestEngine_Submit_OutOfStock(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM items`).WithArgs(5).WillReturnRows(itemRow(5, 0, true))

	_, err := e.Submit(context.Background(), 5, models.Requester{})
	if !errors.Is(err, ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

//
// ==========================
// Approve
// ==========================
//

func TestEngine_Approve(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusPending))
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusApproved, staff.ID, now, 42, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SET quantity = quantity - 1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectExec(`INSERT INTO transaction_log`).
		WithArgs(models.TypeRequestApproved, 5, 42, staff.ID, now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, err := e.Approve(context.Background(), 42, staff)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if req.Status != models.StatusApproved {
		t.Errorf("status: got %s, want approved", req.Status)
	}
	if req.HandledBy == nil || *req.HandledBy != staff.ID {
		t.Errorf("handled_by not stamped: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Unauthorized actors are rejected before anything touches the database.
func TestEngine_Approve_Unauthorized(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	_, err := e.Approve(context.Background(), 42, outsider)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEngine_Approve_NotFound(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnError(sql.ErrNoRows)

	_, err := e.Approve(context.Background(), 42, staff)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEngine_Approve_AlreadyProcessed(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusRejected))

	_, err := e.Approve(context.Background(), 42, staff)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Two approvals race: the loser's compare-and-swap affects zero rows and
// it must not decrement stock.
func TestEngine_Approve_LosesRace(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusPending))
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusApproved, staff.ID, now, 42, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := e.Approve(context.Background(), 42, staff)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Status swap wins but the item is exhausted: the swap is reverted so the
// request is pending again, and the caller sees out-of-stock. No log
// entry is written.
func TestEngine_Approve_OutOfStock_Compensates(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusPending))
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusApproved, staff.ID, now, 42, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SET quantity = quantity - 1`).
		WithArgs(5).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`handled_by = NULL`).
		WithArgs(models.StatusPending, 42, models.StatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := e.Approve(context.Background(), 42, staff)
	if !errors.Is(err, ErrOutOfStock) {
		t.Errorf("expected ErrOutOfStock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// The approval committed; a failed log write degrades the guarantee but
// does not undo the mutation.
func TestEngine_Approve_AuditWriteFailed(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusPending))
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusApproved, superA.ID, now, 42, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SET quantity = quantity - 1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO transaction_log`).
		WillReturnError(errors.New("disk full"))

	req, err := e.Approve(context.Background(), 42, superA)
	if !errors.Is(err, ErrAuditWriteFailed) {
		t.Fatalf("expected ErrAuditWriteFailed, got %v", err)
	}
	if req.Status != models.StatusApproved {
		t.Errorf("mutation should stand: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

//
// ==========================
// Reject
// ==========================
//

func TestEngine_Reject(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusPending))
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusRejected, staff.ID, now, 42, models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Rejection touches no stock; the log entry carries no item.
	mock.ExpectExec(`INSERT INTO transaction_log`).
		WithArgs(models.TypeRequestRejected, nil, 42, staff.ID, now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, err := e.Reject(context.Background(), 42, staff)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if req.Status != models.StatusRejected {
		t.Errorf("status: got %s, want rejected", req.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestEngine_Reject_AlreadyProcessed(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusApproved))

	_, err := e.Reject(context.Background(), 42, staff)
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("expected ErrAlreadyProcessed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

//
// ==========================
// Return
// ==========================
//

func TestEngine_Return(t *testing.T) {
	e, mock, now, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, models.StatusApproved))
	// The swap keeps handled_by/handled_at from the approval.
	mock.ExpectExec(`UPDATE requests`).
		WithArgs(models.StatusReturned, nil, nil, 42, models.StatusApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SET quantity = quantity \+ 1`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO transaction_log`).
		WithArgs(models.TypeRequestReturned, 5, 42, staff.ID, now, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req, err := e.Return(context.Background(), 42, staff)
	if err != nil {
		t.Fatalf("Return: %v", err)
	}
	if req.Status != models.StatusReturned {
		t.Errorf("status: got %s, want returned", req.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Returning anything but an approved request fails and touches nothing.
func TestEngine_Return_NotApproved(t *testing.T) {
	for _, status := range []string{models.StatusPending, models.StatusRejected, models.StatusReturned} {
		t.Run(status, func(t *testing.T) {
			e, mock, _, done := newTestEngine(t)
			defer done()

			mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnRows(requestRow(42, 5, status))

			_, err := e.Return(context.Background(), 42, staff)
			if !errors.Is(err, ErrNotApproved) {
				t.Errorf("expected ErrNotApproved, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("expectations: %v", err)
			}
		})
	}
}

func TestEngine_Return_NotFound(t *testing.T) {
	e, mock, _, done := newTestEngine(t)
	defer done()

	mock.ExpectQuery(`FROM requests`).WithArgs(42).WillReturnError(sql.ErrNoRows)

	_, err := e.Return(context.Background(), 42, staff)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
