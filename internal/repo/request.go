package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/campuslend/lendhub/internal/models"
)

// RequestRepo persists lending requests. Status changes go through
// TransitionStatus, a compare-and-swap on the stored status, so the
// "still in the expected state" check and the write are one statement.
type RequestRepo struct {
	DB *sql.DB
}

func NewRequestRepo(db *sql.DB) *RequestRepo {
	return &RequestRepo{DB: db}
}

// Create inserts a new request. Requests always start as pending.
func (r *RequestRepo) Create(ctx context.Context, itemID int, req models.Requester) (models.Request, error) {
	var out models.Request
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO requests (item_id, college_id, requester_name, class_name, phone)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, item_id, college_id, requester_name, class_name, phone, status, created_at`,
		itemID, req.CollegeID, req.Name, req.ClassName, req.Phone,
	).Scan(
		&out.ID,
		&out.ItemID,
		&out.Requester.CollegeID,
		&out.Requester.Name,
		&out.Requester.ClassName,
		&out.Requester.Phone,
		&out.Status,
		&out.CreatedAt,
	)
	return out, err
}

func (r *RequestRepo) GetByID(ctx context.Context, id int) (models.Request, error) {
	var out models.Request
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, item_id, college_id, requester_name, class_name, phone, status, handled_by, handled_at, created_at
		 FROM requests
		 WHERE id = $1`,
		id,
	).Scan(
		&out.ID,
		&out.ItemID,
		&out.Requester.CollegeID,
		&out.Requester.Name,
		&out.Requester.ClassName,
		&out.Requester.Phone,
		&out.Status,
		&out.HandledBy,
		&out.HandledAt,
		&out.CreatedAt,
	)
	return out, err
}

// List returns all requests newest-first, joined with the item name and
// the name of the staff user who handled each one.
func (r *RequestRepo) List(ctx context.Context) ([]models.Request, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.item_id, r.college_id, r.requester_name, r.class_name, r.phone,
		        r.status, r.handled_by, r.handled_at, r.created_at,
		        i.name, COALESCE(u.name, '')
		 FROM requests r
		 JOIN items i ON i.id = r.item_id
		 LEFT JOIN users u ON u.id = r.handled_by
		 ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(
			&req.ID, &req.ItemID,
			&req.Requester.CollegeID, &req.Requester.Name, &req.Requester.ClassName, &req.Requester.Phone,
			&req.Status, &req.HandledBy, &req.HandledAt, &req.CreatedAt,
			&req.ItemName, &req.HandledByName,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// TransitionStatus conditionally advances a request from expected to next.
// When actorID is non-nil, handled_by and handled_at are stamped as well;
// when nil the handled fields keep their current values (return keeps the
// approver on record). Reports false when the stored status no longer
// equals expected, i.e. another transition won the race.
func (r *RequestRepo) TransitionStatus(ctx context.Context, id int, expected, next string, actorID *int, at *time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
		 SET status = $1,
		     handled_by = COALESCE($2, handled_by),
		     handled_at = COALESCE($3, handled_at)
		 WHERE id = $4 AND status = $5`,
		next, actorID, at, id, expected,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevertTransition undoes a transition whose paired stock mutation failed,
// clearing the handled fields stamped by the failed attempt. Same
// compare-and-swap shape as TransitionStatus.
func (r *RequestRepo) RevertTransition(ctx context.Context, id int, from, to string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE requests
		 SET status = $1, handled_by = NULL, handled_at = NULL
		 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
