package repo

import (
	"context"
	"database/sql"

	"github.com/campuslend/lendhub/internal/models"
)

// ItemRepo persists items and owns the two invariant-preserving stock
// operations. Quantity is never read-modified-written in application
// memory; both stock operations are single guarded UPDATE statements the
// database serializes per row.
type ItemRepo struct {
	DB *sql.DB
}

func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{DB: db}
}

func (r *ItemRepo) Create(ctx context.Context, name, description, imageURL string, quantity int) (models.Item, error) {
	var item models.Item
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO items (name, description, image_url, quantity)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, description, image_url, quantity, active, created_at, updated_at`,
		name, description, imageURL, quantity,
	).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&item.Quantity,
		&item.Active,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (r *ItemRepo) GetByID(ctx context.Context, id int) (models.Item, error) {
	var item models.Item
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, description, image_url, quantity, active, created_at, updated_at
		 FROM items
		 WHERE id = $1`,
		id,
	).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&item.Quantity,
		&item.Active,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// ListActive returns all items still visible to requesters.
func (r *ItemRepo) ListActive(ctx context.Context) ([]models.Item, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, description, image_url, quantity, active, created_at, updated_at
		 FROM items
		 WHERE active
		 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var i models.Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Description, &i.ImageURL, &i.Quantity, &i.Active, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (r *ItemRepo) UpdateByID(ctx context.Context, id int, name, description, imageURL string, quantity int) (models.Item, error) {
	var item models.Item
	err := r.DB.QueryRowContext(ctx,
		`UPDATE items
		 SET name = $1, description = $2, image_url = $3, quantity = $4, updated_at = NOW()
		 WHERE id = $5 AND active
		 RETURNING id, name, description, image_url, quantity, active, created_at, updated_at`,
		name, description, imageURL, quantity, id,
	).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&item.Quantity,
		&item.Active,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// SoftDelete marks an item inactive; the row stays for request history.
// Returns sql.ErrNoRows if the item does not exist or is already inactive.
func (r *ItemRepo) SoftDelete(ctx context.Context, id int) (models.Item, error) {
	var item models.Item
	err := r.DB.QueryRowContext(ctx,
		`UPDATE items
		 SET active = FALSE, updated_at = NOW()
		 WHERE id = $1 AND active
		 RETURNING id, name, description, image_url, quantity, active, created_at, updated_at`,
		id,
	).Scan(
		&item.ID,
		&item.Name,
		&item.Description,
		&item.ImageURL,
		&item.Quantity,
		&item.Active,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

// DecrementAvailable takes one unit of stock. The quantity > 0 guard and
// the decrement are a single statement, so two concurrent calls with one
// unit left can never both succeed. Returns the updated quantity, or
// sql.ErrNoRows when no stock is available.
func (r *ItemRepo) DecrementAvailable(ctx context.Context, id int) (int, error) {
	var quantity int
	err := r.DB.QueryRowContext(ctx,
		`UPDATE items
		 SET quantity = quantity - 1, updated_at = NOW()
		 WHERE id = $1 AND quantity > 0
		 RETURNING quantity`,
		id,
	).Scan(&quantity)
	return quantity, err
}

// IncrementAvailable puts one unit of stock back. No upper bound is
// enforced. Returns the updated quantity, or sql.ErrNoRows when the item
// does not exist.
func (r *ItemRepo) IncrementAvailable(ctx context.Context, id int) (int, error) {
	var quantity int
	err := r.DB.QueryRowContext(ctx,
		`UPDATE items
		 SET quantity = quantity + 1, updated_at = NOW()
		 WHERE id = $1
		 RETURNING quantity`,
		id,
	).Scan(&quantity)
	return quantity, err
}
