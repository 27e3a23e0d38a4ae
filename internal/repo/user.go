package repo

import (
	"context"
	"database/sql"

	"github.com/campuslend/lendhub/internal/models"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, role string, approved bool) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, approved)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, email, role, approved, created_at`,
		name, email, passwordHash, role, approved,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Approved, &u.CreatedAt)
	return u, err
}

func (r *UserRepo) GetByID(ctx context.Context, id int) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, approved, created_at
		 FROM users
		 WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt)
	return u, err
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, approved, created_at
		 FROM users
		 WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CreatedAt)
	return u, err
}

// ListMembers returns all member-role users, newest first.
func (r *UserRepo) ListMembers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, email, role, approved, created_at
		 FROM users
		 WHERE role = $1
		 ORDER BY created_at DESC`,
		models.RoleMember,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Approved, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Approve flips a member account to approved. Reports false when the user
// does not exist or is not a member.
func (r *UserRepo) Approve(ctx context.Context, id int) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET approved = TRUE WHERE id = $1 AND role = $2`,
		id, models.RoleMember,
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
