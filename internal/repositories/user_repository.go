package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return apperrors.ErrEmailTaken
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, q, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, q, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
	return total, err
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	const q = `
		UPDATE users SET name=$1, email=$2, password_hash=$3, role=$4, updated_at=NOW()
		WHERE id=$5`
	res, err := r.db.ExecContext(ctx, q, user.Name, user.Email, user.PasswordHash, user.Role, user.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return apperrors.ErrEmailTaken
		}
		return err
	}
	return checkAffected(res)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
