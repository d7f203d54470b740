package repositories

import (
	"context"
	"database/sql"
	"time"

	apperrors "taskhub/internal/domain/errors"
	"taskhub/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordReset, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	db *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	const q = `
		INSERT INTO password_resets (user_id, token, expires_at)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`
	pr := &models.PasswordReset{UserID: userID, Token: token, ExpiresAt: expiresAt}
	if err := r.db.QueryRowContext(ctx, q, userID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	const q = `
		SELECT id, user_id, token, expires_at, used_at, created_at
		FROM password_resets WHERE token = $1`
	pr := &models.PasswordReset{}
	var usedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, token).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &usedAt, &pr.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if usedAt.Valid {
		t := usedAt.Time
		pr.UsedAt = &t
	}
	return pr, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}
