package repository

import (
	"context"
	"time"
)

type EmailVerificationRepository struct {
	db DB
}

func NewEmailVerificationRepository(db DB) *EmailVerificationRepository {
	return &EmailVerificationRepository{db: db}
}

func (r *EmailVerificationRepository) Create(ctx context.Context, userID int64, token string, exp time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO email_verifications (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`, userID, token, exp)
	return err
}

func (r *EmailVerificationRepository) GetUserID(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := r.db.QueryRow(ctx, `
		SELECT user_id FROM email_verifications
		WHERE token = $1 AND expires_at > now()
	`, token).Scan(&userID)
	return userID, notFound(err)
}

func (r *EmailVerificationRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM email_verifications WHERE token = $1`, token)
	return err
}

// PurgeExpired drops tokens past their expiry and reports how many went.
func (r *EmailVerificationRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM email_verifications WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
