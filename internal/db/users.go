package db

import (
	"context"
	"time"

	"github.com/faceapi/backend/internal/model"
)

func (db *Postgres) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (id, name, email, password_hash, refresh_token, max_refresh_token_mins, api_quota, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, email, password_hash, refresh_token, max_refresh_token_mins, api_quota, created_at, updated_at
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.RefreshToken,
		u.MaxRefreshTokenMins,
		u.APIQuota,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.MaxRefreshTokenMins,
		&user.APIQuota,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &user, nil
}

func (db *Postgres) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `
		SELECT id, name, email, password_hash, refresh_token, max_refresh_token_mins, api_quota, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `
		SELECT id, name, email, password_hash, refresh_token, max_refresh_token_mins, api_quota, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
}

func (db *Postgres) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	err := db.Pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshToken,
		&user.MaxRefreshTokenMins,
		&user.APIQuota,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &user, nil
}

// SetRefreshToken overwrites the single active refresh token for the user.
func (db *Postgres) SetRefreshToken(ctx context.Context, userID, token string) error {
	query := `
		UPDATE users
		SET refresh_token = $2, updated_at = $3
		WHERE id = $1
	`
	tag, err := db.Pool.Exec(ctx, query, userID, token, time.Now().Unix())
	if err != nil {
		return mapStoreError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeQuota decrements the user's remaining quota by one, but only when
// quota is still positive. The conditional update keeps concurrent consumes
// from the same user linearizable without application-level locking.
func (db *Postgres) ConsumeQuota(ctx context.Context, userID string) (bool, error) {
	query := `
		UPDATE users
		SET api_quota = api_quota - 1, updated_at = $2
		WHERE id = $1 AND api_quota > 0
	`
	tag, err := db.Pool.Exec(ctx, query, userID, time.Now().Unix())
	if err != nil {
		return false, mapStoreError(err)
	}
	return tag.RowsAffected() == 1, nil
}
