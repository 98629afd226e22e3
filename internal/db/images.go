package db

import (
	"context"

	"github.com/faceapi/backend/internal/model"
)

func (db *Postgres) CreateImage(ctx context.Context, img *model.Image) (*model.Image, error) {
	query := `
		INSERT INTO images (id, payload, access, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, payload, access, created_at, updated_at
	`
	var image model.Image
	err := db.Pool.QueryRow(ctx, query,
		img.ID,
		img.Base64,
		img.Access,
		img.CreatedAt,
		img.UpdatedAt,
	).Scan(
		&image.ID,
		&image.Base64,
		&image.Access,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &image, nil
}

func (db *Postgres) GetImageByID(ctx context.Context, id string) (*model.Image, error) {
	query := `
		SELECT id, payload, access, created_at, updated_at
		FROM images
		WHERE id = $1
	`
	var image model.Image
	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&image.ID,
		&image.Base64,
		&image.Access,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &image, nil
}

// ListImagesForUser returns images whose access list contains the user,
// newest first for sortDir >= 0 and oldest first otherwise.
func (db *Postgres) ListImagesForUser(ctx context.Context, userID string, sortDir, limit int) ([]model.Image, error) {
	order := "DESC"
	if sortDir < 0 {
		order = "ASC"
	}
	query := `
		SELECT id, payload, access, created_at, updated_at
		FROM images
		WHERE $1 = ANY(access)
		ORDER BY created_at ` + order + `
		LIMIT $2
	`
	rows, err := db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, mapStoreError(err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var image model.Image
		if err := rows.Scan(
			&image.ID,
			&image.Base64,
			&image.Access,
			&image.CreatedAt,
			&image.UpdatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return images, nil
}
