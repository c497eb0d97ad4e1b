package postgres

import (
	"context"
	"database/sql"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type ratingRepository struct {
	db *sql.DB
}

func NewRatingRepository(db *sql.DB) repository.RatingRepository {
	return &ratingRepository{db: db}
}

// Upsert keeps one rating per user.
func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	query := `INSERT INTO ratings (user_id, stars, comment, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (user_id) DO UPDATE
	              SET stars = EXCLUDED.stars,
	                  comment = EXCLUDED.comment,
	                  updated_on = EXCLUDED.updated_on
	          RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, rating.UserID, rating.Stars, rating.Comment, now, now).
		Scan(&rating.ID, &rating.CreatedOn)
	return mapError(err)
}

func (r *ratingRepository) GetByUser(ctx context.Context, userID int32) (*domain.Rating, error) {
	rating := &domain.Rating{}
	query := `SELECT id, user_id, stars, comment, created_on, updated_on FROM ratings WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&rating.ID, &rating.UserID, &rating.Stars, &rating.Comment, &rating.CreatedOn, &rating.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return rating, nil
}
