package service

import (
	"context"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type ratingService struct {
	ratingRepo repository.RatingRepository
}

func NewRatingService(ratingRepo repository.RatingRepository) RatingService {
	return &ratingService{ratingRepo: ratingRepo}
}

func (s *ratingService) SubmitRating(ctx context.Context, userID, stars int32, comment string) (*domain.Rating, error) {
	if stars < 1 || stars > 5 {
		return nil, domain.NewValidationError("stars", "must be between 1 and 5")
	}
	rating := &domain.Rating{UserID: userID, Stars: stars, Comment: comment}
	if err := s.ratingRepo.Upsert(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

func (s *ratingService) GetRating(ctx context.Context, userID int32) (*domain.Rating, error) {
	return s.ratingRepo.GetByUser(ctx, userID)
}
