package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/logger"
	"bloodbridge-backend/internal/repository"
	"bloodbridge-backend/internal/storage"
)

var unsafeKeyChars = regexp.MustCompile(`[^\w.-]+`)

type bannerService struct {
	bannerRepo repository.BannerRepository
	store      storage.Interface
}

func NewBannerService(bannerRepo repository.BannerRepository, store storage.Interface) BannerService {
	return &bannerService{bannerRepo: bannerRepo, store: store}
}

func (s *bannerService) CreateBanner(ctx context.Context, input CreateBannerInput) (*domain.Banner, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewValidationError("title", "is required")
	}
	if len(input.Data) == 0 {
		return nil, domain.NewValidationError("image", "file is required")
	}
	start, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		return nil, domain.NewValidationError("start_date", "must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", input.EndDate)
	if err != nil {
		return nil, domain.NewValidationError("end_date", "must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, domain.NewValidationError("end_date", "must not precede start_date")
	}

	key := fmt.Sprintf("banners/%s-%s", uuid.NewString(), sanitizeKey(input.FileName))
	url, err := s.store.Upload(ctx, key, bytes.NewReader(input.Data), input.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: banner upload: %v", domain.ErrUpstream, err)
	}

	banner := &domain.Banner{
		Title:      strings.TrimSpace(input.Title),
		ImageURL:   url,
		StorageKey: key,
		StartDate:  start,
		EndDate:    end,
		IsActive:   true,
	}
	if err := s.bannerRepo.Create(ctx, banner); err != nil {
		// The row never existed, so drop the orphaned object.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			logger.Error("Failed to delete orphaned banner object", "key", key, "error", delErr)
		}
		return nil, err
	}
	return banner, nil
}

func (s *bannerService) ListActiveBanners(ctx context.Context) ([]domain.Banner, error) {
	return s.bannerRepo.ListActive(ctx)
}

func (s *bannerService) DeleteBanner(ctx context.Context, id int32) error {
	banner, err := s.bannerRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bannerRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, banner.StorageKey); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("Failed to delete banner object", "key", banner.StorageKey, "error", err)
	}
	return nil
}

func sanitizeKey(name string) string {
	base := filepath.Base(name)
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	return unsafeKeyChars.ReplaceAllString(base, "")
}
