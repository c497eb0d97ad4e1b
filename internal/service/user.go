package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type userService struct {
	userRepo     repository.UserRepository
	orgRepo      repository.OrganizationRepository
	responseRepo repository.ResponseRepository
	opts         MatchingOptions
}

func NewUserService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	responseRepo repository.ResponseRepository,
	opts MatchingOptions,
) UserService {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = 5000
	}
	if opts.EligibilityWindow <= 0 {
		opts.EligibilityWindow = 90 * 24 * time.Hour
	}
	return &userService{
		userRepo:     userRepo,
		orgRepo:      orgRepo,
		responseRepo: responseRepo,
		opts:         opts,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int32) (*ProfileView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{User: user, LastDonation: "No donations yet"}

	if user.OrganizationID != nil {
		org, err := s.orgRepo.GetByID(ctx, *user.OrganizationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		view.Organization = org
	}

	completed, err := s.responseRepo.ListByDonor(ctx, userID, domain.ResponseStatusCompleted)
	if err != nil {
		return nil, err
	}
	view.TotalDonations = int32(len(completed))
	if len(completed) > 0 {
		view.LastDonation = humanizeAge(time.Since(completed[0].UpdatedOn))
	}

	return view, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int32, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = *input.PhoneNumber
	}
	if input.BloodType != nil {
		if !domain.IsValidBloodType(*input.BloodType) {
			return nil, domain.NewValidationError("blood_type", "must be one of the eight canonical groups")
		}
		user.BloodType = domain.BloodType(*input.BloodType)
	}
	if input.Location != nil {
		if !input.Location.Valid() {
			return nil, domain.NewValidationError("location", "latitude and longitude must be valid coordinates")
		}
		user.Location = *input.Location
	}
	if input.IsAvailableDonor != nil {
		user.IsAvailableDonor = *input.IsAvailableDonor
	}
	if input.HeightCm != nil {
		user.HeightCm = input.HeightCm
	}
	if input.WeightKg != nil {
		user.WeightKg = input.WeightKg
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ListDonors(ctx context.Context, search string, page, pageSize int32) ([]domain.Donor, int32, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	donors, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	totalPages := (total + pageSize - 1) / pageSize
	return donors, total, totalPages, nil
}

func (s *userService) FindNearbyDonors(ctx context.Context, callerID int32, bloodType string, origin domain.Point, radiusMeters float64) ([]domain.Donor, error) {
	if !domain.IsValidBloodType(bloodType) {
		return nil, domain.NewValidationError("blood_type", "must be one of the eight canonical groups")
	}
	if !origin.Valid() {
		return nil, domain.NewValidationError("location", "latitude and longitude must be valid coordinates")
	}
	if radiusMeters <= 0 {
		radiusMeters = s.opts.RadiusMeters
	}
	cutoff := time.Now().Add(-s.opts.EligibilityWindow)
	return s.userRepo.FindEligibleDonors(ctx, domain.BloodType(bloodType), origin, radiusMeters, callerID, cutoff)
}

func (s *userService) UpdatePushToken(ctx context.Context, userID int32, token string) error {
	if token == "" {
		return s.userRepo.ClearPushToken(ctx, userID)
	}
	return s.userRepo.SetPushToken(ctx, userID, &token)
}

func (s *userService) LeaveOrganization(ctx context.Context, userID int32) error {
	return s.userRepo.LeaveOrganization(ctx, userID)
}

// humanizeAge renders a donation age the way the mobile client displays it.
func humanizeAge(d time.Duration) string {
	minutes := int(d.Minutes())
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minutes ago", minutes)
	case minutes < 24*60:
		return fmt.Sprintf("%d hours ago", minutes/60)
	case minutes < 7*24*60:
		return fmt.Sprintf("%d days ago", minutes/(24*60))
	default:
		return fmt.Sprintf("%d weeks ago", minutes/(7*24*60))
	}
}
