package service

import (
	"context"
	"fmt"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type organizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) OrganizationService {
	return &organizationService{orgRepo: orgRepo, userRepo: userRepo}
}

func (s *organizationService) GetProfile(ctx context.Context, orgID int32) (*domain.Organization, error) {
	return s.orgRepo.GetByID(ctx, orgID)
}

func (s *organizationService) UpdateProfile(ctx context.Context, orgID int32, update *domain.Organization) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		org.Name = update.Name
	}
	if update.ContactPerson != "" {
		org.ContactPerson = update.ContactPerson
	}
	if update.Phone != "" {
		org.Phone = update.Phone
	}
	if update.Address != "" {
		org.Address = update.Address
	}
	if update.City != "" {
		org.City = update.City
	}
	if update.State != "" {
		org.State = update.State
	}
	if update.Pincode != "" {
		org.Pincode = update.Pincode
	}
	if update.Location.Valid() && (update.Location.Latitude != 0 || update.Location.Longitude != 0) {
		org.Location = update.Location
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *organizationService) ListMembers(ctx context.Context, orgID int32) ([]domain.User, error) {
	return s.userRepo.ListByOrganization(ctx, orgID)
}

func (s *organizationService) UpdateMember(ctx context.Context, caller domain.Caller, userID int32, input UpdateProfileInput) (*domain.User, error) {
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := assertCanMutateMembership(caller, target); err != nil {
		return nil, err
	}

	if input.Name != nil {
		target.Name = *input.Name
	}
	if input.PhoneNumber != nil {
		target.PhoneNumber = *input.PhoneNumber
	}
	if input.BloodType != nil {
		if !domain.IsValidBloodType(*input.BloodType) {
			return nil, domain.NewValidationError("blood_type", "must be one of the eight canonical groups")
		}
		target.BloodType = domain.BloodType(*input.BloodType)
	}
	if input.IsAvailableDonor != nil {
		target.IsAvailableDonor = *input.IsAvailableDonor
	}

	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *organizationService) RemoveMember(ctx context.Context, caller domain.Caller, userID int32) error {
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := assertCanMutateMembership(caller, target); err != nil {
		return err
	}
	if target.OrganizationID == nil {
		return fmt.Errorf("%w: user %d is not an organization member", domain.ErrConflict, userID)
	}
	return s.userRepo.Delete(ctx, userID)
}
