package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/logger"
	"bloodbridge-backend/internal/repository"
	"bloodbridge-backend/internal/security"
)

// OTPStore is the one-time-code contract backed by Redis in production.
type OTPStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) error
	Invalidate(ctx context.Context, email string)
}

type authService struct {
	userRepo     repository.UserRepository
	orgRepo      repository.OrganizationRepository
	adminRepo    repository.AdminRepository
	otpStore     OTPStore
	emailSvc     EmailService
	tokens       security.TokenManager
	resetBaseURL string
}

func NewAuthService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	adminRepo repository.AdminRepository,
	otpStore OTPStore,
	emailSvc EmailService,
	tokens security.TokenManager,
	resetBaseURL string,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		orgRepo:      orgRepo,
		adminRepo:    adminRepo,
		otpStore:     otpStore,
		emailSvc:     emailSvc,
		tokens:       tokens,
		resetBaseURL: resetBaseURL,
	}
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	if err := validateSignup(input); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user with email %s", domain.ErrDuplicate, email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:             strings.TrimSpace(input.Name),
		Email:            email,
		PhoneNumber:      strings.TrimSpace(input.PhoneNumber),
		PasswordHash:     string(hash),
		DateOfBirth:      input.DateOfBirth,
		BloodType:        domain.BloodType(input.BloodType),
		OrganizationID:   input.OrganizationID,
		IsAvailableDonor: true,
		HeightCm:         input.HeightCm,
		WeightKg:         input.WeightKg,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	code, err := s.otpStore.Issue(ctx, email)
	if err != nil {
		return nil, err
	}
	// Verification mail is off the hot path; a relay hiccup should not
	// undo the signup.
	if err := s.emailSvc.SendOTP(ctx, email, code); err != nil {
		logger.Error("Failed to send OTP mail", "email", email, "error", err)
	}

	return user, nil
}

func (s *authService) VerifyOTP(ctx context.Context, email, code string, pushToken *string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if err := s.otpStore.Verify(ctx, email, code); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Expired code: drop the unverified signup so the address
			// can register again.
			if delErr := s.userRepo.DeleteByEmailUnverified(ctx, email); delErr != nil {
				logger.Error("Failed to remove expired signup", "email", email, "error", delErr)
			}
			return domain.NewValidationError("otp", "code expired; registration removed, please sign up again")
		}
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.NewValidationError("otp", "invalid code")
		}
		return err
	}

	return s.userRepo.MarkVerified(ctx, user.ID, pushToken)
}

func (s *authService) Login(ctx context.Context, email, password string, pushToken *string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: unknown email or password", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if !user.IsVerified {
		return "", nil, fmt.Errorf("%w: email not verified", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: unknown email or password", domain.ErrUnauthorized)
	}

	if pushToken != nil && *pushToken != "" {
		if err := s.userRepo.SetPushToken(ctx, user.ID, pushToken); err != nil {
			logger.Error("Failed to refresh push token on login", "user_id", user.ID, "error", err)
		}
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, security.ActorTypeUser, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := s.tokens.GenerateResetToken(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	resetLink := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.resetBaseURL, "/"), token)
	return s.emailSvc.SendPasswordReset(ctx, user.Email, resetLink)
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return domain.NewValidationError("password", "must be at least 6 characters")
	}
	claims, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.SetPassword(ctx, claims.SubjectID, string(hash))
}

func (s *authService) OrganizationSignup(ctx context.Context, input OrgSignupInput) (string, *domain.Organization, error) {
	if err := validateOrgSignup(input); err != nil {
		return "", nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	org := &domain.Organization{
		Name:          strings.TrimSpace(input.Name),
		Type:          domain.OrganizationType(input.Type),
		LicenseNo:     strings.TrimSpace(input.LicenseNo),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:         strings.TrimSpace(input.Phone),
		Address:       input.Address,
		City:          input.City,
		State:         input.State,
		Pincode:       input.Pincode,
		PasswordHash:  string(hash),
		Location:      input.Location,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.GenerateAccessToken(org.ID, security.ActorTypeOrganization, org.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, org, nil
}

func (s *authService) OrganizationLogin(ctx context.Context, email, password string) (string, *domain.Organization, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	org, err := s.orgRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: unknown email or password", domain.ErrUnauthorized)
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(org.PasswordHash), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: unknown email or password", domain.ErrUnauthorized)
	}

	token, err := s.tokens.GenerateAccessToken(org.ID, security.ActorTypeOrganization, org.Email)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, org, nil
}

func (s *authService) AdminSignup(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.NewValidationError("credentials", "email and password are required")
	}
	if _, err := s.adminRepo.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: admin with email %s", domain.ErrDuplicate, email)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.adminRepo.Create(ctx, &domain.Admin{Email: email, PasswordHash: string(hash)})
}

func (s *authService) AdminLogin(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	return s.tokens.GenerateAccessToken(admin.ID, security.ActorTypeAdmin, admin.Email)
}

// ResolveCaller maps token claims onto the tagged caller identity, loading
// the subject once so handlers and guards never re-derive it.
func (s *authService) ResolveCaller(ctx context.Context, token string) (domain.Caller, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return domain.Caller{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	switch claims.Actor {
	case security.ActorTypeUser:
		user, err := s.userRepo.GetByID(ctx, claims.SubjectID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Caller{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
			}
			return domain.Caller{}, err
		}
		return domain.Caller{
			Kind:        domain.ActorUser,
			UserID:      user.ID,
			OrgMemberOf: user.OrganizationID,
		}, nil
	case security.ActorTypeOrganization:
		org, err := s.orgRepo.GetByID(ctx, claims.SubjectID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Caller{}, fmt.Errorf("%w: organization no longer exists", domain.ErrUnauthorized)
			}
			return domain.Caller{}, err
		}
		return domain.Caller{Kind: domain.ActorOrganization, OrgID: org.ID}, nil
	case security.ActorTypeAdmin:
		return domain.Caller{Kind: domain.ActorAdmin, UserID: claims.SubjectID}, nil
	}
	return domain.Caller{}, fmt.Errorf("%w: unknown actor type", domain.ErrUnauthorized)
}

func validateSignup(input SignupInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return domain.NewValidationError("email", "is required")
	}
	if len(input.Password) < 6 {
		return domain.NewValidationError("password", "must be at least 6 characters")
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return domain.NewValidationError("phone_number", "is required")
	}
	if input.DateOfBirth == "" {
		return domain.NewValidationError("date_of_birth", "is required")
	}
	if !domain.IsValidBloodType(input.BloodType) {
		return domain.NewValidationError("blood_type", "must be one of the eight canonical groups")
	}
	return nil
}

func validateOrgSignup(input OrgSignupInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.NewValidationError("name", "is required")
	}
	if !domain.IsValidOrganizationType(input.Type) {
		return domain.NewValidationError("type", "unknown organization type")
	}
	if strings.TrimSpace(input.LicenseNo) == "" {
		return domain.NewValidationError("license_no", "is required")
	}
	if strings.TrimSpace(input.ContactPerson) == "" {
		return domain.NewValidationError("contact_person", "is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return domain.NewValidationError("email", "is required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		return domain.NewValidationError("phone", "is required")
	}
	if len(input.Password) < 6 {
		return domain.NewValidationError("password", "must be at least 6 characters")
	}
	if !input.Location.Valid() {
		return domain.NewValidationError("location", "latitude and longitude must be valid coordinates")
	}
	return nil
}
