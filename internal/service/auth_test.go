package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/security"
	"bloodbridge-backend/internal/service"
)

func newAuthService(t *testing.T) (service.AuthService, *MockUserRepo, *MockOrganizationRepo, *MockAdminRepo, *fakeOTPStore, *fakeEmail) {
	t.Helper()
	userRepo := new(MockUserRepo)
	orgRepo := new(MockOrganizationRepo)
	adminRepo := new(MockAdminRepo)
	otpStore := newFakeOTPStore()
	email := newFakeEmail()
	tokens := security.NewTokenManager("test-secret", 60, 10)
	svc := service.NewAuthService(userRepo, orgRepo, adminRepo, otpStore, email, tokens, "http://localhost:3000")
	return svc, userRepo, orgRepo, adminRepo, otpStore, email
}

func validSignup() service.SignupInput {
	return service.SignupInput{
		Name:        "Jane Donor",
		Email:       "Jane@Example.com",
		Password:    "secret1",
		PhoneNumber: "5550100",
		DateOfBirth: "1990-04-01",
		BloodType:   "O-",
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an unverified account and mails a code", func(t *testing.T) {
		svc, userRepo, _, _, otpStore, email := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(nil, domain.ErrNotFound)
		userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Email == "jane@example.com" && !u.IsVerified && u.PasswordHash != "secret1"
		})).Return(nil)

		user, err := svc.Signup(ctx, validSignup())
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", user.Email)
		assert.Equal(t, "123456", email.otps["jane@example.com"])
		assert.NotEmpty(t, otpStore.codes["jane@example.com"])
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").
			Return(&domain.User{ID: 1, Email: "jane@example.com"}, nil)

		_, err := svc.Signup(ctx, validSignup())
		assert.ErrorIs(t, err, domain.ErrDuplicate)
		userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("weak password fails validation", func(t *testing.T) {
		svc, _, _, _, _, _ := newAuthService(t)
		input := validSignup()
		input.Password = "abc"

		_, err := svc.Signup(ctx, input)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestVerifyOTP(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 5, Email: "jane@example.com"}

	t.Run("correct code marks the account verified", func(t *testing.T) {
		svc, userRepo, _, _, otpStore, _ := newAuthService(t)
		otpStore.codes["jane@example.com"] = "123456"
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		userRepo.On("MarkVerified", mock.Anything, int32(5), (*string)(nil)).Return(nil)

		require.NoError(t, svc.VerifyOTP(ctx, "jane@example.com", "123456", nil))
		// The code is consumed on success.
		assert.Empty(t, otpStore.codes)
	})

	t.Run("wrong code is a validation error", func(t *testing.T) {
		svc, userRepo, _, _, otpStore, _ := newAuthService(t)
		otpStore.codes["jane@example.com"] = "123456"
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)

		err := svc.VerifyOTP(ctx, "jane@example.com", "654321", nil)
		assert.True(t, domain.IsValidation(err))
		userRepo.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired code removes the stale signup", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		userRepo.On("DeleteByEmailUnverified", mock.Anything, "jane@example.com").Return(nil)

		err := svc.VerifyOTP(ctx, "jane@example.com", "123456", nil)
		assert.True(t, domain.IsValidation(err))
		userRepo.AssertCalled(t, "DeleteByEmailUnverified", mock.Anything, "jane@example.com")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)

	t.Run("verified user gets a token", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(&domain.User{
			ID: 5, Email: "jane@example.com", PasswordHash: string(hash), IsVerified: true,
		}, nil)

		token, user, err := svc.Login(ctx, "jane@example.com", "secret1", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, int32(5), user.ID)
	})

	t.Run("unverified user cannot log in", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(&domain.User{
			ID: 5, PasswordHash: string(hash), IsVerified: false,
		}, nil)

		_, _, err := svc.Login(ctx, "jane@example.com", "secret1", nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(&domain.User{
			ID: 5, PasswordHash: string(hash), IsVerified: true,
		}, nil)

		_, _, err := svc.Login(ctx, "jane@example.com", "nope", nil)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestResolveCaller(t *testing.T) {
	ctx := context.Background()
	tokens := security.NewTokenManager("test-secret", 60, 10)

	t.Run("user token resolves with organization membership", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		orgID := int32(3)
		userRepo.On("GetByID", mock.Anything, int32(5)).
			Return(&domain.User{ID: 5, OrganizationID: &orgID}, nil)

		token, err := tokens.GenerateAccessToken(5, security.ActorTypeUser, "jane@example.com")
		require.NoError(t, err)

		caller, err := svc.ResolveCaller(ctx, token)
		require.NoError(t, err)
		assert.True(t, caller.IsUser())
		assert.Equal(t, int32(5), caller.UserID)
		require.NotNil(t, caller.OrgMemberOf)
		assert.Equal(t, int32(3), *caller.OrgMemberOf)
	})

	t.Run("organization token resolves to an org caller", func(t *testing.T) {
		svc, _, orgRepo, _, _, _ := newAuthService(t)
		orgRepo.On("GetByID", mock.Anything, int32(9)).Return(&domain.Organization{ID: 9}, nil)

		token, err := tokens.GenerateAccessToken(9, security.ActorTypeOrganization, "org@example.com")
		require.NoError(t, err)

		caller, err := svc.ResolveCaller(ctx, token)
		require.NoError(t, err)
		assert.True(t, caller.IsOrganization())
		assert.Equal(t, int32(9), caller.OrgID)
	})

	t.Run("deleted subject is unauthorized", func(t *testing.T) {
		svc, userRepo, _, _, _, _ := newAuthService(t)
		userRepo.On("GetByID", mock.Anything, int32(5)).Return(nil, domain.ErrNotFound)

		token, err := tokens.GenerateAccessToken(5, security.ActorTypeUser, "jane@example.com")
		require.NoError(t, err)

		_, err = svc.ResolveCaller(ctx, token)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		svc, _, _, _, _, _ := newAuthService(t)
		_, err := svc.ResolveCaller(ctx, "not-a-token")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestAdminLogin(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)

	svc, _, _, adminRepo, _, _ := newAuthService(t)
	adminRepo.On("GetByEmail", mock.Anything, "root@example.com").
		Return(&domain.Admin{ID: 1, Email: "root@example.com", PasswordHash: string(hash)}, nil)

	token, err := svc.AdminLogin(ctx, "root@example.com", "admin-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.AdminLogin(ctx, "root@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
