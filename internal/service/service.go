package service

import (
	"context"

	"bloodbridge-backend/internal/domain"
)

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.User, error)
	VerifyOTP(ctx context.Context, email, code string, pushToken *string) error
	Login(ctx context.Context, email, password string, pushToken *string) (string, *domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	OrganizationSignup(ctx context.Context, input OrgSignupInput) (string, *domain.Organization, error)
	OrganizationLogin(ctx context.Context, email, password string) (string, *domain.Organization, error)

	AdminSignup(ctx context.Context, email, password string) error
	AdminLogin(ctx context.Context, email, password string) (string, error)

	// ResolveCaller turns a validated bearer token into the tagged
	// identity the access guards operate on.
	ResolveCaller(ctx context.Context, token string) (domain.Caller, error)
}

type SignupInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	DateOfBirth string
	BloodType   string
	HeightCm    *int32
	WeightKg    *int32
	// OrganizationID is set when an organization registers the member.
	OrganizationID *int32
}

type OrgSignupInput struct {
	Name          string
	Type          string
	LicenseNo     string
	ContactPerson string
	Email         string
	Phone         string
	Address       string
	City          string
	State         string
	Pincode       string
	Password      string
	Location      domain.Point
}

type UserService interface {
	GetProfile(ctx context.Context, userID int32) (*ProfileView, error)
	UpdateProfile(ctx context.Context, userID int32, input UpdateProfileInput) (*domain.User, error)
	ListDonors(ctx context.Context, search string, page, pageSize int32) ([]domain.Donor, int32, int32, error)
	FindNearbyDonors(ctx context.Context, callerID int32, bloodType string, origin domain.Point, radiusMeters float64) ([]domain.Donor, error)
	UpdatePushToken(ctx context.Context, userID int32, token string) error
	LeaveOrganization(ctx context.Context, userID int32) error
}

// ProfileView is a user joined with organization details and donation
// history summary.
type ProfileView struct {
	User           *domain.User         `json:"user"`
	Organization   *domain.Organization `json:"organization,omitempty"`
	TotalDonations int32                `json:"total_donations"`
	LastDonation   string               `json:"last_donation"`
}

type UpdateProfileInput struct {
	Name             *string
	PhoneNumber      *string
	BloodType        *string
	Location         *domain.Point
	IsAvailableDonor *bool
	HeightCm         *int32
	WeightKg         *int32
}

type RequestService interface {
	CreateRequest(ctx context.Context, requesterID int32, input CreateRequestInput) (*domain.BloodRequest, error)
	GetRequest(ctx context.Context, id int32) (*domain.BloodRequest, error)
	ListActiveRequests(ctx context.Context, filter domain.ActiveRequestFilter) (*RequestPage, error)

	RespondToRequest(ctx context.Context, donor domain.Caller, requestID int32, remarks string) (*domain.DonorResponse, error)
	AcceptDonor(ctx context.Context, caller domain.Caller, requestID, donorID int32) error
	ConfirmCompletion(ctx context.Context, caller domain.Caller, requestID, donorID int32) error
	RejectRequest(ctx context.Context, caller domain.Caller, requestID int32) error

	ListResponses(ctx context.Context, caller domain.Caller, requestID int32) ([]domain.DonorResponseDetail, error)
	RequestHistory(ctx context.Context, requesterID int32) ([]domain.BloodRequest, error)
	DonationHistory(ctx context.Context, donorID int32) ([]domain.DonorResponse, error)
}

type CreateRequestInput struct {
	BloodGroup      string
	Units           int32
	PatientName     string
	HospitalName    string
	HospitalAddress string
	PhoneNumber     string
	Notes           string
	Location        domain.Point
	Priority        string
}

// RequestPage carries one page of active requests plus the counts the
// listing contract requires.
type RequestPage struct {
	Requests   []domain.RequestWithDistance `json:"requests"`
	Total      int32                        `json:"total"`
	Page       int32                        `json:"page"`
	TotalPages int32                        `json:"total_pages"`
}

type OrganizationService interface {
	GetProfile(ctx context.Context, orgID int32) (*domain.Organization, error)
	UpdateProfile(ctx context.Context, orgID int32, org *domain.Organization) (*domain.Organization, error)
	ListMembers(ctx context.Context, orgID int32) ([]domain.User, error)
	UpdateMember(ctx context.Context, caller domain.Caller, userID int32, input UpdateProfileInput) (*domain.User, error)
	RemoveMember(ctx context.Context, caller domain.Caller, userID int32) error
}

type BannerService interface {
	CreateBanner(ctx context.Context, input CreateBannerInput) (*domain.Banner, error)
	ListActiveBanners(ctx context.Context) ([]domain.Banner, error)
	DeleteBanner(ctx context.Context, id int32) error
}

type CreateBannerInput struct {
	Title       string
	FileName    string
	ContentType string
	Data        []byte
	StartDate   string
	EndDate     string
}

type RatingService interface {
	SubmitRating(ctx context.Context, userID, stars int32, comment string) (*domain.Rating, error)
	GetRating(ctx context.Context, userID int32) (*domain.Rating, error)
}

type EmailService interface {
	SendOTP(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, resetLink string) error
}
