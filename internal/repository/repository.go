package repository

import (
	"context"
	"time"

	"bloodbridge-backend/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int32) error
	DeleteByEmailUnverified(ctx context.Context, email string) error

	// List returns users matching a free-text search over name, email,
	// phone number and blood type, newest first, each enriched with the
	// timestamp of their most recent completed donation.
	List(ctx context.Context, search string, page, pageSize int32) ([]domain.Donor, int32, error)
	ListByOrganization(ctx context.Context, orgID int32) ([]domain.User, error)

	// FindEligibleDonors returns verified, available donors of the given
	// blood type within radiusMeters of origin, nearest first, excluding
	// excludeUserID and anyone with a completed donation after the cutoff.
	// An empty result with a nil error means no donors matched.
	FindEligibleDonors(ctx context.Context, bloodType domain.BloodType, origin domain.Point, radiusMeters float64, excludeUserID int32, completedAfter time.Time) ([]domain.Donor, error)

	MarkVerified(ctx context.Context, id int32, pushToken *string) error
	SetPushToken(ctx context.Context, id int32, token *string) error
	ClearPushToken(ctx context.Context, id int32) error
	SetPassword(ctx context.Context, id int32, passwordHash string) error
	LeaveOrganization(ctx context.Context, id int32) error
	// RecordDonation increments the donation counter and stamps the last
	// donation time in a single update.
	RecordDonation(ctx context.Context, id int32, donatedOn time.Time) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *domain.BloodRequest) error
	GetByID(ctx context.Context, id int32) (*domain.BloodRequest, error)

	// ListActive returns requests whose status is PENDING, with total and
	// page counts. Status is the single source of truth for activeness.
	ListActive(ctx context.Context, filter domain.ActiveRequestFilter) ([]domain.RequestWithDistance, int32, error)
	ListByRequester(ctx context.Context, requesterID int32) ([]domain.BloodRequest, error)

	// TransitionStatus atomically moves a request from one of the allowed
	// predecessor statuses to next, in one conditional update. It returns
	// domain.ErrConflict when the row exists but is in none of the allowed
	// states, and domain.ErrNotFound when it does not exist.
	TransitionStatus(ctx context.Context, id int32, next domain.RequestStatus, allowed ...domain.RequestStatus) error
	// RejectStale marks still-pending requests older than cutoff rejected.
	// Idempotent under concurrent invocation.
	RejectStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type ResponseRepository interface {
	// Upsert records one donor's response, keyed by (request_id, donor_id).
	// A repeated call for the same pair overwrites status and remarks.
	Upsert(ctx context.Context, resp *domain.DonorResponse) error
	Get(ctx context.Context, requestID, donorID int32) (*domain.DonorResponse, error)
	ListByRequest(ctx context.Context, requestID int32) ([]domain.DonorResponseDetail, error)
	ListByDonor(ctx context.Context, donorID int32, status domain.ResponseStatus) ([]domain.DonorResponse, error)

	// MarkCompleted flips the pair's sub-status to COMPLETED. A partial
	// unique index allows at most one completed response per request;
	// a second completion returns domain.ErrConflict.
	MarkCompleted(ctx context.Context, requestID, donorID int32) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id int32) (*domain.Organization, error)
	GetByEmail(ctx context.Context, email string) (*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

type BannerRepository interface {
	Create(ctx context.Context, banner *domain.Banner) error
	GetByID(ctx context.Context, id int32) (*domain.Banner, error)
	ListActive(ctx context.Context) ([]domain.Banner, error)
	Delete(ctx context.Context, id int32) error
	// DeactivateExpired flips is_active off for banners past their end
	// date. Idempotent under concurrent invocation.
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
}

type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) error
	GetByUser(ctx context.Context, userID int32) (*domain.Rating, error)
}
