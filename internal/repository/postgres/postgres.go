package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

// Store bundles all repository implementations over one database handle.
type Store struct {
	UserRepository         repository.UserRepository
	RequestRepository      repository.RequestRepository
	ResponseRepository     repository.ResponseRepository
	OrganizationRepository repository.OrganizationRepository
	BannerRepository       repository.BannerRepository
	RatingRepository       repository.RatingRepository
	AdminRepository        repository.AdminRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		UserRepository:         NewUserRepository(db),
		RequestRepository:      NewRequestRepository(db),
		ResponseRepository:     NewResponseRepository(db),
		OrganizationRepository: NewOrganizationRepository(db),
		BannerRepository:       NewBannerRepository(db),
		RatingRepository:       NewRatingRepository(db),
		AdminRepository:        NewAdminRepository(db),
	}
}

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// haversineKm renders the great-circle distance (km) between a stored
// lat/lng column pair and the positional args latArg/lngArg, so radius
// filtering and proximity ordering both happen in the query layer.
func haversineKm(latCol, lngCol string, latArg, lngArg int) string {
	return fmt.Sprintf(
		`(6371 * 2 * asin(sqrt(
			power(sin(radians(($%d - %s) / 2)), 2) +
			cos(radians(%s)) * cos(radians($%d)) *
			power(sin(radians(($%d - %s) / 2)), 2))))`,
		latArg, latCol, latCol, latArg, lngArg, lngCol)
}
