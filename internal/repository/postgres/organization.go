package postgres

import (
	"context"
	"database/sql"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type organizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) repository.OrganizationRepository {
	return &organizationRepository{db: db}
}

const orgColumns = `id, name, type, license_no, contact_person, email, phone, address, city,
	state, pincode, password_hash, latitude, longitude, created_on, updated_on`

func scanOrg(row interface{ Scan(...interface{}) error }) (*domain.Organization, error) {
	o := &domain.Organization{}
	err := row.Scan(&o.ID, &o.Name, &o.Type, &o.LicenseNo, &o.ContactPerson, &o.Email,
		&o.Phone, &o.Address, &o.City, &o.State, &o.Pincode, &o.PasswordHash,
		&o.Location.Latitude, &o.Location.Longitude, &o.CreatedOn, &o.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return o, nil
}

func (r *organizationRepository) Create(ctx context.Context, o *domain.Organization) error {
	query := `INSERT INTO organizations (name, type, license_no, contact_person, email, phone,
	              address, city, state, pincode, password_hash, latitude, longitude,
	              created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, o.Name, o.Type, o.LicenseNo, o.ContactPerson,
		o.Email, o.Phone, o.Address, o.City, o.State, o.Pincode, o.PasswordHash,
		o.Location.Latitude, o.Location.Longitude, now, now).
		Scan(&o.ID, &o.CreatedOn)
	return mapError(err)
}

func (r *organizationRepository) GetByID(ctx context.Context, id int32) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`
	return scanOrg(r.db.QueryRowContext(ctx, query, id))
}

func (r *organizationRepository) GetByEmail(ctx context.Context, email string) (*domain.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE email = $1`
	return scanOrg(r.db.QueryRowContext(ctx, query, email))
}

func (r *organizationRepository) Update(ctx context.Context, o *domain.Organization) error {
	query := `UPDATE organizations SET name=$1, contact_person=$2, phone=$3, address=$4,
	              city=$5, state=$6, pincode=$7, latitude=$8, longitude=$9, updated_on=$10
	          WHERE id = $11`
	res, err := r.db.ExecContext(ctx, query, o.Name, o.ContactPerson, o.Phone, o.Address,
		o.City, o.State, o.Pincode, o.Location.Latitude, o.Location.Longitude, time.Now(), o.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
