package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, phone_number, password_hash, date_of_birth, blood_type,
	latitude, longitude, organization_id, is_available_donor, is_verified,
	donation_count, last_donation_on, push_token, height_cm, weight_kg, created_on, updated_on`

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.PasswordHash, &u.DateOfBirth,
		&u.BloodType, &u.Location.Latitude, &u.Location.Longitude, &u.OrganizationID,
		&u.IsAvailableDonor, &u.IsVerified, &u.DonationCount, &u.LastDonationOn,
		&u.PushToken, &u.HeightCm, &u.WeightKg, &u.CreatedOn, &u.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (name, email, phone_number, password_hash, date_of_birth, blood_type,
	              latitude, longitude, organization_id, is_available_donor, is_verified,
	              height_cm, weight_kg, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PhoneNumber, u.PasswordHash,
		u.DateOfBirth, u.BloodType, u.Location.Latitude, u.Location.Longitude, u.OrganizationID,
		u.IsAvailableDonor, u.IsVerified, u.HeightCm, u.WeightKg, now, now).
		Scan(&u.ID, &u.CreatedOn)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name=$1, phone_number=$2, blood_type=$3, latitude=$4, longitude=$5,
	              is_available_donor=$6, height_cm=$7, weight_kg=$8, updated_on=$9
	          WHERE id = $10`
	res, err := r.db.ExecContext(ctx, query, u.Name, u.PhoneNumber, u.BloodType,
		u.Location.Latitude, u.Location.Longitude, u.IsAvailableDonor, u.HeightCm, u.WeightKg,
		time.Now(), u.ID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByEmailUnverified removes a signup whose OTP lapsed before
// verification, so the address can register again.
func (r *userRepository) DeleteByEmailUnverified(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE email = $1 AND is_verified = FALSE`, email)
	return mapError(err)
}

func (r *userRepository) List(ctx context.Context, search string, page, pageSize int32) ([]domain.Donor, int32, error) {
	offset := (page - 1) * pageSize

	where := ""
	args := []interface{}{}
	if search != "" {
		where = ` WHERE u.name ILIKE $1 OR u.email ILIKE $1 OR u.phone_number ILIKE $1 OR u.blood_type ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var count int32
	countSQL := `SELECT count(*) FROM users u` + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	query := `SELECT u.id, u.name, u.email, u.phone_number, u.blood_type, u.donation_count,
	              u.is_available_donor, u.date_of_birth, u.height_cm, u.weight_kg,
	              u.created_on, u.updated_on,
	              (SELECT max(dr.updated_on) FROM donor_responses dr
	               WHERE dr.donor_id = u.id AND dr.status = 'COMPLETED') AS last_donation
	          FROM users u` + where +
		fmt.Sprintf(` ORDER BY u.created_on DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var donors []domain.Donor
	for rows.Next() {
		var d domain.Donor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.PhoneNumber, &d.BloodType,
			&d.DonationCount, &d.IsAvailableDonor, &d.DateOfBirth, &d.HeightCm, &d.WeightKg,
			&d.CreatedOn, &d.UpdatedOn, &d.LastDonation); err != nil {
			return nil, 0, mapError(err)
		}
		donors = append(donors, d)
	}
	return donors, count, rows.Err()
}

func (r *userRepository) ListByOrganization(ctx context.Context, orgID int32) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE organization_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepository) FindEligibleDonors(ctx context.Context, bloodType domain.BloodType, origin domain.Point, radiusMeters float64, excludeUserID int32, completedAfter time.Time) ([]domain.Donor, error) {
	// Distance filtering and ordering stay in the query layer; the
	// 90-day cooldown is the NOT EXISTS clause over completed responses.
	dist := haversineKm("u.latitude", "u.longitude", 1, 2)
	query := `SELECT u.id, u.name, u.email, u.phone_number, u.blood_type, u.latitude, u.longitude,
	              u.organization_id, u.donation_count, u.last_donation_on, u.push_token,
	              ` + dist + ` AS distance_km
	          FROM users u
	          WHERE u.blood_type = $3
	            AND u.id <> $4
	            AND u.is_verified = TRUE
	            AND u.is_available_donor = TRUE
	            AND ` + dist + ` <= $5
	            AND NOT EXISTS (
	                SELECT 1 FROM donor_responses dr
	                WHERE dr.donor_id = u.id
	                  AND dr.status = 'COMPLETED'
	                  AND dr.updated_on > $6)
	          ORDER BY distance_km ASC`

	rows, err := r.db.QueryContext(ctx, query, origin.Latitude, origin.Longitude,
		bloodType, excludeUserID, radiusMeters/1000.0, completedAfter)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var donors []domain.Donor
	for rows.Next() {
		var d domain.Donor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.PhoneNumber, &d.BloodType,
			&d.Location.Latitude, &d.Location.Longitude, &d.OrganizationID,
			&d.DonationCount, &d.LastDonationOn, &d.PushToken, &d.DistanceKm); err != nil {
			return nil, mapError(err)
		}
		donors = append(donors, d)
	}
	return donors, rows.Err()
}

func (r *userRepository) MarkVerified(ctx context.Context, id int32, pushToken *string) error {
	query := `UPDATE users SET is_verified = TRUE, push_token = COALESCE($1, push_token), updated_on = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, pushToken, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetPushToken(ctx context.Context, id int32, token *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET push_token = $1, updated_on = $2 WHERE id = $3`, token, time.Now(), id)
	return mapError(err)
}

func (r *userRepository) ClearPushToken(ctx context.Context, id int32) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET push_token = NULL, updated_on = $1 WHERE id = $2`, time.Now(), id)
	return mapError(err)
}

func (r *userRepository) SetPassword(ctx context.Context, id int32, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_on = $2 WHERE id = $3`, passwordHash, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) LeaveOrganization(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET organization_id = NULL, updated_on = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) RecordDonation(ctx context.Context, id int32, donatedOn time.Time) error {
	query := `UPDATE users SET donation_count = donation_count + 1, last_donation_on = $1, updated_on = $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, donatedOn, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
