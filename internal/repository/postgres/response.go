package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type responseRepository struct {
	db *sql.DB
}

func NewResponseRepository(db *sql.DB) repository.ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) Upsert(ctx context.Context, resp *domain.DonorResponse) error {
	// (request_id, donor_id) carries a unique constraint; the upsert keeps
	// the ledger at one row per pair.
	query := `INSERT INTO donor_responses (request_id, donor_id, organization_id, status,
	              remarks, distance_km, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          ON CONFLICT (request_id, donor_id) DO UPDATE
	              SET status = EXCLUDED.status,
	                  remarks = EXCLUDED.remarks,
	                  distance_km = EXCLUDED.distance_km,
	                  updated_on = EXCLUDED.updated_on
	          RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, resp.RequestID, resp.DonorID, resp.OrganizationID,
		resp.Status, resp.Remarks, resp.DistanceKm, now, now).
		Scan(&resp.ID, &resp.CreatedOn)
	if err != nil {
		// A foreign key violation means the referenced request is gone.
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return mapError(err)
	}
	resp.UpdatedOn = now
	return nil
}

func (r *responseRepository) Get(ctx context.Context, requestID, donorID int32) (*domain.DonorResponse, error) {
	resp := &domain.DonorResponse{}
	query := `SELECT id, request_id, donor_id, organization_id, status, remarks, distance_km,
	              created_on, updated_on
	          FROM donor_responses WHERE request_id = $1 AND donor_id = $2`
	err := r.db.QueryRowContext(ctx, query, requestID, donorID).
		Scan(&resp.ID, &resp.RequestID, &resp.DonorID, &resp.OrganizationID, &resp.Status,
			&resp.Remarks, &resp.DistanceKm, &resp.CreatedOn, &resp.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

func (r *responseRepository) ListByRequest(ctx context.Context, requestID int32) ([]domain.DonorResponseDetail, error) {
	// Join exposes only the donor's public profile fields, never the
	// password hash or push token.
	query := `SELECT dr.id, dr.request_id, dr.donor_id, dr.organization_id, dr.status,
	              dr.remarks, dr.distance_km, dr.created_on, dr.updated_on,
	              u.id, u.name, u.blood_type, u.phone_number, u.donation_count
	          FROM donor_responses dr
	          JOIN users u ON u.id = dr.donor_id
	          WHERE dr.request_id = $1
	          ORDER BY dr.created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var details []domain.DonorResponseDetail
	for rows.Next() {
		var d domain.DonorResponseDetail
		if err := rows.Scan(&d.ID, &d.RequestID, &d.DonorID, &d.OrganizationID, &d.Status,
			&d.Remarks, &d.DistanceKm, &d.CreatedOn, &d.UpdatedOn,
			&d.Donor.ID, &d.Donor.Name, &d.Donor.BloodType, &d.Donor.PhoneNumber,
			&d.Donor.DonationCount); err != nil {
			return nil, mapError(err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *responseRepository) ListByDonor(ctx context.Context, donorID int32, status domain.ResponseStatus) ([]domain.DonorResponse, error) {
	query := `SELECT id, request_id, donor_id, organization_id, status, remarks, distance_km,
	              created_on, updated_on
	          FROM donor_responses WHERE donor_id = $1`
	args := []interface{}{donorID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_on DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var responses []domain.DonorResponse
	for rows.Next() {
		var resp domain.DonorResponse
		if err := rows.Scan(&resp.ID, &resp.RequestID, &resp.DonorID, &resp.OrganizationID,
			&resp.Status, &resp.Remarks, &resp.DistanceKm, &resp.CreatedOn, &resp.UpdatedOn); err != nil {
			return nil, mapError(err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// MarkCompleted relies on the partial unique index over
// (request_id) WHERE status = 'COMPLETED': the first completion wins and any
// later one surfaces as a unique violation, reported as ErrConflict.
func (r *responseRepository) MarkCompleted(ctx context.Context, requestID, donorID int32) error {
	query := `UPDATE donor_responses SET status = 'COMPLETED', updated_on = $1
	          WHERE request_id = $2 AND donor_id = $3 AND status = 'APPROVED'`
	res, err := r.db.ExecContext(ctx, query, time.Now(), requestID, donorID)
	if err != nil {
		mapped := mapError(err)
		if errors.Is(mapped, domain.ErrDuplicate) {
			return domain.ErrConflict
		}
		return mapped
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		// Either the pair does not exist or it already left APPROVED.
		if _, getErr := r.Get(ctx, requestID, donorID); errors.Is(getErr, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}
