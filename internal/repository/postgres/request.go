package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, requester_id, blood_group, units, patient_name, hospital_name,
	hospital_address, phone_number, notes, latitude, longitude, priority, status, is_active,
	created_on, updated_on`

func scanRequest(row interface{ Scan(...interface{}) error }, req *domain.BloodRequest) error {
	return row.Scan(&req.ID, &req.RequesterID, &req.BloodGroup, &req.Units, &req.PatientName,
		&req.HospitalName, &req.HospitalAddress, &req.PhoneNumber, &req.Notes,
		&req.Location.Latitude, &req.Location.Longitude, &req.Priority, &req.Status,
		&req.IsActive, &req.CreatedOn, &req.UpdatedOn)
}

func (r *requestRepository) Create(ctx context.Context, req *domain.BloodRequest) error {
	query := `INSERT INTO blood_requests (requester_id, blood_group, units, patient_name,
	              hospital_name, hospital_address, phone_number, notes, latitude, longitude,
	              priority, status, is_active, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, req.RequesterID, req.BloodGroup, req.Units,
		req.PatientName, req.HospitalName, req.HospitalAddress, req.PhoneNumber, req.Notes,
		req.Location.Latitude, req.Location.Longitude, req.Priority,
		domain.RequestStatusPending, true, now, now).
		Scan(&req.ID, &req.CreatedOn)
	if err != nil {
		return mapError(err)
	}
	req.Status = domain.RequestStatusPending
	req.IsActive = true
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.BloodRequest, error) {
	req := &domain.BloodRequest{}
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE id = $1`
	if err := scanRequest(r.db.QueryRowContext(ctx, query, id), req); err != nil {
		return nil, mapError(err)
	}
	return req, nil
}

func (r *requestRepository) ListActive(ctx context.Context, filter domain.ActiveRequestFilter) ([]domain.RequestWithDistance, int32, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	where := ` WHERE status = 'PENDING'`
	args := []interface{}{}
	if filter.ExcludeRequesterID != 0 {
		args = append(args, filter.ExcludeRequesterID)
		where += fmt.Sprintf(" AND requester_id <> $%d", len(args))
	}

	var count int32
	countSQL := `SELECT count(*) FROM blood_requests` + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&count); err != nil {
		return nil, 0, mapError(err)
	}

	selectCols := requestColumns
	orderBy := " ORDER BY created_on DESC"
	if filter.Origin != nil {
		args = append(args, filter.Origin.Latitude, filter.Origin.Longitude)
		dist := haversineKm("latitude", "longitude", len(args)-1, len(args))
		selectCols += ", " + dist + " AS distance_km"
		orderBy = " ORDER BY distance_km ASC"
	} else {
		selectCols += ", NULL::float8 AS distance_km"
	}

	args = append(args, pageSize, offset)
	query := `SELECT ` + selectCols + ` FROM blood_requests` + where + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var requests []domain.RequestWithDistance
	for rows.Next() {
		var req domain.RequestWithDistance
		if err := rows.Scan(&req.ID, &req.RequesterID, &req.BloodGroup, &req.Units,
			&req.PatientName, &req.HospitalName, &req.HospitalAddress, &req.PhoneNumber,
			&req.Notes, &req.Location.Latitude, &req.Location.Longitude, &req.Priority,
			&req.Status, &req.IsActive, &req.CreatedOn, &req.UpdatedOn, &req.DistanceKm); err != nil {
			return nil, 0, mapError(err)
		}
		requests = append(requests, req)
	}
	return requests, count, rows.Err()
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID int32) ([]domain.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests WHERE requester_id = $1 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var requests []domain.BloodRequest
	for rows.Next() {
		var req domain.BloodRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, mapError(err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// TransitionStatus is a single conditional update: the transition applies
// only when the current status is one of the allowed predecessors, so
// concurrent callers cannot race a read-then-write.
func (r *requestRepository) TransitionStatus(ctx context.Context, id int32, next domain.RequestStatus, allowed ...domain.RequestStatus) error {
	states := make([]string, len(allowed))
	for i, s := range allowed {
		states[i] = string(s)
	}

	active := !next.Terminal()
	query := `UPDATE blood_requests SET status = $1, is_active = $2, updated_on = $3
	          WHERE id = $4 AND status = ANY($5)`
	res, err := r.db.ExecContext(ctx, query, next, active, time.Now(), id, pq.Array(states))
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n > 0 {
		return nil
	}

	// No match: distinguish a missing row from an illegal transition.
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM blood_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return mapError(err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

func (r *requestRepository) RejectStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE blood_requests SET status = 'REJECTED', is_active = FALSE, updated_on = $1
	          WHERE status = 'PENDING' AND created_on < $2`
	res, err := r.db.ExecContext(ctx, query, time.Now(), cutoff)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
