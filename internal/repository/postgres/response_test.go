package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository/postgres"
)

func TestResponseRepository_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts a new response", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		km := 2.4
		resp := &domain.DonorResponse{
			RequestID:  10,
			DonorID:    7,
			Status:     domain.ResponseStatusApproved,
			Remarks:    "on my way",
			DistanceKm: &km,
		}

		mock.ExpectQuery("INSERT INTO donor_responses").
			WithArgs(resp.RequestID, resp.DonorID, resp.OrganizationID, resp.Status,
				resp.Remarks, resp.DistanceKm, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_on"}).AddRow(1, time.Now()))

		require.NoError(t, repo.Upsert(ctx, resp))
		assert.Equal(t, int32(1), resp.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished request maps to not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		mock.ExpectQuery("INSERT INTO donor_responses").
			WillReturnError(&pq.Error{Code: "23503"})

		err = repo.Upsert(ctx, &domain.DonorResponse{RequestID: 999, DonorID: 7,
			Status: domain.ResponseStatusApproved})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestResponseRepository_MarkCompleted(t *testing.T) {
	ctx := context.Background()

	t.Run("flips an approved response", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		mock.ExpectExec("UPDATE donor_responses SET status = 'COMPLETED'").
			WithArgs(sqlmock.AnyArg(), int32(10), int32(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkCompleted(ctx, 10, 7))
	})

	t.Run("second completion trips the partial unique index", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		mock.ExpectExec("UPDATE donor_responses SET status = 'COMPLETED'").
			WithArgs(sqlmock.AnyArg(), int32(10), int32(8)).
			WillReturnError(&pq.Error{Code: "23505"})

		err = repo.MarkCompleted(ctx, 10, 8)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("unknown pair is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		mock.ExpectExec("UPDATE donor_responses SET status = 'COMPLETED'").
			WithArgs(sqlmock.AnyArg(), int32(10), int32(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM donor_responses").
			WithArgs(int32(10), int32(9)).
			WillReturnError(sql.ErrNoRows)

		err = repo.MarkCompleted(ctx, 10, 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("already withdrawn pair conflicts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := postgres.NewResponseRepository(db)

		now := time.Now()
		mock.ExpectExec("UPDATE donor_responses SET status = 'COMPLETED'").
			WithArgs(sqlmock.AnyArg(), int32(10), int32(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM donor_responses").
			WithArgs(int32(10), int32(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "request_id", "donor_id",
				"organization_id", "status", "remarks", "distance_km", "created_on", "updated_on"}).
				AddRow(1, 10, 7, nil, "REJECTED", "", nil, now, now))

		err = repo.MarkCompleted(ctx, 10, 7)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}
