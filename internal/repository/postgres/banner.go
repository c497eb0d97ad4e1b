package postgres

import (
	"context"
	"database/sql"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type bannerRepository struct {
	db *sql.DB
}

func NewBannerRepository(db *sql.DB) repository.BannerRepository {
	return &bannerRepository{db: db}
}

func (r *bannerRepository) Create(ctx context.Context, b *domain.Banner) error {
	query := `INSERT INTO banners (title, image_url, storage_key, start_date, end_date, is_active,
	              created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_on`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query, b.Title, b.ImageURL, b.StorageKey, b.StartDate,
		b.EndDate, b.IsActive, now, now).Scan(&b.ID, &b.CreatedOn)
	return mapError(err)
}

func (r *bannerRepository) GetByID(ctx context.Context, id int32) (*domain.Banner, error) {
	b := &domain.Banner{}
	query := `SELECT id, title, image_url, storage_key, start_date, end_date, is_active,
	              created_on, updated_on FROM banners WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&b.ID, &b.Title, &b.ImageURL,
		&b.StorageKey, &b.StartDate, &b.EndDate, &b.IsActive, &b.CreatedOn, &b.UpdatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return b, nil
}

func (r *bannerRepository) ListActive(ctx context.Context) ([]domain.Banner, error) {
	query := `SELECT id, title, image_url, storage_key, start_date, end_date, is_active,
	              created_on, updated_on
	          FROM banners
	          WHERE is_active = TRUE AND start_date <= now() AND end_date >= now()
	          ORDER BY start_date DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var banners []domain.Banner
	for rows.Next() {
		var b domain.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.StorageKey, &b.StartDate,
			&b.EndDate, &b.IsActive, &b.CreatedOn, &b.UpdatedOn); err != nil {
			return nil, mapError(err)
		}
		banners = append(banners, b)
	}
	return banners, rows.Err()
}

func (r *bannerRepository) Delete(ctx context.Context, id int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeactivateExpired is a conditional update, so concurrent sweeps settle on
// the same final state.
func (r *bannerRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE banners SET is_active = FALSE, updated_on = $1
	          WHERE is_active = TRUE AND end_date < $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}
