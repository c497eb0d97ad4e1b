package postgres

import (
	"context"
	"database/sql"
	"time"

	"bloodbridge-backend/internal/domain"
	"bloodbridge-backend/internal/repository"
)

type adminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) repository.AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) Create(ctx context.Context, a *domain.Admin) error {
	query := `INSERT INTO admins (email, password_hash, created_on) VALUES ($1, $2, $3) RETURNING id, created_on`
	err := r.db.QueryRowContext(ctx, query, a.Email, a.PasswordHash, time.Now()).
		Scan(&a.ID, &a.CreatedOn)
	return mapError(err)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	a := &domain.Admin{}
	query := `SELECT id, email, password_hash, created_on FROM admins WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedOn)
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}
