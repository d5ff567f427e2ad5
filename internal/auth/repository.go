package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/couchsync/backend/internal/models"
	"github.com/couchsync/backend/pkg/database"
)

// Repository handles user persistence.
type Repository struct {
	db database.DBTX
}

// NewRepository creates an auth repository.
func NewRepository(db database.DBTX) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, password_hash, display_name, image_url, is_premium, created_at, updated_at`

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var u models.User
	err := r.db.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.ImageURL, &u.IsPremium, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var u models.User
	err := r.db.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.ImageURL, &u.IsPremium, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName string) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	var u models.User
	err := r.db.QueryRow(ctx, q, email, passwordHash, displayName).
		Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.ImageURL, &u.IsPremium, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateImageURL sets the user's avatar URL.
func (r *Repository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	const q = `UPDATE users SET image_url = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, q, imageURL, id)
	return err
}

// SetPremium toggles the premium flag (set by the billing collaborator).
func (r *Repository) SetPremium(ctx context.Context, id uuid.UUID, premium bool) error {
	const q = `UPDATE users SET is_premium = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, q, premium, id)
	return err
}
