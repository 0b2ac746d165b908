package tenant

import (
	"context"
	"errors"
	"time"

	"camicam_crm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("tenant not found")

// Tenant is an isolated customer organization. All domain data is partitioned
// by tenant ID. Tenants are never hard-deleted; deactivation flips is_active.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	Subdomain string
	IsActive  bool
	Plan      string
	CreatedAt time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

const getBySubdomainQuery = `
	SELECT id, name, subdomain, is_active, plan, created_at
	FROM tenants
	WHERE subdomain = $1 AND is_active = true
`

// GetBySubdomain returns the active tenant for a routing key.
// Inactive tenants resolve the same as missing ones.
func (r *Repository) GetBySubdomain(ctx context.Context, subdomain string) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx, getBySubdomainQuery, subdomain).Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.IsActive, &t.Plan, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, ErrNotFound
		}
		return Tenant{}, err
	}

	return t, nil
}
