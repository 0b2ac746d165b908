package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"camicam_crm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("calendar entry not found")

type Repository struct {
	pool *db.Pool
}

func New(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Entry is one reserved slot on the booking calendar. Holds created by the
// single-slot reservation path carry is_hold; entries from the detailed
// booking flow do not.
type Entry struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Date      time.Time
	LeadID    *uuid.UUID
	Title     string
	Notes     string
	Ticket    float64
	Services  map[string]int
	IsHold    bool
	CreatedAt time.Time
}

// OccupiedEntry is the read projection for the dashboard calendar: an entry
// joined with its lead's display name.
type OccupiedEntry struct {
	Entry
	LeadName *string
	Year     int
}

type CreateEntryParams struct {
	TenantID uuid.UUID
	Date     time.Time
	LeadID   *uuid.UUID
	Title    string
	Notes    string
	Ticket   float64
	Services map[string]int
}

const countOnDateQuery = `
	SELECT COUNT(*) FROM calendario
	WHERE tenant_id = $1 AND fecha = $2
`

// CountOnDate returns how many entries exist for a tenant on one date.
func (r *Repository) CountOnDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, countOnDateQuery, tenantID, date).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

const reserveHoldQuery = `
	INSERT INTO calendario (tenant_id, fecha, lead_id, is_hold, servicios)
	SELECT $1, $2, $3, true, '{}'::jsonb
	WHERE NOT EXISTS (
		SELECT 1 FROM calendario WHERE tenant_id = $1 AND fecha = $2
	)
	ON CONFLICT (tenant_id, fecha) WHERE is_hold DO NOTHING
`

// ReserveHold inserts a single-slot hold for (tenant, date) only when the
// date is still empty. The partial unique index on (tenant_id, fecha) for
// holds guarantees exactly one of two racing calls observes created=true.
func (r *Repository) ReserveHold(ctx context.Context, tenantID uuid.UUID, date time.Time, leadID *uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, reserveHoldQuery, tenantID, date, leadID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Create inserts a detailed calendar entry. Capacity accounting is the
// service's responsibility; this is a plain insert.
func (r *Repository) Create(ctx context.Context, params CreateEntryParams) (Entry, error) {
	services, err := json.Marshal(normalizedServices(params.Services))
	if err != nil {
		return Entry{}, err
	}

	var entry Entry
	var rawServices []byte
	err = r.pool.QueryRow(ctx, `
		INSERT INTO calendario (tenant_id, fecha, lead_id, titulo, notas, ticket, servicios, is_hold)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, false)
		RETURNING id, tenant_id, fecha, lead_id, titulo, notas, ticket, servicios, is_hold, created_at
	`,
		params.TenantID, params.Date, params.LeadID, params.Title, params.Notes, params.Ticket, services,
	).Scan(
		&entry.ID, &entry.TenantID, &entry.Date, &entry.LeadID, &entry.Title,
		&entry.Notes, &entry.Ticket, &rawServices, &entry.IsHold, &entry.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}

	entry.Services = decodeServices(rawServices)
	return entry, nil
}

const getByIDQuery = `
	SELECT id, tenant_id, fecha, lead_id, titulo, notas, ticket, servicios, is_hold, created_at
	FROM calendario
	WHERE id = $1 AND tenant_id = $2
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Entry, error) {
	var entry Entry
	var rawServices []byte
	err := r.pool.QueryRow(ctx, getByIDQuery, id, tenantID).Scan(
		&entry.ID, &entry.TenantID, &entry.Date, &entry.LeadID, &entry.Title,
		&entry.Notes, &entry.Ticket, &rawServices, &entry.IsHold, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}

	entry.Services = decodeServices(rawServices)
	return entry, nil
}

type UpdateEntryParams struct {
	Title    string
	Notes    string
	Ticket   float64
	Services map[string]int
}

const updateQuery = `
	UPDATE calendario
	SET titulo = $3, notas = $4, ticket = $5, servicios = $6::jsonb
	WHERE id = $1 AND tenant_id = $2
`

// Update rewrites an entry's detail fields. The date column is deliberately
// not updatable here; date moves go through delete+create so the per-date
// capacity count stays correct.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params UpdateEntryParams) error {
	services, err := json.Marshal(normalizedServices(params.Services))
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateQuery, id, tenantID, params.Title, params.Notes, params.Ticket, services)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const deleteQuery = `
	DELETE FROM calendario
	WHERE id = $1 AND tenant_id = $2
`

func (r *Repository) Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Entry, error) {
	entry, err := r.GetByID(ctx, id, tenantID)
	if err != nil {
		return Entry{}, err
	}

	tag, err := r.pool.Exec(ctx, deleteQuery, id, tenantID)
	if err != nil {
		return Entry{}, err
	}
	if tag.RowsAffected() == 0 {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

const listOccupiedQuery = `
	SELECT c.id, c.tenant_id, c.fecha, c.lead_id, c.titulo, c.notas, c.ticket,
		c.servicios, c.is_hold, c.created_at,
		l.nombre AS lead_nombre,
		EXTRACT(YEAR FROM c.fecha)::int AS anio
	FROM calendario c
	LEFT JOIN leads l ON c.lead_id = l.id AND l.tenant_id = c.tenant_id
	WHERE c.tenant_id = $1
	ORDER BY c.fecha DESC, c.created_at DESC
`

// ListOccupied returns all entries for a tenant, newest date first, with the
// joined lead display name.
func (r *Repository) ListOccupied(ctx context.Context, tenantID uuid.UUID) ([]OccupiedEntry, error) {
	rows, err := r.pool.Query(ctx, listOccupiedQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]OccupiedEntry, 0)
	for rows.Next() {
		var entry OccupiedEntry
		var rawServices []byte
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.Date, &entry.LeadID, &entry.Title,
			&entry.Notes, &entry.Ticket, &rawServices, &entry.IsHold, &entry.CreatedAt,
			&entry.LeadName, &entry.Year,
		); err != nil {
			return nil, err
		}
		entry.Services = decodeServices(rawServices)
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

const upcomingQuery = `
	SELECT id, tenant_id, fecha, lead_id, titulo, notas, ticket, servicios, is_hold, created_at
	FROM calendario
	WHERE tenant_id = $1 AND fecha >= $2
	ORDER BY fecha ASC
	LIMIT $3
`

// Upcoming returns the next entries on or after the given date.
func (r *Repository) Upcoming(ctx context.Context, tenantID uuid.UUID, from time.Time, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, upcomingQuery, tenantID, from, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var rawServices []byte
		if err := rows.Scan(
			&entry.ID, &entry.TenantID, &entry.Date, &entry.LeadID, &entry.Title,
			&entry.Notes, &entry.Ticket, &rawServices, &entry.IsHold, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.Services = decodeServices(rawServices)
		entries = append(entries, entry)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return entries, nil
}

// YearSummary counts entries per calendar year.
type YearSummary struct {
	Year  int
	Total int
}

const yearsQuery = `
	SELECT EXTRACT(YEAR FROM fecha)::int AS anio, COUNT(*)
	FROM calendario
	WHERE tenant_id = $1
	GROUP BY anio
	ORDER BY anio DESC
`

func (r *Repository) Years(ctx context.Context, tenantID uuid.UUID) ([]YearSummary, error) {
	rows, err := r.pool.Query(ctx, yearsQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := make([]YearSummary, 0)
	for rows.Next() {
		var y YearSummary
		if err := rows.Scan(&y.Year, &y.Total); err != nil {
			return nil, err
		}
		years = append(years, y)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return years, nil
}

const deleteYearEntriesQuery = `
	DELETE FROM calendario
	WHERE tenant_id = $1 AND EXTRACT(YEAR FROM fecha) = $2
`

const deleteYearColorQuery = `
	DELETE FROM anio_color
	WHERE tenant_id = $1 AND anio = $2
`

// DeleteYear removes every entry of a calendar year plus its color row, in
// one transaction.
func (r *Repository) DeleteYear(ctx context.Context, tenantID uuid.UUID, year int) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, deleteYearEntriesQuery, tenantID, year)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, deleteYearColorQuery, tenantID, year); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

const upsertYearColorQuery = `
	INSERT INTO anio_color (tenant_id, anio, color)
	VALUES ($1, $2, $3)
	ON CONFLICT (tenant_id, anio) DO UPDATE SET color = EXCLUDED.color
`

// UpsertYearColor sets the display color for a calendar year, idempotently.
func (r *Repository) UpsertYearColor(ctx context.Context, tenantID uuid.UUID, year int, color string) error {
	_, err := r.pool.Exec(ctx, upsertYearColorQuery, tenantID, year, color)
	return err
}

const yearColorsQuery = `
	SELECT anio, color FROM anio_color
	WHERE tenant_id = $1
`

// YearColors returns the per-year display colors for a tenant.
func (r *Repository) YearColors(ctx context.Context, tenantID uuid.UUID) (map[int]string, error) {
	rows, err := r.pool.Query(ctx, yearColorsQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	colors := make(map[int]string)
	for rows.Next() {
		var year int
		var color string
		if err := rows.Scan(&year, &color); err != nil {
			return nil, err
		}
		colors[year] = color
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return colors, nil
}

// decodeServices parses the stored services document, falling back to an
// empty map on malformed data.
func decodeServices(raw []byte) map[string]int {
	if len(raw) == 0 {
		return map[string]int{}
	}
	var services map[string]int
	if err := json.Unmarshal(raw, &services); err != nil || services == nil {
		return map[string]int{}
	}
	return services
}

func normalizedServices(services map[string]int) map[string]int {
	if services == nil {
		return map[string]int{}
	}
	return services
}
