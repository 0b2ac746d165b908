// Package repository persists leads. Every query is tenant-scoped; the
// (tenant_id, phone) pair is the natural key and carries a unique constraint.
package repository

import (
	"context"
	"errors"
	"time"

	"camicam_crm_backend/internal/leads/domain"
	"camicam_crm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("lead not found")
	ErrDuplicatePhone = errors.New("phone already in use by another lead")
)

type Repository struct {
	pool *db.Pool
}

func New(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	Phone        string
	Status       string
	Platform     string
	Notes        string
	Context      *string
	LastActivity time.Time
	CreatedAt    time.Time
}

// ListItem is a lead joined with its most recent message for list views.
type ListItem struct {
	Lead
	LastMessage   *string
	LastMessageAt *time.Time
}

type CreateParams struct {
	TenantID uuid.UUID
	Name     string
	Phone    string
	Platform string
	Notes    string
}

const leadColumns = `id, tenant_id, nombre, telefono, estado, plataforma, notas, contexto, last_activity, created_at`

const insertIfAbsentQuery = `
	INSERT INTO leads (id, tenant_id, nombre, telefono, estado, plataforma, notas, last_activity)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (tenant_id, telefono) DO NOTHING
`

const getByPhoneQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE tenant_id = $1 AND telefono = $2
`

const getByIDQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE id = $1 AND tenant_id = $2
`

// LookupOrCreate returns the lead for (tenant, phone), inserting it when
// absent. The insert is conditioned on the natural key so two racing calls
// produce exactly one row; the loser re-reads the winner's row. The second
// return value reports whether this call created the lead.
func (r *Repository) LookupOrCreate(ctx context.Context, params CreateParams) (Lead, bool, error) {
	lead, err := r.GetByPhone(ctx, params.TenantID, params.Phone)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Lead{}, false, err
	}

	name := params.Name
	if name == "" {
		name = params.Phone
	}

	tag, err := r.pool.Exec(ctx, insertIfAbsentQuery,
		uuid.New(), params.TenantID, name, params.Phone,
		domain.StatusInitialContact, params.Platform, params.Notes)
	if err != nil {
		return Lead{}, false, err
	}

	lead, err = r.GetByPhone(ctx, params.TenantID, params.Phone)
	if err != nil {
		return Lead{}, false, err
	}
	return lead, tag.RowsAffected() == 1, nil
}

// Create inserts a lead explicitly. When the phone already exists for the
// tenant, the existing row wins and only the notes are appended.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Lead, bool, error) {
	lead, created, err := r.LookupOrCreate(ctx, params)
	if err != nil {
		return Lead{}, false, err
	}

	if !created && params.Notes != "" {
		_, err = r.pool.Exec(ctx, `
			UPDATE leads
			SET notas = CASE WHEN notas = '' THEN $3 ELSE notas || E'\n' || $3 END
			WHERE id = $1 AND tenant_id = $2
		`, lead.ID, params.TenantID, params.Notes)
		if err != nil {
			return Lead{}, false, err
		}
		lead, err = r.GetByID(ctx, lead.ID, params.TenantID)
		if err != nil {
			return Lead{}, false, err
		}
	}
	return lead, created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Lead, error) {
	return r.scanLead(r.pool.QueryRow(ctx, getByIDQuery, id, tenantID))
}

func (r *Repository) GetByPhone(ctx context.Context, tenantID uuid.UUID, phone string) (Lead, error) {
	return r.scanLead(r.pool.QueryRow(ctx, getByPhoneQuery, tenantID, phone))
}

const changeStatusQuery = `
	UPDATE leads
	SET estado = $3, last_activity = now()
	FROM (
		SELECT estado FROM leads
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	) old
	WHERE leads.id = $1 AND leads.tenant_id = $2
	RETURNING old.estado
`

// ChangeStatus sets the lead's status and returns the previous value. The
// row is locked while the old status is read so the returned pair is exact
// under concurrent writers.
func (r *Repository) ChangeStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status string) (string, error) {
	var old string
	err := r.pool.QueryRow(ctx, changeStatusQuery, id, tenantID, status).Scan(&old)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return old, err
}

type UpdateParams struct {
	Name  string
	Phone string
	Notes string
}

const updateQuery = `
	UPDATE leads
	SET nombre = $3, telefono = $4, notas = $5
	WHERE id = $1 AND tenant_id = $2
`

func (r *Repository) Update(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, params UpdateParams) error {
	tag, err := r.pool.Exec(ctx, updateQuery, id, tenantID, params.Name, params.Phone, params.Notes)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const listQuery = `
	SELECT l.id, l.tenant_id, l.nombre, l.telefono, l.estado, l.plataforma,
	       l.notas, l.contexto, l.last_activity, l.created_at,
	       m.mensaje, m.created_at
	FROM leads l
	LEFT JOIN LATERAL (
		SELECT mensaje, created_at
		FROM mensajes
		WHERE tenant_id = l.tenant_id AND remitente = l.telefono
		ORDER BY created_at DESC
		LIMIT 1
	) m ON true
	WHERE l.tenant_id = $1
	ORDER BY l.last_activity DESC
`

// List returns all of a tenant's leads newest-activity first, each with a
// preview of its most recent message.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]ListItem, error) {
	rows, err := r.pool.Query(ctx, listQuery, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(
			&item.ID, &item.TenantID, &item.Name, &item.Phone, &item.Status,
			&item.Platform, &item.Notes, &item.Context, &item.LastActivity,
			&item.CreatedAt, &item.LastMessage, &item.LastMessageAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Delete removes a lead and its message history in one transaction and
// returns the deleted lead.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (Lead, error) {
	lead, err := r.GetByID(ctx, id, tenantID)
	if err != nil {
		return Lead{}, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM mensajes WHERE tenant_id = $1 AND remitente = $2
	`, tenantID, lead.Phone); err != nil {
		return Lead{}, err
	}
	if _, err := tx.Exec(ctx, `
		DELETE FROM leads WHERE id = $1 AND tenant_id = $2
	`, id, tenantID); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

const setContextQuery = `
	UPDATE leads
	SET contexto = $3,
	    estado = CASE WHEN estado = $4 THEN $5 ELSE estado END,
	    last_activity = now()
	WHERE tenant_id = $1 AND telefono = $2
	RETURNING estado
`

// SetContext replaces the conversational context wholesale. A lead sitting
// in the closed state is reopened to initial contact by the same statement.
// Returns the status after the update.
func (r *Repository) SetContext(ctx context.Context, tenantID uuid.UUID, phone string, context string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, setContextQuery,
		tenantID, phone, context, domain.StatusClosed, domain.StatusInitialContact,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

const getContextQuery = `
	SELECT contexto FROM leads
	WHERE tenant_id = $1 AND telefono = $2
`

func (r *Repository) GetContext(ctx context.Context, tenantID uuid.UUID, phone string) (*string, error) {
	var doc *string
	err := r.pool.QueryRow(ctx, getContextQuery, tenantID, phone).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return doc, err
}

const cleanupContextsQuery = `
	UPDATE leads
	SET contexto = NULL
	WHERE contexto IS NOT NULL AND last_activity < $1
`

// CleanupStaleContexts clears the context of every lead, across tenants,
// whose last activity predates the cutoff. Leads and messages are untouched.
func (r *Repository) CleanupStaleContexts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, cleanupContextsQuery, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const touchActivityQuery = `
	UPDATE leads SET last_activity = now()
	WHERE id = $1 AND tenant_id = $2
`

// TouchActivity bumps the lead's last-activity timestamp.
func (r *Repository) TouchActivity(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, touchActivityQuery, id, tenantID)
	return err
}

func (r *Repository) scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Phone, &lead.Status,
		&lead.Platform, &lead.Notes, &lead.Context, &lead.LastActivity,
		&lead.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}
