// Package messages provides the message history bounded context: persistence
// and workflow status of inbound and outbound chat messages, plus the
// explicit send action.
package messages

import (
	"context"
	"errors"
	"time"

	"camicam_crm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("message not found")

// Message kinds. Direction is encoded in the kind, not a separate column.
const (
	KindOutboundText  = "enviado"
	KindInboundText   = "recibido"
	KindInboundImage  = "recibido_imagen"
	KindOutboundImage = "enviado_imagen"
	KindInboundVideo  = "recibido_video"
	KindOutboundVideo = "enviado_video"
)

// Workflow statuses, independent of the lead's pipeline status.
const (
	StatusNew        = "Nuevo"
	StatusInProgress = "En proceso"
	StatusDone       = "Finalizado"
)

var validKinds = map[string]struct{}{
	KindOutboundText:  {},
	KindInboundText:   {},
	KindInboundImage:  {},
	KindOutboundImage: {},
	KindInboundVideo:  {},
	KindOutboundVideo: {},
}

var validStatuses = map[string]struct{}{
	StatusNew:        {},
	StatusInProgress: {},
	StatusDone:       {},
}

// NormalizeKind maps unknown kind tags to plain inbound text.
func NormalizeKind(kind string) string {
	if _, ok := validKinds[kind]; ok {
		return kind
	}
	return KindInboundText
}

// IsValidStatus reports whether s is a workflow status.
func IsValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

type Message struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Platform  string
	Sender    string
	Body      string
	Kind      string
	Status    string
	CreatedAt time.Time
}

// ThreadMessage is a message joined with the sender lead's display name.
type ThreadMessage struct {
	Message
	LeadName *string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateMessageParams struct {
	TenantID uuid.UUID
	Platform string
	Sender   string
	Body     string
	Kind     string
}

const insertMessageQuery = `
	INSERT INTO mensajes (id, tenant_id, plataforma, remitente, mensaje, tipo, estado)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, tenant_id, plataforma, remitente, mensaje, tipo, estado, created_at
`

func (r *Repository) Create(ctx context.Context, params CreateMessageParams) (Message, error) {
	var msg Message
	err := r.pool.QueryRow(ctx, insertMessageQuery,
		uuid.New(), params.TenantID, params.Platform, params.Sender,
		params.Body, NormalizeKind(params.Kind), StatusNew,
	).Scan(&msg.ID, &msg.TenantID, &msg.Platform, &msg.Sender,
		&msg.Body, &msg.Kind, &msg.Status, &msg.CreatedAt)
	return msg, err
}

const listMessagesQuery = `
	SELECT id, tenant_id, plataforma, remitente, mensaje, tipo, estado, created_at
	FROM mensajes
	WHERE tenant_id = $1
	ORDER BY created_at DESC
	LIMIT $2
`

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, listMessagesQuery, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

const threadQuery = `
	SELECT m.id, m.tenant_id, m.plataforma, m.remitente, m.mensaje, m.tipo,
	       m.estado, m.created_at, l.nombre
	FROM mensajes m
	LEFT JOIN leads l ON l.tenant_id = m.tenant_id AND l.telefono = m.remitente
	WHERE m.tenant_id = $1 AND m.remitente = $2
	ORDER BY m.created_at ASC
`

// Thread returns the full conversation with one phone number, oldest first.
func (r *Repository) Thread(ctx context.Context, tenantID uuid.UUID, phone string) ([]ThreadMessage, error) {
	rows, err := r.pool.Query(ctx, threadQuery, tenantID, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ThreadMessage, 0)
	for rows.Next() {
		var item ThreadMessage
		if err := rows.Scan(&item.ID, &item.TenantID, &item.Platform, &item.Sender,
			&item.Body, &item.Kind, &item.Status, &item.CreatedAt, &item.LeadName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const updateStatusQuery = `
	UPDATE mensajes
	SET estado = $3
	WHERE id = $1 AND tenant_id = $2
`

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, updateStatusQuery, id, tenantID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	items := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.TenantID, &msg.Platform, &msg.Sender,
			&msg.Body, &msg.Kind, &msg.Status, &msg.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, msg)
	}
	return items, rows.Err()
}
