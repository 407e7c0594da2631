package repository

import (
	"context"
	"errors"
	"time"
)

// ErrMappingNotFound is returned by Get for unmapped document ids.
var ErrMappingNotFound = errors.New("document handler mapping not found")

// HandlerMapping records which content handler answers for a registered
// document. Mappings are append-only: created at registration, read at
// retrieval, never updated or deleted.
type HandlerMapping struct {
	ID          int64     `db:"id" json:"id"`
	DocUniqueID string    `db:"doc_unique_id" json:"doc_unique_id"`
	HandlerID   string    `db:"handler_id" json:"handler_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type MappingRepository interface {
	Get(ctx context.Context, docUniqueID string) (*HandlerMapping, error)
	Create(ctx context.Context, m *HandlerMapping) error
	Exists(ctx context.Context, docUniqueID string) (bool, error)
}
