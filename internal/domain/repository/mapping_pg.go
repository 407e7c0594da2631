package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mappingRepoPG struct{ pool *pgxpool.Pool }

func NewMappingRepoPG(pool *pgxpool.Pool) MappingRepository {
	return &mappingRepoPG{pool: pool}
}

func (r *mappingRepoPG) Get(ctx context.Context, docUniqueID string) (*HandlerMapping, error) {
	var m HandlerMapping
	err := r.pool.QueryRow(ctx,
		`SELECT id, doc_unique_id, handler_id, created_at FROM doc_handler_mapping WHERE doc_unique_id = $1`,
		docUniqueID).Scan(&m.ID, &m.DocUniqueID, &m.HandlerID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get handler mapping for %q: %w", docUniqueID, err)
	}
	return &m, nil
}

func (r *mappingRepoPG) Create(ctx context.Context, m *HandlerMapping) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO doc_handler_mapping (doc_unique_id, handler_id) VALUES ($1,$2)
		 RETURNING id, created_at`,
		m.DocUniqueID, m.HandlerID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create handler mapping for %q: %w", m.DocUniqueID, err)
	}
	return nil
}

func (r *mappingRepoPG) Exists(ctx context.Context, docUniqueID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM doc_handler_mapping WHERE doc_unique_id = $1)`,
		docUniqueID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check handler mapping for %q: %w", docUniqueID, err)
	}
	return exists, nil
}
