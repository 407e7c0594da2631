package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id, patient_id, encounter_type_id, doc_unique_id, role_provider_map, status, date_added, date_updated`

// storePG is the postgres-backed queue. The mutex serializes dequeues so the
// select-oldest and mark-PROCESSING steps form one critical section across
// the in-process pollers.
type storePG struct {
	pool *pgxpool.Pool

	mu sync.Mutex
}

func NewStorePG(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) Enqueue(ctx context.Context, item *Item) error {
	item.Status = StatusQueued
	err := s.pool.QueryRow(ctx,
		`INSERT INTO discrete_queue_item (patient_id, encounter_type_id, doc_unique_id, role_provider_map, status)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id, date_added, date_updated`,
		item.PatientID, item.EncounterTypeID, item.DocUniqueID, item.RoleProviderMap, item.Status).
		Scan(&item.ID, &item.DateAdded, &item.DateUpdated)
	if err != nil {
		return fmt.Errorf("enqueue item for document %q: %w", item.DocUniqueID, err)
	}
	return nil
}

func (s *storePG) DequeueNext(ctx context.Context) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin dequeue: %w", err)
	}
	defer tx.Rollback(ctx)

	var item Item
	err = tx.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM discrete_queue_item
		 WHERE status = $1 ORDER BY date_added ASC LIMIT 1 FOR UPDATE`,
		StatusQueued).
		Scan(&item.ID, &item.PatientID, &item.EncounterTypeID, &item.DocUniqueID,
			&item.RoleProviderMap, &item.Status, &item.DateAdded, &item.DateUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select next queued item: %w", err)
	}

	item.Status = StatusProcessing
	err = tx.QueryRow(ctx,
		`UPDATE discrete_queue_item SET status = $1, date_updated = now() WHERE id = $2
		 RETURNING date_updated`,
		item.Status, item.ID).Scan(&item.DateUpdated)
	if err != nil {
		return nil, fmt.Errorf("mark item %d processing: %w", item.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit dequeue: %w", err)
	}
	return &item, nil
}

func (s *storePG) Complete(ctx context.Context, item *Item, success bool) error {
	status := StatusFailed
	if success {
		status = StatusSuccessful
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE discrete_queue_item SET status = $1, date_updated = now() WHERE id = $2
		 RETURNING date_updated`,
		status, item.ID).Scan(&item.DateUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("complete item %d: %w", item.ID, err)
	}
	item.Status = status
	return nil
}

func (s *storePG) RequeueStale(ctx context.Context, olderThan time.Duration) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE discrete_queue_item SET status = $1, date_updated = now()
		 WHERE status = $2 AND date_updated < now() - make_interval(secs => $3)`,
		StatusQueued, StatusProcessing, olderThan.Seconds())
	if err != nil {
		return 0, fmt.Errorf("requeue stale items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *storePG) GetByID(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM discrete_queue_item WHERE id = $1`, id).
		Scan(&item.ID, &item.PatientID, &item.EncounterTypeID, &item.DocUniqueID,
			&item.RoleProviderMap, &item.Status, &item.DateAdded, &item.DateUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue item %d: %w", id, err)
	}
	return &item, nil
}
