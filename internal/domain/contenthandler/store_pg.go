package contenthandler

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contentStorePG struct{ pool *pgxpool.Pool }

// NewContentStorePG creates a pgx-backed content store.
func NewContentStorePG(pool *pgxpool.Pool) ContentStore {
	return &contentStorePG{pool: pool}
}

func (s *contentStorePG) Put(ctx context.Context, sc *StoredContent) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO document_content
			(doc_unique_id, content_id, mime_type,
			 type_code, type_coding_scheme, format_code, format_coding_scheme,
			 payload, patient_id, encounter_type_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at`,
		sc.DocUniqueID, sc.ContentID, sc.MimeType,
		sc.TypeCode.Code, sc.TypeCode.CodingScheme,
		sc.FormatCode.Code, sc.FormatCode.CodingScheme,
		sc.Payload, nullableID(sc.PatientID), nullableID(sc.EncounterTypeID),
	).Scan(&sc.ID, &sc.CreatedAt)
	if err != nil {
		return fmt.Errorf("store content for document %s: %w", sc.DocUniqueID, err)
	}
	return nil
}

func (s *contentStorePG) Get(ctx context.Context, docUniqueID string) (*StoredContent, error) {
	var sc StoredContent
	var patientID, encounterTypeID *int64
	err := s.pool.QueryRow(ctx, `
		SELECT id, doc_unique_id, content_id, mime_type,
		       type_code, type_coding_scheme, format_code, format_coding_scheme,
		       payload, patient_id, encounter_type_id, created_at
		FROM document_content WHERE doc_unique_id = $1`, docUniqueID).
		Scan(&sc.ID, &sc.DocUniqueID, &sc.ContentID, &sc.MimeType,
			&sc.TypeCode.Code, &sc.TypeCode.CodingScheme,
			&sc.FormatCode.Code, &sc.FormatCode.CodingScheme,
			&sc.Payload, &patientID, &encounterTypeID, &sc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch content for document %s: %w", docUniqueID, err)
	}
	if patientID != nil {
		sc.PatientID = *patientID
	}
	if encounterTypeID != nil {
		sc.EncounterTypeID = *encounterTypeID
	}
	return &sc, nil
}

// nullableID maps the zero id to NULL so unresolved references stay unset.
func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
