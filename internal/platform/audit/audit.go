// Package audit records the auditable events of the repository actor:
// document imports, exports, and retrievals. Every transaction produces
// exactly one audit event regardless of outcome.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Event types recorded by the repository.
const (
	EventImport   = "IMPORT"
	EventExport   = "EXPORT"
	EventRetrieve = "RETRIEVE"
)

// Event is one recorded audit entry.
type Event struct {
	ID        uuid.UUID `json:"id"`
	EventType string    `json:"event_type"`
	// SubjectID is the submission-set unique id for imports and exports,
	// or the joined document unique ids for retrievals.
	SubjectID string    `json:"subject_id"`
	PatientID string    `json:"patient_id,omitempty"`
	Success   bool      `json:"success"`
	Recorded  time.Time `json:"recorded"`
}

// Recorder persists audit events. Recording failures must not fail the
// transaction being audited; implementations log and continue.
type Recorder interface {
	LogImport(ctx context.Context, submissionSetID, patientID string, success bool)
	LogExport(ctx context.Context, submissionSetID, patientID string, success bool)
	LogRetrieve(ctx context.Context, documentIDs string, success bool)
}

// PGRecorder writes audit events to the audit_event table.
type PGRecorder struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewPGRecorder(pool *pgxpool.Pool, log zerolog.Logger) *PGRecorder {
	return &PGRecorder{pool: pool, log: log}
}

func (r *PGRecorder) LogImport(ctx context.Context, submissionSetID, patientID string, success bool) {
	r.record(ctx, EventImport, submissionSetID, patientID, success)
}

func (r *PGRecorder) LogExport(ctx context.Context, submissionSetID, patientID string, success bool) {
	r.record(ctx, EventExport, submissionSetID, patientID, success)
}

func (r *PGRecorder) LogRetrieve(ctx context.Context, documentIDs string, success bool) {
	r.record(ctx, EventRetrieve, documentIDs, "", success)
}

func (r *PGRecorder) record(ctx context.Context, eventType, subjectID, patientID string, success bool) {
	event := Event{
		ID:        uuid.New(),
		EventType: eventType,
		SubjectID: subjectID,
		PatientID: patientID,
		Success:   success,
		Recorded:  time.Now().UTC(),
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_event (id, event_type, subject_id, patient_id, success, recorded)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		event.ID, event.EventType, event.SubjectID, event.PatientID, event.Success, event.Recorded)
	if err != nil {
		r.log.Error().Err(err).
			Str("event_type", eventType).
			Str("subject_id", subjectID).
			Msg("could not record audit event")
	}
}

// NopRecorder discards all events. Used in tests.
type NopRecorder struct{}

func (NopRecorder) LogImport(context.Context, string, string, bool) {}
func (NopRecorder) LogExport(context.Context, string, string, bool) {}
func (NopRecorder) LogRetrieve(context.Context, string, bool)       {}
