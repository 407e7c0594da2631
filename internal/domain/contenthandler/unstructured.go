package contenthandler

import (
	"context"
	"time"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// StoredContent is one persisted unstructured document.
type StoredContent struct {
	ID              int64            `db:"id" json:"id"`
	DocUniqueID     string           `db:"doc_unique_id" json:"doc_unique_id"`
	ContentID       string           `db:"content_id" json:"content_id"`
	MimeType        string           `db:"mime_type" json:"mime_type"`
	TypeCode        ebxml.CodedValue `json:"type_code"`
	FormatCode      ebxml.CodedValue `json:"format_code"`
	Payload         []byte           `db:"payload" json:"payload"`
	PatientID       int64            `db:"patient_id" json:"patient_id"`
	EncounterTypeID int64            `db:"encounter_type_id" json:"encounter_type_id"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}

// ContentStore persists raw document content keyed by document unique id.
type ContentStore interface {
	Put(ctx context.Context, sc *StoredContent) error
	// Get returns ErrContentNotFound when the id is unknown.
	Get(ctx context.Context, docUniqueID string) (*StoredContent, error)
}

// UnstructuredHandler is the always-invoked default handler: it stores the
// raw payload and classification codes without interpreting the document.
type UnstructuredHandler struct {
	store ContentStore
}

func NewUnstructuredHandler(store ContentStore) *UnstructuredHandler {
	return &UnstructuredHandler{store: store}
}

func (h *UnstructuredHandler) ID() string { return UnstructuredHandlerID }

func (h *UnstructuredHandler) SaveContent(ctx context.Context, patient *clinical.Patient, providersByRole clinical.ProvidersByRole, encounterType *clinical.EncounterType, content *Content) error {
	sc := &StoredContent{
		DocUniqueID: content.ContentID,
		ContentID:   content.ContentID,
		MimeType:    content.MimeType,
		TypeCode:    content.TypeCode,
		FormatCode:  content.FormatCode,
		Payload:     content.Payload,
	}
	if patient != nil {
		sc.PatientID = patient.ID
	}
	if encounterType != nil {
		sc.EncounterTypeID = encounterType.ID
	}
	return h.store.Put(ctx, sc)
}

func (h *UnstructuredHandler) FetchContent(ctx context.Context, docUniqueID string) (*Content, error) {
	sc, err := h.store.Get(ctx, docUniqueID)
	if err != nil {
		return nil, err
	}
	return &Content{
		ContentID:  sc.ContentID,
		Payload:    sc.Payload,
		TypeCode:   sc.TypeCode,
		FormatCode: sc.FormatCode,
		MimeType:   sc.MimeType,
	}, nil
}
