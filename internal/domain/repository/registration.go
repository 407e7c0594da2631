// Package repository implements the XDS.b document-repository actor: the
// Provide and Register Document Set-b pipeline and the Retrieve Document Set
// coordinator, over a clinical record store, a content-handler registry, and
// a remote document registry.
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/domain/contenthandler"
	"github.com/openshr/xds-repository/internal/domain/identity"
	"github.com/openshr/xds-repository/internal/domain/queue"
	"github.com/openshr/xds-repository/internal/domain/registry"
	"github.com/openshr/xds-repository/internal/platform/audit"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// IdentityResolver resolves the clinical identities a document entry refers
// to. Implemented by the identity package.
type IdentityResolver interface {
	FindOrCreatePatient(ctx context.Context, eo *ebxml.ExtrinsicObject) (*clinical.Patient, error)
	FindOrCreateProvidersByRole(ctx context.Context, eo *ebxml.ExtrinsicObject) (clinical.ProvidersByRole, error)
	FindOrCreateEncounterType(ctx context.Context, eo *ebxml.ExtrinsicObject) (*clinical.EncounterType, error)
}

// Service orchestrates both repository transactions.
type Service struct {
	repositoryUniqueID string
	homeCommunityID    string
	asyncDiscrete      bool

	mappings MappingRepository
	handlers *contenthandler.Registry
	resolver IdentityResolver
	registry registry.Client
	queue    queue.Store
	audit    audit.Recorder
	log      zerolog.Logger
}

type ServiceParams struct {
	RepositoryUniqueID string
	HomeCommunityID    string
	AsyncDiscrete      bool
	Mappings           MappingRepository
	Handlers           *contenthandler.Registry
	Resolver           IdentityResolver
	Registry           registry.Client
	Queue              queue.Store
	Audit              audit.Recorder
	Log                zerolog.Logger
}

func NewService(p ServiceParams) *Service {
	return &Service{
		repositoryUniqueID: p.RepositoryUniqueID,
		homeCommunityID:    p.HomeCommunityID,
		asyncDiscrete:      p.AsyncDiscrete,
		mappings:           p.Mappings,
		handlers:           p.Handlers,
		resolver:           p.Resolver,
		registry:           p.Registry,
		queue:              p.Queue,
		audit:              p.Audit,
		log:                p.Log,
	}
}

// ProvideAndRegister runs the Provide and Register Document Set-b
// transaction. Validation and duplicate failures reject the whole submission
// with no state change anywhere; the registry round-trip precedes every
// local write; failures after registry acceptance are reported but cannot be
// rolled back against the registry.
func (s *Service) ProvideAndRegister(ctx context.Context, req *ebxml.ProvideAndRegisterRequest) *ebxml.RegistryResponse {
	success := false
	var submissionSetID, patientID string
	defer func() {
		s.audit.LogImport(ctx, submissionSetID, patientID, success)
	}()

	if req == nil || req.SubmitObjectsRequest == nil || len(req.SubmitObjectsRequest.ExtrinsicObjects) == 0 {
		return failureResponse(NewMetadataError("", "submission contains no document entries"))
	}
	submissionSetID = req.SubmitObjectsRequest.SubmissionSetUniqueID()
	patientID = req.SubmitObjectsRequest.SubmissionSetPatientID()

	if errs := ValidateDocumentsMatchMetadata(req); len(errs) > 0 {
		return failureResponse(errs...)
	}

	docs := req.DocumentsByID()
	contents := make(map[string]*contenthandler.Content, len(docs))
	var txErrs []*TransactionError
	for _, eo := range req.SubmitObjectsRequest.ExtrinsicObjects {
		payload := docs[eo.ID]

		if terr := ValidateMetadata(eo); terr != nil {
			txErrs = append(txErrs, terr)
			continue
		}
		if terr := ValidateContent(eo, payload); terr != nil {
			txErrs = append(txErrs, terr)
			continue
		}

		uniqueID := eo.UniqueID()
		exists, err := s.mappings.Exists(ctx, uniqueID)
		if err != nil {
			s.log.Error().Err(err).Str("doc_unique_id", uniqueID).Msg("duplicate check failed")
			txErrs = append(txErrs, NewRepositoryError("could not check for duplicate document id"))
			continue
		}
		if exists {
			txErrs = append(txErrs, NewDuplicateUniqueIDError(uniqueID))
			continue
		}

		contents[eo.ID] = &contenthandler.Content{
			ContentID:  uniqueID,
			Payload:    payload,
			TypeCode:   ebxml.CodedValueFromClassification(eo.Classification(ebxml.UUIDDocumentEntryTypeCode)),
			FormatCode: ebxml.CodedValueFromClassification(eo.Classification(ebxml.UUIDDocumentEntryFormatCode)),
			MimeType:   eo.MimeType,
		}

		// back-fill the slots the registry and later retrievals rely on
		if !ebxml.HasSlot(eo.Slots, ebxml.SlotHash) {
			eo.AddSlot(ebxml.SlotHash, PayloadHash(payload))
		}
		if !ebxml.HasSlot(eo.Slots, ebxml.SlotSize) {
			eo.AddSlot(ebxml.SlotSize, strconv.Itoa(len(payload)))
		}
	}
	if len(txErrs) > 0 {
		return failureResponse(txErrs...)
	}

	regResp, err := s.registry.Submit(ctx, req.SubmitObjectsRequest)
	if err != nil {
		s.log.Error().Err(err).Str("submission_set", submissionSetID).Msg("registry submission failed")
		return failureResponse(NewRegistryUnavailableError(err))
	}
	if !regResp.Success() {
		s.log.Warn().Str("submission_set", submissionSetID).
			Int("errors", len(regResp.Errors)).Msg("registry rejected submission")
		return regResp
	}

	var storageErrs []*TransactionError
	for _, eo := range req.SubmitObjectsRequest.ExtrinsicObjects {
		if err := s.store(ctx, eo, contents[eo.ID]); err != nil {
			// the registry already accepted this submission set; there is no
			// compensating action, only a distinct log trail
			s.log.Error().Err(err).
				Str("doc_unique_id", eo.UniqueID()).
				Str("submission_set", submissionSetID).
				Msg("document registered with registry but local storage failed")
			var invalid *identity.ErrInvalidMetadata
			if errors.As(err, &invalid) {
				storageErrs = append(storageErrs, NewMetadataError(eo.ID, err.Error()))
			} else {
				storageErrs = append(storageErrs, NewRepositoryError(err.Error()))
			}
		}
	}
	if len(storageErrs) > 0 {
		return failureResponse(storageErrs...)
	}

	success = true
	return &ebxml.RegistryResponse{Status: ebxml.StatusSuccess}
}

// store persists one accepted document: the handler mapping, the resolved
// clinical identities, the raw content, and the discrete dispatch.
func (s *Service) store(ctx context.Context, eo *ebxml.ExtrinsicObject, content *contenthandler.Content) error {
	mapping := &HandlerMapping{
		DocUniqueID: content.ContentID,
		HandlerID:   contenthandler.UnstructuredHandlerID,
	}
	if err := s.mappings.Create(ctx, mapping); err != nil {
		return err
	}

	patient, err := s.resolver.FindOrCreatePatient(ctx, eo)
	if err != nil {
		return err
	}
	byRole, err := s.resolver.FindOrCreateProvidersByRole(ctx, eo)
	if err != nil {
		return err
	}
	encounterType, err := s.resolver.FindOrCreateEncounterType(ctx, eo)
	if err != nil {
		return err
	}

	if err := s.handlers.DefaultUnstructuredHandler().SaveContent(ctx, patient, byRole, encounterType, content); err != nil {
		return err
	}

	discrete := s.handlers.HandlerFor(content.TypeCode, content.FormatCode)
	if discrete == nil {
		return nil
	}
	if !s.asyncDiscrete {
		return discrete.SaveContent(ctx, patient, byRole, encounterType, content)
	}

	item := &queue.Item{
		PatientID:       patient.ID,
		EncounterTypeID: encounterType.ID,
		DocUniqueID:     content.ContentID,
		RoleProviderMap: queue.MarshalRoleProviderMap(byRole),
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return err
	}
	s.log.Info().Int64("item_id", item.ID).Str("doc_unique_id", item.DocUniqueID).
		Msg("queued document for discrete processing")
	return nil
}
