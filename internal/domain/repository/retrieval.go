package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/openshr/xds-repository/internal/domain/contenthandler"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// Retrieve runs the Retrieve Document Set transaction. Each requested
// document is resolved independently; failures on one item never abort the
// others. The response status reflects the aggregate outcome.
func (s *Service) Retrieve(ctx context.Context, req *ebxml.RetrieveRequest) *ebxml.RetrieveResponse {
	resp := &ebxml.RetrieveResponse{}
	var requested []string

	// Any delivered document is a disclosure, so a partial outcome still
	// audits as a successful export.
	defer func() {
		s.audit.LogRetrieve(ctx, strings.Join(requested, ","), len(resp.DocumentResponses) > 0)
	}()

	var itemErrs []*TransactionError
	for i := range req.DocumentRequests {
		dr := &req.DocumentRequests[i]
		requested = append(requested, dr.DocumentUniqueID)

		if dr.HomeCommunityID == "" {
			dr.HomeCommunityID = s.homeCommunityID
		}

		doc, terr := s.retrieveOne(ctx, dr)
		if terr != nil {
			itemErrs = append(itemErrs, terr)
			continue
		}
		resp.DocumentResponses = append(resp.DocumentResponses, *doc)
	}

	switch {
	case len(resp.DocumentResponses) == 0 && len(itemErrs) == 0:
		itemErrs = append(itemErrs, NewMissingDocumentError(""))
		resp.RegistryResponse.Status = ebxml.StatusFailure
	case len(resp.DocumentResponses) == 0:
		resp.RegistryResponse.Status = ebxml.StatusFailure
	case len(itemErrs) > 0:
		resp.RegistryResponse.Status = ebxml.StatusPartialSuccess
	default:
		resp.RegistryResponse.Status = ebxml.StatusSuccess
	}
	for _, terr := range itemErrs {
		resp.RegistryResponse.Errors = append(resp.RegistryResponse.Errors, terr.RegistryError())
	}
	return resp
}

func (s *Service) retrieveOne(ctx context.Context, dr *ebxml.DocumentRequest) (*ebxml.DocumentResponse, *TransactionError) {
	if dr.RepositoryUniqueID == "" || dr.DocumentUniqueID == "" {
		return nil, NewRepositoryError("missing required parameter: repositoryUniqueId and documentUniqueId must both be set")
	}
	if dr.RepositoryUniqueID != s.repositoryUniqueID {
		return nil, NewUnknownRepositoryIDError(dr.RepositoryUniqueID)
	}

	handler := s.handlers.DefaultUnstructuredHandler()
	if mapping, err := s.mappings.Get(ctx, dr.DocumentUniqueID); err == nil {
		if h := s.handlers.HandlerByID(mapping.HandlerID); h != nil {
			handler = h
		}
	} else if !errors.Is(err, ErrMappingNotFound) {
		s.log.Error().Err(err).Str("doc_unique_id", dr.DocumentUniqueID).Msg("handler mapping lookup failed")
		return nil, NewRepositoryError("could not resolve content handler")
	}

	content, err := handler.FetchContent(ctx, dr.DocumentUniqueID)
	if err != nil {
		if errors.Is(err, contenthandler.ErrContentNotFound) {
			return nil, NewMissingDocumentError(dr.DocumentUniqueID)
		}
		s.log.Error().Err(err).Str("doc_unique_id", dr.DocumentUniqueID).Msg("content fetch failed")
		return nil, NewRepositoryError("could not fetch document content")
	}

	doc := &ebxml.DocumentResponse{
		DocumentUniqueID:   dr.DocumentUniqueID,
		RepositoryUniqueID: s.repositoryUniqueID,
		MimeType:           content.MimeType,
		Document:           content.Payload,
	}
	if content.ContentID != "" && content.ContentID != dr.DocumentUniqueID {
		doc.NewDocumentUniqueID = content.ContentID
	}
	return doc, nil
}
