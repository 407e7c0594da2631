package repository

import (
	"fmt"

	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

// TransactionError is a failure that maps directly onto one RegistryError
// entry in an XDS response: an error code, a human-readable context, and the
// id of the object it concerns.
type TransactionError struct {
	Code     string
	Context  string
	Location string
}

func (e *TransactionError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Context, e.Location)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Context)
}

// RegistryError renders the failure as a response error entry.
func (e *TransactionError) RegistryError() ebxml.RegistryError {
	return ebxml.RegistryError{
		ErrorCode:   e.Code,
		CodeContext: e.Context,
		Severity:    ebxml.SeverityError,
		Location:    e.Location,
	}
}

// NewMetadataError flags a missing or malformed metadata field on a document
// entry.
func NewMetadataError(objectID, context string) *TransactionError {
	return &TransactionError{Code: ebxml.ErrCodeRepositoryMetadata, Context: context, Location: objectID}
}

// NewDuplicateUniqueIDError rejects a document unique id that has already
// been registered here.
func NewDuplicateUniqueIDError(uniqueID string) *TransactionError {
	return &TransactionError{
		Code:     ebxml.ErrCodeDuplicateUniqueID,
		Context:  fmt.Sprintf("document with unique id %q has already been registered", uniqueID),
		Location: uniqueID,
	}
}

// NewMissingDocumentError reports a document unique id with no stored
// content.
func NewMissingDocumentError(docUniqueID string) *TransactionError {
	return &TransactionError{
		Code:     ebxml.ErrCodeMissingDocument,
		Context:  fmt.Sprintf("no document found for unique id %q", docUniqueID),
		Location: docUniqueID,
	}
}

// NewUnknownRepositoryIDError reports a retrieval addressed to a different
// repository.
func NewUnknownRepositoryIDError(repositoryID string) *TransactionError {
	return &TransactionError{
		Code:     ebxml.ErrCodeUnknownRepositoryID,
		Context:  fmt.Sprintf("repository unique id %q does not identify this repository", repositoryID),
		Location: repositoryID,
	}
}

// NewRegistryUnavailableError synthesizes the error entry reported when the
// registry cannot be reached at all.
func NewRegistryUnavailableError(err error) *TransactionError {
	return &TransactionError{
		Code:    ebxml.ErrCodeRegistryNotAvailable,
		Context: fmt.Sprintf("document registry not available: %v", err),
	}
}

// NewRepositoryError is the catch-all for internal repository failures.
func NewRepositoryError(context string) *TransactionError {
	return &TransactionError{Code: ebxml.ErrCodeRepositoryError, Context: context}
}

// failureResponse builds an XDS Failure response from one or more
// transaction errors.
func failureResponse(errs ...*TransactionError) *ebxml.RegistryResponse {
	resp := &ebxml.RegistryResponse{Status: ebxml.StatusFailure}
	for _, e := range errs {
		resp.Errors = append(resp.Errors, e.RegistryError())
	}
	return resp
}
