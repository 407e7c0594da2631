package identity

import "fmt"

// ErrUnknownPatient is returned when the enterprise patient identifier of a
// submitted document matches no patient and auto-creation is disabled.
type ErrUnknownPatient struct {
	Identifier string
}

func (e *ErrUnknownPatient) Error() string {
	return fmt.Sprintf("no patient found for identifier %q", e.Identifier)
}

// ErrAmbiguousPatientIdentifier is returned when an enterprise patient
// identifier matches more than one patient record.
type ErrAmbiguousPatientIdentifier struct {
	Identifier string
	Matches    int
}

func (e *ErrAmbiguousPatientIdentifier) Error() string {
	return fmt.Sprintf("identifier %q matches %d patients", e.Identifier, e.Matches)
}

// ErrInvalidMetadata marks resolution failures caused by malformed document
// metadata rather than by the record store, so callers can report them under
// the metadata error code.
type ErrInvalidMetadata struct {
	Field string
	Err   error
}

func (e *ErrInvalidMetadata) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ErrInvalidMetadata) Unwrap() error { return e.Err }

// ErrUnknownProvider is returned when a document author matches no provider
// and auto-creation is disabled.
type ErrUnknownProvider struct {
	Key string
}

func (e *ErrUnknownProvider) Error() string {
	return fmt.Sprintf("no provider found for author %q", e.Key)
}
