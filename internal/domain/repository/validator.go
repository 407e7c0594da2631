package repository

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/openshr/xds-repository/internal/platform/ebxml"
	"github.com/openshr/xds-repository/internal/platform/hl7v2"
)

// ValidateMetadata checks that a document entry carries the fields the
// repository cannot register without: a unique id, a classCode
// classification, a parseable patientId, and a parseable sourcePatientId.
func ValidateMetadata(eo *ebxml.ExtrinsicObject) *TransactionError {
	if eo.UniqueID() == "" {
		return NewMetadataError(eo.ID, "document entry has no uniqueId external identifier")
	}
	if c := eo.Classification(ebxml.UUIDDocumentEntryClassCode); c == nil || c.NodeRepresentation == "" {
		return NewMetadataError(eo.ID, "document entry has no classCode classification")
	}

	patientID := eo.PatientID()
	if patientID == "" {
		return NewMetadataError(eo.ID, "document entry has no patientId external identifier")
	}
	if _, err := hl7v2.ParseCX(patientID); err != nil {
		return NewMetadataError(eo.ID, fmt.Sprintf("invalid patientId: %v", err))
	}

	sourcePatientID := ebxml.SlotValue(eo.Slots, ebxml.SlotSourcePatientID, "")
	if sourcePatientID == "" {
		return NewMetadataError(eo.ID, "document entry has no sourcePatientId slot")
	}
	if _, err := hl7v2.ParseCX(sourcePatientID); err != nil {
		return NewMetadataError(eo.ID, fmt.Sprintf("invalid sourcePatientId: %v", err))
	}
	return nil
}

// ValidateContent verifies the attached payload against the entry's hash and
// size slots. A missing slot is not an error; the registration coordinator
// back-fills both before the metadata leaves for the registry.
func ValidateContent(eo *ebxml.ExtrinsicObject, payload []byte) *TransactionError {
	if want := ebxml.SlotValue(eo.Slots, ebxml.SlotHash, ""); want != "" {
		got := PayloadHash(payload)
		if !strings.EqualFold(got, want) {
			return NewMetadataError(eo.ID, fmt.Sprintf("hash slot %q does not match document hash %q", want, got))
		}
	}
	if want := ebxml.SlotValue(eo.Slots, ebxml.SlotSize, ""); want != "" {
		if want != strconv.Itoa(len(payload)) {
			return NewMetadataError(eo.ID, fmt.Sprintf("size slot %q does not match document size %d", want, len(payload)))
		}
	}
	return nil
}

// PayloadHash is the SHA-1 digest of a document payload, uppercase hex, as
// carried in the hash slot.
func PayloadHash(payload []byte) string {
	sum := sha1.Sum(payload)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ValidateDocumentsMatchMetadata checks that metadata entries and attached
// payloads pair up exactly, by their submission-internal ids. Violations on
// each side are reported as separate errors listing the offending ids sorted
// and comma-joined.
func ValidateDocumentsMatchMetadata(req *ebxml.ProvideAndRegisterRequest) []*TransactionError {
	docs := req.DocumentsByID()

	var missingDocs []string
	seen := map[string]bool{}
	for _, eo := range req.SubmitObjectsRequest.ExtrinsicObjects {
		seen[eo.ID] = true
		if _, ok := docs[eo.ID]; !ok {
			missingDocs = append(missingDocs, eo.ID)
		}
	}
	var missingMeta []string
	for id := range docs {
		if !seen[id] {
			missingMeta = append(missingMeta, id)
		}
	}

	var errs []*TransactionError
	if len(missingDocs) > 0 {
		sort.Strings(missingDocs)
		errs = append(errs, NewMetadataError("", fmt.Sprintf(
			"documents referenced by metadata but missing: %s", strings.Join(missingDocs, ","))))
	}
	if len(missingMeta) > 0 {
		sort.Strings(missingMeta)
		errs = append(errs, NewMetadataError("", fmt.Sprintf(
			"documents found but metadata missing: %s", strings.Join(missingMeta, ","))))
	}
	return errs
}
