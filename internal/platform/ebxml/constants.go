package ebxml

// Classification scheme and identification scheme UUIDs from the ebXML RIM /
// IHE XDS.b metadata vocabulary.
const (
	UUIDSubmissionSet          = "urn:uuid:a54d6aa5-d40d-43f9-88c5-b4633d873bdd"
	UUIDSubmissionSetUniqueID  = "urn:uuid:96fdda7c-d067-4183-912e-bf5ee74998a8"
	UUIDSubmissionSetPatientID = "urn:uuid:6b5aea1a-874d-4603-a4bc-96a0a7b38446"

	UUIDDocumentEntryUniqueID   = "urn:uuid:2e82c1f6-a085-4c72-9da3-8640a32e42ab"
	UUIDDocumentEntryPatientID  = "urn:uuid:58a6f841-87b3-4a3e-92fd-a8ffeff98427"
	UUIDDocumentEntryClassCode  = "urn:uuid:41a5887f-8865-4c09-adf7-e362475b143a"
	UUIDDocumentEntryTypeCode   = "urn:uuid:f0306f51-975f-434e-a61c-c59651d33983"
	UUIDDocumentEntryFormatCode = "urn:uuid:a09d5840-386c-46f2-b5ad-9c3699a4309d"
	UUIDDocumentEntryAuthor     = "urn:uuid:93606bcf-9494-43ec-9b4e-a7748d1a838d"
)

// Registry response status URNs.
const (
	StatusSuccess        = "urn:oasis:names:tc:ebxml-regrep:ResponseStatusType:Success"
	StatusFailure        = "urn:oasis:names:tc:ebxml-regrep:ResponseStatusType:Failure"
	StatusPartialSuccess = "urn:ihe:iti:2007:ResponseStatusType:PartialSuccess"
)

// Registry error severity URNs.
const (
	SeverityError   = "urn:oasis:names:tc:ebxml-regrep:ErrorSeverityType:Error"
	SeverityWarning = "urn:oasis:names:tc:ebxml-regrep:ErrorSeverityType:Warning"
)

// XDS error codes carried in RegistryError entries.
const (
	ErrCodeRepositoryError      = "XDSRepositoryError"
	ErrCodeRegistryNotAvailable = "XDSRegistryNotAvailable"
	ErrCodeMissingDocument      = "XDSMissingDocument"
	ErrCodeUnknownRepositoryID  = "XDSUnknownRepositoryId"
	ErrCodeRegistryMetadataErr  = "XDSRegistryMetadataError"
	ErrCodeRepositoryMetadata   = "XDSRepositoryMetadataError"
	ErrCodeDuplicateUniqueID    = "XDSDuplicateUniqueIdInRegistry"
)

// Well-known slot names on document entries and author classifications.
const (
	SlotHash               = "hash"
	SlotSize               = "size"
	SlotCodingScheme       = "codingScheme"
	SlotAuthorPerson       = "authorPerson"
	SlotAuthorRole         = "authorRole"
	SlotAuthorInstitution  = "authorInstitution"
	SlotAuthorSpecialty    = "authorSpecialty"
	SlotSourcePatientID    = "sourcePatientId"
	SlotSourcePatientInfo  = "sourcePatientInfo"
	SlotRepositoryUniqueID = "repositoryUniqueId"
)
