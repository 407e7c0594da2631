// Package ebxml models the subset of the ebXML RIM registry infoset used by
// the IHE XDS.b Provide and Register Document Set-b and Retrieve Document Set
// transactions: registry objects, slots, classifications, external
// identifiers, and the request/response envelopes the repository actor
// exchanges with its callers and with the document registry.
package ebxml

// Slot is a named, multi-valued metadata attribute on a registry object.
type Slot struct {
	Name   string   `xml:"name,attr" json:"name"`
	Values []string `xml:"ValueList>Value" json:"values"`
}

// LocalizedString carries the display text of a registry-object name.
// ebRIM nests it as <Name><LocalizedString value="..."/></Name>.
type LocalizedString struct {
	Value string `xml:"value,attr" json:"value"`
}

// Classification attaches a coded value to a registry object under a
// classification scheme. NodeRepresentation carries the code; the coding
// scheme rides in a codingScheme slot.
type Classification struct {
	ID                   string           `xml:"id,attr" json:"id,omitempty"`
	ClassificationScheme string           `xml:"classificationScheme,attr" json:"classification_scheme"`
	ClassifiedObject     string           `xml:"classifiedObject,attr" json:"classified_object,omitempty"`
	NodeRepresentation   string           `xml:"nodeRepresentation,attr" json:"node_representation"`
	Name                 *LocalizedString `xml:"Name>LocalizedString" json:"name,omitempty"`
	Slots                []Slot           `xml:"Slot" json:"slots,omitempty"`
}

// DisplayName returns the classification's localized display text, or ""
// when it carries none.
func (c *Classification) DisplayName() string {
	if c == nil || c.Name == nil {
		return ""
	}
	return c.Name.Value
}

// ExternalIdentifier carries an identifier assigned to a registry object
// under an identification scheme (e.g. XDSDocumentEntry.uniqueId).
type ExternalIdentifier struct {
	IdentificationScheme string `xml:"identificationScheme,attr" json:"identification_scheme"`
	RegistryObject       string `xml:"registryObject,attr" json:"registry_object,omitempty"`
	Value                string `xml:"value,attr" json:"value"`
}

// ExtrinsicObject is the registry-object record describing one document:
// its mime type, slots, classifications, and external identifiers.
type ExtrinsicObject struct {
	ID                  string               `xml:"id,attr" json:"id"`
	MimeType            string               `xml:"mimeType,attr" json:"mime_type"`
	ObjectType          string               `xml:"objectType,attr" json:"object_type,omitempty"`
	Slots               []Slot               `xml:"Slot" json:"slots,omitempty"`
	Classifications     []Classification     `xml:"Classification" json:"classifications,omitempty"`
	ExternalIdentifiers []ExternalIdentifier `xml:"ExternalIdentifier" json:"external_identifiers,omitempty"`
}

// RegistryPackage groups registry objects into a submission set.
type RegistryPackage struct {
	ID                  string               `xml:"id,attr" json:"id"`
	Slots               []Slot               `xml:"Slot" json:"slots,omitempty"`
	Classifications     []Classification     `xml:"Classification" json:"classifications,omitempty"`
	ExternalIdentifiers []ExternalIdentifier `xml:"ExternalIdentifier" json:"external_identifiers,omitempty"`
}

// SubmitObjectsRequest is the metadata half of a submission: the extrinsic
// objects describing each document plus the submission-set registry package.
type SubmitObjectsRequest struct {
	ExtrinsicObjects  []*ExtrinsicObject `xml:"RegistryObjectList>ExtrinsicObject" json:"extrinsic_objects"`
	RegistryPackages  []*RegistryPackage `xml:"RegistryObjectList>RegistryPackage" json:"registry_packages"`
	PackageClassNodes []Classification   `xml:"RegistryObjectList>Classification" json:"package_class_nodes,omitempty"`
}

// AttachedDocument is one document payload attached to a submission, keyed by
// the internal id of the extrinsic object that describes it.
type AttachedDocument struct {
	ID      string `json:"id"`
	Payload []byte `json:"payload"`
}

// ProvideAndRegisterRequest is the full Provide and Register Document Set-b
// request: metadata plus attached document payloads.
type ProvideAndRegisterRequest struct {
	SubmitObjectsRequest *SubmitObjectsRequest `json:"submit_objects_request"`
	Documents            []AttachedDocument    `json:"documents"`
}

// DocumentsByID indexes the attached payloads by their metadata-internal id.
func (r *ProvideAndRegisterRequest) DocumentsByID() map[string][]byte {
	m := make(map[string][]byte, len(r.Documents))
	for _, d := range r.Documents {
		m[d.ID] = d.Payload
	}
	return m
}

// RegistryError is one error entry in a registry response.
type RegistryError struct {
	ErrorCode   string `xml:"errorCode,attr" json:"error_code"`
	CodeContext string `xml:"codeContext,attr" json:"code_context"`
	Severity    string `xml:"severity,attr" json:"severity"`
	Location    string `xml:"location,attr,omitempty" json:"location,omitempty"`
}

// RegistryResponse is the registry-style outcome envelope shared by the
// registration transaction and the registry client.
type RegistryResponse struct {
	Status string          `xml:"status,attr" json:"status"`
	Errors []RegistryError `xml:"RegistryErrorList>RegistryError" json:"errors,omitempty"`
}

// Success reports whether the response carries the success status.
func (r *RegistryResponse) Success() bool {
	return r != nil && r.Status == StatusSuccess
}

// DocumentRequest identifies one document to retrieve.
type DocumentRequest struct {
	HomeCommunityID    string `json:"home_community_id,omitempty"`
	RepositoryUniqueID string `json:"repository_unique_id"`
	DocumentUniqueID   string `json:"document_unique_id"`
}

// RetrieveRequest is the Retrieve Document Set request.
type RetrieveRequest struct {
	DocumentRequests []DocumentRequest `json:"document_requests"`
}

// DocumentResponse is one successfully retrieved document.
type DocumentResponse struct {
	DocumentUniqueID    string `json:"document_unique_id"`
	NewDocumentUniqueID string `json:"new_document_unique_id,omitempty"`
	RepositoryUniqueID  string `json:"repository_unique_id"`
	MimeType            string `json:"mime_type"`
	Document            []byte `json:"document"`
}

// RetrieveResponse aggregates retrieved documents and per-item errors.
type RetrieveResponse struct {
	RegistryResponse  RegistryResponse   `json:"registry_response"`
	DocumentResponses []DocumentResponse `json:"document_responses,omitempty"`
}
