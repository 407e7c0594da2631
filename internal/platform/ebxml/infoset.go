package ebxml

// Helpers for walking the registry infoset: slot lookup and insertion,
// external-identifier lookup, and classification extraction.

// SlotValue returns the first value of the named slot, or def when the slot
// is absent or empty.
func SlotValue(slots []Slot, name, def string) string {
	for _, s := range slots {
		if s.Name == name {
			if len(s.Values) == 0 {
				return def
			}
			return s.Values[0]
		}
	}
	return def
}

// SlotValues returns all values of the named slot, or nil when absent.
func SlotValues(slots []Slot, name string) []string {
	for _, s := range slots {
		if s.Name == name {
			return s.Values
		}
	}
	return nil
}

// HasSlot reports whether the named slot is present.
func HasSlot(slots []Slot, name string) bool {
	for _, s := range slots {
		if s.Name == name {
			return true
		}
	}
	return false
}

// AddSlot appends a slot to the extrinsic object.
func (eo *ExtrinsicObject) AddSlot(name string, values ...string) {
	eo.Slots = append(eo.Slots, Slot{Name: name, Values: values})
}

// ExternalIdentifierValue returns the value of the external identifier with
// the given identification scheme, or "" when absent.
func ExternalIdentifierValue(ids []ExternalIdentifier, scheme string) string {
	for _, ei := range ids {
		if ei.IdentificationScheme == scheme {
			return ei.Value
		}
	}
	return ""
}

// UniqueID returns the XDSDocumentEntry.uniqueId of the document entry.
func (eo *ExtrinsicObject) UniqueID() string {
	return ExternalIdentifierValue(eo.ExternalIdentifiers, UUIDDocumentEntryUniqueID)
}

// PatientID returns the XDSDocumentEntry.patientId of the document entry.
func (eo *ExtrinsicObject) PatientID() string {
	return ExternalIdentifierValue(eo.ExternalIdentifiers, UUIDDocumentEntryPatientID)
}

// Classification returns the first classification of the entry under the
// given scheme, or nil.
func (eo *ExtrinsicObject) Classification(scheme string) *Classification {
	for i := range eo.Classifications {
		if eo.Classifications[i].ClassificationScheme == scheme {
			return &eo.Classifications[i]
		}
	}
	return nil
}

// ClassificationSlotMaps returns, for each classification of the entry under
// the given scheme, a map of its slots keyed by slot name. Author
// classifications may repeat, one per author.
func (eo *ExtrinsicObject) ClassificationSlotMaps(scheme string) []map[string]Slot {
	var maps []map[string]Slot
	for _, c := range eo.Classifications {
		if c.ClassificationScheme != scheme {
			continue
		}
		m := make(map[string]Slot, len(c.Slots))
		for _, s := range c.Slots {
			m[s.Name] = s
		}
		maps = append(maps, m)
	}
	return maps
}

// CodedValueFromClassification builds a coded value from a classification:
// the node representation is the code, the codingScheme slot the scheme.
func CodedValueFromClassification(c *Classification) CodedValue {
	if c == nil {
		return CodedValue{}
	}
	return CodedValue{
		Code:         c.NodeRepresentation,
		CodingScheme: SlotValue(c.Slots, SlotCodingScheme, ""),
		DisplayName:  c.DisplayName(),
	}
}

// SubmissionSet returns the registry package representing the submission set,
// or nil when the request carries none.
func (s *SubmitObjectsRequest) SubmissionSet() *RegistryPackage {
	for _, rp := range s.RegistryPackages {
		if ExternalIdentifierValue(rp.ExternalIdentifiers, UUIDSubmissionSetUniqueID) != "" {
			return rp
		}
	}
	if len(s.RegistryPackages) > 0 {
		return s.RegistryPackages[0]
	}
	return nil
}

// SubmissionSetUniqueID returns the submission set's unique id, or "".
func (s *SubmitObjectsRequest) SubmissionSetUniqueID() string {
	if rp := s.SubmissionSet(); rp != nil {
		return ExternalIdentifierValue(rp.ExternalIdentifiers, UUIDSubmissionSetUniqueID)
	}
	return ""
}

// SubmissionSetPatientID returns the submission set's patient id, or "".
func (s *SubmitObjectsRequest) SubmissionSetPatientID() string {
	if rp := s.SubmissionSet(); rp != nil {
		return ExternalIdentifierValue(rp.ExternalIdentifiers, UUIDSubmissionSetPatientID)
	}
	return ""
}
