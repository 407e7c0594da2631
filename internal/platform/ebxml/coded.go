package ebxml

// CodedValue identifies a document's type or format classification:
// a code within a coding scheme, with an optional display name.
type CodedValue struct {
	Code         string `json:"code"`
	CodingScheme string `json:"coding_scheme"`
	DisplayName  string `json:"display_name,omitempty"`
}

// Defined reports whether the coded value carries a code.
func (c CodedValue) Defined() bool { return c.Code != "" }

// Equal compares code and coding scheme; display names are informational.
func (c CodedValue) Equal(o CodedValue) bool {
	return c.Code == o.Code && c.CodingScheme == o.CodingScheme
}
