// Package hl7v2 parses the HL7 v2 composite datatypes carried inside XDS.b
// document metadata: CX patient identifiers, XCN person identifiers, and the
// PID-n|value pairs of the sourcePatientInfo slot.
package hl7v2

import (
	"fmt"
	"strings"
)

// Identifier is a parsed CX composite: an identifier value qualified by the
// id of its assigning authority.
type Identifier struct {
	Value              string `json:"value"`
	AssigningAuthority string `json:"assigning_authority"`
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s^^^&%s&ISO", id.Value, id.AssigningAuthority)
}

// ParseCX parses an HL7 CX composite of the form
// "id^^^&assigningAuthority&ISO". Both the id and the assigning authority
// must be present. XML-escaped ampersands are unescaped first, since the
// value typically arrives inside an XML document.
func ParseCX(cx string) (Identifier, error) {
	cx = strings.ReplaceAll(cx, "&amp;", "&")

	caret := strings.Index(cx, "^")
	if caret < 0 {
		return Identifier{}, fmt.Errorf("parse CX %q: no component separator", cx)
	}
	value := cx[:caret]

	first := strings.Index(cx, "&")
	last := strings.LastIndex(cx, "&")
	if first < 0 || first == last {
		return Identifier{}, fmt.Errorf("parse CX %q: no assigning authority", cx)
	}
	authority := cx[first+1 : last]

	if value == "" || authority == "" {
		return Identifier{}, fmt.Errorf("parse CX %q: empty id or assigning authority", cx)
	}
	return Identifier{Value: value, AssigningAuthority: authority}, nil
}

// Person is a parsed XCN composite: an identifier plus name components.
// Under an HIE profile the identifier should always be present; the name is
// the fallback lookup key when it is not.
type Person struct {
	ID         string `json:"id"`
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
}

// DisplayName returns "given family" when both name parts are present,
// otherwise whatever single key the composite carried.
func (p Person) DisplayName() string {
	if p.GivenName != "" && p.FamilyName != "" {
		return p.GivenName + " " + p.FamilyName
	}
	if p.ID != "" {
		return p.ID
	}
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// ParseXCN parses an HL7 XCN composite, "id^familyName^givenName^...".
// Trailing components are optional.
func ParseXCN(xcn string) (Person, error) {
	if xcn == "" {
		return Person{}, fmt.Errorf("parse XCN: empty value")
	}
	parts := strings.Split(xcn, "^")
	p := Person{ID: parts[0]}
	if len(parts) > 1 {
		p.FamilyName = parts[1]
	}
	if len(parts) > 2 {
		p.GivenName = parts[2]
	}
	if p.ID == "" && p.FamilyName == "" && p.GivenName == "" {
		return Person{}, fmt.Errorf("parse XCN %q: no identifier or name components", xcn)
	}
	return p, nil
}
