// Package clinical is the clinical record store backing the document
// repository: patients and their identifiers, providers, encounter roles,
// and encounter types. The repository resolves every submitted document
// against these records before storing content.
package clinical

import (
	"time"

	"github.com/google/uuid"
)

// IdentifierType is a named identifier-type definition. Types are named
// after the assigning authority of the identifiers they classify.
type IdentifierType struct {
	ID          int64     `db:"id" json:"id"`
	UUID        uuid.UUID `db:"uuid" json:"uuid"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// PatientIdentifier links an identifier value to its type on a patient.
type PatientIdentifier struct {
	ID         int64  `db:"id" json:"id"`
	PatientID  int64  `db:"patient_id" json:"patient_id"`
	TypeID     int64  `db:"identifier_type_id" json:"identifier_type_id"`
	Identifier string `db:"identifier" json:"identifier"`
}

// PersonName holds a patient's name components. Family and given names are
// "*" for unnamed patients.
type PersonName struct {
	FamilyName string `db:"family_name" json:"family_name"`
	GivenName  string `db:"given_name" json:"given_name"`
	MiddleName string `db:"middle_name" json:"middle_name,omitempty"`
	Suffix     string `db:"suffix" json:"suffix,omitempty"`
	Prefix     string `db:"prefix" json:"prefix,omitempty"`
	Degree     string `db:"degree" json:"degree,omitempty"`
}

// Address holds a patient's address components.
type Address struct {
	Address1      string `db:"address1" json:"address1,omitempty"`
	Address2      string `db:"address2" json:"address2,omitempty"`
	CityVillage   string `db:"city_village" json:"city_village,omitempty"`
	StateProvince string `db:"state_province" json:"state_province,omitempty"`
	PostalCode    string `db:"postal_code" json:"postal_code,omitempty"`
	Country       string `db:"country" json:"country,omitempty"`
}

// Patient is a clinical patient record.
type Patient struct {
	ID          int64               `db:"id" json:"id"`
	UUID        uuid.UUID           `db:"uuid" json:"uuid"`
	Gender      string              `db:"gender" json:"gender"`
	Birthdate   *time.Time          `db:"birthdate" json:"birthdate,omitempty"`
	Names       []PersonName        `json:"names,omitempty"`
	Addresses   []Address           `json:"addresses,omitempty"`
	Identifiers []PatientIdentifier `json:"identifiers,omitempty"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// HasIdentifier reports whether the patient already carries the given
// identifier value under the given type.
func (p *Patient) HasIdentifier(typeID int64, value string) bool {
	for _, pi := range p.Identifiers {
		if pi.TypeID == typeID && pi.Identifier == value {
			return true
		}
	}
	return false
}

// Provider is a clinician who authored or participated in a document's
// encounter.
type Provider struct {
	ID         int64     `db:"id" json:"id"`
	UUID       uuid.UUID `db:"uuid" json:"uuid"`
	Identifier string    `db:"identifier" json:"identifier"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// EncounterRole names the role a provider played in an encounter.
type EncounterRole struct {
	ID          int64     `db:"id" json:"id"`
	UUID        uuid.UUID `db:"uuid" json:"uuid"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
}

// UnknownRoleName is the sentinel role used when a document's author
// classification lists no role.
const UnknownRoleName = "Unknown"

// EncounterType names the kind of encounter a document records, derived
// from the document's classCode classification.
type EncounterType struct {
	ID          int64     `db:"id" json:"id"`
	UUID        uuid.UUID `db:"uuid" json:"uuid"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
}

// ProvidersByRole maps each encounter role to the providers that
// participated under it. A provider may appear under multiple roles.
type ProvidersByRole map[EncounterRole][]*Provider

// Add records a provider under a role, skipping duplicates.
func (m ProvidersByRole) Add(role EncounterRole, p *Provider) {
	for _, existing := range m[role] {
		if existing.ID == p.ID {
			return
		}
	}
	m[role] = append(m[role], p)
}
