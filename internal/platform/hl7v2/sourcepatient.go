package hl7v2

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// PersonName holds the PID-5 name components. Family and given names default
// to "*" when the source omits them, matching the unnamed-patient convention.
type PersonName struct {
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
	MiddleName string `json:"middle_name,omitempty"`
	Suffix     string `json:"suffix,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	Degree     string `json:"degree,omitempty"`
}

// Address holds the PID-11 address components.
type Address struct {
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	CityVillage   string `json:"city_village,omitempty"`
	StateProvince string `json:"state_province,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
}

// SourcePatientInfo is the demographic detail parsed from the
// sourcePatientInfo slot of a document entry.
type SourcePatientInfo struct {
	Name      *PersonName `json:"name,omitempty"`
	Birthdate *time.Time  `json:"birthdate,omitempty"`
	Gender    string      `json:"gender"`
	Address   *Address    `json:"address,omitempty"`
}

// ErrUnsupportedGender is wrapped into the error returned for PID-8 values
// the record store cannot represent (O, U, A, N).
type ErrUnsupportedGender struct {
	Value string
}

func (e *ErrUnsupportedGender) Error() string {
	return fmt.Sprintf("unsupported gender %q: only male and female patients are supported", e.Value)
}

const birthdateLayout = "20060102"

// ParseSourcePatientInfo parses the PID-n|value pairs of a sourcePatientInfo
// slot. PID-3 is ignored in favour of the enterprise patient id; unknown
// PID segments are logged and skipped. A missing PID-8 yields gender "U".
func ParseSourcePatientInfo(values []string, log zerolog.Logger) (*SourcePatientInfo, error) {
	info := &SourcePatientInfo{}
	for _, val := range values {
		switch {
		case strings.HasPrefix(val, "PID-3|"):
			// source patient id handled separately, enterprise id wins
		case strings.HasPrefix(val, "PID-5|"):
			info.Name = parsePersonName(strings.TrimPrefix(val, "PID-5|"))
		case strings.HasPrefix(val, "PID-7|"):
			dob, err := time.Parse(birthdateLayout, strings.TrimPrefix(val, "PID-7|"))
			if err != nil {
				return nil, fmt.Errorf("parse PID-7 birthdate: %w", err)
			}
			info.Birthdate = &dob
		case strings.HasPrefix(val, "PID-8|"):
			gender := strings.TrimPrefix(val, "PID-8|")
			switch strings.ToUpper(gender) {
			case "O", "U", "A", "N":
				return nil, &ErrUnsupportedGender{Value: gender}
			}
			info.Gender = gender
		case strings.HasPrefix(val, "PID-11|"):
			info.Address = parseAddress(strings.TrimPrefix(val, "PID-11|"))
		default:
			log.Warn().Str("value", val).Msg("unknown value in sourcePatientInfo slot")
		}
	}

	if info.Gender == "" {
		info.Gender = "U"
	}
	if info.Name == nil {
		info.Name = &PersonName{FamilyName: "*", GivenName: "*"}
	}
	return info, nil
}

func parsePersonName(val string) *PersonName {
	parts := strings.Split(val, "^")
	pn := &PersonName{FamilyName: "*", GivenName: "*"}

	if len(parts) > 0 && parts[0] != "" {
		pn.FamilyName = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		pn.GivenName = parts[1]
	}
	if len(parts) > 2 {
		pn.MiddleName = parts[2]
	}
	if len(parts) > 3 {
		pn.Suffix = parts[3]
	}
	if len(parts) > 4 {
		pn.Prefix = parts[4]
	}
	if len(parts) > 5 {
		pn.Degree = parts[5]
	}
	return pn
}

func parseAddress(val string) *Address {
	parts := strings.Split(val, "^")
	addr := &Address{}
	if len(parts) > 0 {
		addr.Address1 = parts[0]
	}
	if len(parts) > 1 {
		addr.Address2 = parts[1]
	}
	if len(parts) > 2 {
		addr.CityVillage = parts[2]
	}
	if len(parts) > 3 {
		addr.StateProvince = parts[3]
	}
	if len(parts) > 4 {
		addr.PostalCode = parts[4]
	}
	if len(parts) > 5 {
		addr.Country = parts[5]
	}
	return addr
}
