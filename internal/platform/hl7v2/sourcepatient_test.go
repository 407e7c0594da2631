package hl7v2

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseSourcePatientInfo(t *testing.T) {
	values := []string{
		"PID-3|pid1^^^&1.2.3.4&ISO",
		"PID-5|Doe^John^Shingle^Jr^Mr^MD",
		"PID-7|19560527",
		"PID-8|M",
		"PID-11|100 Main St^Apt 1^Metropolis^NY^10001^USA",
	}
	info, err := ParseSourcePatientInfo(values, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseSourcePatientInfo returned error: %v", err)
	}

	if info.Gender != "M" {
		t.Errorf("gender = %q, want %q", info.Gender, "M")
	}
	want := time.Date(1956, 5, 27, 0, 0, 0, 0, time.UTC)
	if info.Birthdate == nil || !info.Birthdate.Equal(want) {
		t.Errorf("birthdate = %v, want %v", info.Birthdate, want)
	}
	if info.Name.FamilyName != "Doe" || info.Name.GivenName != "John" {
		t.Errorf("name = %+v, want Doe/John", info.Name)
	}
	if info.Name.MiddleName != "Shingle" || info.Name.Suffix != "Jr" || info.Name.Prefix != "Mr" || info.Name.Degree != "MD" {
		t.Errorf("extended name components = %+v", info.Name)
	}
	if info.Address.CityVillage != "Metropolis" || info.Address.PostalCode != "10001" || info.Address.Country != "USA" {
		t.Errorf("address = %+v", info.Address)
	}
}

func TestParseSourcePatientInfoDefaults(t *testing.T) {
	info, err := ParseSourcePatientInfo(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseSourcePatientInfo returned error: %v", err)
	}
	if info.Gender != "U" {
		t.Errorf("gender = %q, want %q", info.Gender, "U")
	}
	if info.Name.FamilyName != "*" || info.Name.GivenName != "*" {
		t.Errorf("name defaults = %+v, want */*", info.Name)
	}
}

func TestParseSourcePatientInfoPartialName(t *testing.T) {
	info, err := ParseSourcePatientInfo([]string{"PID-5|^John"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseSourcePatientInfo returned error: %v", err)
	}
	if info.Name.FamilyName != "*" {
		t.Errorf("family name = %q, want %q", info.Name.FamilyName, "*")
	}
	if info.Name.GivenName != "John" {
		t.Errorf("given name = %q, want %q", info.Name.GivenName, "John")
	}
}

func TestParseSourcePatientInfoUnsupportedGender(t *testing.T) {
	for _, g := range []string{"O", "U", "A", "N", "o", "u"} {
		_, err := ParseSourcePatientInfo([]string{"PID-8|" + g}, zerolog.Nop())
		var ug *ErrUnsupportedGender
		if !errors.As(err, &ug) {
			t.Errorf("PID-8|%s: expected ErrUnsupportedGender, got %v", g, err)
		}
	}
}

func TestParseSourcePatientInfoBadBirthdate(t *testing.T) {
	if _, err := ParseSourcePatientInfo([]string{"PID-7|27-05-1956"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for malformed birthdate")
	}
}

func TestParseSourcePatientInfoUnknownSegmentIgnored(t *testing.T) {
	info, err := ParseSourcePatientInfo([]string{"PID-13|555-1234", "PID-8|F"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("ParseSourcePatientInfo returned error: %v", err)
	}
	if info.Gender != "F" {
		t.Errorf("gender = %q, want %q", info.Gender, "F")
	}
}
