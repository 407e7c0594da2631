// Package identity resolves the identities referenced by submitted document
// metadata into clinical records: the patient named by the enterprise
// identifier, the providers listed in author classifications, and the
// encounter type derived from the class code.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
	"github.com/openshr/xds-repository/internal/platform/hl7v2"
)

// Resolver looks up and, where configured, creates the clinical records a
// document entry refers to.
type Resolver struct {
	store               *clinical.Store
	autoCreatePatients  bool
	autoCreateProviders bool
	log                 zerolog.Logger
}

func NewResolver(store *clinical.Store, autoCreatePatients, autoCreateProviders bool, log zerolog.Logger) *Resolver {
	return &Resolver{
		store:               store,
		autoCreatePatients:  autoCreatePatients,
		autoCreateProviders: autoCreateProviders,
		log:                 log,
	}
}

// FindOrCreatePatient resolves the document entry's patientId external
// identifier to a patient record. The enterprise identifier is the lookup
// key; the sourcePatientId is attached as an additional local identifier.
// When no patient matches and auto-creation is enabled, a new record is
// created from the sourcePatientInfo demographics.
func (r *Resolver) FindOrCreatePatient(ctx context.Context, eo *ebxml.ExtrinsicObject) (*clinical.Patient, error) {
	ecid, err := hl7v2.ParseCX(eo.PatientID())
	if err != nil {
		return nil, fmt.Errorf("parse enterprise patient id: %w", err)
	}

	ecidType, err := r.identifierType(ctx, ecid.AssigningAuthority)
	if err != nil {
		return nil, err
	}

	patients, err := r.store.Patients.SearchByIdentifier(ctx, ecid.Value, ecidType.ID)
	if err != nil {
		return nil, fmt.Errorf("search patients by identifier: %w", err)
	}

	var patient *clinical.Patient
	switch len(patients) {
	case 0:
		if !r.autoCreatePatients {
			return nil, &ErrUnknownPatient{Identifier: ecid.String()}
		}
		patient, err = r.createPatient(ctx, eo, ecid, ecidType)
		if err != nil {
			return nil, err
		}
	case 1:
		patient = patients[0]
	default:
		return nil, &ErrAmbiguousPatientIdentifier{Identifier: ecid.String(), Matches: len(patients)}
	}

	if err := r.attachSourcePatientID(ctx, eo, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (r *Resolver) createPatient(ctx context.Context, eo *ebxml.ExtrinsicObject, ecid hl7v2.Identifier, ecidType *clinical.IdentifierType) (*clinical.Patient, error) {
	info, err := hl7v2.ParseSourcePatientInfo(ebxml.SlotValues(eo.Slots, ebxml.SlotSourcePatientInfo), r.log)
	if err != nil {
		return nil, &ErrInvalidMetadata{Field: ebxml.SlotSourcePatientInfo, Err: err}
	}

	p := &clinical.Patient{
		Gender:    info.Gender,
		Birthdate: info.Birthdate,
		Names: []clinical.PersonName{{
			FamilyName: info.Name.FamilyName,
			GivenName:  info.Name.GivenName,
			MiddleName: info.Name.MiddleName,
			Suffix:     info.Name.Suffix,
			Prefix:     info.Name.Prefix,
			Degree:     info.Name.Degree,
		}},
		Identifiers: []clinical.PatientIdentifier{{
			TypeID:     ecidType.ID,
			Identifier: ecid.Value,
		}},
	}
	if info.Address != nil {
		p.Addresses = []clinical.Address{{
			Address1:      info.Address.Address1,
			Address2:      info.Address.Address2,
			CityVillage:   info.Address.CityVillage,
			StateProvince: info.Address.StateProvince,
			PostalCode:    info.Address.PostalCode,
			Country:       info.Address.Country,
		}}
	}

	if err := r.store.Patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	r.log.Info().Int64("patient_id", p.ID).Str("identifier", ecid.String()).Msg("created patient from document metadata")
	return p, nil
}

// attachSourcePatientID records the document's sourcePatientId as a local
// identifier on the patient, unless the patient already carries it.
func (r *Resolver) attachSourcePatientID(ctx context.Context, eo *ebxml.ExtrinsicObject, patient *clinical.Patient) error {
	raw := ebxml.SlotValue(eo.Slots, ebxml.SlotSourcePatientID, "")
	if raw == "" {
		return nil
	}
	spid, err := hl7v2.ParseCX(raw)
	if err != nil {
		return fmt.Errorf("parse sourcePatientId: %w", err)
	}

	spidType, err := r.identifierType(ctx, spid.AssigningAuthority)
	if err != nil {
		return err
	}
	if patient.HasIdentifier(spidType.ID, spid.Value) {
		return nil
	}

	pi := &clinical.PatientIdentifier{
		PatientID:  patient.ID,
		TypeID:     spidType.ID,
		Identifier: spid.Value,
	}
	if err := r.store.Patients.AddIdentifier(ctx, pi); err != nil {
		return fmt.Errorf("attach source patient id: %w", err)
	}
	patient.Identifiers = append(patient.Identifiers, *pi)
	return nil
}

// identifierType returns the identifier type named after the assigning
// authority, creating it on first use.
func (r *Resolver) identifierType(ctx context.Context, authority string) (*clinical.IdentifierType, error) {
	t, err := r.store.IdentifierTypes.GetByName(ctx, authority)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, clinical.ErrNotFound) {
		return nil, fmt.Errorf("get identifier type %q: %w", authority, err)
	}

	t = &clinical.IdentifierType{
		Name:        authority,
		Description: "Identifiers assigned by " + authority,
	}
	if err := r.store.IdentifierTypes.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create identifier type %q: %w", authority, err)
	}
	return t, nil
}

// FindOrCreateProvidersByRole resolves the document entry's author
// classifications to providers, grouped by encounter role. Each author
// classification contributes one provider from its authorPerson slot and
// zero or more roles from its authorRole slot; authors without roles fall
// under the Unknown role.
func (r *Resolver) FindOrCreateProvidersByRole(ctx context.Context, eo *ebxml.ExtrinsicObject) (clinical.ProvidersByRole, error) {
	byRole := clinical.ProvidersByRole{}

	for _, slots := range eo.ClassificationSlotMaps(ebxml.UUIDDocumentEntryAuthor) {
		personSlot, ok := slots[ebxml.SlotAuthorPerson]
		if !ok || len(personSlot.Values) == 0 {
			continue
		}
		person, err := hl7v2.ParseXCN(personSlot.Values[0])
		if err != nil {
			return nil, fmt.Errorf("parse authorPerson: %w", err)
		}

		provider, err := r.findOrCreateProvider(ctx, person)
		if err != nil {
			return nil, err
		}

		roleNames := []string{}
		if roleSlot, ok := slots[ebxml.SlotAuthorRole]; ok {
			roleNames = roleSlot.Values
		}
		if len(roleNames) == 0 {
			roleNames = []string{clinical.UnknownRoleName}
		}
		for _, name := range roleNames {
			role, err := r.encounterRole(ctx, name)
			if err != nil {
				return nil, err
			}
			byRole.Add(*role, provider)
		}
	}

	return byRole, nil
}

func (r *Resolver) findOrCreateProvider(ctx context.Context, person hl7v2.Person) (*clinical.Provider, error) {
	if person.ID != "" {
		p, err := r.store.Providers.GetByIdentifier(ctx, person.ID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, clinical.ErrNotFound) {
			return nil, fmt.Errorf("get provider by identifier %q: %w", person.ID, err)
		}
	} else {
		matches, err := r.store.Providers.SearchByName(ctx, person.GivenName, person.FamilyName)
		if err != nil {
			return nil, fmt.Errorf("search providers by name: %w", err)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}

	if !r.autoCreateProviders {
		return nil, &ErrUnknownProvider{Key: person.DisplayName()}
	}

	p := &clinical.Provider{
		Identifier: person.ID,
		Name:       person.DisplayName(),
	}
	if err := r.store.Providers.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	r.log.Info().Int64("provider_id", p.ID).Str("name", p.Name).Msg("created provider from document metadata")
	return p, nil
}

// encounterRole returns the role with the given name, creating it on first
// use. Roles are repository vocabulary and are always auto-created.
func (r *Resolver) encounterRole(ctx context.Context, name string) (*clinical.EncounterRole, error) {
	role, err := r.store.Roles.GetByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, clinical.ErrNotFound) {
		return nil, fmt.Errorf("get encounter role %q: %w", name, err)
	}

	role = &clinical.EncounterRole{
		Name:        name,
		Description: "Role extracted from document metadata",
	}
	if err := r.store.Roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create encounter role %q: %w", name, err)
	}
	return role, nil
}

// FindOrCreateEncounterType resolves the document entry's classCode
// classification to an encounter type, creating it on first use.
func (r *Resolver) FindOrCreateEncounterType(ctx context.Context, eo *ebxml.ExtrinsicObject) (*clinical.EncounterType, error) {
	c := eo.Classification(ebxml.UUIDDocumentEntryClassCode)
	if c == nil || c.NodeRepresentation == "" {
		return nil, fmt.Errorf("document entry %q has no classCode classification", eo.ID)
	}

	t, err := r.store.EncounterTypes.GetByName(ctx, c.NodeRepresentation)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, clinical.ErrNotFound) {
		return nil, fmt.Errorf("get encounter type %q: %w", c.NodeRepresentation, err)
	}

	t = &clinical.EncounterType{
		Name:        c.NodeRepresentation,
		Description: "Encounter type extracted from document classCode",
	}
	if err := r.store.EncounterTypes.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create encounter type %q: %w", c.NodeRepresentation, err)
	}
	return t, nil
}
