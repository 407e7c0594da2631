package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/domain/clinical"
	"github.com/openshr/xds-repository/internal/platform/ebxml"
	"github.com/openshr/xds-repository/internal/platform/hl7v2"
)

type mockIdentifierTypeRepo struct {
	types  map[string]*clinical.IdentifierType
	nextID int64
}

func (m *mockIdentifierTypeRepo) GetByName(_ context.Context, name string) (*clinical.IdentifierType, error) {
	if t, ok := m.types[name]; ok {
		return t, nil
	}
	return nil, clinical.ErrNotFound
}

func (m *mockIdentifierTypeRepo) Create(_ context.Context, t *clinical.IdentifierType) error {
	m.nextID++
	t.ID = m.nextID
	m.types[t.Name] = t
	return nil
}

type mockPatientRepo struct {
	patients []*clinical.Patient
	nextID   int64
	added    []*clinical.PatientIdentifier
}

func (m *mockPatientRepo) SearchByIdentifier(_ context.Context, value string, typeID int64) ([]*clinical.Patient, error) {
	var out []*clinical.Patient
	for _, p := range m.patients {
		if p.HasIdentifier(typeID, value) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id int64) (*clinical.Patient, error) {
	for _, p := range m.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (m *mockPatientRepo) Create(_ context.Context, p *clinical.Patient) error {
	m.nextID++
	p.ID = m.nextID
	m.patients = append(m.patients, p)
	return nil
}

func (m *mockPatientRepo) AddIdentifier(_ context.Context, pi *clinical.PatientIdentifier) error {
	m.added = append(m.added, pi)
	for _, p := range m.patients {
		if p.ID == pi.PatientID {
			p.Identifiers = append(p.Identifiers, *pi)
		}
	}
	return nil
}

type mockProviderRepo struct {
	providers []*clinical.Provider
	nextID    int64
}

func (m *mockProviderRepo) GetByIdentifier(_ context.Context, identifier string) (*clinical.Provider, error) {
	for _, p := range m.providers {
		if p.Identifier == identifier {
			return p, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (m *mockProviderRepo) GetByID(_ context.Context, id int64) (*clinical.Provider, error) {
	for _, p := range m.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (m *mockProviderRepo) SearchByName(_ context.Context, given, family string) ([]*clinical.Provider, error) {
	var out []*clinical.Provider
	for _, p := range m.providers {
		if strings.HasPrefix(p.Name, given) && strings.Contains(p.Name, family) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProviderRepo) Create(_ context.Context, p *clinical.Provider) error {
	m.nextID++
	p.ID = m.nextID
	m.providers = append(m.providers, p)
	return nil
}

type mockRoleRepo struct {
	roles  map[string]*clinical.EncounterRole
	nextID int64
}

func (m *mockRoleRepo) GetByName(_ context.Context, name string) (*clinical.EncounterRole, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return nil, clinical.ErrNotFound
}

func (m *mockRoleRepo) GetByID(_ context.Context, id int64) (*clinical.EncounterRole, error) {
	for _, r := range m.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (m *mockRoleRepo) Create(_ context.Context, r *clinical.EncounterRole) error {
	m.nextID++
	r.ID = m.nextID
	m.roles[r.Name] = r
	return nil
}

type mockEncounterTypeRepo struct {
	types  map[string]*clinical.EncounterType
	nextID int64
}

func (m *mockEncounterTypeRepo) GetByName(_ context.Context, name string) (*clinical.EncounterType, error) {
	if t, ok := m.types[name]; ok {
		return t, nil
	}
	return nil, clinical.ErrNotFound
}

func (m *mockEncounterTypeRepo) GetByID(_ context.Context, id int64) (*clinical.EncounterType, error) {
	for _, t := range m.types {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (m *mockEncounterTypeRepo) Create(_ context.Context, t *clinical.EncounterType) error {
	m.nextID++
	t.ID = m.nextID
	m.types[t.Name] = t
	return nil
}

func newMockStore() (*clinical.Store, *mockPatientRepo, *mockProviderRepo) {
	patients := &mockPatientRepo{}
	providers := &mockProviderRepo{}
	return &clinical.Store{
		IdentifierTypes: &mockIdentifierTypeRepo{types: map[string]*clinical.IdentifierType{}},
		Patients:        patients,
		Providers:       providers,
		Roles:           &mockRoleRepo{roles: map[string]*clinical.EncounterRole{}},
		EncounterTypes:  &mockEncounterTypeRepo{types: map[string]*clinical.EncounterType{}},
	}, patients, providers
}

func documentEntry() *ebxml.ExtrinsicObject {
	eo := &ebxml.ExtrinsicObject{
		ID:       "Document01",
		MimeType: "text/xml",
		Slots: []ebxml.Slot{
			{Name: ebxml.SlotSourcePatientID, Values: []string{"76cc^^^&1.3.6.1.4.1.21367.2005.3.7&ISO"}},
			{Name: ebxml.SlotSourcePatientInfo, Values: []string{
				"PID-3|76cc^^^&1.3.6.1.4.1.21367.2005.3.7&ISO",
				"PID-5|Doe^John^^^",
				"PID-7|19560527",
				"PID-8|M",
				"PID-11|100 Main St^^Metropolis^Il^44130^USA",
			}},
		},
		Classifications: []ebxml.Classification{
			{
				ClassificationScheme: ebxml.UUIDDocumentEntryClassCode,
				NodeRepresentation:   "History and Physical",
			},
			{
				ClassificationScheme: ebxml.UUIDDocumentEntryAuthor,
				Slots: []ebxml.Slot{
					{Name: ebxml.SlotAuthorPerson, Values: []string{"pro111^Dopplemeyer^Sherry^^^"}},
					{Name: ebxml.SlotAuthorRole, Values: []string{"Primary Surgeon"}},
				},
			},
		},
		ExternalIdentifiers: []ebxml.ExternalIdentifier{
			{IdentificationScheme: ebxml.UUIDDocumentEntryUniqueID, Value: "1.42.20130403134532.123"},
			{IdentificationScheme: ebxml.UUIDDocumentEntryPatientID, Value: "75cc^^^&1.3.6.1.4.1.21367.2005.3.7&ISO"},
		},
	}
	return eo
}

func TestFindOrCreatePatientCreatesFromSourcePatientInfo(t *testing.T) {
	store, patients, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	p, err := r.FindOrCreatePatient(context.Background(), documentEntry())
	if err != nil {
		t.Fatalf("FindOrCreatePatient returned error: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("expected created patient to have an id")
	}
	if p.Gender != "M" {
		t.Errorf("gender = %q, want M", p.Gender)
	}
	if p.Birthdate == nil || p.Birthdate.Format("2006-01-02") != "1956-05-27" {
		t.Errorf("birthdate = %v, want 1956-05-27", p.Birthdate)
	}
	if len(p.Names) != 1 || p.Names[0].FamilyName != "Doe" || p.Names[0].GivenName != "John" {
		t.Errorf("names = %+v", p.Names)
	}
	if len(p.Addresses) != 1 || p.Addresses[0].CityVillage != "Metropolis" {
		t.Errorf("addresses = %+v", p.Addresses)
	}

	// enterprise id at create time plus attached source patient id
	if len(patients.patients) != 1 {
		t.Fatalf("patient count = %d, want 1", len(patients.patients))
	}
	if len(p.Identifiers) != 2 {
		t.Fatalf("identifier count = %d, want 2", len(p.Identifiers))
	}
	if len(patients.added) != 1 || patients.added[0].Identifier != "76cc" {
		t.Errorf("attached identifiers = %+v", patients.added)
	}
}

func TestFindOrCreatePatientFindsExisting(t *testing.T) {
	store, patients, _ := newMockStore()
	r := NewResolver(store, false, false, zerolog.Nop())

	// pre-seed the identifier type and a matching patient
	ecidType := &clinical.IdentifierType{Name: "1.3.6.1.4.1.21367.2005.3.7"}
	if err := store.IdentifierTypes.Create(context.Background(), ecidType); err != nil {
		t.Fatal(err)
	}
	existing := &clinical.Patient{
		Gender: "F",
		Identifiers: []clinical.PatientIdentifier{
			{TypeID: ecidType.ID, Identifier: "75cc"},
			{TypeID: ecidType.ID, Identifier: "76cc"},
		},
	}
	if err := patients.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	p, err := r.FindOrCreatePatient(context.Background(), documentEntry())
	if err != nil {
		t.Fatalf("FindOrCreatePatient returned error: %v", err)
	}
	if p.ID != existing.ID {
		t.Errorf("resolved patient id = %d, want %d", p.ID, existing.ID)
	}
	// source patient id already present, nothing to attach
	if len(patients.added) != 0 {
		t.Errorf("attached identifiers = %+v, want none", patients.added)
	}
}

func TestFindOrCreatePatientUnknownWithoutAutoCreate(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, false, false, zerolog.Nop())

	_, err := r.FindOrCreatePatient(context.Background(), documentEntry())
	var unknown *ErrUnknownPatient
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want ErrUnknownPatient", err)
	}
	if !strings.Contains(unknown.Identifier, "75cc") {
		t.Errorf("identifier = %q, want enterprise id", unknown.Identifier)
	}
}

func TestFindOrCreatePatientAmbiguousIdentifier(t *testing.T) {
	store, patients, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	ecidType := &clinical.IdentifierType{Name: "1.3.6.1.4.1.21367.2005.3.7"}
	if err := store.IdentifierTypes.Create(context.Background(), ecidType); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		p := &clinical.Patient{Identifiers: []clinical.PatientIdentifier{{TypeID: ecidType.ID, Identifier: "75cc"}}}
		if err := patients.Create(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}

	_, err := r.FindOrCreatePatient(context.Background(), documentEntry())
	var ambiguous *ErrAmbiguousPatientIdentifier
	if !errors.As(err, &ambiguous) {
		t.Fatalf("err = %v, want ErrAmbiguousPatientIdentifier", err)
	}
	if ambiguous.Matches != 2 {
		t.Errorf("matches = %d, want 2", ambiguous.Matches)
	}
}

func TestFindOrCreatePatientUnsupportedGender(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	eo := documentEntry()
	for i, s := range eo.Slots {
		if s.Name == ebxml.SlotSourcePatientInfo {
			eo.Slots[i].Values = []string{"PID-8|O"}
		}
	}

	_, err := r.FindOrCreatePatient(context.Background(), eo)
	var unsupported *hl7v2.ErrUnsupportedGender
	if !errors.As(err, &unsupported) {
		t.Fatalf("err = %v, want ErrUnsupportedGender", err)
	}
	var invalid *ErrInvalidMetadata
	if !errors.As(err, &invalid) || invalid.Field != ebxml.SlotSourcePatientInfo {
		t.Fatalf("err = %v, want ErrInvalidMetadata for sourcePatientInfo", err)
	}
}

func TestFindOrCreatePatientBadBirthdate(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	eo := documentEntry()
	for i, s := range eo.Slots {
		if s.Name == ebxml.SlotSourcePatientInfo {
			eo.Slots[i].Values = []string{"PID-7|19-80-01"}
		}
	}

	_, err := r.FindOrCreatePatient(context.Background(), eo)
	var invalid *ErrInvalidMetadata
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want ErrInvalidMetadata", err)
	}
	if invalid.Field != ebxml.SlotSourcePatientInfo {
		t.Errorf("field = %q", invalid.Field)
	}
}

func TestFindOrCreateProvidersByRole(t *testing.T) {
	store, _, providers := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	eo := documentEntry()
	eo.Classifications = append(eo.Classifications, ebxml.Classification{
		ClassificationScheme: ebxml.UUIDDocumentEntryAuthor,
		Slots: []ebxml.Slot{
			{Name: ebxml.SlotAuthorPerson, Values: []string{"pro222^Smitty^Gerald^^^"}},
		},
	})

	byRole, err := r.FindOrCreateProvidersByRole(context.Background(), eo)
	if err != nil {
		t.Fatalf("FindOrCreateProvidersByRole returned error: %v", err)
	}
	if len(byRole) != 2 {
		t.Fatalf("role count = %d, want 2", len(byRole))
	}
	if len(providers.providers) != 2 {
		t.Fatalf("provider count = %d, want 2", len(providers.providers))
	}

	var surgeon, unknown []*clinical.Provider
	for role, ps := range byRole {
		switch role.Name {
		case "Primary Surgeon":
			surgeon = ps
		case clinical.UnknownRoleName:
			unknown = ps
		default:
			t.Errorf("unexpected role %q", role.Name)
		}
	}
	if len(surgeon) != 1 || surgeon[0].Identifier != "pro111" {
		t.Errorf("surgeon providers = %+v", surgeon)
	}
	if len(unknown) != 1 || unknown[0].Identifier != "pro222" {
		t.Errorf("unknown-role providers = %+v", unknown)
	}
}

func TestFindOrCreateProvidersByRoleReusesExisting(t *testing.T) {
	store, _, providers := newMockStore()
	r := NewResolver(store, false, false, zerolog.Nop())

	existing := &clinical.Provider{Identifier: "pro111", Name: "Sherry Dopplemeyer"}
	if err := providers.Create(context.Background(), existing); err != nil {
		t.Fatal(err)
	}

	byRole, err := r.FindOrCreateProvidersByRole(context.Background(), documentEntry())
	if err != nil {
		t.Fatalf("FindOrCreateProvidersByRole returned error: %v", err)
	}
	if len(providers.providers) != 1 {
		t.Errorf("provider count = %d, want 1", len(providers.providers))
	}
	for _, ps := range byRole {
		if len(ps) != 1 || ps[0].ID != existing.ID {
			t.Errorf("providers = %+v, want existing provider", ps)
		}
	}
}

func TestFindOrCreateProvidersByRoleUnknownWithoutAutoCreate(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, false, false, zerolog.Nop())

	_, err := r.FindOrCreateProvidersByRole(context.Background(), documentEntry())
	var unknown *ErrUnknownProvider
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want ErrUnknownProvider", err)
	}
}

func TestFindOrCreateEncounterType(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	first, err := r.FindOrCreateEncounterType(context.Background(), documentEntry())
	if err != nil {
		t.Fatalf("FindOrCreateEncounterType returned error: %v", err)
	}
	if first.Name != "History and Physical" {
		t.Errorf("name = %q", first.Name)
	}

	second, err := r.FindOrCreateEncounterType(context.Background(), documentEntry())
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("second lookup created a new type: %d != %d", second.ID, first.ID)
	}
}

func TestFindOrCreateEncounterTypeMissingClassCode(t *testing.T) {
	store, _, _ := newMockStore()
	r := NewResolver(store, true, true, zerolog.Nop())

	eo := documentEntry()
	eo.Classifications = eo.Classifications[1:]

	if _, err := r.FindOrCreateEncounterType(context.Background(), eo); err == nil {
		t.Fatal("expected error for document without classCode")
	}
}
