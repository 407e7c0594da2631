package clinical

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStorePG wires pgx-backed implementations of every record-store
// repository over one shared pool.
func NewStorePG(pool *pgxpool.Pool) *Store {
	return &Store{
		IdentifierTypes: &identifierTypeRepoPG{pool: pool},
		Patients:        &patientRepoPG{pool: pool},
		Providers:       &providerRepoPG{pool: pool},
		Roles:           &encounterRoleRepoPG{pool: pool},
		EncounterTypes:  &encounterTypeRepoPG{pool: pool},
	}
}

// =========== IdentifierType Repository ===========

type identifierTypeRepoPG struct{ pool *pgxpool.Pool }

func NewIdentifierTypeRepoPG(pool *pgxpool.Pool) IdentifierTypeRepository {
	return &identifierTypeRepoPG{pool: pool}
}

func (r *identifierTypeRepoPG) GetByName(ctx context.Context, name string) (*IdentifierType, error) {
	var t IdentifierType
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name, description, created_at FROM identifier_type WHERE name = $1`,
		name).Scan(&t.ID, &t.UUID, &t.Name, &t.Description, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get identifier type %q: %w", name, err)
	}
	return &t, nil
}

func (r *identifierTypeRepoPG) Create(ctx context.Context, t *IdentifierType) error {
	t.UUID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO identifier_type (uuid, name, description) VALUES ($1,$2,$3)
		 RETURNING id, created_at`,
		t.UUID, t.Name, t.Description).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create identifier type %q: %w", t.Name, err)
	}
	return nil
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) SearchByIdentifier(ctx context.Context, value string, typeID int64) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.uuid, p.gender, p.birthdate, p.created_at
		FROM patient p
		JOIN patient_identifier pi ON pi.patient_id = p.id
		WHERE pi.identifier = $1 AND pi.identifier_type_id = $2
		ORDER BY p.id`, value, typeID)
	if err != nil {
		return nil, fmt.Errorf("search patients by identifier: %w", err)
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.UUID, &p.Gender, &p.Birthdate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}

	for _, p := range patients {
		if err := r.loadChildren(ctx, p); err != nil {
			return nil, err
		}
	}
	return patients, nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	var p Patient
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, gender, birthdate, created_at FROM patient WHERE id = $1`,
		id).Scan(&p.ID, &p.UUID, &p.Gender, &p.Birthdate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get patient %d: %w", id, err)
	}
	if err := r.loadChildren(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *patientRepoPG) loadChildren(ctx context.Context, p *Patient) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, identifier_type_id, identifier
		FROM patient_identifier WHERE patient_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("load patient identifiers: %w", err)
	}
	defer rows.Close()
	p.Identifiers = nil
	for rows.Next() {
		var pi PatientIdentifier
		if err := rows.Scan(&pi.ID, &pi.PatientID, &pi.TypeID, &pi.Identifier); err != nil {
			return fmt.Errorf("scan patient identifier: %w", err)
		}
		p.Identifiers = append(p.Identifiers, pi)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate patient identifiers: %w", err)
	}

	nameRows, err := r.pool.Query(ctx, `
		SELECT family_name, given_name, middle_name, suffix, prefix, degree
		FROM patient_name WHERE patient_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("load patient names: %w", err)
	}
	defer nameRows.Close()
	p.Names = nil
	for nameRows.Next() {
		var n PersonName
		if err := nameRows.Scan(&n.FamilyName, &n.GivenName, &n.MiddleName, &n.Suffix, &n.Prefix, &n.Degree); err != nil {
			return fmt.Errorf("scan patient name: %w", err)
		}
		p.Names = append(p.Names, n)
	}
	if err := nameRows.Err(); err != nil {
		return fmt.Errorf("iterate patient names: %w", err)
	}

	addrRows, err := r.pool.Query(ctx, `
		SELECT address1, address2, city_village, state_province, postal_code, country
		FROM patient_address WHERE patient_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return fmt.Errorf("load patient addresses: %w", err)
	}
	defer addrRows.Close()
	p.Addresses = nil
	for addrRows.Next() {
		var a Address
		if err := addrRows.Scan(&a.Address1, &a.Address2, &a.CityVillage, &a.StateProvince, &a.PostalCode, &a.Country); err != nil {
			return fmt.Errorf("scan patient address: %w", err)
		}
		p.Addresses = append(p.Addresses, a)
	}
	return addrRows.Err()
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create patient: %w", err)
	}
	defer tx.Rollback(ctx)

	p.UUID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO patient (uuid, gender, birthdate) VALUES ($1,$2,$3)
		 RETURNING id, created_at`,
		p.UUID, p.Gender, p.Birthdate).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}

	for i := range p.Identifiers {
		pi := &p.Identifiers[i]
		pi.PatientID = p.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO patient_identifier (patient_id, identifier_type_id, identifier)
			 VALUES ($1,$2,$3) RETURNING id`,
			pi.PatientID, pi.TypeID, pi.Identifier).Scan(&pi.ID)
		if err != nil {
			return fmt.Errorf("insert patient identifier: %w", err)
		}
	}
	for _, n := range p.Names {
		_, err = tx.Exec(ctx,
			`INSERT INTO patient_name (patient_id, family_name, given_name, middle_name, suffix, prefix, degree)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, n.FamilyName, n.GivenName, n.MiddleName, n.Suffix, n.Prefix, n.Degree)
		if err != nil {
			return fmt.Errorf("insert patient name: %w", err)
		}
	}
	for _, a := range p.Addresses {
		_, err = tx.Exec(ctx,
			`INSERT INTO patient_address (patient_id, address1, address2, city_village, state_province, postal_code, country)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, a.Address1, a.Address2, a.CityVillage, a.StateProvince, a.PostalCode, a.Country)
		if err != nil {
			return fmt.Errorf("insert patient address: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *patientRepoPG) AddIdentifier(ctx context.Context, pi *PatientIdentifier) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO patient_identifier (patient_id, identifier_type_id, identifier)
		 VALUES ($1,$2,$3) RETURNING id`,
		pi.PatientID, pi.TypeID, pi.Identifier).Scan(&pi.ID)
	if err != nil {
		return fmt.Errorf("add patient identifier: %w", err)
	}
	return nil
}

// =========== Provider Repository ===========

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepoPG{pool: pool}
}

const providerCols = `id, uuid, identifier, name, created_at`

func (r *providerRepoPG) scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.UUID, &p.Identifier, &p.Name, &p.CreatedAt)
	return &p, err
}

func (r *providerRepoPG) GetByIdentifier(ctx context.Context, identifier string) (*Provider, error) {
	p, err := r.scanProvider(r.pool.QueryRow(ctx,
		`SELECT `+providerCols+` FROM provider WHERE identifier = $1`, identifier))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider by identifier %q: %w", identifier, err)
	}
	return p, nil
}

func (r *providerRepoPG) GetByID(ctx context.Context, id int64) (*Provider, error) {
	p, err := r.scanProvider(r.pool.QueryRow(ctx,
		`SELECT `+providerCols+` FROM provider WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get provider %d: %w", id, err)
	}
	return p, nil
}

func (r *providerRepoPG) SearchByName(ctx context.Context, givenName, familyName string) ([]*Provider, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+providerCols+` FROM provider
		 WHERE name LIKE $1 || '%' AND name LIKE '%' || $2 || '%' ORDER BY id`,
		givenName, familyName)
	if err != nil {
		return nil, fmt.Errorf("search providers by name: %w", err)
	}
	defer rows.Close()

	var providers []*Provider
	for rows.Next() {
		p, err := r.scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	p.UUID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO provider (uuid, identifier, name) VALUES ($1,$2,$3)
		 RETURNING id, created_at`,
		p.UUID, p.Identifier, p.Name).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create provider %q: %w", p.Identifier, err)
	}
	return nil
}

// =========== EncounterRole Repository ===========

type encounterRoleRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterRoleRepoPG(pool *pgxpool.Pool) EncounterRoleRepository {
	return &encounterRoleRepoPG{pool: pool}
}

func (r *encounterRoleRepoPG) GetByName(ctx context.Context, name string) (*EncounterRole, error) {
	var er EncounterRole
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name, description FROM encounter_role WHERE name = $1`,
		name).Scan(&er.ID, &er.UUID, &er.Name, &er.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encounter role %q: %w", name, err)
	}
	return &er, nil
}

func (r *encounterRoleRepoPG) GetByID(ctx context.Context, id int64) (*EncounterRole, error) {
	var er EncounterRole
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name, description FROM encounter_role WHERE id = $1`,
		id).Scan(&er.ID, &er.UUID, &er.Name, &er.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encounter role %d: %w", id, err)
	}
	return &er, nil
}

func (r *encounterRoleRepoPG) Create(ctx context.Context, er *EncounterRole) error {
	er.UUID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO encounter_role (uuid, name, description) VALUES ($1,$2,$3)
		 RETURNING id`,
		er.UUID, er.Name, er.Description).Scan(&er.ID)
	if err != nil {
		return fmt.Errorf("create encounter role %q: %w", er.Name, err)
	}
	return nil
}

// =========== EncounterType Repository ===========

type encounterTypeRepoPG struct{ pool *pgxpool.Pool }

func NewEncounterTypeRepoPG(pool *pgxpool.Pool) EncounterTypeRepository {
	return &encounterTypeRepoPG{pool: pool}
}

func (r *encounterTypeRepoPG) GetByName(ctx context.Context, name string) (*EncounterType, error) {
	var et EncounterType
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name, description FROM encounter_type WHERE name = $1`,
		name).Scan(&et.ID, &et.UUID, &et.Name, &et.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encounter type %q: %w", name, err)
	}
	return &et, nil
}

func (r *encounterTypeRepoPG) GetByID(ctx context.Context, id int64) (*EncounterType, error) {
	var et EncounterType
	err := r.pool.QueryRow(ctx,
		`SELECT id, uuid, name, description FROM encounter_type WHERE id = $1`,
		id).Scan(&et.ID, &et.UUID, &et.Name, &et.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encounter type %d: %w", id, err)
	}
	return &et, nil
}

func (r *encounterTypeRepoPG) Create(ctx context.Context, et *EncounterType) error {
	et.UUID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO encounter_type (uuid, name, description) VALUES ($1,$2,$3)
		 RETURNING id`,
		et.UUID, et.Name, et.Description).Scan(&et.ID)
	if err != nil {
		return fmt.Errorf("create encounter type %q: %w", et.Name, err)
	}
	return nil
}
