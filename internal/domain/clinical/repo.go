package clinical

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that find no matching record.
var ErrNotFound = errors.New("clinical record not found")

type IdentifierTypeRepository interface {
	GetByName(ctx context.Context, name string) (*IdentifierType, error)
	Create(ctx context.Context, t *IdentifierType) error
}

type PatientRepository interface {
	// SearchByIdentifier returns all patients carrying the identifier value
	// under the given identifier type.
	SearchByIdentifier(ctx context.Context, value string, typeID int64) ([]*Patient, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	AddIdentifier(ctx context.Context, pi *PatientIdentifier) error
}

type ProviderRepository interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Provider, error)
	GetByID(ctx context.Context, id int64) (*Provider, error)
	// SearchByName returns providers whose display name starts with the
	// given name and contains the family name. Used only when a document
	// author carries no identifier component.
	SearchByName(ctx context.Context, givenName, familyName string) ([]*Provider, error)
	Create(ctx context.Context, p *Provider) error
}

type EncounterRoleRepository interface {
	GetByName(ctx context.Context, name string) (*EncounterRole, error)
	GetByID(ctx context.Context, id int64) (*EncounterRole, error)
	Create(ctx context.Context, r *EncounterRole) error
}

type EncounterTypeRepository interface {
	GetByName(ctx context.Context, name string) (*EncounterType, error)
	GetByID(ctx context.Context, id int64) (*EncounterType, error)
	Create(ctx context.Context, t *EncounterType) error
}

// Store aggregates the record-store repositories consumed by the identity
// resolver and the discrete-data processor.
type Store struct {
	IdentifierTypes IdentifierTypeRepository
	Patients        PatientRepository
	Providers       ProviderRepository
	Roles           EncounterRoleRepository
	EncounterTypes  EncounterTypeRepository
}
