package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/openshr/xds-repository/internal/domain/clinical"
)

type stubRoleRepo struct {
	roles map[int64]*clinical.EncounterRole
}

func (r *stubRoleRepo) GetByName(_ context.Context, name string) (*clinical.EncounterRole, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (r *stubRoleRepo) GetByID(_ context.Context, id int64) (*clinical.EncounterRole, error) {
	if role, ok := r.roles[id]; ok {
		return role, nil
	}
	return nil, clinical.ErrNotFound
}

func (r *stubRoleRepo) Create(_ context.Context, role *clinical.EncounterRole) error {
	r.roles[role.ID] = role
	return nil
}

type stubProviderRepo struct {
	providers map[int64]*clinical.Provider
}

func (r *stubProviderRepo) GetByIdentifier(_ context.Context, identifier string) (*clinical.Provider, error) {
	for _, p := range r.providers {
		if p.Identifier == identifier {
			return p, nil
		}
	}
	return nil, clinical.ErrNotFound
}

func (r *stubProviderRepo) GetByID(_ context.Context, id int64) (*clinical.Provider, error) {
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	return nil, clinical.ErrNotFound
}

func (r *stubProviderRepo) SearchByName(_ context.Context, _, _ string) ([]*clinical.Provider, error) {
	return nil, nil
}

func (r *stubProviderRepo) Create(_ context.Context, p *clinical.Provider) error {
	r.providers[p.ID] = p
	return nil
}

func codecStore() *clinical.Store {
	return &clinical.Store{
		Roles: &stubRoleRepo{roles: map[int64]*clinical.EncounterRole{
			2:   {ID: 2, Name: "Attending"},
			311: {ID: 311, Name: "Primary Surgeon"},
			312: {ID: 312, Name: "Anaesthetist"},
		}},
		Providers: &stubProviderRepo{providers: map[int64]*clinical.Provider{
			301: {ID: 301, Identifier: "pro301"},
			302: {ID: 302, Identifier: "pro302"},
			303: {ID: 303, Identifier: "pro303"},
		}},
	}
}

func TestHydrateRoleProviderMap(t *testing.T) {
	byRole, err := HydrateRoleProviderMap(context.Background(), codecStore(), "311:301,302|312:303")
	if err != nil {
		t.Fatalf("hydrate returned error: %v", err)
	}
	if len(byRole) != 2 {
		t.Fatalf("role count = %d, want 2", len(byRole))
	}
	for role, providers := range byRole {
		switch role.ID {
		case 311:
			if len(providers) != 2 {
				t.Errorf("role 311 providers = %d, want 2", len(providers))
			}
		case 312:
			if len(providers) != 1 || providers[0].ID != 303 {
				t.Errorf("role 312 providers = %+v", providers)
			}
		default:
			t.Errorf("unexpected role id %d", role.ID)
		}
	}
}

func TestHydrateRoleProviderMapMalformed(t *testing.T) {
	for _, raw := range []string{"", "12:1,2|", "1:21,,2", "a:1", "1:", "|1:2", "1:2||3:4"} {
		_, err := HydrateRoleProviderMap(context.Background(), codecStore(), raw)
		if !errors.Is(err, ErrMalformedRoleProviderMap) {
			t.Errorf("raw %q: err = %v, want ErrMalformedRoleProviderMap", raw, err)
		}
	}
}

func TestHydrateRoleProviderMapUnknownIDs(t *testing.T) {
	_, err := HydrateRoleProviderMap(context.Background(), codecStore(), "999:301")
	if err == nil || err.Error() != "could not fetch encounter role with id: 999" {
		t.Errorf("unknown role err = %v", err)
	}

	_, err = HydrateRoleProviderMap(context.Background(), codecStore(), "311:999")
	if err == nil || err.Error() != "could not fetch provider with id: 999" {
		t.Errorf("unknown provider err = %v", err)
	}
}

func TestMarshalRoleProviderMapRoundTrip(t *testing.T) {
	store := codecStore()
	byRole := clinical.ProvidersByRole{}
	r311, _ := store.Roles.GetByID(context.Background(), 311)
	r312, _ := store.Roles.GetByID(context.Background(), 312)
	p301, _ := store.Providers.GetByID(context.Background(), 301)
	p302, _ := store.Providers.GetByID(context.Background(), 302)
	p303, _ := store.Providers.GetByID(context.Background(), 303)
	byRole.Add(*r311, p301)
	byRole.Add(*r311, p302)
	byRole.Add(*r312, p303)

	raw := MarshalRoleProviderMap(byRole)
	if raw != "311:301,302|312:303" {
		t.Fatalf("encoded = %q", raw)
	}

	back, err := HydrateRoleProviderMap(context.Background(), store, raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 2 || len(back[*r311]) != 2 || len(back[*r312]) != 1 {
		t.Errorf("round trip = %+v", back)
	}
}

func TestMarshalRoleProviderMapEmpty(t *testing.T) {
	if got := MarshalRoleProviderMap(clinical.ProvidersByRole{}); got != "" {
		t.Errorf("encoded empty map = %q", got)
	}
}
