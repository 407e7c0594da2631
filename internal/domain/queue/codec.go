package queue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openshr/xds-repository/internal/domain/clinical"
)

// ErrMalformedRoleProviderMap is wrapped into the error returned for
// encoded maps that fail grammar validation.
var ErrMalformedRoleProviderMap = errors.New("malformed role provider map")

// roleProviderMapPattern validates the encoded map grammar:
// roleId:providerId(,providerId)* entries joined by "|", all ids numeric.
var roleProviderMapPattern = regexp.MustCompile(`^(?:\d+:\d+(?:,\d+)*)(?:\|(?:\d+:\d+(?:,\d+)*))*$`)

// MarshalRoleProviderMap encodes a provider-by-role assignment as
// "roleId:providerId,providerId|roleId:providerId". Entries are ordered by
// role id so the encoding is deterministic.
func MarshalRoleProviderMap(byRole clinical.ProvidersByRole) string {
	roles := make([]clinical.EncounterRole, 0, len(byRole))
	for role := range byRole {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })

	entries := make([]string, 0, len(roles))
	for _, role := range roles {
		ids := make([]string, 0, len(byRole[role]))
		for _, p := range byRole[role] {
			ids = append(ids, strconv.FormatInt(p.ID, 10))
		}
		entries = append(entries, strconv.FormatInt(role.ID, 10)+":"+strings.Join(ids, ","))
	}
	return strings.Join(entries, "|")
}

// HydrateRoleProviderMap decodes an encoded map and resolves every id back
// to its record. The grammar is validated up front so a malformed map fails
// before any lookup.
func HydrateRoleProviderMap(ctx context.Context, store *clinical.Store, raw string) (clinical.ProvidersByRole, error) {
	if !roleProviderMapPattern.MatchString(raw) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRoleProviderMap, raw)
	}

	byRole := clinical.ProvidersByRole{}
	for _, entry := range strings.Split(raw, "|") {
		parts := strings.SplitN(entry, ":", 2)
		roleID, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRoleProviderMap, raw)
		}
		role, err := store.Roles.GetByID(ctx, roleID)
		if err != nil {
			return nil, fmt.Errorf("could not fetch encounter role with id: %d", roleID)
		}

		for _, idStr := range strings.Split(parts[1], ",") {
			providerID, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrMalformedRoleProviderMap, raw)
			}
			provider, err := store.Providers.GetByID(ctx, providerID)
			if err != nil {
				return nil, fmt.Errorf("could not fetch provider with id: %d", providerID)
			}
			byRole.Add(*role, provider)
		}
	}
	return byRole, nil
}
