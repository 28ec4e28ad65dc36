package sync

import "github.com/novuscrm/syncwork/internal/domain"

// resolvableFields is the security-critical field whitelist: only
// these attribute names may be written to a local entity by a conflict
// resolution, regardless of what a board payload claims. id,
// _sa_instance_state, created_at, and updated_at are never resolvable —
// the omission below is what enforces that (see isResolvable).
var resolvableFields = map[domain.EntityType]map[string]bool{
	domain.EntityTypeContact: {
 "name": true,
 "email": true,
 "phone": true,
	},
	domain.EntityTypeOrganization: {
 "name": true,
 "status": true,
	},
}

// forbiddenFields are never writable by a resolution even if a future
// entity type's whitelist is misconfigured to include them.
var forbiddenFields = map[string]bool{
	"id": true,
	"_sa_instance_state": true,
	"created_at": true,
	"updated_at": true,
}

// isResolvable reports whether field may be written by a conflict
// resolution for entityType. A field absent from the positive whitelist,
// or present in forbiddenFields, is skipped by the caller — never errored.
// Resolve and the ingress update path skip it silently; Detect logs a
// warning and leaves the field in the conflict.
func isResolvable(entityType domain.EntityType, field string) bool {
	if forbiddenFields[field] {
 return false
	}
	return resolvableFields[entityType][field]
}

// unwrapValue extracts the scalar component of a composite board column
// value (e.g. {"email": "a@b.com", "text": "a@b.com"} -> "a@b.com"), or
// returns plain scalars unchanged.
func unwrapValue(field string, value any) any {
	composite, ok:= value.(map[string]any)
	if !ok {
 return value
	}
	if scalar, ok:= composite[field]; ok {
 return scalar
	}
	if scalar, ok:= composite["label"]; ok {
 return scalar
	}
	return value
}
