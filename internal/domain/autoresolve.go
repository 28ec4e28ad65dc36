package domain

// PreferredSource is which side an AutoResolutionRule picks for a field.
type PreferredSource string

const (
	PreferredSourceLocal PreferredSource = "local"
	PreferredSourceExternal PreferredSource = "external"
)

// AutoResolutionRule is a policy that resolves a conflicting field without
// human input.
type AutoResolutionRule struct {
	ID string
	Name string
	EntityType EntityType
	FieldName string
	PreferredSource PreferredSource
	IsEnabled bool
	Priority int // lower wins; rules are evaluated in ascending priority order
	CreatedByID *string
}
