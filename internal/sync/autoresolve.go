package sync

import "github.com/novuscrm/syncwork/internal/domain"

// applyRule returns the value a rule picks for a field, choosing the local
// or external side of the conflict per rule.PreferredSource.
func applyRule(rule domain.AutoResolutionRule, npdValue, externalValue any) any {
	if rule.PreferredSource == domain.PreferredSourceLocal {
		return npdValue
	}
	return externalValue
}

// findRule returns the first enabled rule matching field, or nil. Rules
// must already be sorted ascending by priority (RuleRepository.ListEnabled).
func findRule(rules []domain.AutoResolutionRule, field string) *domain.AutoResolutionRule {
	for i := range rules {
		if rules[i].FieldName == field {
			return &rules[i]
		}
	}
	return nil
}
