// internal/rules/selector.go
package rules

import "sort"

/*
 * Rule selection strategies.
 *
 * Two explicit strategies share the same matcher:
 *   - FirstMatch: assignment semantics, the single highest-precedence
 *     matching rule wins (or nil).
 *   - Accumulate: qualification semantics, every matching rule contributes,
 *     returned in evaluation order.
 *
 * Precedence is priority ascending (lower value = higher precedence) with
 * ties broken by registration sequence. Both strategies order candidates
 * themselves rather than trusting caller order, so repeated calls with the
 * same snapshot are deterministic by construction.
 */

// ByPrecedence returns a copy of the candidate set sorted by priority
// ascending, then registration sequence ascending.
func ByPrecedence(candidates []*CompiledRule) []*CompiledRule {
	ordered := make([]*CompiledRule, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Seq < ordered[j].Seq
	})
	return ordered
}

// FirstMatch returns the highest-precedence rule matching the decoded
// record, or nil when no rule matches.
func FirstMatch(doc any, candidates []*CompiledRule) *CompiledRule {
	for _, rule := range ByPrecedence(candidates) {
		if Matches(rule, doc) {
			return rule
		}
	}
	return nil
}

// Accumulate returns every rule matching the decoded record, in evaluation
// order (priority ascending, then registration order). Returns an empty
// slice when nothing matches.
func Accumulate(doc any, candidates []*CompiledRule) []*CompiledRule {
	var matched []*CompiledRule
	for _, rule := range ByPrecedence(candidates) {
		if Matches(rule, doc) {
			matched = append(matched, rule)
		}
	}
	return matched
}
