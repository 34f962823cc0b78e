// internal/rules/fieldpath.go
package rules

import (
	"strconv"
	"strings"

	"github.com/kylasweb/inline-crm-rules/internal/types"
)

/*
 * Field path parsing and resolution for record payloads.
 *
 * Condition fields are dotted paths into the record JSON, with optional
 * array indices: "email", "company.employees", "contacts[0].phone".
 * Paths are parsed once at rule registration (ParseFieldPath) and resolved
 * against the decoded record on every evaluation (ResolveField).
 *
 * Resolution never errors: an unknown key, an out-of-range index, a scalar
 * where the path continues, or a null intermediate all report found=false,
 * which the matcher treats as a non-matching condition.
 */

// PathSegment represents one component of a field path.
// Key for object members, Index for array elements.
type PathSegment struct {
	Key     string // object key (mutually exclusive with Index)
	Index   int    // array index
	IsIndex bool   // disambiguates Index=0 from unset
}

// ParseFieldPath parses a dotted field expression into path segments.
// Enforces MaxFieldPathDepth; rejects empty segments and malformed indices
// so bad paths fail at rule registration, not during evaluation.
func ParseFieldPath(field string) ([]PathSegment, error) {
	if strings.TrimSpace(field) == "" {
		return nil, types.ErrEmptyField
	}

	var segments []PathSegment
	for _, part := range strings.Split(field, ".") {
		if part == "" {
			return nil, types.ErrEmptyField
		}

		key := part
		var indices []int
		// Peel trailing [n] index suffixes: "contacts[0]" -> "contacts", 0
		for strings.HasSuffix(key, "]") {
			open := strings.LastIndex(key, "[")
			if open < 0 {
				return nil, types.ErrEmptyField
			}
			idx, err := strconv.Atoi(key[open+1 : len(key)-1])
			if err != nil || idx < 0 {
				return nil, types.ErrEmptyField
			}
			indices = append([]int{idx}, indices...)
			key = key[:open]
		}

		if key == "" && len(indices) == 0 {
			return nil, types.ErrEmptyField
		}
		if key != "" {
			segments = append(segments, PathSegment{Key: key})
		}
		for _, idx := range indices {
			segments = append(segments, PathSegment{Index: idx, IsIndex: true})
		}
	}

	if len(segments) > types.MaxFieldPathDepth {
		return nil, types.ErrPathTooDeep
	}
	return segments, nil
}

// ResolveField traverses the decoded record following path segments.
// Returns the value at the path and whether the path resolved.
func ResolveField(doc any, path []PathSegment) (any, bool) {
	current := doc
	for _, seg := range path {
		switch v := current.(type) {
		case map[string]any:
			if seg.IsIndex {
				// Cannot index into object with integer
				return nil, false
			}
			val, ok := v[seg.Key]
			if !ok {
				return nil, false
			}
			current = val
		case []any:
			if !seg.IsIndex {
				// Cannot use string key on array
				return nil, false
			}
			if seg.Index < 0 || seg.Index >= len(v) {
				return nil, false
			}
			current = v[seg.Index]
		default:
			// Scalar or null but path continues
			return nil, false
		}
	}
	return current, true
}
