// Package summary defines the domain-summary record model shared by the
// columnar store and the streaming fallback filter.
//
// Both query paths compile a Predicate against a schema and evaluate the
// resulting BoundPredicate record by record, so the fast and slow paths
// cannot drift apart.
package summary

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrNoKeywordColumn is returned when a keyword is given without a column to
// match it against.
var ErrNoKeywordColumn = errors.New("summary: keyword requires a keyword column")

// ColumnError reports a column required by the predicate or key spec that is
// absent from the schema.
type ColumnError struct {
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("summary: column %q not in schema", e.Column)
}

// KeySpec names the filter-key column and, optionally, how to derive it when
// the source schema lacks it.
type KeySpec struct {
	// Column is the key column name, e.g. "uniprot_acc".
	Column string

	// DeriveFrom names the column the key is derived from when Column is
	// absent from the schema.
	DeriveFrom string

	// Pattern extracts the key from the DeriveFrom value; the first capture
	// group is the key. A non-matching value derives the empty string.
	// When nil, the DeriveFrom value is used as-is.
	Pattern *regexp.Regexp
}

// Derive extracts the key from a source value.
func (k KeySpec) Derive(v string) string {
	if k.Pattern == nil {
		return v
	}
	m := k.Pattern.FindStringSubmatch(v)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Predicate is the filter specification applied by both query paths:
// key membership in IDs, optionally AND a keyword substring match.
type Predicate struct {
	// IDs is the target key set. Matching is exact and case-sensitive;
	// duplicates are ignored. An empty set matches no records.
	IDs []string

	// Keyword, when non-empty, additionally requires the KeywordColumn
	// value to contain it as a substring.
	Keyword string

	// KeywordColumn names the column Keyword is matched against.
	// Required when Keyword is set.
	KeywordColumn string

	// Fold enables case-insensitive keyword matching.
	// The default is case-sensitive containment.
	Fold bool
}

// Bind compiles the predicate against a schema.
//
// The key column is resolved through spec: if spec.Column is present in the
// schema it is used directly; otherwise the key is derived per record from
// spec.DeriveFrom. In the derived case Appends reports true and matching
// records carry the derived key as an extra trailing column, mirroring what
// the store builder materializes.
func (p Predicate) Bind(schema []string, spec KeySpec) (*BoundPredicate, error) {
	bp := &BoundPredicate{
		ids:       make(map[string]struct{}, len(p.IDs)),
		keyword:   p.Keyword,
		fold:      p.Fold,
		keyIdx:    -1,
		kwIdx:     -1,
		deriveIdx: -1,
	}
	for _, id := range p.IDs {
		bp.ids[id] = struct{}{}
	}
	if p.Fold {
		bp.keyword = strings.ToLower(p.Keyword)
	}

	idx := make(map[string]int, len(schema))
	for i, c := range schema {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}

	if i, ok := idx[spec.Column]; ok {
		bp.keyIdx = i
	} else if spec.DeriveFrom != "" {
		i, ok := idx[spec.DeriveFrom]
		if !ok {
			return nil, &ColumnError{Column: spec.DeriveFrom}
		}
		bp.deriveIdx = i
		bp.derive = spec.Derive
	} else {
		return nil, &ColumnError{Column: spec.Column}
	}

	if p.Keyword != "" {
		if p.KeywordColumn == "" {
			return nil, ErrNoKeywordColumn
		}
		i, ok := idx[p.KeywordColumn]
		if !ok {
			return nil, &ColumnError{Column: p.KeywordColumn}
		}
		bp.kwIdx = i
	}
	return bp, nil
}

// BoundPredicate is a Predicate compiled against a concrete schema.
type BoundPredicate struct {
	ids       map[string]struct{}
	keyword   string
	fold      bool
	keyIdx    int
	kwIdx     int
	deriveIdx int
	derive    func(string) string
}

// Appends reports whether matching records carry a derived key column
// appended after the source columns.
func (bp *BoundPredicate) Appends() bool { return bp.keyIdx < 0 }

// KeyIndex returns the schema index of the key column, or -1 when the key
// is derived per record.
func (bp *BoundPredicate) KeyIndex() int { return bp.keyIdx }

// KeywordIndex returns the schema index of the keyword column, or -1 when
// no keyword is set.
func (bp *BoundPredicate) KeywordIndex() int { return bp.kwIdx }

// Empty reports whether the target set is empty. An empty set matches no
// records; callers can skip scanning entirely.
func (bp *BoundPredicate) Empty() bool { return len(bp.ids) == 0 }

// Key returns the key value for a record.
func (bp *BoundPredicate) Key(fields []string) string {
	if bp.keyIdx >= 0 {
		return fields[bp.keyIdx]
	}
	return bp.derive(fields[bp.deriveIdx])
}

// MatchKey reports whether key is in the target set.
func (bp *BoundPredicate) MatchKey(key string) bool {
	_, ok := bp.ids[key]
	return ok
}

// MatchKeyword applies the keyword predicate to a record.
// Records always match when no keyword is set.
func (bp *BoundPredicate) MatchKeyword(fields []string) bool {
	if bp.kwIdx < 0 {
		return true
	}
	return bp.MatchKeywordValue(fields[bp.kwIdx])
}

// MatchKeywordValue applies the keyword predicate to a bare column value,
// for callers that decode the keyword column separately.
func (bp *BoundPredicate) MatchKeywordValue(v string) bool {
	if bp.kwIdx < 0 {
		return true
	}
	if bp.fold {
		v = strings.ToLower(v)
	}
	return strings.Contains(v, bp.keyword)
}

// Match applies the full predicate to a record.
func (bp *BoundPredicate) Match(fields []string) bool {
	return bp.MatchKey(bp.Key(fields)) && bp.MatchKeyword(fields)
}

// SortedIDs returns the target keys in ascending order, for range pruning.
func (bp *BoundPredicate) SortedIDs() []string {
	out := make([]string, 0, len(bp.ids))
	for id := range bp.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
