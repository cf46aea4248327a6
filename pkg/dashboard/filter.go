package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-bexpr"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// FilterFields lists the selectors a bed filter expression can reference.
var FilterFields = []string{
	"number", "status", "type", "specialty", "next_specialty",
	"reservation", "transfer", "reserved",
}

// bedFields is the datum a filter expression is evaluated against.
func bedFields(b sdk.Bed) map[string]string {
	return map[string]string{
		"number":         b.Number,
		"status":         string(b.Status),
		"type":           string(b.Type),
		"specialty":      b.PatientSpecialty,
		"next_specialty": b.NextSpecialty,
		"reservation":    b.ReservationType,
		"transfer":       strconv.FormatBool(b.TransferFlag),
		"reserved":       strconv.FormatBool(b.HasReservation()),
	}
}

// ParseWhereArgs parses key=value pairs into an equality map. Later values for
// the same key win and produce a warning.
func ParseWhereArgs(args []string) (map[string]string, []string, error) {
	where := map[string]string{}
	var warnings []string

	for _, raw := range args {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		key, val, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid filter %q (expected key=value)", raw)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, nil, fmt.Errorf("filter key cannot be empty (%q)", raw)
		}
		if !isFilterField(key) {
			return nil, nil, fmt.Errorf("unknown filter field %q (valid: %s)", key, strings.Join(FilterFields, ", "))
		}

		if _, exists := where[key]; exists {
			warnings = append(warnings, fmt.Sprintf("duplicate filter %q detected, last value wins", key))
		}
		where[key] = strings.TrimSpace(val)
	}

	return where, warnings, nil
}

// BuildFilter joins equality terms into a bexpr conjunction, sorted by key.
// An empty map yields an empty expression.
func BuildFilter(where map[string]string) string {
	if len(where) == 0 {
		return ""
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		terms = append(terms, fmt.Sprintf("%s == %s", k, strconv.Quote(where[k])))
	}
	return strings.Join(terms, " and ")
}

// CombineFilters conjoins the non-empty expressions, parenthesizing each
// when there is more than one.
func CombineFilters(exprs ...string) string {
	var parts []string
	for _, e := range exprs {
		if e = strings.TrimSpace(e); e != "" {
			parts = append(parts, "("+e+")")
		}
	}
	if len(parts) == 1 {
		return strings.TrimSuffix(strings.TrimPrefix(parts[0], "("), ")")
	}
	return strings.Join(parts, " and ")
}

func isFilterField(key string) bool {
	for _, f := range FilterFields {
		if f == key {
			return true
		}
	}
	return false
}

// filterCache memoizes compiled evaluators by expression.
type filterCache struct {
	evaluators *lru.Cache[string, *bexpr.Evaluator]
}

func newFilterCache(size int) (*filterCache, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[string, *bexpr.Evaluator](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter cache: %w", err)
	}
	return &filterCache{evaluators: c}, nil
}

func (c *filterCache) compile(expr string) (*bexpr.Evaluator, error) {
	if ev, ok := c.evaluators.Get(expr); ok {
		return ev, nil
	}
	ev, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
	}
	c.evaluators.Add(expr, ev)
	return ev, nil
}

// apply keeps the beds matching expr. An empty expression matches everything.
func (c *filterCache) apply(expr string, beds []sdk.Bed) ([]sdk.Bed, error) {
	if strings.TrimSpace(expr) == "" {
		return beds, nil
	}
	ev, err := c.compile(expr)
	if err != nil {
		return nil, err
	}
	out := make([]sdk.Bed, 0, len(beds))
	for _, b := range beds {
		ok, err := ev.Evaluate(bedFields(b))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate filter on bed %s: %w", b.Number, err)
		}
		if ok {
			out = append(out, b)
		}
	}
	return out, nil
}
