package query

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// GroupBy selects the grouping dimension of a query.
type GroupBy int

const (
	GroupNone GroupBy = iota
	GroupCity
	GroupState
	GroupMonth
)

func (g GroupBy) String() string {
	switch g {
	case GroupCity:
		return "city"
	case GroupState:
		return "state"
	case GroupMonth:
		return "month"
	default:
		return "none"
	}
}

// Order selects the sort direction. Descending is the default throughout.
type Order int

const (
	Descending Order = iota
	Ascending
)

func (o Order) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// Selector is a single field/operator/operand-list predicate applied to
// every transaction.
type Selector struct {
	Field  string   `json:"field"`
	Type   string   `json:"type"`
	Values []string `json:"value"`
}

// Property wraps a selector with a group-level condition. The only
// condition is "one-or-more": keep the group iff at least one member
// satisfies the selector.
type Property struct {
	Field     string   `json:"field"`
	Condition string   `json:"condition"`
	Type      string   `json:"type"`
	Values    []string `json:"value"`
}

// Options describes one query: filters, grouping, ordering, verbosity.
type Options struct {
	GroupBy    GroupBy
	Count      int // positive = truncation limit, otherwise unlimited
	Order      Order
	Verbose    bool
	Strict     bool
	Pretty     bool
	CountOnly  bool
	Selectors  []Selector
	Properties []Property
}

// Cacheable reports whether this query's output may be served from the
// result cache. Any selector or property makes the output
// request-specific.
func (o Options) Cacheable() bool {
	return len(o.Selectors) == 0 && len(o.Properties) == 0
}

// CacheKey builds the deterministic cache file name for this query.
// Signed and unsigned renderings are distinct artifacts.
func (o Options) CacheKey(signed bool) string {
	return fmt.Sprintf("%s_c%d_%s_v%d_s%d_p%d_n%d_g%d.xml",
		o.GroupBy, o.Count, o.Order,
		flag01(o.Verbose), flag01(o.Strict), flag01(o.Pretty),
		flag01(o.CountOnly), flag01(signed))
}

func flag01(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseValues builds Options from flat key/value request parameters.
// Parsing is lenient: unparsable values fall back to defaults, matching
// the behavior callers of the simple interface have always relied on.
func ParseValues(values url.Values) Options {
	opts := Options{}

	switch strings.ToLower(values.Get("group_by")) {
	case "city", "cities":
		opts.GroupBy = GroupCity
	case "state", "states":
		opts.GroupBy = GroupState
	case "month", "months":
		opts.GroupBy = GroupMonth
	}

	if v := values.Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Count = n
		}
	}
	if strings.EqualFold(values.Get("order"), "ascending") {
		opts.Order = Ascending
	}

	opts.Verbose = parseFlag(values.Get("verbose"))
	opts.Strict = parseFlag(values.Get("strict"))
	opts.Pretty = parseFlag(values.Get("pretty"))
	opts.CountOnly = parseFlag(values.Get("count_only"))

	return opts
}

// queryDocument is the structured request body of POST /transactions/query.
type queryDocument struct {
	GroupBy    string     `json:"group_by"`
	Count      *int       `json:"count"`
	Order      string     `json:"order"`
	Verbose    bool       `json:"verbose"`
	Strict     bool       `json:"strict"`
	Pretty     bool       `json:"pretty"`
	CountOnly  bool       `json:"count_only"`
	Selectors  []Selector `json:"selectors"`
	Properties []Property `json:"properties"`
}

// ParseDocument builds Options from a structured JSON document. Unlike the
// flat interface, malformed documents are rejected with a descriptive
// validation error before any data is scanned.
func ParseDocument(r io.Reader) (Options, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc queryDocument
	if err := dec.Decode(&doc); err != nil {
		return Options{}, validationf("Malformed query document: %v!", err)
	}

	opts := Options{
		Verbose:    doc.Verbose,
		Strict:     doc.Strict,
		Pretty:     doc.Pretty,
		CountOnly:  doc.CountOnly,
		Selectors:  doc.Selectors,
		Properties: doc.Properties,
	}

	switch strings.ToLower(doc.GroupBy) {
	case "", "none":
		opts.GroupBy = GroupNone
	case "city", "cities":
		opts.GroupBy = GroupCity
	case "state", "states":
		opts.GroupBy = GroupState
	case "month", "months":
		opts.GroupBy = GroupMonth
	default:
		return Options{}, validationf("Unknown grouping dimension %q!", doc.GroupBy)
	}

	if doc.Count != nil {
		if *doc.Count <= 0 {
			return Options{}, validationf("Count must be a positive integer!")
		}
		opts.Count = *doc.Count
	}

	switch strings.ToLower(doc.Order) {
	case "", "descending":
		opts.Order = Descending
	case "ascending":
		opts.Order = Ascending
	default:
		return Options{}, validationf("Unknown order %q!", doc.Order)
	}

	return opts, nil
}

// parseFlag interprets the boolean forms accepted on the query string.
func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
