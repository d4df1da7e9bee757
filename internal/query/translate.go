// Package query turns filter criteria into remote query requests. Everything
// here is pure: the same criteria always produce the same request and the
// same signature, which is what makes stale-response detection reliable.
package query

import (
	"sort"
	"strconv"
	"strings"

	"caddvault/internal/filter"
)

// Op is a predicate operator understood by the remote store.
type Op string

const (
	OpContains Op = "contains" // case-insensitive substring
	OpGte      Op = "gte"      // inclusive lower bound
	OpEq       Op = "eq"       // exact match
	OpNotNull  Op = "not_null" // optional field is present
	OpAnyOf    Op = "any_of"   // field matches any of Values
	OpAllOf    Op = "all_of"   // row carries every one of Values (join table)
)

// FieldText is a virtual field: a contains-predicate against it matches name
// OR description.
const FieldText = "text"

// Predicate is one (field, operator, value) filter triple. Set-valued
// operators use Values; scalar operators use Value.
type Predicate struct {
	Field  string
	Op     Op
	Value  string
	Values []string
}

// Ordering is one sort term.
type Ordering struct {
	Field      string
	Descending bool
}

// Request is a complete remote query: predicates, ordering and a page window.
type Request struct {
	Table      string
	Predicates []Predicate
	OrderBy    []Ordering
	Offset     int
	Limit      int
	WithCount  bool // ask for the exact total row count alongside the page
}

// Signature is a deterministic fingerprint of a Request, used to correlate
// fetch responses with the criteria that requested them.
type Signature string

// sortable maps criteria sort keys to store columns. Unknown keys fall back
// to the default name ordering.
var sortable = map[string]string{
	"name":          "name",
	"stars":         "github_stars",
	"citations":     "citations",
	"rating":        "average_rating",
	"last_commit":   "last_commit",
	"ratings_count": "ratings_count",
}

// PackagesTable is the entity the list view queries.
const PackagesTable = "packages"

// ToRequest translates filter criteria into a remote query request.
func ToRequest(c filter.Criteria) Request {
	req := Request{
		Table:     PackagesTable,
		WithCount: true,
	}

	if term := strings.TrimSpace(c.SearchTerm); term != "" {
		req.Predicates = append(req.Predicates, Predicate{Field: FieldText, Op: OpContains, Value: term})
	}

	if len(c.SelectedTags) > 0 {
		req.Predicates = append(req.Predicates, Predicate{Field: "tags", Op: OpAllOf, Values: sortedCopy(c.SelectedTags)})
	}
	if len(c.SelectedLicenses) > 0 {
		req.Predicates = append(req.Predicates, Predicate{Field: "license", Op: OpAnyOf, Values: sortedCopy(c.SelectedLicenses)})
	}

	if c.MinStars != nil {
		req.Predicates = append(req.Predicates, Predicate{Field: "github_stars", Op: OpGte, Value: strconv.Itoa(*c.MinStars)})
	}
	if c.MinCitations != nil {
		req.Predicates = append(req.Predicates, Predicate{Field: "citations", Op: OpGte, Value: strconv.Itoa(*c.MinCitations)})
	}
	if c.MinRating != nil {
		req.Predicates = append(req.Predicates, Predicate{Field: "average_rating", Op: OpGte, Value: strconv.FormatFloat(*c.MinRating, 'g', -1, 64)})
	}

	if c.HasGithub {
		req.Predicates = append(req.Predicates, Predicate{Field: "repo_link", Op: OpNotNull})
	}
	if c.HasWebserver {
		req.Predicates = append(req.Predicates, Predicate{Field: "webserver_link", Op: OpNotNull})
	}
	if c.HasPublication {
		req.Predicates = append(req.Predicates, Predicate{Field: "publication_url", Op: OpNotNull})
	}

	if c.Folder != nil {
		req.Predicates = append(req.Predicates, Predicate{Field: "folder", Op: OpEq, Value: *c.Folder})
		if c.Category != nil {
			req.Predicates = append(req.Predicates, Predicate{Field: "category", Op: OpEq, Value: *c.Category})
		}
	}

	req.OrderBy = ordering(c)

	page := c.CurrentPage
	if page < 1 {
		page = 1
	}
	size := c.PageSize
	if size <= 0 {
		size = filter.DefaultPageSize
	}
	req.Offset = (page - 1) * size
	req.Limit = size

	return req
}

// ordering resolves the sort key, falling back to name ascending, and always
// appends id as a tie-break so equal keys have a stable order across pages.
func ordering(c filter.Criteria) []Ordering {
	column := "name"
	if c.SortBy != nil {
		if mapped, ok := sortable[*c.SortBy]; ok {
			column = mapped
		}
	}
	terms := []Ordering{{Field: column, Descending: c.SortDirection == filter.SortDesc}}
	if column != "id" {
		terms = append(terms, Ordering{Field: "id"})
	}
	return terms
}

// ComputeSignature derives the signature for criteria in one step.
func ComputeSignature(c filter.Criteria) Signature {
	return SignatureOf(ToRequest(c))
}

// SignatureOf serializes a request into its canonical signature. Predicates
// are sorted and set operands are already sorted by ToRequest, so criteria
// that mean the same thing always collide.
func SignatureOf(req Request) Signature {
	preds := append([]Predicate(nil), req.Predicates...)
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].Field != preds[j].Field {
			return preds[i].Field < preds[j].Field
		}
		return preds[i].Op < preds[j].Op
	})

	var b strings.Builder
	b.WriteString(req.Table)
	for _, p := range preds {
		b.WriteByte('|')
		b.WriteString(p.Field)
		b.WriteByte(':')
		b.WriteString(string(p.Op))
		b.WriteByte(':')
		if len(p.Values) > 0 {
			b.WriteString(strings.Join(p.Values, ","))
		} else {
			b.WriteString(p.Value)
		}
	}
	b.WriteString("|order:")
	for i, o := range req.OrderBy {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(o.Field)
		if o.Descending {
			b.WriteString(" desc")
		}
	}
	b.WriteString("|offset:")
	b.WriteString(strconv.Itoa(req.Offset))
	b.WriteString("|limit:")
	b.WriteString(strconv.Itoa(req.Limit))
	return Signature(b.String())
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
