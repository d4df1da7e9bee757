package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddvault/internal/filter"
)

func TestToRequestIsPure(t *testing.T) {
	stars := 100
	c := filter.DefaultCriteria(25)
	c.SearchTerm = "docking"
	c.SelectedTags = []string{"md", "gpu"}
	c.MinStars = &stars
	c.CurrentPage = 3

	first := ToRequest(c)
	second := ToRequest(c)

	assert.Equal(t, first, second, "same criteria must produce structurally equal requests")
	assert.Equal(t, SignatureOf(first), SignatureOf(second))
}

func TestToRequestDefaults(t *testing.T) {
	req := ToRequest(filter.DefaultCriteria(25))

	assert.Equal(t, PackagesTable, req.Table)
	assert.Empty(t, req.Predicates)
	assert.True(t, req.WithCount)
	assert.Equal(t, 0, req.Offset)
	assert.Equal(t, 25, req.Limit)
	require.Len(t, req.OrderBy, 2)
	assert.Equal(t, Ordering{Field: "name"}, req.OrderBy[0])
	assert.Equal(t, Ordering{Field: "id"}, req.OrderBy[1], "id tie-break keeps pagination stable")
}

func TestToRequestOffsetMath(t *testing.T) {
	c := filter.DefaultCriteria(10)
	c.CurrentPage = 4

	req := ToRequest(c)
	assert.Equal(t, 30, req.Offset)
	assert.Equal(t, 10, req.Limit)
}

func TestToRequestSearchTermTrimmed(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SearchTerm = "  vina  "

	req := ToRequest(c)
	require.Len(t, req.Predicates, 1)
	assert.Equal(t, Predicate{Field: FieldText, Op: OpContains, Value: "vina"}, req.Predicates[0])

	c.SearchTerm = "   "
	assert.Empty(t, ToRequest(c).Predicates, "whitespace-only search is no predicate")
}

func TestToRequestPredicates(t *testing.T) {
	stars := 100
	cites := 500
	rating := 3.5
	folder := "Docking"
	category := "Protein-ligand"

	c := filter.DefaultCriteria(25)
	c.SelectedTags = []string{"md", "gpu"}
	c.SelectedLicenses = []string{"MIT", "Apache-2.0"}
	c.MinStars = &stars
	c.MinCitations = &cites
	c.MinRating = &rating
	c.HasGithub = true
	c.HasWebserver = true
	c.HasPublication = true
	c.Folder = &folder
	c.Category = &category

	req := ToRequest(c)

	assert.Contains(t, req.Predicates, Predicate{Field: "tags", Op: OpAllOf, Values: []string{"gpu", "md"}})
	assert.Contains(t, req.Predicates, Predicate{Field: "license", Op: OpAnyOf, Values: []string{"Apache-2.0", "MIT"}})
	assert.Contains(t, req.Predicates, Predicate{Field: "github_stars", Op: OpGte, Value: "100"})
	assert.Contains(t, req.Predicates, Predicate{Field: "citations", Op: OpGte, Value: "500"})
	assert.Contains(t, req.Predicates, Predicate{Field: "average_rating", Op: OpGte, Value: "3.5"})
	assert.Contains(t, req.Predicates, Predicate{Field: "repo_link", Op: OpNotNull})
	assert.Contains(t, req.Predicates, Predicate{Field: "webserver_link", Op: OpNotNull})
	assert.Contains(t, req.Predicates, Predicate{Field: "publication_url", Op: OpNotNull})
	assert.Contains(t, req.Predicates, Predicate{Field: "folder", Op: OpEq, Value: "Docking"})
	assert.Contains(t, req.Predicates, Predicate{Field: "category", Op: OpEq, Value: "Protein-ligand"})
}

func TestToRequestCategoryRequiresFolder(t *testing.T) {
	category := "Protein-ligand"
	c := filter.DefaultCriteria(25)
	c.Category = &category // no folder

	for _, p := range ToRequest(c).Predicates {
		assert.NotEqual(t, "category", p.Field, "category without folder must not reach the store")
	}
}

func TestToRequestSortMapping(t *testing.T) {
	cases := map[string]string{
		"name":        "name",
		"stars":       "github_stars",
		"citations":   "citations",
		"rating":      "average_rating",
		"last_commit": "last_commit",
		"bogus":       "name", // unknown keys fall back
	}

	for key, column := range cases {
		key, column := key, column
		t.Run(key, func(t *testing.T) {
			c := filter.DefaultCriteria(25)
			c.SortBy = &key
			c.SortDirection = filter.SortDesc

			req := ToRequest(c)
			require.NotEmpty(t, req.OrderBy)
			assert.Equal(t, column, req.OrderBy[0].Field)
			assert.True(t, req.OrderBy[0].Descending)
			assert.Equal(t, Ordering{Field: "id"}, req.OrderBy[len(req.OrderBy)-1])
		})
	}
}

func TestSignatureInsensitiveToTagOrder(t *testing.T) {
	a := filter.DefaultCriteria(25)
	a.SelectedTags = []string{"docking", "gpu", "md"}

	b := filter.DefaultCriteria(25)
	b.SelectedTags = []string{"md", "docking", "gpu"}

	assert.Equal(t, ComputeSignature(a), ComputeSignature(b),
		"tag selection order is presentation only")
}

func TestSignatureChangesWithMeaning(t *testing.T) {
	base := filter.DefaultCriteria(25)
	baseSig := ComputeSignature(base)

	paged := base
	paged.CurrentPage = 2
	assert.NotEqual(t, baseSig, ComputeSignature(paged), "page is part of the signature")

	searched := base
	searched.SearchTerm = "vina"
	assert.NotEqual(t, baseSig, ComputeSignature(searched))

	sorted := base
	sorted.SortDirection = filter.SortDesc
	assert.NotEqual(t, baseSig, ComputeSignature(sorted))
}

func TestSignatureOfSortsPredicates(t *testing.T) {
	a := Request{
		Table: PackagesTable,
		Predicates: []Predicate{
			{Field: "license", Op: OpAnyOf, Values: []string{"MIT"}},
			{Field: "folder", Op: OpEq, Value: "Docking"},
		},
		Limit: 25,
	}
	b := Request{
		Table: PackagesTable,
		Predicates: []Predicate{
			{Field: "folder", Op: OpEq, Value: "Docking"},
			{Field: "license", Op: OpAnyOf, Values: []string{"MIT"}},
		},
		Limit: 25,
	}

	assert.Equal(t, SignatureOf(a), SignatureOf(b))
}
