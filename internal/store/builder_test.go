package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddvault/internal/filter"
	"caddvault/internal/query"
)

func build(t *testing.T, c filter.Criteria) (string, string, []any) {
	t.Helper()
	pageSQL, countSQL, args, err := BuildSelect(query.ToRequest(c))
	require.NoError(t, err)
	return pageSQL, countSQL, args
}

func TestBuildSelectNoFilters(t *testing.T) {
	pageSQL, countSQL, args := build(t, filter.DefaultCriteria(25))

	assert.NotContains(t, pageSQL, "WHERE")
	assert.Contains(t, pageSQL, "ORDER BY p.name, p.id")
	assert.Contains(t, pageSQL, "OFFSET 0 LIMIT 25")
	assert.Equal(t, "SELECT COUNT(*) "+summaryFrom, countSQL)
	assert.Empty(t, args)
}

func TestBuildSelectSearchExpandsToNameOrDescription(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SearchTerm = "vina"

	pageSQL, countSQL, args := build(t, c)

	assert.Contains(t, pageSQL, `(p.name ILIKE $1 ESCAPE '\' OR p.description ILIKE $1 ESCAPE '\')`)
	assert.Contains(t, countSQL, `p.name ILIKE $1`)
	assert.Equal(t, []any{"%vina%"}, args)
}

func TestBuildSelectEscapesLikeMetacharacters(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SearchTerm = `50%_\done`

	_, _, args := build(t, c)
	require.Len(t, args, 1)
	assert.Equal(t, `%50\%\_\\done%`, args[0])
}

func TestBuildSelectTagContainment(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SelectedTags = []string{"md", "gpu"}

	pageSQL, _, args := build(t, c)

	assert.Contains(t, pageSQL, "HAVING COUNT(DISTINCT t.name) = 2",
		"every selected tag must be present, not just any")
	assert.Contains(t, pageSQL, "t.name IN ($1, $2)")
	assert.Equal(t, []any{"gpu", "md"}, args, "operands arrive sorted from the translator")
}

func TestBuildSelectLicenseInList(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SelectedLicenses = []string{"MIT", "Apache-2.0"}

	pageSQL, _, args := build(t, c)
	assert.Contains(t, pageSQL, "p.license IN ($1, $2)")
	assert.Equal(t, []any{"Apache-2.0", "MIT"}, args)
}

func TestBuildSelectNumericBoundsUseNativeTypes(t *testing.T) {
	stars := 100
	rating := 3.5
	c := filter.DefaultCriteria(25)
	c.MinStars = &stars
	c.MinRating = &rating

	pageSQL, _, args := build(t, c)

	assert.Contains(t, pageSQL, "p.github_stars >= $1")
	assert.Contains(t, pageSQL, "p.average_rating >= $2")
	require.Len(t, args, 2)
	assert.Equal(t, 100, args[0], "integer columns get integer operands")
	assert.Equal(t, 3.5, args[1])
}

func TestBuildSelectPresenceChecksEmptyToo(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.HasGithub = true

	pageSQL, _, args := build(t, c)
	assert.Contains(t, pageSQL, "(p.repo_link IS NOT NULL AND p.repo_link <> '')")
	assert.Empty(t, args)
}

func TestBuildSelectFolderCategoryUseClassificationAlias(t *testing.T) {
	folder := "Docking"
	category := "Protein-ligand"
	c := filter.DefaultCriteria(25)
	c.Folder = &folder
	c.Category = &category

	pageSQL, _, args := build(t, c)
	assert.Contains(t, pageSQL, "fc.folder = $1")
	assert.Contains(t, pageSQL, "fc.category = $2")
	assert.Equal(t, []any{"Docking", "Protein-ligand"}, args)
}

func TestBuildSelectClausesAreConjoined(t *testing.T) {
	stars := 10
	c := filter.DefaultCriteria(25)
	c.SearchTerm = "dock"
	c.MinStars = &stars
	c.HasGithub = true

	pageSQL, _, _ := build(t, c)
	where := pageSQL[strings.Index(pageSQL, "WHERE"):strings.Index(pageSQL, "ORDER BY")]
	assert.Equal(t, 2, strings.Count(where, " AND "))
}

func TestBuildSelectDescendingSortsPushNullsLast(t *testing.T) {
	sortKey := "rating"
	c := filter.DefaultCriteria(25)
	c.SortBy = &sortKey
	c.SortDirection = filter.SortDesc

	pageSQL, _, _ := build(t, c)
	assert.Contains(t, pageSQL, "ORDER BY p.average_rating DESC NULLS LAST, p.id")
}

func TestBuildSelectOffsetFollowsPage(t *testing.T) {
	c := filter.DefaultCriteria(10)
	c.CurrentPage = 3

	pageSQL, _, _ := build(t, c)
	assert.Contains(t, pageSQL, "OFFSET 20 LIMIT 10")
}

func TestBuildSelectRejectsAllOfOnOtherFields(t *testing.T) {
	req := query.Request{
		Table:      query.PackagesTable,
		Predicates: []query.Predicate{{Field: "license", Op: query.OpAllOf, Values: []string{"MIT"}}},
		Limit:      25,
	}
	_, _, _, err := BuildSelect(req)
	assert.Error(t, err)
}

func TestBuildSelectRejectsBadNumericBound(t *testing.T) {
	req := query.Request{
		Table:      query.PackagesTable,
		Predicates: []query.Predicate{{Field: "github_stars", Op: query.OpGte, Value: "lots"}},
		Limit:      25,
	}
	_, _, _, err := BuildSelect(req)
	assert.Error(t, err)
}

func TestBuildSelectCountSharesArguments(t *testing.T) {
	c := filter.DefaultCriteria(25)
	c.SearchTerm = "dock"
	c.SelectedLicenses = []string{"MIT"}

	pageSQL, countSQL, args := build(t, c)

	// Same WHERE text in both statements, one shared argument list.
	pageWhere := pageSQL[strings.Index(pageSQL, "WHERE"):strings.Index(pageSQL, " ORDER BY")]
	assert.Contains(t, countSQL, pageWhere)
	assert.Len(t, args, 2)
	assert.NotContains(t, countSQL, "ORDER BY", "the count does not pay for sorting")
}
