package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddvault/internal/domain"
	"caddvault/internal/filter"
	"caddvault/internal/query"
	"caddvault/internal/store"
)

func listAll() query.Request {
	return query.ToRequest(filter.DefaultCriteria(25))
}

func findByName(t *testing.T, items []domain.PackageSummary, name string) string {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return it.ID
		}
	}
	t.Fatalf("package %q not found", name)
	return ""
}

const sampleCSV = `ENTRY NAME,CODE,PUBLICATION,WEBSERVER,FOLDER1,CATEGORY1,DESCRIPTION,GITHUB_STARS,LAST_COMMIT,LICENSE,CITATIONS,JOURNAL,JIF,TAGS
AutoDock Vina,https://github.com/ccsb-scripps/AutoDock-Vina,https://doi.org/10.1002/jcc.21334,,Docking,Protein-ligand,Molecular docking engine,650,2024-01-15,Apache-2.0,31000,J Comput Chem,3.4,"docking, virtual-screening"
RDKit,https://github.com/rdkit/rdkit,,,Cheminformatics,Toolkits,Cheminformatics toolkit,2600,2024-03-02,BSD-3-Clause,5400,,,cheminformatics
`

func TestImportMapsCurationHeaders(t *testing.T) {
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	report, err := imp.Import(context.Background(), strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Failed)

	res, err := mem.ExecuteQuery(context.Background(), listAll())
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	vina, err := mem.GetPackage(context.Background(), findByName(t, res.Items, "AutoDock Vina"))
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/ccsb-scripps/AutoDock-Vina", vina.RepoLink)
	assert.Equal(t, "ccsb-scripps", vina.GithubOwner)
	assert.Equal(t, "AutoDock-Vina", vina.GithubRepo)
	assert.Equal(t, "Docking", vina.Folder)
	assert.Equal(t, "Protein-ligand", vina.Category)
	assert.Equal(t, 650, vina.GithubStars)
	assert.Equal(t, 31000, vina.Citations)
	assert.Equal(t, "J Comput Chem", vina.Journal)
	assert.InDelta(t, 3.4, vina.JIF, 1e-9)
	assert.Equal(t, []string{"docking", "virtual-screening"}, vina.Tags, "tag lists are split and trimmed")
}

func TestImportSkipsBadRowsWithoutAborting(t *testing.T) {
	csv := `ENTRY NAME,GITHUB_STARS
Good One,100
Bad Stars,lots
,50
Another Good,200
`
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, 3, report.Failed[0].Line)
	assert.Equal(t, "Bad Stars", report.Failed[0].Name)
	assert.Equal(t, 4, report.Failed[1].Line, "a nameless row is an error too")
}

func TestImportToleratesRaggedRows(t *testing.T) {
	csv := `ENTRY NAME,CODE,LICENSE
Short Row
Full Row,https://github.com/a/b,MIT
`
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Failed)
}

func TestImportIgnoresUnknownHeaders(t *testing.T) {
	csv := `ENTRY NAME,SOME FUTURE COLUMN,LICENSE
Tool,whatever,MIT
`
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
}

func TestImportParsesJSONArrayTags(t *testing.T) {
	csv := `ENTRY NAME,TAGS
Tool,"[""docking"", ""md""]"
`
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	report, err := imp.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)

	tags, err := mem.DistinctTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"docking", "md"}, tags)
}

func TestImportFailsWithoutHeader(t *testing.T) {
	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	_, err := imp.Import(context.Background(), strings.NewReader(""))
	assert.Error(t, err)
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mem := store.NewMemory()
	imp := New(mem, nil, nil)

	_, err := imp.Import(ctx, strings.NewReader(sampleCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseGithubRepo(t *testing.T) {
	cases := map[string][2]string{
		"https://github.com/rdkit/rdkit":      {"rdkit", "rdkit"},
		"https://github.com/a/b.git":          {"a", "b"},
		"https://github.com/a/b/tree/main":    {"a", "b"},
		"https://gitlab.com/group/project":    {"", ""},
		"https://github.com/loneowner":        {"", ""},
		"http://example.org/not-a-repo":       {"", ""},
		"git@github.com:owner/repo shorthand": {"", ""}, // ssh form is not a web link
	}
	for link, want := range cases {
		owner, repo := parseGithubRepo(link)
		assert.Equal(t, want[0], owner, link)
		assert.Equal(t, want[1], repo, link)
	}
}
