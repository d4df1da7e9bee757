package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddvault/internal/domain"
)

func facetsWith(folders map[string][]string) domain.FacetMetadata {
	names := make([]string, 0, len(folders))
	for f := range folders {
		names = append(names, f)
	}
	return domain.FacetMetadata{Folders: names, Categories: folders}
}

func TestDefaultCriteria(t *testing.T) {
	c := DefaultCriteria(0)
	assert.Equal(t, DefaultPageSize, c.PageSize)
	assert.Equal(t, 1, c.CurrentPage)
	assert.Equal(t, SortAsc, c.SortDirection)
	assert.Empty(t, c.SelectedTags)
}

func TestEveryFilterChangeResetsPage(t *testing.T) {
	facets := facetsWith(map[string][]string{"Docking": {"Protein-ligand"}})
	folder := "Docking"
	category := "Protein-ligand"
	stars := 100
	rating := 3.5
	sortKey := "stars"

	changes := map[string]func(s *Store){
		"search":       func(s *Store) { s.SetSearchTerm("vina") },
		"tag":          func(s *Store) { s.ToggleTag("docking") },
		"license":      func(s *Store) { s.ToggleLicense("MIT") },
		"minStars":     func(s *Store) { s.SetMinStars(&stars) },
		"minCitations": func(s *Store) { s.SetMinCitations(&stars) },
		"minRating":    func(s *Store) { s.SetMinRating(&rating) },
		"hasGithub":    func(s *Store) { s.SetHasGithub(true) },
		"hasWeb":       func(s *Store) { s.SetHasWebserver(true) },
		"hasPub":       func(s *Store) { s.SetHasPublication(true) },
		"folder":       func(s *Store) { s.SetFolder(&folder, facets) },
		"category": func(s *Store) {
			s.SetFolder(&folder, facets)
			s.SetCategory(&category)
		},
		"sort": func(s *Store) { s.SetSort(&sortKey, SortDesc) },
		"commitSearch": func(s *Store) {
			token := s.TypeSearch("autodock")
			s.CommitSearch(token)
		},
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			s := NewStore(25)
			s.SetPage(7)
			require.Equal(t, 7, s.Criteria().CurrentPage)

			change(s)
			assert.Equal(t, 1, s.Criteria().CurrentPage, "filter change must return to page 1")
		})
	}
}

func TestPaginationDoesNotTouchFilters(t *testing.T) {
	s := NewStore(25)
	s.ToggleTag("docking")
	before := s.Criteria()

	s.NextPage()
	s.NextPage()
	s.PrevPage()

	after := s.Criteria()
	assert.Equal(t, 2, after.CurrentPage)
	assert.Equal(t, before.SelectedTags, after.SelectedTags)
	assert.Equal(t, before.SearchTerm, after.SearchTerm)
}

func TestPrevPageStopsAtFirst(t *testing.T) {
	s := NewStore(25)
	s.PrevPage()
	assert.Equal(t, 1, s.Criteria().CurrentPage)
}

func TestToggleTagAddsAndRemoves(t *testing.T) {
	s := NewStore(25)
	s.ToggleTag("docking")
	s.ToggleTag("md")
	assert.Equal(t, []string{"docking", "md"}, s.Criteria().SelectedTags)

	s.ToggleTag("docking")
	assert.Equal(t, []string{"md"}, s.Criteria().SelectedTags)
}

func TestCriteriaReturnsCopy(t *testing.T) {
	s := NewStore(25)
	s.ToggleTag("docking")

	c := s.Criteria()
	c.SelectedTags[0] = "mutated"
	c.MinStars = new(int)

	assert.Equal(t, []string{"docking"}, s.Criteria().SelectedTags)
	assert.Nil(t, s.Criteria().MinStars)
}

func TestSearchDebounceTokens(t *testing.T) {
	s := NewStore(25)

	stale := s.TypeSearch("au")
	current := s.TypeSearch("autodock")

	// Pending text echoes immediately, committed term waits for the token.
	assert.Equal(t, "autodock", s.PendingSearch())
	assert.Equal(t, "", s.Criteria().SearchTerm)

	assert.False(t, s.CommitSearch(stale), "superseded token must be a no-op")
	assert.Equal(t, "", s.Criteria().SearchTerm)

	assert.True(t, s.CommitSearch(current))
	assert.Equal(t, "autodock", s.Criteria().SearchTerm)

	// Committing the same text again reports no change.
	assert.False(t, s.CommitSearch(current))
}

func TestClearingFolderClearsCategory(t *testing.T) {
	facets := facetsWith(map[string][]string{"Docking": {"Protein-ligand"}})
	folder := "Docking"
	category := "Protein-ligand"

	s := NewStore(25)
	s.SetFolder(&folder, facets)
	s.SetCategory(&category)
	require.NotNil(t, s.Criteria().Category)

	s.SetFolder(nil, facets)
	c := s.Criteria()
	assert.Nil(t, c.Folder)
	assert.Nil(t, c.Category)
}

func TestChangingFolderDropsForeignCategory(t *testing.T) {
	facets := facetsWith(map[string][]string{
		"Docking":    {"Protein-ligand"},
		"Simulation": {"Molecular dynamics"},
	})
	docking := "Docking"
	simulation := "Simulation"
	category := "Protein-ligand"

	s := NewStore(25)
	s.SetFolder(&docking, facets)
	s.SetCategory(&category)

	s.SetFolder(&simulation, facets)
	c := s.Criteria()
	require.NotNil(t, c.Folder)
	assert.Equal(t, "Simulation", *c.Folder)
	assert.Nil(t, c.Category, "category from another folder must not survive")
}

func TestCategoryWithoutFolderIsIgnored(t *testing.T) {
	s := NewStore(25)
	category := "Protein-ligand"
	s.SetCategory(&category)
	assert.Nil(t, s.Criteria().Category)
}

func TestResetIsIdempotent(t *testing.T) {
	facets := facetsWith(map[string][]string{"Docking": {"Protein-ligand"}})
	folder := "Docking"
	stars := 50

	s := NewStore(40)
	s.SetSearchTerm("vina")
	s.ToggleTag("docking")
	s.SetMinStars(&stars)
	s.SetFolder(&folder, facets)
	s.SetPage(3)

	s.Reset()
	first := s.Criteria()
	s.Reset()
	second := s.Criteria()

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultCriteria(40), first, "reset keeps the configured page size")
	assert.Equal(t, "", s.PendingSearch())
}

func TestResetInvalidatesPendingSearch(t *testing.T) {
	s := NewStore(25)
	token := s.TypeSearch("autodock")
	s.Reset()

	assert.False(t, s.CommitSearch(token), "a debounce from before the reset must not land")
	assert.Equal(t, "", s.Criteria().SearchTerm)
}

func TestRestoreForcesFirstPage(t *testing.T) {
	saved := DefaultCriteria(25)
	saved.SearchTerm = "docking"
	saved.SelectedTags = []string{"md"}
	saved.CurrentPage = 9

	s := NewStore(25)
	s.Restore(saved)

	c := s.Criteria()
	assert.Equal(t, 1, c.CurrentPage)
	assert.Equal(t, "docking", c.SearchTerm)
	assert.Equal(t, "docking", s.PendingSearch())
	assert.Equal(t, []string{"md"}, c.SelectedTags)
}

func TestRestoreFillsZeroValues(t *testing.T) {
	s := NewStore(30)
	s.Restore(Criteria{})

	c := s.Criteria()
	assert.Equal(t, 30, c.PageSize)
	assert.Equal(t, SortAsc, c.SortDirection)
}

func TestSetPageSizeResetsToFirstPage(t *testing.T) {
	s := NewStore(25)
	s.SetPage(4)
	s.SetPageSize(50)

	c := s.Criteria()
	assert.Equal(t, 50, c.PageSize)
	assert.Equal(t, 1, c.CurrentPage)

	s.SetPageSize(0)
	assert.Equal(t, 50, s.Criteria().PageSize, "non-positive sizes are ignored")
}
