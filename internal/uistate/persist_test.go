package uistate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caddvault/internal/filter"
)

func tempService(t *testing.T) *Service {
	t.Helper()
	return NewServiceAt(filepath.Join(t.TempDir(), "filters.json"))
}

func TestLoadMissingFile(t *testing.T) {
	s := tempService(t)
	_, ok := s.Load()
	assert.False(t, ok)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := tempService(t)

	stars := 100
	rating := 3.5
	folder := "Docking"
	category := "Protein-ligand"
	sortKey := "stars"

	saved := filter.DefaultCriteria(50)
	saved.SearchTerm = "vina"
	saved.SelectedTags = []string{"docking", "gpu"}
	saved.SelectedLicenses = []string{"MIT"}
	saved.MinStars = &stars
	saved.MinRating = &rating
	saved.HasGithub = true
	saved.Folder = &folder
	saved.Category = &category
	saved.SortBy = &sortKey
	saved.SortDirection = filter.SortDesc
	saved.CurrentPage = 7 // must not survive

	require.NoError(t, s.Save(saved))

	got, ok := s.Load()
	require.True(t, ok)

	assert.Equal(t, "vina", got.SearchTerm)
	assert.Equal(t, []string{"docking", "gpu"}, got.SelectedTags)
	assert.Equal(t, []string{"MIT"}, got.SelectedLicenses)
	require.NotNil(t, got.MinStars)
	assert.Equal(t, 100, *got.MinStars)
	assert.Nil(t, got.MinCitations)
	require.NotNil(t, got.MinRating)
	assert.Equal(t, 3.5, *got.MinRating)
	assert.True(t, got.HasGithub)
	require.NotNil(t, got.Folder)
	assert.Equal(t, "Docking", *got.Folder)
	require.NotNil(t, got.SortBy)
	assert.Equal(t, "stars", *got.SortBy)
	assert.Equal(t, filter.SortDesc, got.SortDirection)
	assert.Equal(t, 50, got.PageSize)
	assert.Equal(t, 1, got.CurrentPage, "restored filters always start on page one")
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	stale := map[string]any{
		"version":     CurrentVersion - 1,
		"search_term": "from an old build",
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	s := NewServiceAt(path)
	_, ok := s.Load()
	assert.False(t, ok, "version mismatch falls back to defaults, no migration")
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.json")
	require.NoError(t, os.WriteFile(path, []byte("{ not json"), 0644))

	s := NewServiceAt(path)
	_, ok := s.Load()
	assert.False(t, ok)
}

func TestSaveOverwritesPreviousState(t *testing.T) {
	s := tempService(t)

	first := filter.DefaultCriteria(25)
	first.SearchTerm = "old"
	require.NoError(t, s.Save(first))

	second := filter.DefaultCriteria(25)
	second.SearchTerm = "new"
	require.NoError(t, s.Save(second))

	got, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "new", got.SearchTerm)
}

func TestSaveCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "filters.json")
	s := NewServiceAt(path)

	require.NoError(t, s.Save(filter.DefaultCriteria(25)))
	_, ok := s.Load()
	assert.True(t, ok)
}
