// Package uistate persists the durable subset of the filter criteria across
// application restarts. The stored value is versioned; a version mismatch
// discards it and falls back to defaults rather than migrating.
package uistate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"caddvault/internal/filter"
)

// CurrentVersion is the on-disk schema version of the persisted state.
const CurrentVersion = 2

// persisted is the durable subset of filter criteria. CurrentPage is
// deliberately absent: restored filters always start on page one.
type persisted struct {
	Version          int      `json:"version"`
	SearchTerm       string   `json:"search_term"`
	SelectedTags     []string `json:"selected_tags"`
	SelectedLicenses []string `json:"selected_licenses"`
	MinStars         *int     `json:"min_stars"`
	MinCitations     *int     `json:"min_citations"`
	MinRating        *float64 `json:"min_rating"`
	HasGithub        bool     `json:"has_github"`
	HasWebserver     bool     `json:"has_webserver"`
	HasPublication   bool     `json:"has_publication"`
	Folder           *string  `json:"folder"`
	Category         *string  `json:"category"`
	SortBy           *string  `json:"sort_by"`
	SortDirection    string   `json:"sort_direction"`
	PageSize         int      `json:"page_size"`
}

// Service reads and writes the persisted filter state.
type Service struct {
	filePath string
}

// NewService stores state next to the app config.
func NewService() *Service {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	appDir := filepath.Join(configDir, "caddvault")
	os.MkdirAll(appDir, 0755)
	return &Service{filePath: filepath.Join(appDir, "filters.json")}
}

// NewServiceAt stores state at an explicit path (used by tests).
func NewServiceAt(path string) *Service {
	return &Service{filePath: path}
}

// Load returns the persisted criteria, or ok=false when nothing usable is
// stored: missing file, unreadable JSON, or a schema version mismatch. All of
// those fall back cleanly to defaults.
func (s *Service) Load() (filter.Criteria, bool) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return filter.Criteria{}, false
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return filter.Criteria{}, false
	}
	if p.Version != CurrentVersion {
		return filter.Criteria{}, false
	}

	c := filter.Criteria{
		SearchTerm:       p.SearchTerm,
		SelectedTags:     p.SelectedTags,
		SelectedLicenses: p.SelectedLicenses,
		MinStars:         p.MinStars,
		MinCitations:     p.MinCitations,
		MinRating:        p.MinRating,
		HasGithub:        p.HasGithub,
		HasWebserver:     p.HasWebserver,
		HasPublication:   p.HasPublication,
		Folder:           p.Folder,
		Category:         p.Category,
		SortBy:           p.SortBy,
		SortDirection:    filter.SortDirection(p.SortDirection),
		CurrentPage:      1,
		PageSize:         p.PageSize,
	}
	return c, true
}

// Save writes the durable subset of the given criteria.
func (s *Service) Save(c filter.Criteria) error {
	p := persisted{
		Version:          CurrentVersion,
		SearchTerm:       c.SearchTerm,
		SelectedTags:     c.SelectedTags,
		SelectedLicenses: c.SelectedLicenses,
		MinStars:         c.MinStars,
		MinCitations:     c.MinCitations,
		MinRating:        c.MinRating,
		HasGithub:        c.HasGithub,
		HasWebserver:     c.HasWebserver,
		HasPublication:   c.HasPublication,
		Folder:           c.Folder,
		Category:         c.Category,
		SortBy:           c.SortBy,
		SortDirection:    string(c.SortDirection),
		PageSize:         c.PageSize,
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal filter state: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write filter state: %w", err)
	}
	return nil
}
