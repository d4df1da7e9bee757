package filter

import (
	"caddvault/internal/domain"
)

// SortDirection is the direction of the active sort.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Criteria is the single source of truth for what the user wants to see.
type Criteria struct {
	SearchTerm       string
	SelectedTags     []string // insertion order kept for display, irrelevant for matching
	SelectedLicenses []string
	MinStars         *int
	MinCitations     *int
	MinRating        *float64
	HasGithub        bool
	HasWebserver     bool
	HasPublication   bool
	Folder           *string
	Category         *string // only meaningful while Folder is set
	SortBy           *string
	SortDirection    SortDirection
	CurrentPage      int // 1-based
	PageSize         int
}

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 25

// DefaultCriteria returns the empty-filter state for a given page size.
func DefaultCriteria(pageSize int) Criteria {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Criteria{
		SortDirection: SortAsc,
		CurrentPage:   1,
		PageSize:      pageSize,
	}
}

// clone returns a deep copy so callers can never alias the store's slices.
func (c Criteria) clone() Criteria {
	out := c
	out.SelectedTags = append([]string(nil), c.SelectedTags...)
	out.SelectedLicenses = append([]string(nil), c.SelectedLicenses...)
	out.MinStars = cloneInt(c.MinStars)
	out.MinCitations = cloneInt(c.MinCitations)
	out.MinRating = cloneFloat(c.MinRating)
	out.Folder = cloneString(c.Folder)
	out.Category = cloneString(c.Category)
	out.SortBy = cloneString(c.SortBy)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// Store holds the canonical filter/sort/pagination state. It performs no I/O
// and is owned by the single-threaded UI loop, so it needs no locking.
type Store struct {
	criteria Criteria

	// Debounced search: the typed text is echoed immediately via PendingSearch
	// while the committed SearchTerm only changes when a commit token survives
	// the debounce window.
	pendingSearch string
	searchToken   int
}

// NewStore creates a store with default criteria for the given page size.
func NewStore(pageSize int) *Store {
	return &Store{criteria: DefaultCriteria(pageSize)}
}

// Criteria returns a copy of the current criteria.
func (s *Store) Criteria() Criteria {
	return s.criteria.clone()
}

// PendingSearch returns the locally echoed search text, which may be ahead of
// the committed SearchTerm while a debounce window is open.
func (s *Store) PendingSearch() string {
	return s.pendingSearch
}

// resetPage enforces the invariant that any filter/sort change lands the user
// back on the first page.
func (s *Store) resetPage() {
	s.criteria.CurrentPage = 1
}

// TypeSearch records freshly typed search text and returns a commit token.
// The caller schedules the debounce timer and calls CommitSearch with the
// token when it fires; tokens from superseded keystrokes become no-ops.
func (s *Store) TypeSearch(text string) int {
	s.pendingSearch = text
	s.searchToken++
	return s.searchToken
}

// CommitSearch commits the pending search text if token is still current.
// Returns true when the committed term actually changed.
func (s *Store) CommitSearch(token int) bool {
	if token != s.searchToken {
		return false
	}
	if s.criteria.SearchTerm == s.pendingSearch {
		return false
	}
	s.criteria.SearchTerm = s.pendingSearch
	s.resetPage()
	return true
}

// SetSearchTerm commits a search term immediately, bypassing the debounce.
func (s *Store) SetSearchTerm(term string) {
	s.pendingSearch = term
	s.searchToken++
	if s.criteria.SearchTerm == term {
		return
	}
	s.criteria.SearchTerm = term
	s.resetPage()
}

// ToggleTag adds or removes a tag from the multi-value tag filter.
func (s *Store) ToggleTag(tag string) {
	s.criteria.SelectedTags = toggle(s.criteria.SelectedTags, tag)
	s.resetPage()
}

// ToggleLicense adds or removes a license from the license filter.
func (s *Store) ToggleLicense(license string) {
	s.criteria.SelectedLicenses = toggle(s.criteria.SelectedLicenses, license)
	s.resetPage()
}

func toggle(values []string, v string) []string {
	for i, existing := range values {
		if existing == v {
			return append(values[:i:i], values[i+1:]...)
		}
	}
	return append(values, v)
}

// SetMinStars sets the inclusive github-stars lower bound (nil clears it).
func (s *Store) SetMinStars(min *int) {
	s.criteria.MinStars = cloneInt(min)
	s.resetPage()
}

// SetMinCitations sets the inclusive citations lower bound (nil clears it).
func (s *Store) SetMinCitations(min *int) {
	s.criteria.MinCitations = cloneInt(min)
	s.resetPage()
}

// SetMinRating sets the inclusive average-rating lower bound (nil clears it).
func (s *Store) SetMinRating(min *float64) {
	s.criteria.MinRating = cloneFloat(min)
	s.resetPage()
}

// SetHasGithub toggles the repository-link presence filter.
func (s *Store) SetHasGithub(on bool) {
	s.criteria.HasGithub = on
	s.resetPage()
}

// SetHasWebserver toggles the webserver-link presence filter.
func (s *Store) SetHasWebserver(on bool) {
	s.criteria.HasWebserver = on
	s.resetPage()
}

// SetHasPublication toggles the publication presence filter.
func (s *Store) SetHasPublication(on bool) {
	s.criteria.HasPublication = on
	s.resetPage()
}

// SetFolder changes the folder filter. The current category is cleared unless
// it belongs to the new folder's category set; clearing the folder always
// clears the category.
func (s *Store) SetFolder(folder *string, facets domain.FacetMetadata) {
	s.criteria.Folder = cloneString(folder)
	if folder == nil {
		s.criteria.Category = nil
	} else if s.criteria.Category != nil && !facets.HasCategory(*folder, *s.criteria.Category) {
		s.criteria.Category = nil
	}
	s.resetPage()
}

// SetCategory changes the category filter. Setting a category without an
// active folder is ignored; the category is only meaningful within a folder.
func (s *Store) SetCategory(category *string) {
	if category != nil && s.criteria.Folder == nil {
		return
	}
	s.criteria.Category = cloneString(category)
	s.resetPage()
}

// SetSort changes the sort key and direction.
func (s *Store) SetSort(by *string, direction SortDirection) {
	s.criteria.SortBy = cloneString(by)
	s.criteria.SortDirection = direction
	s.resetPage()
}

// SetPage moves to a specific 1-based page without touching filters.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.criteria.CurrentPage = page
}

// NextPage advances one page.
func (s *Store) NextPage() {
	s.criteria.CurrentPage++
}

// PrevPage goes back one page, stopping at the first.
func (s *Store) PrevPage() {
	if s.criteria.CurrentPage > 1 {
		s.criteria.CurrentPage--
	}
}

// SetPageSize changes the page size and returns to the first page so the
// offset stays meaningful.
func (s *Store) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	s.criteria.PageSize = size
	s.criteria.CurrentPage = 1
}

// Reset restores all filter fields to defaults, preserving the page size.
func (s *Store) Reset() {
	pageSize := s.criteria.PageSize
	s.criteria = DefaultCriteria(pageSize)
	s.pendingSearch = ""
	s.searchToken++
}

// Restore replaces the criteria wholesale, e.g. from persisted UI state. The
// page is reset so the first render reflects the restored filters.
func (s *Store) Restore(c Criteria) {
	restored := c.clone()
	if restored.PageSize <= 0 {
		restored.PageSize = s.criteria.PageSize
	}
	if restored.SortDirection == "" {
		restored.SortDirection = SortAsc
	}
	restored.CurrentPage = 1
	s.criteria = restored
	s.pendingSearch = restored.SearchTerm
	s.searchToken++
}
