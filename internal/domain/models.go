package domain

// PackageSummary is the list-row projection of a catalog package.
type PackageSummary struct {
	ID             string
	Name           string
	Description    string
	Folder         string
	Category       string
	Tags           []string
	License        string
	GithubStars    int
	Citations      int
	AverageRating  float64
	RatingsCount   int
	RepoLink       string // empty if the package has no public repository
	WebserverLink  string
	PublicationURL string
	Journal        string
	LastCommit     string
}

// Package is the full detail record for a single catalog entry.
type Package struct {
	PackageSummary
	JIF             float64
	PrimaryLanguage string
	GithubOwner     string
	GithubRepo      string
}

// SuggestionStatus tracks a suggestion through moderation.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// Suggestion is a user-submitted candidate package awaiting moderation.
type Suggestion struct {
	ID             string
	Name           string
	Description    string
	RepoLink       string
	PublicationURL string
	Tags           []string
	SubmittedBy    string
	Status         SuggestionStatus
	CreatedAt      string
}

// Rating is one user's star rating for a package.
type Rating struct {
	PackageID string
	UserID    string
	Stars     int // 1..5
}

// Session describes the current authenticated user, if any.
type Session struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// Anonymous reports whether the session belongs to no signed-in user.
func (s Session) Anonymous() bool { return s.UserID == "" }

// FacetMetadata holds dataset-scope values used to populate filter controls.
// It is derived remotely and replaced atomically on refresh; filter changes
// never mutate it.
type FacetMetadata struct {
	Tags          []string
	Licenses      []string
	Folders       []string
	Categories    map[string][]string // folder -> category names
	MaxStars      int
	MaxCitations  int
	TotalPackages int
}

// CategoriesFor returns the category set for a folder ("" folder has none).
func (m FacetMetadata) CategoriesFor(folder string) []string {
	if m.Categories == nil {
		return nil
	}
	return m.Categories[folder]
}

// HasCategory reports whether category belongs to folder's category set.
func (m FacetMetadata) HasCategory(folder, category string) bool {
	for _, c := range m.CategoriesFor(folder) {
		if c == category {
			return true
		}
	}
	return false
}
