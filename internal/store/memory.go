package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"caddvault/internal/domain"
	"caddvault/internal/query"
)

// Memory implements Store against an in-memory dataset with the same filter,
// sort and pagination semantics as the SQL renderer. It backs the demo mode
// and the end-to-end tests.
type Memory struct {
	mu          sync.Mutex
	packages    map[string]domain.Package
	suggestions map[string]domain.Suggestion
	ratings     map[string]map[string]int // package id -> user id -> stars
}

// NewMemory creates an in-memory store seeded with the given packages.
func NewMemory(seed ...domain.Package) *Memory {
	m := &Memory{
		packages:    make(map[string]domain.Package),
		suggestions: make(map[string]domain.Suggestion),
		ratings:     make(map[string]map[string]int),
	}
	for _, pkg := range seed {
		if pkg.ID == "" {
			pkg.ID = uuid.NewString()
		}
		m.packages[pkg.ID] = pkg
	}
	return m
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// ExecuteQuery filters, sorts and paginates the dataset.
func (m *Memory) ExecuteQuery(ctx context.Context, req query.Request) (QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return QueryResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []domain.Package
	for _, pkg := range m.packages {
		ok, err := matches(pkg, req.Predicates)
		if err != nil {
			return QueryResult{}, err
		}
		if ok {
			matched = append(matched, pkg)
		}
	}

	sortPackages(matched, req.OrderBy)

	result := QueryResult{TotalCount: len(matched)}

	start := req.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + req.Limit
	if req.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	for _, pkg := range matched[start:end] {
		result.Items = append(result.Items, pkg.PackageSummary)
	}
	return result, nil
}

func matches(pkg domain.Package, preds []query.Predicate) (bool, error) {
	for _, p := range preds {
		switch p.Op {
		case query.OpContains:
			term := strings.ToLower(p.Value)
			if p.Field == query.FieldText {
				if !strings.Contains(strings.ToLower(pkg.Name), term) &&
					!strings.Contains(strings.ToLower(pkg.Description), term) {
					return false, nil
				}
			} else if !strings.Contains(strings.ToLower(fieldString(pkg, p.Field)), term) {
				return false, nil
			}

		case query.OpGte:
			bound, err := strconv.ParseFloat(p.Value, 64)
			if err != nil {
				return false, fmt.Errorf("bad numeric bound for %s: %w", p.Field, err)
			}
			if fieldNumber(pkg, p.Field) < bound {
				return false, nil
			}

		case query.OpEq:
			if fieldString(pkg, p.Field) != p.Value {
				return false, nil
			}

		case query.OpNotNull:
			if fieldString(pkg, p.Field) == "" {
				return false, nil
			}

		case query.OpAnyOf:
			found := false
			for _, v := range p.Values {
				if fieldString(pkg, p.Field) == v {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}

		case query.OpAllOf:
			have := make(map[string]bool, len(pkg.Tags))
			for _, t := range pkg.Tags {
				have[t] = true
			}
			for _, want := range p.Values {
				if !have[want] {
					return false, nil
				}
			}

		default:
			return false, fmt.Errorf("unsupported operator %q", p.Op)
		}
	}
	return true, nil
}

func fieldString(pkg domain.Package, field string) string {
	switch field {
	case "id":
		return pkg.ID
	case "name":
		return pkg.Name
	case "description":
		return pkg.Description
	case "folder":
		return pkg.Folder
	case "category":
		return pkg.Category
	case "license":
		return pkg.License
	case "repo_link":
		return pkg.RepoLink
	case "webserver_link":
		return pkg.WebserverLink
	case "publication_url":
		return pkg.PublicationURL
	case "last_commit":
		return pkg.LastCommit
	default:
		return ""
	}
}

func fieldNumber(pkg domain.Package, field string) float64 {
	switch field {
	case "github_stars":
		return float64(pkg.GithubStars)
	case "citations":
		return float64(pkg.Citations)
	case "average_rating":
		return pkg.AverageRating
	case "ratings_count":
		return float64(pkg.RatingsCount)
	default:
		return 0
	}
}

func sortPackages(pkgs []domain.Package, terms []query.Ordering) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		for _, term := range terms {
			var cmp int
			switch term.Field {
			case "github_stars", "citations", "average_rating", "ratings_count":
				a, b := fieldNumber(pkgs[i], term.Field), fieldNumber(pkgs[j], term.Field)
				switch {
				case a < b:
					cmp = -1
				case a > b:
					cmp = 1
				}
			default:
				cmp = strings.Compare(
					strings.ToLower(fieldString(pkgs[i], term.Field)),
					strings.ToLower(fieldString(pkgs[j], term.Field)))
			}
			if cmp == 0 {
				continue
			}
			if term.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// GetPackage fetches one package by id.
func (m *Memory) GetPackage(ctx context.Context, id string) (domain.Package, error) {
	if err := ctx.Err(); err != nil {
		return domain.Package{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[id]
	if !ok {
		return domain.Package{}, fmt.Errorf("get package %s: %w", id, domain.ErrNotFound)
	}
	return pkg, nil
}

// DistinctTags returns every tag in use, sorted.
func (m *Memory) DistinctTags(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]bool)
	for _, pkg := range m.packages {
		for _, t := range pkg.Tags {
			set[t] = true
		}
	}
	return sortedKeys(set), nil
}

// DistinctLicenses returns every license in use, sorted.
func (m *Memory) DistinctLicenses(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]bool)
	for _, pkg := range m.packages {
		if pkg.License != "" {
			set[pkg.License] = true
		}
	}
	return sortedKeys(set), nil
}

// FolderCategories returns the folder -> category mapping in use.
func (m *Memory) FolderCategories(ctx context.Context) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]map[string]bool)
	for _, pkg := range m.packages {
		if pkg.Folder == "" {
			continue
		}
		if seen[pkg.Folder] == nil {
			seen[pkg.Folder] = make(map[string]bool)
		}
		if pkg.Category != "" {
			seen[pkg.Folder][pkg.Category] = true
		}
	}
	out := make(map[string][]string, len(seen))
	for folder, cats := range seen {
		out[folder] = sortedKeys(cats)
	}
	return out, nil
}

// MaxStars returns the dataset-wide stars maximum.
func (m *Memory) MaxStars(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, pkg := range m.packages {
		if pkg.GithubStars > max {
			max = pkg.GithubStars
		}
	}
	return max, nil
}

// MaxCitations returns the dataset-wide citations maximum.
func (m *Memory) MaxCitations(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, pkg := range m.packages {
		if pkg.Citations > max {
			max = pkg.Citations
		}
	}
	return max, nil
}

// CountPackages returns the total entry count.
func (m *Memory) CountPackages(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.packages), nil
}

// CreatePackage inserts a package.
func (m *Memory) CreatePackage(ctx context.Context, pkg domain.Package) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	m.packages[pkg.ID] = pkg
	return pkg.ID, nil
}

// UpdatePackage rewrites a package.
func (m *Memory) UpdatePackage(ctx context.Context, pkg domain.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[pkg.ID]; !ok {
		return fmt.Errorf("update package %s: %w", pkg.ID, domain.ErrNotFound)
	}
	m.packages[pkg.ID] = pkg
	return nil
}

// DeletePackage removes a package.
func (m *Memory) DeletePackage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.packages[id]; !ok {
		return fmt.Errorf("delete package %s: %w", id, domain.ErrNotFound)
	}
	delete(m.packages, id)
	delete(m.ratings, id)
	return nil
}

// SubmitSuggestion files a pending suggestion.
func (m *Memory) SubmitSuggestion(ctx context.Context, s domain.Suggestion) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Status = domain.SuggestionPending
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.suggestions[s.ID] = s
	return s.ID, nil
}

// ListPendingSuggestions returns pending suggestions, oldest first.
func (m *Memory) ListPendingSuggestions(ctx context.Context) ([]domain.Suggestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Suggestion
	for _, s := range m.suggestions {
		if s.Status == domain.SuggestionPending {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ApproveSuggestion atomically marks the suggestion approved and creates the
// package record, mirroring the server-side procedure.
func (m *Memory) ApproveSuggestion(ctx context.Context, suggestionID, reviewer string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[suggestionID]
	if !ok || s.Status != domain.SuggestionPending {
		return "", fmt.Errorf("approve suggestion %s: %w", suggestionID, domain.ErrNotFound)
	}
	s.Status = domain.SuggestionApproved
	m.suggestions[suggestionID] = s

	pkg := domain.Package{
		PackageSummary: domain.PackageSummary{
			ID:             uuid.NewString(),
			Name:           s.Name,
			Description:    s.Description,
			Tags:           append([]string(nil), s.Tags...),
			RepoLink:       s.RepoLink,
			PublicationURL: s.PublicationURL,
		},
	}
	m.packages[pkg.ID] = pkg
	return pkg.ID, nil
}

// RejectSuggestion marks a pending suggestion rejected.
func (m *Memory) RejectSuggestion(ctx context.Context, suggestionID, reviewer string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.suggestions[suggestionID]
	if !ok || s.Status != domain.SuggestionPending {
		return fmt.Errorf("reject suggestion %s: %w", suggestionID, domain.ErrNotFound)
	}
	s.Status = domain.SuggestionRejected
	m.suggestions[suggestionID] = s
	return nil
}

// SubmitRating upserts a rating and recomputes the package aggregate,
// mirroring the server-side procedure.
func (m *Memory) SubmitRating(ctx context.Context, r domain.Rating) error {
	if r.Stars < 1 || r.Stars > 5 {
		return domain.NewValidationError("stars", "must be between 1 and 5")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pkg, ok := m.packages[r.PackageID]
	if !ok {
		return fmt.Errorf("rate package %s: %w", r.PackageID, domain.ErrNotFound)
	}
	if m.ratings[r.PackageID] == nil {
		m.ratings[r.PackageID] = make(map[string]int)
	}
	m.ratings[r.PackageID][r.UserID] = r.Stars

	sum, count := 0, 0
	for _, stars := range m.ratings[r.PackageID] {
		sum += stars
		count++
	}
	pkg.AverageRating = float64(sum) / float64(count)
	pkg.RatingsCount = count
	m.packages[r.PackageID] = pkg
	return nil
}

// Ensure Memory implements the Store interface
var _ Store = (*Memory)(nil)

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
