// Package store provides access to the hosted catalog database. The Postgres
// implementation talks to the remote store through database/sql with the pgx
// driver; Memory implements the same contract for tests and offline demos.
package store

import (
	"context"

	"caddvault/internal/domain"
	"caddvault/internal/query"
)

// QueryResult is one page of rows plus the exact total count for the query,
// fetched together so the UI can compute total pages without a second trip.
type QueryResult struct {
	Items      []domain.PackageSummary
	TotalCount int
}

// Querier executes translated filter queries.
type Querier interface {
	// ExecuteQuery runs a translated query and returns the requested page
	// along with the exact total row count.
	ExecuteQuery(ctx context.Context, req query.Request) (QueryResult, error)
	// GetPackage fetches the full detail record for one package.
	GetPackage(ctx context.Context, id string) (domain.Package, error)
}

// FacetReader serves the dataset-scope reads behind a metadata refresh.
type FacetReader interface {
	DistinctTags(ctx context.Context) ([]string, error)
	DistinctLicenses(ctx context.Context) ([]string, error)
	FolderCategories(ctx context.Context) (map[string][]string, error)
	MaxStars(ctx context.Context) (int, error)
	MaxCitations(ctx context.Context) (int, error)
	CountPackages(ctx context.Context) (int, error)
}

// Mutator performs writes. Multi-step transitions (suggestion approval,
// rating aggregation) are server-side procedures invoked as single
// statements, never client-orchestrated multi-step writes.
type Mutator interface {
	CreatePackage(ctx context.Context, pkg domain.Package) (string, error)
	UpdatePackage(ctx context.Context, pkg domain.Package) error
	DeletePackage(ctx context.Context, id string) error

	SubmitSuggestion(ctx context.Context, s domain.Suggestion) (string, error)
	ListPendingSuggestions(ctx context.Context) ([]domain.Suggestion, error)
	ApproveSuggestion(ctx context.Context, suggestionID, reviewer string) (string, error)
	RejectSuggestion(ctx context.Context, suggestionID, reviewer string) error

	SubmitRating(ctx context.Context, r domain.Rating) error
}

// Store is the full remote-store surface the application consumes.
type Store interface {
	Querier
	FacetReader
	Mutator
	Close() error
}
