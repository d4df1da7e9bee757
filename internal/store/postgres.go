package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"go.uber.org/zap"

	"caddvault/internal/config"
	"caddvault/internal/domain"
	"caddvault/internal/query"
)

// Postgres reaches the hosted catalog database through database/sql with the
// pgx driver.
type Postgres struct {
	db  *sql.DB
	log *zap.Logger
}

// Connect opens and pings the catalog database.
func Connect(ctx context.Context, settings config.DatabaseSettings, log *zap.Logger) (*Postgres, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dsn := buildDSN(settings)

	log.Debug("connecting to postgres",
		zap.String("host", settings.Host),
		zap.String("database", settings.Name))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Postgres{db: db, log: log}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ensure Postgres implements the Store interface
var _ Store = (*Postgres)(nil)

// buildDSN constructs a PostgreSQL connection string.
func buildDSN(s config.DatabaseSettings) string {
	host := s.Host
	if host == "" {
		host = "localhost"
	}

	port := s.Port
	if port == 0 {
		port = 5432
	}

	sslmode := s.SSLMode
	if sslmode == "" {
		sslmode = "require"
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, s.Name, sslmode)

	if s.User != "" {
		dsn += fmt.Sprintf(" user=%s", s.User)
	}
	if s.Password != "" {
		dsn += fmt.Sprintf(" password=%s", s.Password)
	}

	return dsn
}

// ExecuteQuery runs a translated query: the page of rows plus the exact
// total count for the same predicates.
func (p *Postgres) ExecuteQuery(ctx context.Context, req query.Request) (QueryResult, error) {
	pageSQL, countSQL, args, err := BuildSelect(req)
	if err != nil {
		return QueryResult{}, err
	}

	var result QueryResult

	if req.WithCount {
		if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&result.TotalCount); err != nil {
			return QueryResult{}, fmt.Errorf("count query: %w", err)
		}
	}

	rows, err := p.db.QueryContext(ctx, pageSQL, args...)
	if err != nil {
		return QueryResult{}, fmt.Errorf("page query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		item, err := scanSummary(rows)
		if err != nil {
			return QueryResult{}, fmt.Errorf("scan row: %w", err)
		}
		result.Items = append(result.Items, item)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("iterate rows: %w", err)
	}

	return result, nil
}

func scanSummary(rows *sql.Rows) (domain.PackageSummary, error) {
	var item domain.PackageSummary
	var tagsCSV string
	err := rows.Scan(
		&item.ID, &item.Name, &item.Description,
		&item.Folder, &item.Category, &tagsCSV,
		&item.License, &item.GithubStars, &item.Citations,
		&item.AverageRating, &item.RatingsCount,
		&item.RepoLink, &item.WebserverLink,
		&item.PublicationURL, &item.Journal, &item.LastCommit,
	)
	if err != nil {
		return domain.PackageSummary{}, err
	}
	if tagsCSV != "" {
		item.Tags = strings.Split(tagsCSV, ",")
	}
	return item, nil
}

// GetPackage fetches the full detail record for one package.
func (p *Postgres) GetPackage(ctx context.Context, id string) (domain.Package, error) {
	const detailSQL = `SELECT ` + summaryColumns + `,
	COALESCE(p.jif, 0), COALESCE(p.primary_language, ''),
	COALESCE(p.github_owner, ''), COALESCE(p.github_repo, '')
	` + summaryFrom + ` WHERE p.id = $1`

	var pkg domain.Package
	var tagsCSV string
	err := p.db.QueryRowContext(ctx, detailSQL, id).Scan(
		&pkg.ID, &pkg.Name, &pkg.Description,
		&pkg.Folder, &pkg.Category, &tagsCSV,
		&pkg.License, &pkg.GithubStars, &pkg.Citations,
		&pkg.AverageRating, &pkg.RatingsCount,
		&pkg.RepoLink, &pkg.WebserverLink,
		&pkg.PublicationURL, &pkg.Journal, &pkg.LastCommit,
		&pkg.JIF, &pkg.PrimaryLanguage,
		&pkg.GithubOwner, &pkg.GithubRepo,
	)
	if err != nil {
		return domain.Package{}, fmt.Errorf("get package %s: %w", id, err)
	}
	if tagsCSV != "" {
		pkg.Tags = strings.Split(tagsCSV, ",")
	}
	return pkg, nil
}
