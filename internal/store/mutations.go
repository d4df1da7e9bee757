package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"caddvault/internal/domain"
)

// CreatePackage inserts a package with its normalized classification and tag
// rows in one transaction. Returns the new package id.
func (p *Postgres) CreatePackage(ctx context.Context, pkg domain.Package) (string, error) {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin create package: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fcID, err := classificationID(ctx, tx, pkg.Folder, pkg.Category)
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO packages
		(id, name, description, folder_category_id, license, github_stars, citations,
		 repo_link, webserver_link, publication_url, journal, jif, last_commit,
		 primary_language, github_owner, github_repo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		pkg.ID, pkg.Name, nullable(pkg.Description), fcID, nullable(pkg.License),
		pkg.GithubStars, pkg.Citations,
		nullable(pkg.RepoLink), nullable(pkg.WebserverLink), nullable(pkg.PublicationURL),
		nullable(pkg.Journal), pkg.JIF, nullable(pkg.LastCommit),
		nullable(pkg.PrimaryLanguage), nullable(pkg.GithubOwner), nullable(pkg.GithubRepo))
	if err != nil {
		return "", fmt.Errorf("insert package: %w", err)
	}

	if err := replaceTags(ctx, tx, pkg.ID, pkg.Tags); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit create package: %w", err)
	}
	return pkg.ID, nil
}

// UpdatePackage rewrites a package row and its tag set in one transaction.
func (p *Postgres) UpdatePackage(ctx context.Context, pkg domain.Package) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update package: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fcID, err := classificationID(ctx, tx, pkg.Folder, pkg.Category)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE packages SET
		name = $2, description = $3, folder_category_id = $4, license = $5,
		github_stars = $6, citations = $7, repo_link = $8, webserver_link = $9,
		publication_url = $10, journal = $11, jif = $12, last_commit = $13,
		primary_language = $14, github_owner = $15, github_repo = $16
		WHERE id = $1`,
		pkg.ID, pkg.Name, nullable(pkg.Description), fcID, nullable(pkg.License),
		pkg.GithubStars, pkg.Citations,
		nullable(pkg.RepoLink), nullable(pkg.WebserverLink), nullable(pkg.PublicationURL),
		nullable(pkg.Journal), pkg.JIF, nullable(pkg.LastCommit),
		nullable(pkg.PrimaryLanguage), nullable(pkg.GithubOwner), nullable(pkg.GithubRepo))
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update package %s: %w", pkg.ID, domain.ErrNotFound)
	}

	if err := replaceTags(ctx, tx, pkg.ID, pkg.Tags); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update package: %w", err)
	}
	return nil
}

// DeletePackage removes a package; tag rows cascade server-side.
func (p *Postgres) DeletePackage(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM packages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete package: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete package %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SubmitSuggestion files a new pending suggestion.
func (p *Postgres) SubmitSuggestion(ctx context.Context, s domain.Suggestion) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO suggestions
		(id, name, description, repo_link, publication_url, tags, submitted_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending')`,
		s.ID, s.Name, nullable(s.Description), nullable(s.RepoLink),
		nullable(s.PublicationURL), strings.Join(s.Tags, ","), s.SubmittedBy)
	if err != nil {
		return "", fmt.Errorf("insert suggestion: %w", err)
	}
	return s.ID, nil
}

// ListPendingSuggestions returns suggestions awaiting moderation, oldest
// first.
func (p *Postgres) ListPendingSuggestions(ctx context.Context) ([]domain.Suggestion, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, COALESCE(description, ''),
		COALESCE(repo_link, ''), COALESCE(publication_url, ''), COALESCE(tags, ''),
		submitted_by, status, created_at::text
		FROM suggestions WHERE status = 'pending' ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Suggestion
	for rows.Next() {
		var s domain.Suggestion
		var tagsCSV string
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.RepoLink,
			&s.PublicationURL, &tagsCSV, &s.SubmittedBy, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		if tagsCSV != "" {
			s.Tags = strings.Split(tagsCSV, ",")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return out, nil
}

// ApproveSuggestion invokes the server-side procedure that marks the
// suggestion approved and creates the normalized package record in a single
// transaction. Returns the created package id.
func (p *Postgres) ApproveSuggestion(ctx context.Context, suggestionID, reviewer string) (string, error) {
	var packageID string
	err := p.db.QueryRowContext(ctx,
		`SELECT approve_suggestion($1, $2)`, suggestionID, reviewer).Scan(&packageID)
	if err != nil {
		return "", fmt.Errorf("approve suggestion %s: %w", suggestionID, err)
	}
	return packageID, nil
}

// RejectSuggestion marks a pending suggestion rejected.
func (p *Postgres) RejectSuggestion(ctx context.Context, suggestionID, reviewer string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE suggestions
		SET status = 'rejected', reviewed_by = $2 WHERE id = $1 AND status = 'pending'`,
		suggestionID, reviewer)
	if err != nil {
		return fmt.Errorf("reject suggestion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("reject suggestion %s: %w", suggestionID, domain.ErrNotFound)
	}
	return nil
}

// SubmitRating invokes the server-side procedure that upserts the rating and
// recomputes the package's aggregate in one transaction.
func (p *Postgres) SubmitRating(ctx context.Context, r domain.Rating) error {
	if _, err := p.db.ExecContext(ctx,
		`SELECT submit_rating($1, $2, $3)`, r.PackageID, r.UserID, r.Stars); err != nil {
		return fmt.Errorf("submit rating for %s: %w", r.PackageID, err)
	}
	return nil
}

// classificationID resolves (folder, category) to a folder_categories row,
// creating it when new. Packages without a classification get NULL.
func classificationID(ctx context.Context, tx querier, folder, category string) (any, error) {
	if folder == "" {
		return nil, nil
	}
	var id int64
	err := tx.QueryRowContext(ctx, `INSERT INTO folder_categories (folder, category)
		VALUES ($1, $2)
		ON CONFLICT (folder, category) DO UPDATE SET folder = EXCLUDED.folder
		RETURNING id`, folder, category).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("resolve classification: %w", err)
	}
	return id, nil
}

// replaceTags rewrites the package's tag set inside the caller's transaction.
func replaceTags(ctx context.Context, tx querier, packageID string, tags []string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM package_tags WHERE package_id = $1`, packageID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING`, tag); err != nil {
			return fmt.Errorf("insert tag %q: %w", tag, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO package_tags (package_id, tag_id)
			SELECT $1, id FROM tags WHERE name = $2`, packageID, tag); err != nil {
			return fmt.Errorf("link tag %q: %w", tag, err)
		}
	}
	return nil
}

// querier is the subset of *sql.Tx the helpers need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// nullable maps empty strings to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
