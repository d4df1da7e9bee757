package store

import (
	"context"
	"fmt"
)

// DistinctTags returns every tag name in use, sorted.
func (p *Postgres) DistinctTags(ctx context.Context) ([]string, error) {
	return p.stringList(ctx, `SELECT DISTINCT t.name FROM tags t
		JOIN package_tags pt ON pt.tag_id = t.id ORDER BY t.name`)
}

// DistinctLicenses returns every license in use, sorted.
func (p *Postgres) DistinctLicenses(ctx context.Context) ([]string, error) {
	return p.stringList(ctx, `SELECT DISTINCT license FROM packages
		WHERE license IS NOT NULL AND license <> '' ORDER BY license`)
}

// FolderCategories returns the folder -> category names mapping.
func (p *Postgres) FolderCategories(ctx context.Context) (map[string][]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT folder, category FROM folder_categories ORDER BY folder, category`)
	if err != nil {
		return nil, fmt.Errorf("folder categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]string)
	for rows.Next() {
		var folder, category string
		if err := rows.Scan(&folder, &category); err != nil {
			return nil, fmt.Errorf("scan folder category: %w", err)
		}
		out[folder] = append(out[folder], category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder categories: %w", err)
	}
	return out, nil
}

// MaxStars returns the dataset-wide github-stars maximum.
func (p *Postgres) MaxStars(ctx context.Context) (int, error) {
	return p.intValue(ctx, `SELECT COALESCE(MAX(github_stars), 0) FROM packages`)
}

// MaxCitations returns the dataset-wide citations maximum.
func (p *Postgres) MaxCitations(ctx context.Context) (int, error) {
	return p.intValue(ctx, `SELECT COALESCE(MAX(citations), 0) FROM packages`)
}

// CountPackages returns the exact total number of catalog entries.
func (p *Postgres) CountPackages(ctx context.Context) (int, error) {
	return p.intValue(ctx, `SELECT COUNT(*) FROM packages`)
}

func (p *Postgres) stringList(ctx context.Context, sqlText string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate values: %w", err)
	}
	return out, nil
}

func (p *Postgres) intValue(ctx context.Context, sqlText string) (int, error) {
	var v int
	if err := p.db.QueryRowContext(ctx, sqlText).Scan(&v); err != nil {
		return 0, fmt.Errorf("scalar query: %w", err)
	}
	return v, nil
}
