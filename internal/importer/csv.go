// Package importer loads catalog entries from the curation CSV into the
// remote store. Rows are upserted individually so a bad row is reported and
// skipped without aborting the batch.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/store"
)

// headerMapping maps curation CSV headers to package fields. Unknown headers
// are ignored.
var headerMapping = map[string]string{
	"ENTRY NAME":   "name",
	"CODE":         "repo_link",
	"PUBLICATION":  "publication_url",
	"WEBSERVER":    "webserver_link",
	"FOLDER1":      "folder",
	"CATEGORY1":    "category",
	"DESCRIPTION":  "description",
	"GITHUB_STARS": "github_stars",
	"LAST_COMMIT":  "last_commit",
	"LICENSE":      "license",
	"CITATIONS":    "citations",
	"JOURNAL":      "journal",
	"JIF":          "jif",
	"TAGS":         "tags",
}

// RowError reports one failed row.
type RowError struct {
	Line int
	Name string
	Err  error
}

// Report summarizes an import run.
type Report struct {
	Imported int
	Failed   []RowError
}

// Importer streams CSV rows into the store.
type Importer struct {
	mutator store.Mutator
	bus     eventbus.EventBus
	log     *zap.Logger
}

// New creates an importer.
func New(mutator store.Mutator, bus eventbus.EventBus, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{mutator: mutator, bus: bus, log: log}
}

// ImportFile imports a catalog CSV from disk.
func (im *Importer) ImportFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return im.Import(ctx, f)
}

// Import reads CSV rows from r and creates a package per row. The first
// record must be the header.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // curation sheets have ragged rows

	headers, err := reader.Read()
	if err != nil {
		return Report{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	fields := make([]string, len(headers))
	for i, h := range headers {
		fields[i] = headerMapping[strings.ToUpper(strings.TrimSpace(h))]
	}

	var report Report
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			report.Failed = append(report.Failed, RowError{Line: line, Err: err})
			continue
		}

		pkg, err := buildPackage(fields, record)
		if err != nil {
			report.Failed = append(report.Failed, RowError{Line: line, Name: pkg.Name, Err: err})
			continue
		}

		if _, err := im.mutator.CreatePackage(ctx, pkg); err != nil {
			im.log.Warn("import row failed",
				zap.Int("line", line),
				zap.String("name", pkg.Name),
				zap.Error(err))
			report.Failed = append(report.Failed, RowError{Line: line, Name: pkg.Name, Err: err})
			continue
		}
		report.Imported++
	}

	if im.bus != nil {
		im.bus.Publish(eventbus.ImportCompletedEvent{
			Imported: report.Imported,
			Failed:   len(report.Failed),
		})
	}
	return report, nil
}

// buildPackage maps one CSV record onto a package, parsing numeric fields and
// splitting the tag list.
func buildPackage(fields, record []string) (domain.Package, error) {
	var pkg domain.Package
	for i, value := range record {
		if i >= len(fields) || fields[i] == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch fields[i] {
		case "name":
			pkg.Name = value
		case "description":
			pkg.Description = value
		case "repo_link":
			pkg.RepoLink = value
			pkg.GithubOwner, pkg.GithubRepo = parseGithubRepo(value)
		case "publication_url":
			pkg.PublicationURL = value
		case "webserver_link":
			pkg.WebserverLink = value
		case "folder":
			pkg.Folder = value
		case "category":
			pkg.Category = value
		case "license":
			pkg.License = value
		case "journal":
			pkg.Journal = value
		case "last_commit":
			pkg.LastCommit = value
		case "github_stars":
			n, err := strconv.Atoi(value)
			if err != nil {
				return pkg, fmt.Errorf("bad github_stars %q: %w", value, err)
			}
			pkg.GithubStars = n
		case "citations":
			n, err := strconv.Atoi(value)
			if err != nil {
				return pkg, fmt.Errorf("bad citations %q: %w", value, err)
			}
			pkg.Citations = n
		case "jif":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return pkg, fmt.Errorf("bad jif %q: %w", value, err)
			}
			pkg.JIF = f
		case "tags":
			pkg.Tags = parseTags(value)
		}
	}

	if pkg.Name == "" {
		return pkg, fmt.Errorf("row has no entry name")
	}
	return pkg, nil
}

// parseTags accepts both tag list forms found in curation sheets: a JSON
// array or a comma-separated string.
func parseTags(value string) []string {
	if strings.HasPrefix(value, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(value), &tags); err == nil {
			out := tags[:0]
			for _, t := range tags {
				if t = strings.TrimSpace(t); t != "" {
					out = append(out, t)
				}
			}
			return out
		}
	}
	var out []string
	for _, tag := range strings.Split(value, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// parseGithubRepo extracts owner/repo from a github URL, empty otherwise.
func parseGithubRepo(link string) (owner, repo string) {
	idx := strings.Index(link, "github.com/")
	if idx < 0 {
		return "", ""
	}
	parts := strings.Split(strings.Trim(link[idx+len("github.com/"):], "/"), "/")
	if len(parts) < 2 {
		return "", ""
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git")
}
