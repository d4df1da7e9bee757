// Package views renders the catalog browser: the package list, the active
// filter line, the detail panel and the moderation queue.
package views

import (
	"fmt"
	"strings"

	"caddvault/internal/domain"
	"caddvault/internal/filter"
)

// Renderer renders the visible portion of the catalog.
type Renderer struct {
	styles           *Styles
	showDescriptions bool
}

// NewRenderer creates a renderer.
func NewRenderer(showDescriptions bool) *Renderer {
	return &Renderer{
		styles:           NewStyles(),
		showDescriptions: showDescriptions,
	}
}

// Styles exposes the style set for composed views.
func (r *Renderer) Styles() *Styles { return r.styles }

// RenderList renders the package rows with the selected one highlighted.
func (r *Renderer) RenderList(items []domain.PackageSummary, selected int, width int) string {
	if len(items) == 0 {
		return r.styles.Dim.Render("  no packages match the current filters")
	}

	var b strings.Builder
	for i, item := range items {
		line := r.renderRow(item, width)
		if i == selected {
			line = r.styles.HighlightBg.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteByte('\n')

		if r.showDescriptions && item.Description != "" {
			desc := truncate(item.Description, width-4)
			b.WriteString(r.styles.Dim.Render("    " + desc))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (r *Renderer) renderRow(item domain.PackageSummary, width int) string {
	name := r.styles.Highlight.Render(item.Name)

	var meta []string
	if item.GithubStars > 0 {
		meta = append(meta, fmt.Sprintf("★%d", item.GithubStars))
	}
	if item.Citations > 0 {
		meta = append(meta, fmt.Sprintf("cited %d", item.Citations))
	}
	if item.RatingsCount > 0 {
		meta = append(meta, fmt.Sprintf("%.1f/5 (%d)", item.AverageRating, item.RatingsCount))
	}
	if item.License != "" {
		meta = append(meta, item.License)
	}

	line := name
	if len(meta) > 0 {
		line += r.styles.Dim.Render("  " + strings.Join(meta, " · "))
	}
	if len(item.Tags) > 0 {
		line += "  " + r.styles.Tag.Render(strings.Join(item.Tags, ","))
	}
	return truncate(line, width-2)
}

// RenderFilterLine summarizes the active criteria the way the list header
// shows them.
func (r *Renderer) RenderFilterLine(c filter.Criteria, pendingSearch string) string {
	var parts []string

	if pendingSearch != "" {
		parts = append(parts, fmt.Sprintf("search: %s", pendingSearch))
	}
	for _, t := range c.SelectedTags {
		parts = append(parts, "tag:"+t)
	}
	for _, l := range c.SelectedLicenses {
		parts = append(parts, "license:"+l)
	}
	if c.MinStars != nil {
		parts = append(parts, fmt.Sprintf("stars≥%d", *c.MinStars))
	}
	if c.MinCitations != nil {
		parts = append(parts, fmt.Sprintf("cite≥%d", *c.MinCitations))
	}
	if c.MinRating != nil {
		parts = append(parts, fmt.Sprintf("rating≥%.1f", *c.MinRating))
	}
	if c.HasGithub {
		parts = append(parts, "has:github")
	}
	if c.HasWebserver {
		parts = append(parts, "has:web")
	}
	if c.HasPublication {
		parts = append(parts, "has:pub")
	}
	if c.Folder != nil {
		folder := *c.Folder
		if c.Category != nil {
			folder += "/" + *c.Category
		}
		parts = append(parts, "in "+folder)
	}

	if len(parts) == 0 {
		return ""
	}
	return r.styles.Filter.Render("[" + strings.Join(parts, "  ") + "]")
}

// RenderPagination renders the page position and sort indicator.
func (r *Renderer) RenderPagination(c filter.Criteria, totalCount int) string {
	totalPages := 1
	if c.PageSize > 0 {
		totalPages = (totalCount + c.PageSize - 1) / c.PageSize
		if totalPages < 1 {
			totalPages = 1
		}
	}

	sortKey := "name"
	if c.SortBy != nil {
		sortKey = *c.SortBy
	}
	arrow := "↑"
	if c.SortDirection == filter.SortDesc {
		arrow = "↓"
	}

	return r.styles.Status.Render(fmt.Sprintf(
		"page %d/%d · %d packages · sort %s%s",
		c.CurrentPage, totalPages, totalCount, sortKey, arrow))
}

// RenderDetail renders the full package record in a bordered panel.
func (r *Renderer) RenderDetail(pkg domain.Package, width int) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(pkg.Name))
	b.WriteByte('\n')

	if pkg.Description != "" {
		b.WriteString(pkg.Description)
		b.WriteString("\n\n")
	}

	field := func(label, value string) {
		if value != "" {
			b.WriteString(fmt.Sprintf("%s %s\n", r.styles.Dim.Render(label+":"), value))
		}
	}
	if pkg.Folder != "" {
		loc := pkg.Folder
		if pkg.Category != "" {
			loc += " / " + pkg.Category
		}
		field("location", loc)
	}
	field("tags", strings.Join(pkg.Tags, ", "))
	field("license", pkg.License)
	field("language", pkg.PrimaryLanguage)
	if pkg.GithubStars > 0 {
		field("stars", fmt.Sprintf("%d (last commit %s)", pkg.GithubStars, pkg.LastCommit))
	}
	if pkg.Citations > 0 {
		cites := fmt.Sprintf("%d", pkg.Citations)
		if pkg.Journal != "" {
			cites += " · " + pkg.Journal
		}
		if pkg.JIF > 0 {
			cites += fmt.Sprintf(" (JIF %.1f)", pkg.JIF)
		}
		field("citations", cites)
	}
	if pkg.RatingsCount > 0 {
		field("rating", fmt.Sprintf("%.1f/5 from %d users", pkg.AverageRating, pkg.RatingsCount))
	}
	field("repo", pkg.RepoLink)
	field("webserver", pkg.WebserverLink)
	field("publication", pkg.PublicationURL)

	return r.styles.DetailBox.Width(min(width-2, 100)).Render(b.String())
}

// RenderSuggestions renders the moderation queue.
func (r *Renderer) RenderSuggestions(suggestions []domain.Suggestion, selected int, width int) string {
	if len(suggestions) == 0 {
		return r.styles.Dim.Render("  no pending suggestions")
	}
	var b strings.Builder
	b.WriteString(r.styles.Title.Render("Pending suggestions"))
	b.WriteByte('\n')
	for i, s := range suggestions {
		line := s.Name
		if s.RepoLink != "" {
			line += r.styles.Dim.Render("  " + s.RepoLink)
		}
		if i == selected {
			line = r.styles.HighlightBg.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(truncate(line, width-2))
		b.WriteByte('\n')
		if s.Description != "" {
			b.WriteString(r.styles.Dim.Render("    " + truncate(s.Description, width-4)))
			b.WriteByte('\n')
		}
	}
	b.WriteString(r.styles.Help.Render("\na approve · x reject · esc back"))
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
