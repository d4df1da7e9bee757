package ui

import (
	"fmt"
	"strconv"
	"strings"

	"caddvault/internal/domain"
	"caddvault/internal/filter"
)

// applyFilterExpr applies one filter expression to the criteria store.
// Supported forms:
//
//	tag:NAME        toggle a tag (AND semantics across selected tags)
//	license:NAME    toggle a license (OR semantics across selected licenses)
//	stars:N         minimum github stars (stars: clears)
//	cite:N          minimum citations
//	rating:X        minimum average rating
//	folder:NAME     folder filter (folder: clears, also clears category)
//	cat:NAME        category within the current folder
//	has:github|web|pub   toggle a presence filter
//
// Anything without a prefix becomes the free-text search term.
func applyFilterExpr(store *filter.Store, facets domain.FacetMetadata, expr string) error {
	expr = strings.TrimSpace(expr)

	prefix, rest, found := strings.Cut(expr, ":")
	if !found {
		store.SetSearchTerm(expr)
		return nil
	}
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(prefix) {
	case "tag":
		if rest == "" {
			return fmt.Errorf("tag: needs a tag name")
		}
		store.ToggleTag(rest)

	case "license":
		if rest == "" {
			return fmt.Errorf("license: needs a license name")
		}
		store.ToggleLicense(rest)

	case "stars":
		return setIntBound(rest, store.SetMinStars)

	case "cite", "citations":
		return setIntBound(rest, store.SetMinCitations)

	case "rating":
		if rest == "" {
			store.SetMinRating(nil)
			return nil
		}
		v, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return fmt.Errorf("rating: %q is not a number", rest)
		}
		store.SetMinRating(&v)

	case "folder":
		if rest == "" {
			store.SetFolder(nil, facets)
			return nil
		}
		store.SetFolder(&rest, facets)

	case "cat", "category":
		if rest == "" {
			store.SetCategory(nil)
			return nil
		}
		c := store.Criteria()
		if c.Folder == nil {
			return fmt.Errorf("cat: set a folder first")
		}
		if !facets.HasCategory(*c.Folder, rest) {
			return fmt.Errorf("cat: %q is not a category of %q", rest, *c.Folder)
		}
		store.SetCategory(&rest)

	case "has":
		c := store.Criteria()
		switch strings.ToLower(rest) {
		case "github", "code":
			store.SetHasGithub(!c.HasGithub)
		case "web", "webserver":
			store.SetHasWebserver(!c.HasWebserver)
		case "pub", "publication":
			store.SetHasPublication(!c.HasPublication)
		default:
			return fmt.Errorf("has: expected github, web or pub")
		}

	default:
		// Unrecognized prefix, treat the whole thing as search text.
		store.SetSearchTerm(expr)
	}
	return nil
}

func setIntBound(rest string, set func(*int)) error {
	if rest == "" {
		set(nil)
		return nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("%q is not a number", rest)
	}
	set(&n)
	return nil
}

// sortKeys is the cycle order for the sort hotkey.
var sortKeys = []string{"name", "stars", "citations", "rating", "last_commit"}

// nextSortKey returns the sort key after current in the cycle.
func nextSortKey(current *string) string {
	if current == nil {
		return sortKeys[1] // name is the default, cycle starts past it
	}
	for i, k := range sortKeys {
		if k == *current {
			return sortKeys[(i+1)%len(sortKeys)]
		}
	}
	return sortKeys[0]
}
