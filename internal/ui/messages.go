package ui

import (
	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/fetch"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// fetchResultMsg carries a settled page fetch back into the update loop. The
// embedded signature is what the reconciler checks before committing.
type fetchResultMsg struct {
	result fetch.Result
}

// debounceMsg fires when a search debounce window closes. The token is stale
// if the user kept typing.
type debounceMsg struct {
	token int
}

// facetsMsg contains the outcome of a facet metadata refresh
type facetsMsg struct {
	facets domain.FacetMetadata
	err    error
}

// detailMsg contains the result of a package detail fetch
type detailMsg struct {
	pkg domain.Package
	err error
}

// suggestionsMsg contains the moderation queue
type suggestionsMsg struct {
	suggestions []domain.Suggestion
	err         error
}

// actionMsg reports the outcome of a mutation (suggestion, rating, moderation)
type actionMsg struct {
	info string
	err  error
}
