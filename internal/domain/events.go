package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventCriteriaChanged     EventType = "CriteriaChanged"
	EventFetchDispatched     EventType = "FetchDispatched"
	EventResultsUpdated      EventType = "ResultsUpdated"
	EventFetchFailed         EventType = "FetchFailed"
	EventFacetsRefreshed     EventType = "FacetsRefreshed"
	EventFacetsRefreshFailed EventType = "FacetsRefreshFailed"
	EventSessionChanged      EventType = "SessionChanged"
	EventSuggestionSubmitted EventType = "SuggestionSubmitted"
	EventSuggestionResolved  EventType = "SuggestionResolved"
	EventRatingSubmitted     EventType = "RatingSubmitted"
	EventPackageMutated      EventType = "PackageMutated"
	EventImportCompleted     EventType = "ImportCompleted"
	EventConfigLoaded        EventType = "ConfigLoaded"
	EventConfigSaved         EventType = "ConfigSaved"
	EventError               EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// CriteriaChangedEvent is emitted whenever the filter criteria produce a new
// query signature.
type CriteriaChangedEvent struct {
	Signature string
}

func (e CriteriaChangedEvent) Type() EventType { return EventCriteriaChanged }

// FetchDispatchedEvent is emitted when a page fetch for a signature starts.
type FetchDispatchedEvent struct {
	Signature string
}

func (e FetchDispatchedEvent) Type() EventType { return EventFetchDispatched }

// ResultsUpdatedEvent is emitted when a fetch result has been committed to
// visible state.
type ResultsUpdatedEvent struct {
	Signature  string
	TotalCount int
}

func (e ResultsUpdatedEvent) Type() EventType { return EventResultsUpdated }

// FetchFailedEvent is emitted when a fetch settles with an error.
type FetchFailedEvent struct {
	Signature string
	Err       error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// FacetsRefreshedEvent is emitted when facet metadata has been replaced.
type FacetsRefreshedEvent struct {
	Facets FacetMetadata
}

func (e FacetsRefreshedEvent) Type() EventType { return EventFacetsRefreshed }

// FacetsRefreshFailedEvent is emitted when a metadata refresh fails; the
// previous metadata stays in place.
type FacetsRefreshFailedEvent struct {
	Err error
}

func (e FacetsRefreshFailedEvent) Type() EventType { return EventFacetsRefreshFailed }

// SessionChangedEvent is emitted on login, logout and credential refresh.
type SessionChangedEvent struct {
	Session Session
}

func (e SessionChangedEvent) Type() EventType { return EventSessionChanged }

// SuggestionSubmittedEvent is emitted when a user files a new suggestion.
type SuggestionSubmittedEvent struct {
	Suggestion Suggestion
}

func (e SuggestionSubmittedEvent) Type() EventType { return EventSuggestionSubmitted }

// SuggestionResolvedEvent is emitted when a moderator approves or rejects a
// suggestion.
type SuggestionResolvedEvent struct {
	SuggestionID string
	Status       SuggestionStatus
	PackageID    string // set when approval created a package
}

func (e SuggestionResolvedEvent) Type() EventType { return EventSuggestionResolved }

// RatingSubmittedEvent is emitted after a rating upsert succeeds.
type RatingSubmittedEvent struct {
	Rating Rating
}

func (e RatingSubmittedEvent) Type() EventType { return EventRatingSubmitted }

// PackageMutatedEvent is emitted after a package create/update/delete. New
// tags or folders may exist afterwards, so listeners typically refresh facets.
type PackageMutatedEvent struct {
	PackageID string
}

func (e PackageMutatedEvent) Type() EventType { return EventPackageMutated }

// ImportCompletedEvent is emitted when a CSV import run finishes.
type ImportCompletedEvent struct {
	Imported int
	Failed   int
}

func (e ImportCompletedEvent) Type() EventType { return EventImportCompleted }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	PageSize int
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct{}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }

// ErrorEvent is emitted when an error occurs
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
