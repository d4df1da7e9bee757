package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"caddvault/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventCriteriaChanged     = domain.EventCriteriaChanged
	EventFetchDispatched     = domain.EventFetchDispatched
	EventResultsUpdated      = domain.EventResultsUpdated
	EventFetchFailed         = domain.EventFetchFailed
	EventFacetsRefreshed     = domain.EventFacetsRefreshed
	EventFacetsRefreshFailed = domain.EventFacetsRefreshFailed
	EventSessionChanged      = domain.EventSessionChanged
	EventSuggestionSubmitted = domain.EventSuggestionSubmitted
	EventSuggestionResolved  = domain.EventSuggestionResolved
	EventRatingSubmitted     = domain.EventRatingSubmitted
	EventPackageMutated      = domain.EventPackageMutated
	EventImportCompleted     = domain.EventImportCompleted
	EventConfigLoaded        = domain.EventConfigLoaded
	EventConfigSaved         = domain.EventConfigSaved
	EventError               = domain.EventError
)

// Re-export domain event types
type CriteriaChangedEvent = domain.CriteriaChangedEvent
type FetchDispatchedEvent = domain.FetchDispatchedEvent
type ResultsUpdatedEvent = domain.ResultsUpdatedEvent
type FetchFailedEvent = domain.FetchFailedEvent
type FacetsRefreshedEvent = domain.FacetsRefreshedEvent
type FacetsRefreshFailedEvent = domain.FacetsRefreshFailedEvent
type SessionChangedEvent = domain.SessionChangedEvent
type SuggestionSubmittedEvent = domain.SuggestionSubmittedEvent
type SuggestionResolvedEvent = domain.SuggestionResolvedEvent
type RatingSubmittedEvent = domain.RatingSubmittedEvent
type PackageMutatedEvent = domain.PackageMutatedEvent
type ImportCompletedEvent = domain.ImportCompletedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigSavedEvent = domain.ConfigSavedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	log       *zap.Logger
	handlers  map[EventType][]EventHandler
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
}

// New creates a new event bus. A nil logger is replaced with a no-op logger.
func New(log *zap.Logger) EventBus {
	if log == nil {
		log = zap.NewNop()
	}
	b := &bus{
		log:       log,
		handlers:  make(map[EventType][]EventHandler),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Criteria changes fire on every keystroke-adjacent edit; don't log them.
	switch event.Type() {
	case EventCriteriaChanged:
	default:
		b.log.Debug("publishing event", zap.String("type", string(event.Type())))
	}

	select {
	case b.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, log and drop
		b.log.Warn("event bus channel full, dropping event", zap.String("type", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Add handler to the list
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	// Return unsubscribe function
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		// Find and remove the handler
		handlers := b.handlers[eventType]
		for i, h := range handlers {
			// Compare function pointers
			if &h == &handler {
				// Remove handler by slicing
				b.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			// Get handlers for this event type
			b.mu.RLock()
			handlers := b.handlers[event.Type()]
			// Make a copy to avoid holding lock during handler execution
			handlersCopy := make([]EventHandler, len(handlers))
			copy(handlersCopy, handlers)
			b.mu.RUnlock()

			// Call each handler
			for _, handler := range handlersCopy {
				// Call handler in a goroutine to avoid blocking
				go func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							b.log.Error("event handler panic",
								zap.String("type", string(eventType)),
								zap.Any("panic", r),
								zap.ByteString("stack", debug.Stack()))
						}
					}()
					h(event)
				}(handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
					// Discard event
				default:
					return
				}
			}
		}
	}
}
