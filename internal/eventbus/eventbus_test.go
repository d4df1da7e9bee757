package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, ch <-chan DomainEvent) DomainEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := New(nil)
	got := make(chan DomainEvent, 1)

	bus.Subscribe(EventFetchDispatched, func(e DomainEvent) { got <- e })
	bus.Publish(FetchDispatchedEvent{Signature: "sig-a"})

	e := waitFor(t, got)
	dispatched, ok := e.(FetchDispatchedEvent)
	require.True(t, ok)
	assert.Equal(t, "sig-a", dispatched.Signature)
}

func TestSubscribersAreFilteredByType(t *testing.T) {
	bus := New(nil)
	got := make(chan DomainEvent, 2)

	bus.Subscribe(EventResultsUpdated, func(e DomainEvent) { got <- e })

	bus.Publish(FetchDispatchedEvent{Signature: "ignored"})
	bus.Publish(ResultsUpdatedEvent{Signature: "sig-b", TotalCount: 3})

	e := waitFor(t, got)
	updated, ok := e.(ResultsUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, 3, updated.TotalCount)
}

func TestAllSubscribersReceiveTheEvent(t *testing.T) {
	bus := New(nil)

	var wg sync.WaitGroup
	wg.Add(2)
	bus.Subscribe(EventPackageMutated, func(DomainEvent) { wg.Done() })
	bus.Subscribe(EventPackageMutated, func(DomainEvent) { wg.Done() })

	bus.Publish(PackageMutatedEvent{PackageID: "p1"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not every subscriber saw the event")
	}
}

func TestPanickingHandlerDoesNotKillDispatch(t *testing.T) {
	bus := New(nil)
	got := make(chan DomainEvent, 1)

	bus.Subscribe(EventError, func(DomainEvent) { panic("handler bug") })
	bus.Subscribe(EventError, func(e DomainEvent) { got <- e })

	bus.Publish(ErrorEvent{Message: "boom"})
	waitFor(t, got)

	// The bus still works after the panic.
	bus.Publish(ErrorEvent{Message: "again"})
	waitFor(t, got)
}
