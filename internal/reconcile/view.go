// Package reconcile binds fetch results to the currently active filter
// criteria. For any sequence of criteria changes, only the result whose
// signature matches the most recently dispatched request may become visible;
// responses for superseded requests are discarded no matter when they arrive.
package reconcile

import (
	"caddvault/internal/domain"
	"caddvault/internal/fetch"
	"caddvault/internal/query"
)

// State is the view's position in the fetch lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// View is the per-view reconciliation machine. It runs for the lifetime of
// the view; there is no terminal state. It is owned by the single-threaded
// UI loop and needs no locking.
type View struct {
	state  State
	latest query.Signature // signature of the most recently dispatched request

	// Last-known-good result set, kept visible through errors so a transient
	// failure never blanks the list.
	items      []domain.PackageSummary
	totalCount int
	committed  query.Signature // signature of the visible result set
	err        error
}

// NewView creates an idle view.
func NewView() *View {
	return &View{state: StateIdle}
}

// Begin records a newly dispatched signature and enters loading. Loading is
// re-entrant: criteria changes while a fetch is outstanding simply supersede
// the awaited signature.
func (v *View) Begin(sig query.Signature) {
	v.latest = sig
	v.state = StateLoading
	v.err = nil
}

// Apply offers a settled fetch result to the view. Results whose signature
// does not match the latest dispatched request are discarded and the view
// stays loading, still awaiting the newer request. Returns true when the
// result was committed.
func (v *View) Apply(res fetch.Result) bool {
	if v.state != StateLoading || res.Signature != v.latest {
		return false
	}

	if res.Err != nil {
		// Surface the error but keep the last-known-good rows visible.
		v.state = StateError
		v.err = res.Err
		return true
	}

	v.state = StateSuccess
	v.items = res.Items
	v.totalCount = res.TotalCount
	v.committed = res.Signature
	v.err = nil
	return true
}

// State returns the current lifecycle state.
func (v *View) State() State { return v.state }

// Loading reports whether a fetch is outstanding.
func (v *View) Loading() bool { return v.state == StateLoading }

// Items returns the visible result set: the last successfully committed rows,
// which may be stale while loading or in error.
func (v *View) Items() []domain.PackageSummary { return v.items }

// TotalCount returns the exact total for the visible result set.
func (v *View) TotalCount() int { return v.totalCount }

// CommittedSignature identifies the visible result set.
func (v *View) CommittedSignature() query.Signature { return v.committed }

// AwaitedSignature identifies the request the view is waiting on.
func (v *View) AwaitedSignature() query.Signature { return v.latest }

// Err returns the surfaced error, nil unless the view is in StateError.
func (v *View) Err() error { return v.err }
