// Package fetch executes translated queries against the remote store and
// produces results tagged with their query signature. It owns the timeout
// bound, the retry policy, the error classification, and a small cache of
// recent pages.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"caddvault/internal/auth"
	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/query"
	"caddvault/internal/store"
)

// Result is the settled outcome of one fetch, tagged with the signature of
// the request that produced it so stale completions can be recognized.
type Result struct {
	Items      []domain.PackageSummary
	TotalCount int
	Signature  query.Signature
	Err        error // classified; nil on success
}

// resultCacheSize bounds the memo of recent successful pages.
const resultCacheSize = 64

// Orchestrator runs queries with a bounded timeout, classifies failures, and
// retries once — refreshing credentials first when the failure was an
// authorization one.
type Orchestrator struct {
	store    store.Store
	sessions auth.Sessions
	bus      eventbus.EventBus
	log      *zap.Logger
	timeout  time.Duration

	cache *lru.Cache[query.Signature, store.QueryResult]

	mu     sync.Mutex
	latest query.Signature
}

// New creates an orchestrator. A zero timeout disables the fetch bound.
func New(s store.Store, sessions auth.Sessions, bus eventbus.EventBus, log *zap.Logger, timeout time.Duration) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	cache, _ := lru.New[query.Signature, store.QueryResult](resultCacheSize)
	return &Orchestrator{
		store:    s,
		sessions: sessions,
		bus:      bus,
		log:      log,
		timeout:  timeout,
		cache:    cache,
	}
}

// Dispatch records req's signature as the most recent request and announces
// it. The returned signature correlates the eventual Fetch result.
func (o *Orchestrator) Dispatch(req query.Request) query.Signature {
	sig := query.SignatureOf(req)
	o.mu.Lock()
	o.latest = sig
	o.mu.Unlock()
	if o.bus != nil {
		o.bus.Publish(eventbus.FetchDispatchedEvent{Signature: string(sig)})
	}
	return sig
}

// Latest returns the most recently dispatched signature.
func (o *Orchestrator) Latest() query.Signature {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latest
}

// Cached returns the memoized page for a signature, if any.
func (o *Orchestrator) Cached(sig query.Signature) (store.QueryResult, bool) {
	return o.cache.Get(sig)
}

// Fetch executes a translated query and returns the settled result. The
// result always carries the request's signature, even on failure, so the
// reconciler can match it against the latest dispatched one.
func (o *Orchestrator) Fetch(ctx context.Context, req query.Request) Result {
	sig := query.SignatureOf(req)

	res, err := withRetry(o, ctx, func(ctx context.Context) (store.QueryResult, error) {
		return o.store.ExecuteQuery(ctx, req)
	})
	if err != nil {
		o.log.Warn("fetch failed", zap.String("signature", string(sig)), zap.Error(err))
		if o.bus != nil {
			o.bus.Publish(eventbus.FetchFailedEvent{Signature: string(sig), Err: err})
		}
		return Result{Signature: sig, Err: err}
	}

	o.cache.Add(sig, res)
	return Result{Items: res.Items, TotalCount: res.TotalCount, Signature: sig}
}

// GetPackage fetches a package detail record through the same timeout,
// classification and retry policy as list fetches.
func (o *Orchestrator) GetPackage(ctx context.Context, id string) (domain.Package, error) {
	return withRetry(o, ctx, func(ctx context.Context) (domain.Package, error) {
		return o.store.GetPackage(ctx, id)
	})
}

// SubmitSuggestion files a suggestion for the signed-in user.
func (o *Orchestrator) SubmitSuggestion(ctx context.Context, s domain.Suggestion) (string, error) {
	session := o.sessions.Current()
	if session.Anonymous() {
		return "", domain.ErrAuth
	}
	s.SubmittedBy = session.UserID
	id, err := withRetry(o, ctx, func(ctx context.Context) (string, error) {
		return o.store.SubmitSuggestion(ctx, s)
	})
	if err != nil {
		return "", err
	}
	if o.bus != nil {
		s.ID = id
		o.bus.Publish(eventbus.SuggestionSubmittedEvent{Suggestion: s})
	}
	return id, nil
}

// ListPendingSuggestions returns the moderation queue. Admin only.
func (o *Orchestrator) ListPendingSuggestions(ctx context.Context) ([]domain.Suggestion, error) {
	if !o.sessions.IsAdmin() {
		return nil, domain.ErrAuth
	}
	return withRetry(o, ctx, func(ctx context.Context) ([]domain.Suggestion, error) {
		return o.store.ListPendingSuggestions(ctx)
	})
}

// ApproveSuggestion runs the server-side approval procedure. Admin only.
func (o *Orchestrator) ApproveSuggestion(ctx context.Context, suggestionID string) (string, error) {
	if !o.sessions.IsAdmin() {
		return "", domain.ErrAuth
	}
	reviewer := o.sessions.Current().UserID
	packageID, err := withRetry(o, ctx, func(ctx context.Context) (string, error) {
		return o.store.ApproveSuggestion(ctx, suggestionID, reviewer)
	})
	if err != nil {
		return "", err
	}
	if o.bus != nil {
		o.bus.Publish(eventbus.SuggestionResolvedEvent{
			SuggestionID: suggestionID,
			Status:       domain.SuggestionApproved,
			PackageID:    packageID,
		})
	}
	return packageID, nil
}

// RejectSuggestion marks a suggestion rejected. Admin only.
func (o *Orchestrator) RejectSuggestion(ctx context.Context, suggestionID string) error {
	if !o.sessions.IsAdmin() {
		return domain.ErrAuth
	}
	reviewer := o.sessions.Current().UserID
	_, err := withRetry(o, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.store.RejectSuggestion(ctx, suggestionID, reviewer)
	})
	if err != nil {
		return err
	}
	if o.bus != nil {
		o.bus.Publish(eventbus.SuggestionResolvedEvent{
			SuggestionID: suggestionID,
			Status:       domain.SuggestionRejected,
		})
	}
	return nil
}

// SubmitRating upserts the signed-in user's rating via the server-side
// procedure.
func (o *Orchestrator) SubmitRating(ctx context.Context, packageID string, stars int) error {
	session := o.sessions.Current()
	if session.Anonymous() {
		return domain.ErrAuth
	}
	rating := domain.Rating{PackageID: packageID, UserID: session.UserID, Stars: stars}
	_, err := withRetry(o, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.store.SubmitRating(ctx, rating)
	})
	if err != nil {
		return err
	}
	if o.bus != nil {
		o.bus.Publish(eventbus.RatingSubmittedEvent{Rating: rating})
	}
	return nil
}

// CreatePackage inserts a package. Admin only.
func (o *Orchestrator) CreatePackage(ctx context.Context, pkg domain.Package) (string, error) {
	if !o.sessions.IsAdmin() {
		return "", domain.ErrAuth
	}
	id, err := withRetry(o, ctx, func(ctx context.Context) (string, error) {
		return o.store.CreatePackage(ctx, pkg)
	})
	if err != nil {
		return "", err
	}
	o.publishMutated(id)
	return id, nil
}

// UpdatePackage rewrites a package. Admin only.
func (o *Orchestrator) UpdatePackage(ctx context.Context, pkg domain.Package) error {
	if !o.sessions.IsAdmin() {
		return domain.ErrAuth
	}
	_, err := withRetry(o, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.store.UpdatePackage(ctx, pkg)
	})
	if err != nil {
		return err
	}
	o.publishMutated(pkg.ID)
	return nil
}

// DeletePackage removes a package. Admin only.
func (o *Orchestrator) DeletePackage(ctx context.Context, id string) error {
	if !o.sessions.IsAdmin() {
		return domain.ErrAuth
	}
	_, err := withRetry(o, ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, o.store.DeletePackage(ctx, id)
	})
	if err != nil {
		return err
	}
	o.publishMutated(id)
	return nil
}

func (o *Orchestrator) publishMutated(id string) {
	// Mutations can introduce new tags or folders, and they invalidate any
	// memoized pages.
	o.cache.Purge()
	if o.bus != nil {
		o.bus.Publish(eventbus.PackageMutatedEvent{PackageID: id})
	}
}

// withRetry runs op under the configured timeout, classifies its error, and
// retries at most once: after a credential refresh for auth failures, plainly
// for transport/timeout failures. Validation and not-found errors surface
// immediately.
func withRetry[T any](o *Orchestrator, ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	out, err := runBounded(o, ctx, op)
	if err == nil {
		return out, nil
	}

	classified := Classify(err)
	switch {
	case errors.Is(classified, domain.ErrAuth):
		if o.sessions == nil {
			return out, classified
		}
		if refreshErr := o.sessions.Refresh(ctx); refreshErr != nil {
			return out, classified
		}
	case domain.Retryable(classified):
		// one plain retry
	default:
		return out, classified
	}

	out, err = runBounded(o, ctx, op)
	if err != nil {
		return out, Classify(err)
	}
	return out, nil
}

func runBounded[T any](o *Orchestrator, ctx context.Context, op func(context.Context) (T, error)) (T, error) {
	if o.timeout > 0 {
		bounded, cancel := context.WithTimeout(ctx, o.timeout)
		defer cancel()
		return op(bounded)
	}
	return op(ctx)
}
