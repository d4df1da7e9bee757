package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"caddvault/internal/auth"
	"caddvault/internal/config"
	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/facets"
	"caddvault/internal/fetch"
	"caddvault/internal/filter"
	"caddvault/internal/query"
	"caddvault/internal/reconcile"
	"caddvault/internal/uistate"
	"caddvault/internal/ui/views"
)

// inputMode tracks which input context the keyboard is in
type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeFilter
	modeSuggest
	modeModeration
	modeDetail
	modeHelp
)

// Deps bundles the services the UI consumes.
type Deps struct {
	Bus      eventbus.EventBus
	Config   *config.Config
	Criteria *filter.Store
	Facets   *facets.Cache
	Fetcher  *fetch.Orchestrator
	Sessions *auth.Service
	Persist  *uistate.Service
}

// Model represents the UI state
type Model struct {
	bus      eventbus.EventBus
	config   *config.Config
	criteria *filter.Store
	facetsC  *facets.Cache
	fetcher  *fetch.Orchestrator
	sessions *auth.Service
	persist  *uistate.Service

	view     *reconcile.View
	renderer *views.Renderer

	facets domain.FacetMetadata

	width  int
	height int

	mode      inputMode
	textInput textinput.Model
	spin      spinner.Model

	selected    int
	detail      *domain.Package
	suggestions []domain.Suggestion
	sugSelected int

	statusMessage string
	debounce      time.Duration
}

// NewModel creates a new UI model
func NewModel(deps Deps) *Model {
	ti := textinput.New()
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		bus:       deps.Bus,
		config:    deps.Config,
		criteria:  deps.Criteria,
		facetsC:   deps.Facets,
		fetcher:   deps.Fetcher,
		sessions:  deps.Sessions,
		persist:   deps.Persist,
		view:      reconcile.NewView(),
		renderer:  views.NewRenderer(deps.Config.UISettings.ShowDescriptions),
		textInput: ti,
		spin:      sp,
		debounce:  time.Duration(deps.Config.DebounceMs) * time.Millisecond,
	}
	return m
}

// Init starts the facet refresh and the initial page fetch.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refreshFacetsCmd(), m.dispatchFetch(), m.spin.Tick)
}

// dispatchFetch translates the current criteria, records the new signature
// with the reconciler, and returns the command that runs the fetch. A cached
// page for the same signature is committed immediately while the fetch
// revalidates it in the background.
func (m *Model) dispatchFetch() tea.Cmd {
	req := query.ToRequest(m.criteria.Criteria())
	sig := m.fetcher.Dispatch(req)
	m.view.Begin(sig)
	m.selected = 0

	if cached, ok := m.fetcher.Cached(sig); ok {
		m.view.Apply(fetch.Result{
			Items:      cached.Items,
			TotalCount: cached.TotalCount,
			Signature:  sig,
		})
		m.view.Begin(sig) // keep awaiting the revalidation
	}

	fetcher := m.fetcher
	return func() tea.Msg {
		return fetchResultMsg{result: fetcher.Fetch(context.Background(), req)}
	}
}

func (m *Model) refreshFacetsCmd() tea.Cmd {
	cache := m.facetsC
	return func() tea.Msg {
		f, err := cache.Refresh(context.Background())
		return facetsMsg{facets: f, err: err}
	}
}

func (m *Model) detailCmd(id string) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		pkg, err := fetcher.GetPackage(context.Background(), id)
		return detailMsg{pkg: pkg, err: err}
	}
}

func (m *Model) suggestionsCmd() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		list, err := fetcher.ListPendingSuggestions(context.Background())
		return suggestionsMsg{suggestions: list, err: err}
	}
}

func (m *Model) rateCmd(id string, stars int) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		if err := fetcher.SubmitRating(context.Background(), id, stars); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{info: fmt.Sprintf("rated %d/5", stars)}
	}
}

func (m *Model) submitSuggestionCmd(s domain.Suggestion) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		if _, err := fetcher.SubmitSuggestion(context.Background(), s); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{info: fmt.Sprintf("suggested %q, thanks!", s.Name)}
	}
}

func (m *Model) resolveSuggestionCmd(id string, approve bool) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		if approve {
			if _, err := fetcher.ApproveSuggestion(context.Background(), id); err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{info: "suggestion approved"}
		}
		if err := fetcher.RejectSuggestion(context.Background(), id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{info: "suggestion rejected"}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case fetchResultMsg:
		committed := m.view.Apply(msg.result)
		if committed {
			if msg.result.Err == nil {
				if m.selected >= len(m.view.Items()) {
					m.selected = 0
				}
				if m.bus != nil {
					m.bus.Publish(eventbus.ResultsUpdatedEvent{
						Signature:  string(msg.result.Signature),
						TotalCount: msg.result.TotalCount,
					})
				}
			}
		}
		return m, nil

	case debounceMsg:
		if m.criteria.CommitSearch(msg.token) {
			return m, m.dispatchFetch()
		}
		return m, nil

	case facetsMsg:
		if msg.err != nil {
			m.statusMessage = "facet refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.facets = msg.facets
		return m, nil

	case detailMsg:
		if msg.err != nil {
			if errors.Is(msg.err, domain.ErrNotFound) {
				m.statusMessage = "package no longer exists"
			} else {
				m.statusMessage = msg.err.Error()
			}
			return m, nil
		}
		pkg := msg.pkg
		m.detail = &pkg
		m.mode = modeDetail
		return m, nil

	case suggestionsMsg:
		if msg.err != nil {
			m.statusMessage = msg.err.Error()
			return m, nil
		}
		m.suggestions = msg.suggestions
		m.sugSelected = 0
		m.mode = modeModeration
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.statusMessage = actionError(msg.err)
			return m, nil
		}
		m.statusMessage = msg.info
		// Mutations can change aggregates and facet values.
		if m.mode == modeModeration {
			return m, tea.Batch(m.suggestionsCmd(), m.refreshFacetsCmd(), m.dispatchFetch())
		}
		return m, tea.Batch(m.refreshFacetsCmd(), m.dispatchFetch())

	case EventMsg:
		return m.handleEvent(msg.Event)
	}

	return m, nil
}

// actionError renders a classified mutation error without discarding context.
func actionError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuth):
		return "not allowed: sign in with sufficient privileges"
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return "that record no longer exists"
	case errors.Is(err, domain.ErrTimeout):
		return "the request timed out, try again"
	default:
		return "request failed: " + err.Error()
	}
}

func (m *Model) handleEvent(event eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	switch e := event.(type) {
	case eventbus.SessionChangedEvent:
		if e.Session.Anonymous() {
			m.statusMessage = "signed out"
		} else {
			m.statusMessage = "signed in as " + e.Session.Email
		}
	case eventbus.ImportCompletedEvent:
		m.statusMessage = fmt.Sprintf("import finished: %d rows, %d failed", e.Imported, e.Failed)
		return m, tea.Batch(m.refreshFacetsCmd(), m.dispatchFetch())
	case eventbus.FacetsRefreshedEvent:
		m.facets = e.Facets
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeFilter, modeSuggest:
		return m.handleTextEntryKey(msg)
	case modeModeration:
		return m.handleModerationKey(msg)
	case modeDetail:
		return m.handleDetailKey(msg)
	case modeHelp:
		m.mode = modeNormal
		return m, nil
	default:
		return m.handleNormalKey(msg)
	}
}

func (m *Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.saveFilters()
		return m, tea.Quit

	case "/":
		m.mode = modeSearch
		m.textInput.Placeholder = "search name or description"
		m.textInput.SetValue(m.criteria.PendingSearch())
		m.textInput.Focus()
		return m, textinput.Blink

	case "f":
		m.mode = modeFilter
		m.textInput.Placeholder = "tag:docking  license:MIT  stars:100  folder:..."
		m.textInput.SetValue("")
		m.textInput.Focus()
		return m, textinput.Blink

	case "u":
		if m.sessions.Current().Anonymous() {
			m.statusMessage = "sign in to suggest a package"
			return m, nil
		}
		m.mode = modeSuggest
		m.textInput.Placeholder = "name | repo link | description"
		m.textInput.SetValue("")
		m.textInput.Focus()
		return m, textinput.Blink

	case "m":
		if !m.sessions.IsAdmin() {
			m.statusMessage = "moderation requires admin access"
			return m, nil
		}
		return m, m.suggestionsCmd()

	case "j", "down":
		if m.selected < len(m.view.Items())-1 {
			m.selected++
		}
		return m, nil

	case "k", "up":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case "n", "right":
		c := m.criteria.Criteria()
		if c.CurrentPage*c.PageSize < m.view.TotalCount() {
			m.criteria.NextPage()
			return m, m.dispatchFetch()
		}
		return m, nil

	case "p", "left":
		if m.criteria.Criteria().CurrentPage > 1 {
			m.criteria.PrevPage()
			return m, m.dispatchFetch()
		}
		return m, nil

	case "s":
		c := m.criteria.Criteria()
		key := nextSortKey(c.SortBy)
		m.criteria.SetSort(&key, c.SortDirection)
		return m, m.dispatchFetch()

	case "S":
		c := m.criteria.Criteria()
		dir := filter.SortAsc
		if c.SortDirection == filter.SortAsc {
			dir = filter.SortDesc
		}
		m.criteria.SetSort(c.SortBy, dir)
		return m, m.dispatchFetch()

	case "r":
		m.criteria.Reset()
		return m, m.dispatchFetch()

	case "R":
		return m, m.refreshFacetsCmd()

	case "1", "2", "3", "4", "5":
		return m.rateSelected(int(msg.String()[0] - '0'))

	case "enter":
		items := m.view.Items()
		if m.selected < len(items) {
			return m, m.detailCmd(items[m.selected].ID)
		}
		return m, nil

	case "?":
		m.mode = modeHelp
		return m, nil
	}

	return m, nil
}

func (m *Model) rateSelected(stars int) (tea.Model, tea.Cmd) {
	if m.sessions.Current().Anonymous() {
		m.statusMessage = "sign in to rate packages"
		return m, nil
	}
	items := m.view.Items()
	if m.selected >= len(items) {
		return m, nil
	}
	return m, m.rateCmd(items[m.selected].ID, stars)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.textInput.Blur()
		return m, nil
	case "enter":
		// Commit immediately, skipping the debounce window.
		m.criteria.SetSearchTerm(m.textInput.Value())
		m.mode = modeNormal
		m.textInput.Blur()
		return m, m.dispatchFetch()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)

	// Local echo is synchronous; the committed term follows after the
	// debounce window closes without further typing.
	token := m.criteria.TypeSearch(m.textInput.Value())
	debounce := tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return debounceMsg{token: token}
	})
	return m, tea.Batch(cmd, debounce)
}

func (m *Model) handleTextEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNormal
		m.textInput.Blur()
		return m, nil

	case "enter":
		value := m.textInput.Value()
		entryMode := m.mode
		m.mode = modeNormal
		m.textInput.Blur()

		if entryMode == modeSuggest {
			s, err := parseSuggestion(value, m.sessions.Current().UserID)
			if err != nil {
				m.statusMessage = err.Error()
				return m, nil
			}
			return m, m.submitSuggestionCmd(s)
		}

		if err := applyFilterExpr(m.criteria, m.facets, value); err != nil {
			m.statusMessage = err.Error()
			return m, nil
		}
		return m, m.dispatchFetch()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleModerationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeNormal
		return m, nil
	case "j", "down":
		if m.sugSelected < len(m.suggestions)-1 {
			m.sugSelected++
		}
	case "k", "up":
		if m.sugSelected > 0 {
			m.sugSelected--
		}
	case "a":
		if m.sugSelected < len(m.suggestions) {
			return m, m.resolveSuggestionCmd(m.suggestions[m.sugSelected].ID, true)
		}
	case "x":
		if m.sugSelected < len(m.suggestions) {
			return m, m.resolveSuggestionCmd(m.suggestions[m.sugSelected].ID, false)
		}
	}
	return m, nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.mode = modeNormal
		m.detail = nil
		return m, nil
	case "1", "2", "3", "4", "5":
		return m.rateSelected(int(msg.String()[0] - '0'))
	}
	return m, nil
}

// parseSuggestion splits "name | repo | description" input.
func parseSuggestion(value, userID string) (domain.Suggestion, error) {
	parts := strings.Split(value, "|")
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return domain.Suggestion{}, fmt.Errorf("a suggestion needs at least a name")
	}
	s := domain.Suggestion{Name: name, SubmittedBy: userID}
	if len(parts) > 1 {
		s.RepoLink = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		s.Description = strings.TrimSpace(parts[2])
	}
	return s, nil
}

// saveFilters persists the durable filter subset on exit.
func (m *Model) saveFilters() {
	if m.persist == nil {
		return
	}
	if err := m.persist.Save(m.criteria.Criteria()); err != nil && m.bus != nil {
		m.bus.Publish(eventbus.ErrorEvent{Message: "failed to persist filters", Err: err})
	}
}

// View implements tea.Model
func (m *Model) View() string {
	styles := m.renderer.Styles()
	width := m.width
	if width <= 0 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("caddvault"))
	if m.facets.TotalPackages > 0 {
		b.WriteString(styles.Dim.Render(fmt.Sprintf("  %d curated packages", m.facets.TotalPackages)))
	}
	b.WriteByte('\n')

	switch m.mode {
	case modeHelp:
		b.WriteString(m.helpView())
		return b.String()

	case modeDetail:
		if m.detail != nil {
			b.WriteString(m.renderer.RenderDetail(*m.detail, width))
			b.WriteString(styles.Help.Render("\n1-5 rate · esc back"))
			return b.String()
		}

	case modeModeration:
		b.WriteString(m.renderer.RenderSuggestions(m.suggestions, m.sugSelected, width))
		return b.String()

	case modeSearch:
		b.WriteString("search: " + m.textInput.View() + "\n")
	case modeFilter:
		b.WriteString("filter: " + m.textInput.View() + "\n")
	case modeSuggest:
		b.WriteString("suggest: " + m.textInput.View() + "\n")
	}

	criteria := m.criteria.Criteria()
	if line := m.renderer.RenderFilterLine(criteria, m.criteria.PendingSearch()); line != "" {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteString(m.renderer.RenderList(m.view.Items(), m.selected, width))
	b.WriteString(m.renderer.RenderPagination(criteria, m.view.TotalCount()))
	b.WriteByte('\n')

	if m.view.Loading() {
		b.WriteString(m.spin.View() + styles.Dim.Render(" loading…"))
		b.WriteByte('\n')
	}
	if err := m.view.Err(); err != nil {
		// Keep the stale rows on screen; just flag them.
		b.WriteString(styles.Error.Render("fetch failed: "+shortError(err)) +
			styles.Stale.Render("  (showing last results)"))
		b.WriteByte('\n')
	}
	if m.statusMessage != "" {
		b.WriteString(styles.Status.Render(m.statusMessage))
		b.WriteByte('\n')
	}

	b.WriteString(styles.Help.Render("/ search · f filter · s/S sort · n/p page · enter detail · r reset · ? help · q quit"))
	return b.String()
}

func shortError(err error) string {
	switch {
	case errors.Is(err, domain.ErrTimeout):
		return "timed out"
	case errors.Is(err, domain.ErrAuth):
		return "not authorized"
	case errors.Is(err, domain.ErrValidation):
		return "rejected filter"
	default:
		return "connection problem"
	}
}
