package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"caddvault/internal/auth"
	"caddvault/internal/config"
	"caddvault/internal/domain"
	"caddvault/internal/eventbus"
	"caddvault/internal/facets"
	"caddvault/internal/fetch"
	"caddvault/internal/filter"
	"caddvault/internal/importer"
	"caddvault/internal/store"
	"caddvault/internal/ui"
	"caddvault/internal/uistate"
)

func main() {
	demo := flag.Bool("demo", false, "run against an in-memory catalog instead of the database")
	importPath := flag.String("import", "", "import a catalog CSV and exit")
	email := flag.String("email", "", "sign in as this user")
	admin := flag.Bool("admin", false, "grant the session admin privileges")
	flag.Parse()

	log := newLogger()
	defer log.Sync()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create event bus
	bus := eventbus.New(log)

	// Load configuration
	configSvc := config.NewConfigServiceWithBus(bus)
	cfg, err := configSvc.Load()
	if err != nil {
		log.Warn("error loading config, using defaults", zap.Error(err))
		cfg = config.DefaultConfig()
	}

	// Open the catalog store
	var catalog store.Store
	if *demo {
		catalog = store.NewMemory(demoPackages()...)
	} else {
		catalog, err = store.Connect(ctx, cfg.Database, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot reach the catalog database: %v\n", err)
			os.Exit(1)
		}
	}
	defer catalog.Close()

	// Build the session. There is no interactive login flow; identity comes
	// from the flags and refresh re-issues the same session.
	session := domain.Session{}
	if *email != "" || *admin {
		session = domain.Session{
			UserID:  *email,
			Email:   *email,
			IsAdmin: *admin,
		}
		if session.UserID == "" {
			session.UserID = "admin"
		}
	}
	sessions := auth.NewService(bus, func(context.Context) (domain.Session, error) {
		return session, nil
	}, session)

	// One-shot import mode
	if *importPath != "" {
		imp := importer.New(catalog, bus, log)
		report, err := imp.ImportFile(ctx, *importPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("imported %d packages, %d rows failed\n", report.Imported, len(report.Failed))
		for _, f := range report.Failed {
			fmt.Printf("  line %d (%s): %v\n", f.Line, f.Name, f.Err)
		}
		return
	}

	// Initialize services
	criteria := filter.NewStore(cfg.PageSize)
	facetCache := facets.NewCache(catalog, bus)
	fetcher := fetch.New(catalog, sessions, bus, log, time.Duration(cfg.TimeoutMs)*time.Millisecond)
	persist := uistate.NewService()

	if cfg.UISettings.RestoreFilters {
		if saved, ok := persist.Load(); ok {
			criteria.Restore(saved)
		}
	}

	// Create UI model
	uiModel := ui.NewModel(ui.Deps{
		Bus:      bus,
		Config:   cfg,
		Criteria: criteria,
		Facets:   facetCache,
		Fetcher:  fetcher,
		Sessions: sessions,
		Persist:  persist,
	})

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen())

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Warn("event channel full, dropping event", zap.String("type", string(e.Type())))
		}
	}
	for _, t := range []eventbus.EventType{
		eventbus.EventSessionChanged,
		eventbus.EventImportCompleted,
		eventbus.EventFacetsRefreshed,
		eventbus.EventError,
	} {
		bus.Subscribe(t, forward)
	}

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Run the UI
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}

	// Cleanup
	close(eventChan)
	cancel()
}

// newLogger writes structured logs next to the binary so the alt screen stays
// clean.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"caddvault.log"}
	cfg.ErrorOutputPaths = []string{"caddvault.log"}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// demoPackages seeds the in-memory store for -demo runs.
func demoPackages() []domain.Package {
	mk := func(name, desc, folder, category, license string, stars, citations int, tags ...string) domain.Package {
		return domain.Package{
			PackageSummary: domain.PackageSummary{
				ID:          name,
				Name:        name,
				Description: desc,
				Folder:      folder,
				Category:    category,
				License:     license,
				GithubStars: stars,
				Citations:   citations,
				Tags:        tags,
				RepoLink:    "https://github.com/example/" + name,
			},
		}
	}
	return []domain.Package{
		mk("AutoDock Vina", "Molecular docking and virtual screening engine", "Docking", "Protein-ligand", "Apache-2.0", 650, 31000, "docking", "virtual-screening"),
		mk("RDKit", "Open-source cheminformatics toolkit", "Cheminformatics", "Toolkits", "BSD-3-Clause", 2600, 5400, "cheminformatics", "descriptors", "fingerprints"),
		mk("Open Babel", "Chemical file format interconversion toolbox", "Cheminformatics", "Format conversion", "GPL-2.0", 1100, 9800, "cheminformatics", "formats"),
		mk("GNINA", "Deep learning augmented molecular docking", "Docking", "Protein-ligand", "Apache-2.0", 550, 430, "docking", "deep-learning"),
		mk("OpenMM", "High performance molecular dynamics on GPUs", "Simulation", "Molecular dynamics", "MIT", 1500, 3200, "molecular-dynamics", "gpu"),
		mk("PLIP", "Protein-ligand interaction profiler", "Analysis", "Interactions", "GPL-2.0", 480, 1200, "interactions", "analysis"),
	}
}
