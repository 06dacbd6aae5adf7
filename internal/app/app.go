package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"chatlog/internal/retention"
	"chatlog/pkg/archive"
	"chatlog/pkg/auth"
	"chatlog/pkg/config"
	"chatlog/pkg/config/banner"
	"chatlog/pkg/ingest"
	"chatlog/pkg/logger"
	"chatlog/pkg/state"
	"chatlog/pkg/store"
)

// App groups server state and components.
type App struct {
	eff       config.EffectiveConfigResult
	paths     state.Paths
	version   string
	commit    string
	buildDate string

	store     *store.Store
	archive   *archive.Archive
	ingestor  *ingest.Ingestor
	retention *retention.Manager

	retentionCancel context.CancelFunc
	gateway         *auth.Gateway
	srvFast         *fasthttp.Server

	mu    sync.Mutex
	state string
	ready atomic.Bool
}

// New opens the store and builds every component. Nothing is started; call
// Run for that. paths must come from state.Init for the same storage config.
func New(eff config.EffectiveConfigResult, paths state.Paths, version, commit, buildDate string) (*App, error) {
	cfg := eff.Config
	if cfg == nil {
		return nil, fmt.Errorf("effective config is nil")
	}
	a := &App{eff: eff, paths: paths, version: version, commit: commit, buildDate: buildDate, state: "initializing"}

	if err := logger.AttachAuditFileSink(paths.Audit); err != nil {
		logger.Warn("audit_sink_unavailable", "dir", paths.Audit, "error", err)
	}

	var archiver store.Archiver
	if cfg.Retention.Archive.Enabled {
		path := cfg.Retention.Archive.Path
		if path == "" {
			path = paths.Archive
		}
		arc, err := archive.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open archive at %s: %w", path, err)
		}
		a.archive = arc
		archiver = arc
	}

	s, err := store.New(store.Config{BaseDir: eff.StorageDir, Account: eff.Account, Archive: archiver})
	if err != nil {
		a.closeArchive()
		return nil, err
	}
	a.store = s

	locks := ingest.NewChatLocks()
	a.ingestor = ingest.New(s, ingest.Config{
		PruneOnAppend: cfg.Ingest.PruneOnAppend,
		MaxCount:      cfg.Retention.MaxCount,
		MaxAgeDays:    cfg.Retention.MaxAgeDays,
		Locks:         locks,
	})
	a.retention = retention.New(retention.Options{
		Store:    s,
		Locks:    locks,
		Config:   cfg.Retention,
		LeaseDir: paths.Retention,
	})

	logger.LogConfigSummary("storage_summary", []string{
		fmt.Sprintf("root: %s", paths.Root),
		fmt.Sprintf("chats: %s", humanize.Comma(int64(a.chatCount()))),
		fmt.Sprintf("max_body_size: %s", humanize.IBytes(uint64(cfg.Server.MaxBodySize.Int64()))),
		fmt.Sprintf("prune_on_append: %t", cfg.Ingest.PruneOnAppend),
		fmt.Sprintf("archive: %t", a.archive != nil),
	})
	return a, nil
}

// Run starts retention and the HTTP server and blocks until ctx is done or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	banner.Print(os.Stdout, a.eff, a.paths.Root, a.versionString())

	cancel, err := a.retention.Start(ctx)
	if err != nil {
		return err
	}
	a.retentionCancel = cancel

	errCh := a.startHTTP(ctx)
	a.setState("running")
	a.ready.Store(true)
	logger.Info("server_started", "addr", a.eff.Addr, "root", a.paths.Root)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		a.ready.Store(false)
		return err
	}
}

func (a *App) versionString() string {
	v := a.version
	if a.commit != "" && a.commit != "none" {
		v += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		v += " @ " + a.buildDate
	}
	return v
}

func (a *App) chatCount() int {
	ids, err := a.store.ChatIDs()
	if err != nil {
		return 0
	}
	return len(ids)
}

func (a *App) setState(s string) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// State returns the lifecycle state name.
func (a *App) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) closeArchive() {
	if a.archive == nil {
		return
	}
	if err := a.archive.Close(); err != nil {
		logger.Error("archive_close_failed", "error", err)
	}
	a.archive = nil
}
