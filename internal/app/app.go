// Package app wires the storefront together: snapshot, repository, catalog,
// services, optional Kafka and Elasticsearch, and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/storefront/internal/advisor"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/domain"
	"github.com/Skotchmaster/storefront/internal/es"
	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/internal/middleware/logging"
	"github.com/Skotchmaster/storefront/internal/migration"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/repository"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/snapshot"
	httpserver "github.com/Skotchmaster/storefront/internal/transport/http"
)

type App struct {
	Config   config.Config
	Log      *slog.Logger
	Echo     *echo.Echo
	Snapshot snapshot.Store
	Repo     *repository.Repository
	Catalog  *catalog.Catalog
	Auth     *service.AuthService

	mu       sync.Mutex
	closers  []func() error
	attached chan struct{}

	// migrate copies the snapshot into the document store; tests replace it.
	migrate func(ctx context.Context, store *docstore.Store) (migration.Report, error)
}

// New builds everything that serves in snapshot-only mode. The document store
// is attached later by Start.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	ctx = logging.IntoContext(ctx, log)
	a := &App{Config: cfg, Log: log, attached: make(chan struct{})}
	a.migrate = a.migrateSnapshot

	snap, err := a.openSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	a.Snapshot = snap
	if seeded, err := seedProducts(ctx, snap); err != nil {
		_ = a.Close()
		return nil, err
	} else if seeded {
		log.Info("catalog_seeded", "products", len(defaultProducts()))
	}
	if n, err := migration.RehashUsers(ctx, snap); err != nil {
		_ = a.Close()
		return nil, err
	} else if n > 0 {
		log.Info("legacy_passwords_rehashed", "users", n)
	}

	a.Repo = repository.New(repository.NewSnapshotBackend(snap))

	events := a.openEvents()
	var (
		indexer  catalog.Indexer
		searcher handlers.Searcher
	)
	if idx := a.openSearchIndex(ctx); idx != nil {
		indexer, searcher = idx, idx
	}

	a.Catalog = catalog.New(a.Repo, events, indexer)
	if err := a.Catalog.Load(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	sess := session.ContextAccessor{}
	a.Auth = &service.AuthService{
		Users:     a.Repo,
		Session:   sess,
		Events:    events,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.AccessTokenTTL,
	}
	if created, err := a.Auth.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Warn("admin_seed_failed", "email", cfg.AdminEmail, "error", err)
	} else if created {
		log.Info("admin_seeded", "email", cfg.AdminEmail)
	}

	carts := &service.CartService{Store: a.Repo, Catalog: a.Catalog, Session: sess}
	orders := &service.OrderService{Store: a.Repo, Cart: carts, Session: sess, Events: events}
	favorites := &service.FavoriteService{Store: a.Repo, Catalog: a.Catalog, Session: sess}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(log))
	e.Use(csrf.Middleware(csrf.Config{
		SessionCookie: auth.AccessCookie,
		Secure:        cfg.CookieSecure,
		SkipPaths:     []string{"/api/v1/login", "/api/v1/register"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		JWTSecret:       cfg.JWTSecret,
		Ready:           a.Repo.Ready,
		AuthHandler:     &handlers.AuthHandler{Svc: a.Auth, SecureCookie: cfg.CookieSecure},
		ProductHandler:  &handlers.ProductHandler{Catalog: a.Catalog},
		SearchHandler:   &handlers.SearchHandler{Index: searcher, Catalog: a.Catalog},
		CartHandler:     &handlers.CartHandler{Svc: carts},
		OrderHandler:    &handlers.OrderHandler{Svc: orders},
		FavoriteHandler: &handlers.FavoriteHandler{Svc: favorites},
		AdminHandler: &handlers.AdminHandler{
			Catalog:  a.Catalog,
			Advisor:  advisor.New(),
			Orders:   orders,
			Users:    a.Repo,
			Features: advisor.Features{Search: true, Filters: true},
		},
	})
	a.Echo = e
	return a, nil
}

func (a *App) openSnapshot(ctx context.Context) (snapshot.Store, error) {
	cfg := a.Config
	switch cfg.SnapshotBackend {
	case config.SnapshotMemory:
		return snapshot.NewMemoryStore(), nil
	case config.SnapshotRedis:
		rs, err := snapshot.OpenRedis(ctx, snapshot.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}, cfg.DocstoreOpenTimeout)
		if err != nil {
			return nil, err
		}
		a.addCloser(rs.Close)
		return rs, nil
	default:
		if err := ensureDir(cfg.SnapshotPath); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		return snapshot.OpenFile(cfg.SnapshotPath)
	}
}

func (a *App) openEvents() mykafka.Publisher {
	if len(a.Config.KafkaBrokers) == 0 {
		return mykafka.Nop{}
	}
	p := mykafka.NewProducer(a.Config.KafkaBrokers)
	a.addCloser(p.Close)
	a.Log.Info("kafka_enabled", "brokers", a.Config.KafkaBrokers)
	return p
}

// openSearchIndex returns nil when Elasticsearch is not configured or not reachable.
func (a *App) openSearchIndex(ctx context.Context) *search.Index {
	if a.Config.ESURL == "" {
		return nil
	}
	client, err := es.NewClient(ctx, es.Config{URL: a.Config.ESURL, User: a.Config.ESUser, Password: a.Config.ESPassword})
	if err != nil {
		a.Log.Warn("search_index_unavailable", "reason", "falling back to catalog filter", "error", err)
		return nil
	}
	return search.NewIndex(client, a.Config.ESIndex)
}

// Start attaches the document store in the background. Until it is attached,
// or when it never is, the repository serves from the snapshot alone.
func (a *App) Start(ctx context.Context) {
	ctx = logging.IntoContext(ctx, a.Log)
	go func() {
		defer close(a.attached)
		if err := a.AttachDocumentStore(ctx); err != nil {
			a.Log.Warn("docstore_unavailable", "reason", "serving from snapshot only", "error", err)
		}
	}()
}

// Attached is closed once the background attach finished, successfully or not.
func (a *App) Attached() <-chan struct{} { return a.attached }

// AttachDocumentStore opens and initializes the document store, mirrors writes
// into it while the snapshot is migrated, then enables reads from it and
// reloads the catalog.
func (a *App) AttachDocumentStore(ctx context.Context) error {
	cfg := a.Config
	if cfg.DocstoreDriver == config.DocstoreNone {
		a.Log.Info("docstore_disabled")
		return nil
	}
	if cfg.DocstoreDriver == docstore.DriverSQLite && !strings.HasPrefix(cfg.DocstoreDSN, ":memory:") &&
		!strings.HasPrefix(cfg.DocstoreDSN, "file:") {
		if err := ensureDir(cfg.DocstoreDSN); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.DocstoreOpenTimeout)
	defer cancel()
	store, err := docstore.Open(openCtx, docstore.Config{
		Driver:      cfg.DocstoreDriver,
		DSN:         cfg.DocstoreDSN,
		OpenTimeout: cfg.DocstoreOpenTimeout,
	})
	if err != nil {
		return err
	}
	if err := store.Initialize(openCtx, repository.SchemaVersion, repository.Collections()); err != nil {
		_ = store.Close()
		return err
	}

	doc, err := repository.NewDocumentBackend(store)
	if err != nil {
		_ = store.Close()
		return err
	}

	a.Repo.Mirror(doc)
	if _, err := a.migrate(ctx, store); err != nil {
		a.Repo.Detach()
		_ = store.Close()
		return fmt.Errorf("migrate snapshot: %w", err)
	}
	a.addCloser(store.Close)
	a.Repo.Attach(doc)
	a.Log.Info("docstore_attached", "driver", store.Driver(), "schema_version", store.Version())

	if err := a.Catalog.Reload(ctx); err != nil {
		a.Log.Warn("catalog_reload_failed", "error", err)
	}
	return nil
}

func (a *App) migrateSnapshot(ctx context.Context, store *docstore.Store) (migration.Report, error) {
	return (&migration.Migrator{Snapshot: a.Snapshot, Store: store}).Run(ctx)
}

func (a *App) addCloser(fn func() error) {
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
