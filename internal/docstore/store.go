// Package docstore is an embedded, collection-oriented record store on top of gorm.
// Each collection has a primary key and named secondary indexes, optionally unique
// and optionally composite. Every operation runs in its own transaction.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Skotchmaster/storefront/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultOpenTimeout = 3 * time.Second
)

var (
	ErrSchemaDowngrade   = errors.New("docstore: requested schema version is older than the stored one")
	ErrUnknownCollection = errors.New("docstore: unknown collection")
	ErrUnknownIndex      = errors.New("docstore: unknown index")
	ErrModelMismatch     = errors.New("docstore: record type does not match collection model")
)

type Config struct {
	Driver      string
	DSN         string
	OpenTimeout time.Duration
}

// IndexDef describes a secondary index. Name is the logical name callers query by,
// Index is the physical index declared on the model.
type IndexDef struct {
	Name    string
	Index   string
	Columns []string
	Unique  bool
}

// CollectionDef declares a collection. PrimaryKey is both the column and the JSON
// field holding the record key.
type CollectionDef struct {
	Name       string
	Model      any
	PrimaryKey string
	Indexes    []IndexDef
}

func (d CollectionDef) index(name string) (IndexDef, bool) {
	for _, idx := range d.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDef{}, false
}

type schemaMeta struct {
	ID        uint `gorm:"primaryKey"`
	Version   int  `gorm:"not null"`
	UpdatedAt time.Time
}

func (schemaMeta) TableName() string { return "schema_meta" }

type Store struct {
	db     *gorm.DB
	driver string

	mu          sync.RWMutex
	version     int
	collections map[string]CollectionDef
}

// Open connects to the configured engine. Every failure wraps domain.ErrStorageUnavailable
// so callers can fall back to the snapshot.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrStorageUnavailable, cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: sql handle: %w", domain.ErrStorageUnavailable, err)
	}
	configurePool(sqlDB, cfg.Driver)

	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", domain.ErrStorageUnavailable, cfg.Driver, err)
	}

	return &Store{
		db:          db,
		driver:      cfg.Driver,
		collections: make(map[string]CollectionDef),
	}, nil
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "storefront.db"
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: DOCSTORE_DSN is empty", domain.ErrStorageUnavailable)
		}
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: cfg.DSN}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", domain.ErrStorageUnavailable, cfg.Driver)
	}
}

func configurePool(sqlDB *sql.DB, driver string) {
	if driver == DriverPostgres {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		return
	}
	// sqlite: one writer, and ":memory:" databases live per connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
}

// Initialize creates or upgrades the schema. Collections and indexes are only created
// when the requested version is newer than the stored one; upgrades never drop anything.
func (s *Store) Initialize(ctx context.Context, version int, defs []CollectionDef) error {
	if version < 1 {
		return fmt.Errorf("%w: schema version must be positive, got %d", domain.ErrInvalidInput, version)
	}
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			return fmt.Errorf("%w: collection %q declared twice", domain.ErrInvalidInput, def.Name)
		}
		seen[def.Name] = struct{}{}
	}

	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&schemaMeta{}); err != nil {
		return fmt.Errorf("docstore: migrate schema_meta: %w", err)
	}

	var meta schemaMeta
	current := 0
	switch err := db.Take(&meta, 1).Error; {
	case err == nil:
		current = meta.Version
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("docstore: read schema version: %w", err)
	}

	if version < current {
		return fmt.Errorf("%w: stored %d, requested %d", ErrSchemaDowngrade, current, version)
	}

	if version > current {
		for _, def := range defs {
			if err := s.upgrade(ctx, def); err != nil {
				return err
			}
		}
		meta.ID = 1
		meta.Version = version
		if err := db.Save(&meta).Error; err != nil {
			return fmt.Errorf("docstore: store schema version: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
	for _, def := range defs {
		s.collections[def.Name] = def
	}
	return nil
}

func (s *Store) upgrade(ctx context.Context, def CollectionDef) error {
	m := s.db.WithContext(ctx).Migrator()
	if err := m.AutoMigrate(def.Model); err != nil {
		return fmt.Errorf("docstore: create collection %s: %w", def.Name, err)
	}
	for _, idx := range def.Indexes {
		if idx.Index == "" || m.HasIndex(def.Model, idx.Index) {
			continue
		}
		if err := m.CreateIndex(def.Model, idx.Index); err != nil {
			return fmt.Errorf("docstore: create index %s.%s: %w", def.Name, idx.Name, err)
		}
	}
	return nil
}

func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Driver() string { return s.driver }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) collection(name string) (CollectionDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.collections[name]
	return def, ok
}
