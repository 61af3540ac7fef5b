// Command migrate copies the snapshot into the document store once and prints the report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/docstore"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/migration"
	"github.com/Skotchmaster/storefront/internal/repository"
	"github.com/Skotchmaster/storefront/internal/snapshot"
)

func main() {
	snapshotPath := flag.String("snapshot", config.EnvDefault("SNAPSHOT_PATH", "data/snapshot.json"), "snapshot JSON file to read")
	driver := flag.String("driver", config.EnvDefault("DOCSTORE_DRIVER", docstore.DriverSQLite), "document store driver: sqlite or postgres")
	dsn := flag.String("dsn", config.EnvDefault("DOCSTORE_DSN", "data/storefront.db"), "document store DSN")
	flag.Parse()

	log := logging.New(config.EnvDefault("LOG_LEVEL", "info")).With("service", "storefront-migrate")
	ctx := logging.IntoContext(context.Background(), log)

	if err := run(ctx, *snapshotPath, *driver, *dsn); err != nil {
		log.Error("migration_failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, snapshotPath, driver, dsn string) error {
	snap, err := snapshot.OpenFile(snapshotPath)
	if err != nil {
		return err
	}
	store, err := docstore.Open(ctx, docstore.Config{
		Driver:      driver,
		DSN:         dsn,
		OpenTimeout: config.EnvDurationDefault("DOCSTORE_OPEN_TIMEOUT", 0),
	})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Initialize(ctx, repository.SchemaVersion, repository.Collections()); err != nil {
		return err
	}
	report, err := (&migration.Migrator{Snapshot: snap, Store: store}).Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		slog.Warn("report_print_failed", "error", err)
	}
	return nil
}
