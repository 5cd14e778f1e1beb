package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/grievance-portal/db"
	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "run the embedded SQL migrations of the local store",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

// gooseDriver maps a local store driver to the database/sql driver and goose
// dialect used for migrations.
func gooseDriver(driver string) (sqlDriver, dialect string) {
	if driver == "postgres" {
		return "pgx", "postgres"
	}
	return "sqlite3", "sqlite3"
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Store.Backend != internal.StoreBackendLocal {
		return fmt.Errorf("migrate only applies to the local backend, configured backend is %q", cfg.Store.Backend)
	}

	sqlDriver, dialect := gooseDriver(cfg.Store.Local.Driver)
	conn, err := goose.OpenDBWithDriver(sqlDriver, cfg.Store.Local.Source)
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer conn.Close()

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, conn, db.MigrationsDir(cfg.Store.Local.Driver)); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}

	return nil
}
