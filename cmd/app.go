package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/grievance-portal/internal"
	"github.com/frahmantamala/grievance-portal/internal/admin"
	"github.com/frahmantamala/grievance-portal/internal/core/events"
	"github.com/frahmantamala/grievance-portal/internal/export"
	"github.com/frahmantamala/grievance-portal/internal/grievance"
	"github.com/frahmantamala/grievance-portal/internal/metrics"
	"github.com/frahmantamala/grievance-portal/internal/report"
	"github.com/frahmantamala/grievance-portal/internal/store"
	"github.com/frahmantamala/grievance-portal/internal/store/local"
	"github.com/frahmantamala/grievance-portal/internal/store/remote"
	"github.com/frahmantamala/grievance-portal/pkg/logger"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App holds the services shared by the server and the one-shot commands.
type App struct {
	Config     *internal.Config
	Logger     *slog.Logger
	Store      store.Adapter
	Bus        *events.EventBus
	Metrics    *metrics.Manager
	Grievances *grievance.Service
	Admins     *admin.Service
	Reports    *report.Engine
	Exports    *export.Service
}

func newApp() (*App, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(cfg)
	lg := logger.LoggerWrapper()

	backend, err := openStore(cfg, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	m := metrics.NewDefaultManager()
	adapter := metrics.InstrumentStore(store.WithOpTimeout(backend, cfg.Store.OpTimeout), m)
	bus := events.NewEventBus(lg)

	grievances := grievance.NewService(adapter, bus, m, lg)
	admins := admin.NewService(adapter, bus, lg, admin.Options{
		BCryptCost:        cfg.Security.BCryptCost,
		AllowDemoFallback: cfg.Security.AllowDemoFallback,
	})

	return &App{
		Config:     cfg,
		Logger:     lg,
		Store:      adapter,
		Bus:        bus,
		Metrics:    m,
		Grievances: grievances,
		Admins:     admins,
		Reports:    report.NewEngine(grievances, lg),
		Exports:    export.NewService(grievances, export.CSVMode(cfg.Export.CSVMode), lg),
	}, nil
}

// Close waits for in-flight event handlers and releases the backend.
func (a *App) Close() {
	a.Bus.Wait()
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("store close error", "error", err)
	}
}

func openStore(cfg *internal.Config, lg *slog.Logger) (store.Adapter, error) {
	switch cfg.Store.Backend {
	case internal.StoreBackendRemote:
		return openRemoteStore(cfg.Store.Remote, lg)
	default:
		return openLocalStore(cfg.Store.Local, lg)
	}
}

func openLocalStore(cfg internal.LocalStoreConfig, lg *slog.Logger) (*local.Store, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		conn, cerr := initDB(cfg)
		if cerr != nil {
			return nil, cerr
		}
		db, err = gorm.Open(postgres.New(postgres.Config{Conn: conn.DB}), gormCfg)
	default:
		db, err = gorm.Open(sqlite.Open(cfg.Source), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	s := local.NewStore(db, lg)
	if err := s.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate store_records: %w", err)
	}
	lg.Info("local store ready", "driver", cfg.Driver)
	return s, nil
}

// initDB initializes the postgres connection pool shared with gorm
func initDB(cfg internal.LocalStoreConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func openRemoteStore(cfg internal.RemoteStoreConfig, lg *slog.Logger) (*remote.Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	s := remote.NewStore(client, cfg.KeyPrefix, cfg.Channel, lg)
	if err := s.Ping(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Addr, err)
	}
	lg.Info("remote store ready", "addr", cfg.Addr, "channel", cfg.Channel)
	return s, nil
}
