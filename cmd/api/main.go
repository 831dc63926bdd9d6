package main

import (
	"StatBoardApi/internal/boardhub"
	"StatBoardApi/internal/catalog"
	"StatBoardApi/internal/dataset"
	"StatBoardApi/internal/jsonlog"
	"StatBoardApi/internal/selection"
	"StatBoardApi/internal/store"
	"context"
	"database/sql"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type config struct {
	version string
	port    int
	env     string
	season  struct {
		currentYear int
		mirrorURL   string
		bundledDir  string
		queryURL    string
		catalogDir  string
	}
	store struct {
		backend      string
		dsn          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  string
		redisAddr    string
		key          string
	}
	limiter struct {
		rps     float64
		burst   int
		enabled bool
	}
	cors struct {
		trustedOrigins []string
	}
}

type application struct {
	logger    *jsonlog.Logger
	config    config
	registry  *catalog.Registry
	cache     *dataset.Cache
	selection *selection.Manager
	hubs      map[catalog.Mode]*boardhub.Hub
	wg        sync.WaitGroup
}

func main() {
	var cfg config

	// Server Config
	cfg.version = "1.0.0"
	flag.IntVar(&cfg.port, "port", 8008, "http server port")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")

	// Season Data Config
	flag.IntVar(&cfg.season.currentYear, "current-year", time.Now().Year(),
		"Current operational season year")
	flag.StringVar(&cfg.season.mirrorURL, "mirror-url", "", "Season snapshot mirror base URL")
	flag.StringVar(&cfg.season.bundledDir, "bundled-dir", "./data/snapshots",
		"Directory holding bundled season snapshots")
	flag.StringVar(&cfg.season.queryURL, "query-url", "", "Range/statcast query interface base URL")
	flag.StringVar(&cfg.season.catalogDir, "catalog-dir", "./data/catalog",
		"Directory holding the per-mode stat catalogs")

	// Store Config
	flag.StringVar(&cfg.store.backend, "store-backend", "memory",
		"Selection state store backend (postgres|redis|memory)")
	flag.StringVar(&cfg.store.dsn, "db-dsn", "", "DB connection string")
	flag.IntVar(&cfg.store.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.store.maxIdleConns, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	flag.StringVar(&cfg.store.maxIdleTime, "db-max-idle-time", "15m",
		"PostgreSQL max connection idle time")
	flag.StringVar(&cfg.store.redisAddr, "redis-addr", "localhost:6379", "Redis address")
	flag.StringVar(&cfg.store.key, "store-key", "statboard:state",
		"Key the selection state blob is stored under")

	// Limiter Config
	flag.Float64Var(&cfg.limiter.rps, "limiter-rps", 2, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.limiter.burst, "limiter-burst", 4, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.limiter.enabled, "limiter-enabled", true, "Enable rate limiter")

	// CORS Config
	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		origins := strings.Fields(val)
		if i := slices.Index(origins, "*"); i != -1 {
			return errors.New("cannot set CORS trusted origin to \"*\"")
		}
		cfg.cors.trustedOrigins = origins
		return nil
	})

	// Version
	displayVersion := flag.Bool("version", false, "Show API version and immediately exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version: %s\n", cfg.version)
		os.Exit(0)
	}

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	registry, err := catalog.Load(cfg.season.catalogDir)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	logger.PrintInfo("stat catalogs loaded", map[string]string{
		"hitters":  fmt.Sprint(len(registry.All(catalog.ModeHitters))),
		"pitchers": fmt.Sprint(len(registry.All(catalog.ModePitchers))),
	})

	st, closeStore, err := openStore(cfg)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	if closeStore != nil {
		defer closeStore()
	}

	client := dataset.NewClient(cfg.season.mirrorURL, cfg.season.bundledDir, cfg.season.queryURL)
	cache := dataset.NewCache(client, cfg.season.currentYear, logger)

	manager := selection.NewManager(cfg.season.currentYear, st, nil, func(err error) {
		logger.PrintError(err, map[string]string{"task": "state save"})
	})
	if err := manager.Restore(context.Background()); err != nil {
		logger.PrintError(err, map[string]string{"task": "state restore"})
	}

	expvar.NewString("version").Set(cfg.version)
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))
	expvar.Publish("timestamp", expvar.Func(func() any {
		return time.Now().Unix()
	}))

	app := &application{
		logger:    logger,
		config:    cfg,
		registry:  registry,
		cache:     cache,
		selection: manager,
		hubs:      make(map[catalog.Mode]*boardhub.Hub),
	}

	for _, mode := range catalog.Modes {
		hub := boardhub.New(mode)
		app.hubs[mode] = hub
		go hub.Run()
	}

	// Warm the current-season snapshots so the first search doesn't pay the
	// fetch.
	for _, mode := range catalog.Modes {
		app.backgroundTask(func() {
			app.cache.Season(context.Background(), mode, cfg.season.currentYear)
		})
	}

	err = app.serve()
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}

// openStore builds the configured persistence backend. The memory backend
// needs no external service and is the default for development.
func openStore(cfg config) (store.Store, func(), error) {
	switch cfg.store.backend {
	case "postgres":
		db, err := openDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		return store.NewPGStore(db, cfg.store.key), func() { db.Close() }, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.store.redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(rdb, cfg.store.key), func() { rdb.Close() }, nil
	case "memory":
		return store.NewMemStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.store.backend)
	}
}

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.store.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.store.maxOpenConns)
	db.SetMaxIdleConns(cfg.store.maxIdleConns)
	duration, err := time.ParseDuration(cfg.store.maxIdleTime)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxIdleTime(duration)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}
