// Package backend opens the configured persistence backend and builds the two
// record stores on top of it. The server and the CLI share it.
package backend

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"firdesk/internal/config"
	"firdesk/internal/database"
	"firdesk/internal/preflight"
	"firdesk/internal/store"
)

// Unit names of the two collections
const (
	UnitDrafts  = "draftfir"
	UnitReports = "record"
)

const lockTTL = 10 * time.Second

// Backend owns the connections behind the drafts and reports stores
type Backend struct {
	Kind    string
	Drafts  store.RecordStore
	Reports store.RecordStore

	DB    *database.DB
	Mongo *database.MongoDB
	Redis *database.RedisService

	dataDir string
	caches  map[string]*store.CachedStore
}

// Open connects to cfg.StoreBackend and initializes both collections.
// onFault, when set, is called with the unit name on every store fault.
func Open(ctx context.Context, cfg *config.Config, onFault func(unit string)) (*Backend, error) {
	b := &Backend{Kind: cfg.StoreBackend, caches: make(map[string]*store.CachedStore)}

	newUnit, err := b.connect(cfg)
	if err != nil {
		b.Close()
		return nil, err
	}

	var locker store.Locker
	if cfg.WriteLock == "redis" {
		if b.Redis == nil {
			if b.Redis, err = database.NewRedisService(cfg.RedisURL); err != nil {
				b.Close()
				return nil, fmt.Errorf("write lock needs redis: %w", err)
			}
		}
		locker = store.NewRedisLocker(b.Redis, lockTTL)
		log.Println("🔒 [STORE] Cross-process write lock enabled (redis)")
	}

	build := func(name string) (store.RecordStore, error) {
		s := store.New(newUnit(name))
		if locker != nil {
			s.SetLocker(locker)
		}
		if onFault != nil {
			s.SetFaultHook(onFault)
		}
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		if cfg.ReadCacheTTL <= 0 {
			return s, nil
		}
		cached := store.NewCachedStore(s, cfg.ReadCacheTTL)
		b.caches[name] = cached
		return cached, nil
	}

	if b.Drafts, err = build(UnitDrafts); err != nil {
		b.Close()
		return nil, err
	}
	if b.Reports, err = build(UnitReports); err != nil {
		b.Close()
		return nil, err
	}

	log.Printf("✅ [STORE] %s backend ready (units: %s, %s)", b.Kind, UnitDrafts, UnitReports)
	return b, nil
}

func (b *Backend) connect(cfg *config.Config) (func(name string) store.Unit, error) {
	switch cfg.StoreBackend {
	case config.BackendFile:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		b.dataDir = cfg.DataDir
		return func(name string) store.Unit { return store.NewFileUnit(cfg.DataDir, name) }, nil

	case config.BackendSQLite, config.BackendMySQL:
		dsn := cfg.SQLDSN()
		if dsn == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", cfg.StoreBackend)
		}
		if cfg.StoreBackend == config.BackendMySQL && !strings.HasPrefix(dsn, "mysql://") {
			return nil, fmt.Errorf("DATABASE_URL must start with mysql:// for the mysql backend")
		}
		if cfg.StoreBackend == config.BackendSQLite && cfg.DatabaseURL == "" {
			if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
			b.dataDir = cfg.DataDir
		}
		db, err := database.New(dsn)
		if err != nil {
			return nil, err
		}
		b.DB = db
		if err := db.Initialize(); err != nil {
			return nil, err
		}
		return func(name string) store.Unit { return store.NewSQLUnit(db, name) }, nil

	case config.BackendRedis:
		redisService, err := database.NewRedisService(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		b.Redis = redisService
		return func(name string) store.Unit { return store.NewRedisUnit(redisService.Client(), name) }, nil

	case config.BackendMongo:
		if cfg.MongoDBURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo backend")
		}
		mongoDB, err := database.NewMongoDB(cfg.MongoDBURI)
		if err != nil {
			return nil, err
		}
		b.Mongo = mongoDB
		return func(name string) store.Unit { return store.NewMongoUnit(mongoDB, name) }, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}

// PreflightOptions describes what startup checks should inspect
func (b *Backend) PreflightOptions() preflight.Options {
	opts := preflight.Options{DataDir: b.dataDir, DB: b.DB}
	switch {
	case b.Mongo != nil:
		opts.Remote = b.Mongo
	case b.Redis != nil:
		opts.Remote = b.Redis
	}
	return opts
}

// WatchDir invalidates cached reads when a unit file is changed by another
// process. Only the file backend has a directory to watch.
func (b *Backend) WatchDir(ctx context.Context) error {
	if b.Kind != config.BackendFile || len(b.caches) == 0 {
		return nil
	}
	return store.WatchDir(ctx, b.dataDir, b.Invalidate)
}

// Invalidate drops the cached copy of one unit
func (b *Backend) Invalidate(unit string) {
	if c, ok := b.caches[unit]; ok {
		c.Invalidate()
		log.Printf("🔄 [STORE] %s changed on disk, cache invalidated", unit)
	}
}

// Close releases every open connection
func (b *Backend) Close() {
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b.Mongo.Close(ctx)
	}
	if b.Redis != nil {
		b.Redis.Close()
	}
}
