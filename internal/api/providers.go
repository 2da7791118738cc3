package api

import (
	"database/sql"
	"math/big"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/kashguard/go-escrow/internal/auth"
	"github.com/kashguard/go-escrow/internal/config"
	"github.com/kashguard/go-escrow/internal/escrow"
	"github.com/kashguard/go-escrow/internal/events"
	"github.com/kashguard/go-escrow/internal/metrics"
	"github.com/kashguard/go-escrow/internal/storage"
	"github.com/kashguard/go-escrow/internal/treasury"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// NewClock returns the wall clock, or a mock when called from a test.
func NewClock(t ...*testing.T) time2.Clock {
	if len(t) > 0 && t[0] != nil {
		return time2.NewMockClock(time.Now())
	}
	return time2.DefaultClock
}

// NewRedisClient connects to the configured Redis instance.
func NewRedisClient(cfg config.Redis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewDB opens the Postgres ledger connection.
func NewDB(cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	return db, nil
}

func escrowConfig(cfg config.Escrow) escrow.Config {
	return escrow.Config{
		StartTimeout:      cfg.StartTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		GracePeriod:       cfg.GracePeriod,
		AutoReleaseDelay:  cfg.AutoReleaseDelay,
		ProgressiveCapBps: cfg.ProgressiveCapBps,
		PlatformFeeBps:    cfg.PlatformFeeBps,
		PlatformWallet:    cfg.PlatformWallet,
	}
}

// InitNewServer wires all components: Redis-backed nonce/allowlist stores, a
// Postgres ledger, the custody vault with the EVM transaction builder, and
// the engine on top.
func InitNewServer(cfg config.Server) (*Server, error) {
	db, err := NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	redisClient := NewRedisClient(cfg.Redis)
	clock := NewClock()

	ledger := storage.NewPostgresLedger(db)
	redisStore := storage.NewRedisStore(redisClient)
	publisher := events.NewPublisher(redisClient)
	m := metrics.New()

	builder := treasury.NewEVMTxBuilder(big.NewInt(cfg.Escrow.ChainID))
	vault := treasury.NewVault(builder)

	engine := escrow.NewEngine(
		escrowConfig(cfg.Escrow),
		ledger,
		redisStore,
		redisStore,
		vault,
		publisher,
		m,
		clock,
	)

	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTIssuer,
		time.Duration(cfg.Auth.TokenDurationMinutes)*time.Minute,
	)

	return &Server{
		Config:  cfg,
		DB:      db,
		Redis:   redisClient,
		Clock:   clock,
		JWT:     jwtManager,
		Engine:  engine,
		Events:  publisher,
		Metrics: m,
	}, nil
}

// InitNewTestServer wires a server entirely on in-memory components with a
// mock clock, for handler tests.
func InitNewTestServer(cfg config.Server) *Server {
	store := storage.NewMemoryStore()
	publisher := events.NewPublisher(nil)
	m := metrics.New()
	clock := time2.NewMockClock(time.Now())
	vault := treasury.NewVault(nil)

	engine := escrow.NewEngine(
		escrowConfig(cfg.Escrow),
		store,
		store,
		store,
		vault,
		publisher,
		m,
		clock,
	)

	jwtManager := auth.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTIssuer,
		time.Duration(cfg.Auth.TokenDurationMinutes)*time.Minute,
	)

	return &Server{
		Config:  cfg,
		Clock:   clock,
		JWT:     jwtManager,
		Engine:  engine,
		Events:  publisher,
		Metrics: m,
	}
}
