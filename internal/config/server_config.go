package config

import (
	"fmt"
	"time"

	"github.com/kashguard/go-escrow/internal/util"
)

// EchoServer configures the public HTTP listener.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableLoggerMiddleware         bool
}

// Management configures the internal listener (health, metrics).
type Management struct {
	ListenAddress string
}

// Logger configures zerolog.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

// AuthServer configures JWT principal authentication.
type AuthServer struct {
	JWTSecret            string
	JWTIssuer            string
	TokenDurationMinutes int
}

// Database configures the Postgres ledger connection.
type Database struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString renders the lib/pq DSN.
func (d Database) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
}

// Redis configures the cache/event connection.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Escrow holds the engine tunables. All windows are guard conditions against
// the injected clock, never in-call timeouts.
type Escrow struct {
	StartTimeout      time.Duration
	HeartbeatInterval time.Duration
	GracePeriod       time.Duration
	AutoReleaseDelay  time.Duration
	ProgressiveCapBps int64
	PlatformFeeBps    int64
	PlatformWallet    string
	ChainID           int64
}

// Server is the full service configuration.
type Server struct {
	Echo       EchoServer
	Management Management
	Logger     Logger
	Auth       AuthServer
	Database   Database
	Redis      Redis
	Escrow     Escrow
}

// DefaultServiceConfigFromEnv returns the config with every field resolved
// from the environment or its default.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
		},
		Management: Management{
			ListenAddress: util.GetEnv("SERVER_MANAGEMENT_LISTEN_ADDRESS", ":9090"),
		},
		Logger: Logger{
			Level:              util.GetEnv("SERVER_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Auth: AuthServer{
			JWTSecret:            util.GetEnv("SERVER_AUTH_JWT_SECRET", "development-secret-do-not-use"),
			JWTIssuer:            util.GetEnv("SERVER_AUTH_JWT_ISSUER", "escrow-engine"),
			TokenDurationMinutes: util.GetEnvAsInt("SERVER_AUTH_TOKEN_DURATION_MINUTES", 60),
		},
		Database: Database{
			Host:     util.GetEnv("PGHOST", "localhost"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Username: util.GetEnv("PGUSER", "escrow"),
			Password: util.GetEnv("PGPASSWORD", ""),
			Database: util.GetEnv("PGDATABASE", "escrow"),
			SSLMode:  util.GetEnv("PGSSLMODE", "disable"),
		},
		Redis: Redis{
			Addr:     util.GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("REDIS_DB", 0),
		},
		Escrow: Escrow{
			StartTimeout:      time.Duration(util.GetEnvAsInt("ESCROW_START_TIMEOUT_MINUTES", 15)) * time.Minute,
			HeartbeatInterval: time.Duration(util.GetEnvAsInt("ESCROW_HEARTBEAT_INTERVAL_SECONDS", 120)) * time.Second,
			GracePeriod:       time.Duration(util.GetEnvAsInt("ESCROW_GRACE_PERIOD_SECONDS", 180)) * time.Second,
			AutoReleaseDelay:  time.Duration(util.GetEnvAsInt("ESCROW_AUTO_RELEASE_DELAY_HOURS", 168)) * time.Hour,
			ProgressiveCapBps: util.GetEnvAsInt64("ESCROW_PROGRESSIVE_CAP_BPS", 9000),
			PlatformFeeBps:    util.GetEnvAsInt64("ESCROW_PLATFORM_FEE_BPS", 1000),
			PlatformWallet:    util.GetEnv("ESCROW_PLATFORM_WALLET", "0x000000000000000000000000000000000000dEaD"),
			ChainID:           util.GetEnvAsInt64("ESCROW_CHAIN_ID", 1),
		},
	}
}
