// Package config loads application configuration from environment
// variables. Required values are enforced with must; everything else has
// a default.
package config

import (
	"log"
	"os"
	"time"
)

// Session slot backends.
const (
	SessionRedis = "redis"
	SessionMySQL = "mysql"
	SessionFile  = "file"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	DBMigrate bool   // apply the embedded schema on boot

	JWTSecret      string // secret used to sign access tokens
	SessionKey     string // key of the persisted session slot
	SessionBackend string // redis, mysql or file
	SessionFile    string // slot path for the file backend

	SnapshotRefresh time.Duration // how often the in-memory snapshot is reloaded

	SeedAdminUser     string // username of the admin created on an empty users table
	SeedAdminPassword string // its password; seeding is skipped when empty

	Logger LoggerConfig
}

// Load reads configuration values from environment variables. Missing
// required variables stop the program with a fatal log message.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		DBMigrate: envBool("DB_MIGRATE", true),

		JWTSecret:      must("JWT_SECRET"),
		SessionKey:     envStr("SESSION_KEY", "ipManagerSession"),
		SessionBackend: envStr("SESSION_BACKEND", SessionRedis),
		SessionFile:    envStr("SESSION_FILE", ".ipmanager/session.json"),

		SnapshotRefresh: envDur("SNAPSHOT_REFRESH", 30*time.Second),

		SeedAdminUser:     envStr("SEED_ADMIN_USER", "admin"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		Logger: LoadLoggerConfig(),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// LoadCLI reads the subset used by the ipmctl terminal client: the
// database, the session file and logging. HTTP and token settings are
// not required.
func LoadCLI() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		SessionKey:     envStr("SESSION_KEY", "ipManagerSession"),
		SessionBackend: SessionFile,
		SessionFile:    envStr("SESSION_FILE", ".ipmanager/session.json"),
		Logger:         LoadLoggerConfig(),
	}
}
