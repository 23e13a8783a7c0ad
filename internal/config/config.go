package config // package config loads application configuration from environment variables

import (
	"os" // os provides access to environment variables
	"time"

	"github.com/joho/godotenv"   // loads a local .env file into the environment
	"github.com/sirupsen/logrus" // reports configuration errors and halts execution
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations are parsed with time.ParseDuration.
type Config struct {
	Env                  string        // application environment (e.g. "dev", "prod")
	Port                 string        // HTTP port to listen on
	JWTSecret            string        // secret used to sign staff tokens
	StaffPassword        string        // shared staff password
	AccessTTLMin         int           // staff token time-to-live in minutes
	BcryptCost           int           // bcrypt cost for the staff password hash
	NotifyInterval       time.Duration // how often sessions re-check "your turn"
	SessionIdleTTL       time.Duration // desk sessions unused this long are closed
	SessionSweepInterval time.Duration // how often idle sessions are looked for
	SeedDemo             bool          // preload the demo reservations on start
	LogLevel             string        // logrus level name
	Events               EventsConfig
}

// Load reads a .env file when one exists and then builds a Config from the
// environment.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("config: .env not loaded")
	}
	return Config{
		Env:                  envStr("APP_ENV", "dev"),
		Port:                 envStr("APP_PORT", "8080"),
		JWTSecret:            must("JWT_SECRET"),
		StaffPassword:        envStr("STAFF_PASSWORD", "staff123"),
		AccessTTLMin:         envInt("ACCESS_TOKEN_TTL_MIN", 15),
		BcryptCost:           envInt("BCRYPT_COST", 10),
		NotifyInterval:       envDur("NOTIFY_INTERVAL", 2*time.Second),
		SessionIdleTTL:       envDur("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInterval: envDur("SESSION_SWEEP_INTERVAL", time.Minute),
		SeedDemo:             envBool("SEED_DEMO", true),
		LogLevel:             envStr("LOG_LEVEL", "info"),
		Events:               LoadEventsConfig(),
	}
}

// AccessTTL returns the staff token lifetime.
func (c Config) AccessTTL() time.Duration {
	if c.AccessTTLMin <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.AccessTTLMin) * time.Minute
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}
