package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DBConfig holds PostgreSQL connection parameters.
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds a lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RoutingConfig holds routing worker fleet parameters.
type RoutingConfig struct {
	// WorkerURLs is the ordered fleet of routing worker base URLs.
	WorkerURLs []string
	// Timeout applies to both connect and read on isochrone requests.
	Timeout time.Duration
	// HealthTimeout bounds a single fleet health probe.
	HealthTimeout time.Duration
	// MaxHealthAttempts and HealthInterval control startup polling while the
	// routing graph loads.
	MaxHealthAttempts int
	HealthInterval    time.Duration
}

// BatchConfig holds orchestrator knobs.
type BatchConfig struct {
	Parallelism int
	BatchSize   int
	MaxBatches  int
	// StaleHorizon is how long a processing row may sit before it is treated
	// as pending again.
	StaleHorizon time.Duration
	// PriorityRegions orders pending selection; earlier entries first.
	PriorityRegions []string
}

// RedisConfig selects the optional Redis-backed read cache.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
}

// Config is the full typed configuration record. Resolution precedence is
// process environment > .env file > defaults.
type Config struct {
	AppEnv     string
	ServerPort int

	DB      DBConfig
	Routing RoutingConfig
	Batch   BatchConfig
	Redis   RedisConfig

	// CutoffMinutes is the canonical cutoff set, ascending.
	CutoffMinutes []int
	// DayTypeDates maps a day type to a fixed calendar date inside the
	// routing graph's validity window.
	DayTypeDates map[string]string
	// TimezoneOffset is appended to departure timestamps, e.g. "-05:00".
	TimezoneOffset string
}

// DefaultCutoffs is the canonical cutoff set in minutes.
var DefaultCutoffs = []int{15, 30, 45, 60, 90, 120, 150, 180}

var defaultDayTypeDates = map[string]string{
	"weekday":  "2025-12-03",
	"saturday": "2025-12-06",
	"sunday":   "2025-12-07",
}

var defaultPriorityRegions = []string{"Manhattan", "Brooklyn", "Queens", "Bronx", "Staten Island"}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		ServerPort: getEnvInt("SERVER_PORT", 3001),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "howfar"),
			Password: getEnv("DB_PASSWORD", "howfar"),
			Name:     getEnv("DB_NAME", "howfar"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Routing: RoutingConfig{
			Timeout:           getEnvDuration("ROUTING_TIMEOUT", 60*time.Second),
			HealthTimeout:     getEnvDuration("ROUTING_HEALTH_TIMEOUT", 5*time.Second),
			MaxHealthAttempts: getEnvInt("ROUTING_HEALTH_ATTEMPTS", 30),
			HealthInterval:    getEnvDuration("ROUTING_HEALTH_INTERVAL", 10*time.Second),
		},
		Batch: BatchConfig{
			Parallelism:     getEnvInt("BATCH_PARALLELISM", 15),
			BatchSize:       getEnvInt("BATCH_SIZE", 100),
			MaxBatches:      getEnvInt("BATCH_MAX_BATCHES", 1000),
			PriorityRegions: getEnvList("BATCH_PRIORITY_REGIONS", defaultPriorityRegions),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		CutoffMinutes:  getEnvIntList("CUTOFF_MINUTES", DefaultCutoffs),
		DayTypeDates:   defaultDayTypeDates,
		TimezoneOffset: getEnv("TIMEZONE_OFFSET", "-05:00"),
	}

	workerURLs := getEnvList("ROUTING_WORKER_URLS", nil)
	if len(workerURLs) == 0 {
		if base := os.Getenv("ROUTING_BASE_URL"); base != "" {
			workerURLs = []string{base}
		}
	}
	cfg.Routing.WorkerURLs = workerURLs

	// Stale horizon defaults to twice the routing timeout so a crashed run's
	// processing rows become selectable after the slowest request could have
	// finished.
	cfg.Batch.StaleHorizon = getEnvDuration("BATCH_STALE_HORIZON", 2*cfg.Routing.Timeout)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvIntList(key string, fallback []int) []int {
	parts := getEnvList(key, nil)
	if parts == nil {
		return fallback
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fallback
		}
		out = append(out, n)
	}
	return out
}
