package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/qr-ballot/models"
)

const (
	defaultPort         = 3318
	defaultDatabaseType = "sqlite"
	defaultVoteCap      = 2
	defaultCacheTTL     = 5 * time.Second
	defaultVoteRate     = 5
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	AdminKeySalt  string
	PublicBaseURL string
	VoteCap       int
	TurnoutBase   string
	RedisURL      string
	CacheTTL      time.Duration
	VoteRateLimit float64
	TrustProxy    bool
}

// TallyConfig configures the tally command
type TallyConfig struct {
	DatabaseURL  string
	DatabaseType string
	ElectionID   string
	Category     string
	Watch        time.Duration
	TurnoutBase  string
}

// Getenv returns the value of key, or fallback when it is unset or empty
func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ParseFlags validates flags and fills the rest from the environment.
// A .env file in the working directory is loaded first; it never overrides
// variables that are already set. A flag given on the command line always
// wins, including zero values such as -cache-ttl 0.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	fs := flag.NewFlagSet("qr-ballot", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", defaultPort, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.PublicBaseURL, "base-url", "", "Public base URL used in voting links")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the results cache")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Take client IPs from X-Forwarded-For (only behind a reverse proxy)")

	// Voting rules
	fs.IntVar(&cfg.VoteCap, "vote-cap", defaultVoteCap, "Max picks per voter per category")
	fs.StringVar(&cfg.TurnoutBase, "turnout-base", "", "Turnout denominator (active or issued)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", defaultCacheTTL, "Results cache TTL (0 disables)")
	fs.Float64Var(&cfg.VoteRateLimit, "rate", defaultVoteRate, "Voter requests per second per client (0 disables)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Fall back to environment variables for flags not given
	if !set["p"] {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return Config{}, errors.New("port must be between 1 and 65535")
	}

	var err error
	if cfg.DatabaseURL, cfg.DatabaseType, err = database(cfg.DatabaseURL, cfg.DatabaseType); err != nil {
		return Config{}, err
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = Getenv("PUBLIC_BASE_URL", "http://localhost:"+strconv.Itoa(cfg.Port))
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if !set["vote-cap"] {
		if capStr := os.Getenv("VOTE_CAP"); capStr != "" {
			voteCap, err := strconv.Atoi(capStr)
			if err != nil {
				return Config{}, errors.New("invalid VOTE_CAP env variable")
			}
			cfg.VoteCap = voteCap
		}
	}
	if cfg.VoteCap < 1 {
		return Config{}, errors.New("vote cap must be at least 1")
	}

	if cfg.TurnoutBase, err = turnoutBase(cfg.TurnoutBase); err != nil {
		return Config{}, err
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if !set["cache-ttl"] {
		if ttlStr := os.Getenv("RESULTS_CACHE_TTL"); ttlStr != "" {
			ttl, err := time.ParseDuration(ttlStr)
			if err != nil {
				return Config{}, errors.New("invalid RESULTS_CACHE_TTL env variable")
			}
			cfg.CacheTTL = ttl
		}
	}
	if cfg.CacheTTL < 0 {
		return Config{}, errors.New("cache TTL cannot be negative")
	}

	if !set["rate"] {
		if rateStr := os.Getenv("VOTE_RATE_LIMIT"); rateStr != "" {
			limit, err := strconv.ParseFloat(rateStr, 64)
			if err != nil {
				return Config{}, errors.New("invalid VOTE_RATE_LIMIT env variable")
			}
			cfg.VoteRateLimit = limit
		}
	}
	if cfg.VoteRateLimit < 0 {
		return Config{}, errors.New("vote rate limit cannot be negative")
	}

	if !set["trust-proxy"] {
		if trustStr := os.Getenv("TRUST_PROXY"); trustStr != "" {
			trust, err := strconv.ParseBool(trustStr)
			if err != nil {
				return Config{}, errors.New("invalid TRUST_PROXY env variable")
			}
			cfg.TrustProxy = trust
		}
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	return cfg, nil
}

// ParseTallyFlags parses the tally command line. Database and turnout
// settings fall back to the same environment variables as the server.
func ParseTallyFlags(args []string) (TallyConfig, error) {
	var cfg TallyConfig

	_ = godotenv.Load()

	fs := flag.NewFlagSet("tally", flag.ContinueOnError)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ElectionID, "e", "", "Election ID")
	fs.StringVar(&cfg.Category, "category", "", "Category to show (defaults to the first)")
	fs.DurationVar(&cfg.Watch, "watch", 0, "Refresh interval; 0 prints once")
	fs.StringVar(&cfg.TurnoutBase, "turnout-base", "", "Turnout denominator (active or issued)")

	if err := fs.Parse(args); err != nil {
		return TallyConfig{}, err
	}

	var err error
	if cfg.DatabaseURL, cfg.DatabaseType, err = database(cfg.DatabaseURL, cfg.DatabaseType); err != nil {
		return TallyConfig{}, err
	}
	if cfg.ElectionID == "" {
		return TallyConfig{}, errors.New("election ID required (use -e)")
	}
	if cfg.Watch < 0 {
		return TallyConfig{}, errors.New("watch interval cannot be negative")
	}
	if cfg.TurnoutBase, err = turnoutBase(cfg.TurnoutBase); err != nil {
		return TallyConfig{}, err
	}

	return cfg, nil
}

// database resolves the connection settings shared by both commands
func database(url, dbType string) (string, string, error) {
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return "", "", errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if dbType == "" {
		dbType = Getenv("DATABASE_TYPE", defaultDatabaseType)
	}
	if dbType != "sqlite" && dbType != "postgres" {
		return "", "", errors.New("database type must be sqlite or postgres")
	}
	return url, dbType, nil
}

func turnoutBase(base string) (string, error) {
	if base == "" {
		base = Getenv("TURNOUT_BASE", models.TurnoutActiveSessions)
	}
	if base != models.TurnoutActiveSessions && base != models.TurnoutIssuedSessions {
		return "", errors.New("turnout base must be active or issued")
	}
	return base, nil
}
