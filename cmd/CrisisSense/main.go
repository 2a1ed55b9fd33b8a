package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BTreeMap/CrisisSense/internal/api"
	"github.com/BTreeMap/CrisisSense/internal/lockfile"
	"github.com/BTreeMap/CrisisSense/internal/risk"
	"github.com/BTreeMap/CrisisSense/internal/store"
	"github.com/BTreeMap/CrisisSense/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for CrisisSense state data
	DefaultStateDir = "/var/lib/crisissense"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "crisissense.db"
)

func main() {
	// Load environment configuration
	config := loadEnvironmentConfig()

	// Initialize structured logger
	initializeLogger(config.Debug)

	// Parse command line flags
	flags, err := parseCommandLineFlags(flag.CommandLine, os.Args[1:], config)
	if err != nil {
		slog.Error("Failed to parse command line flags", "error", err)
		os.Exit(2)
	}

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Guard the SQLite database against a second instance
	lock, err := acquireDatabaseLock(flags)
	if err != nil {
		slog.Error("Failed to lock database", "error", err)
		os.Exit(1)
	}
	if lock != nil {
		defer lock.Release()
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	riskOpts, err := buildRiskOptions(flags, config)
	if err != nil {
		slog.Error("Invalid risk engine configuration", "error", err)
		os.Exit(1)
	}
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping CrisisSense with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr, "timezone", *flags.timezone)
	if err := api.Run(storeOpts, riskOpts, apiOpts); err != nil {
		slog.Error("CrisisSense failed to run", "error", err)
		if lock != nil {
			lock.Release()
		}
		os.Exit(1)
	}
	slog.Info("CrisisSense exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	APIAddr     string
	Timezone    string
	Location    *time.Location
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir *string
	dbDSN    *string
	apiAddr  *string
	timezone *string
}

// initializeLogger sets up structured logging, at debug level when requested
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("CRISISSENSE_STATE_DIR"),
		APIAddr:     os.Getenv("API_ADDR"),
		Timezone:    strings.TrimSpace(os.Getenv("CRISISSENSE_TIMEZONE")),
		Location:    util.ParseLocationEnv("CRISISSENSE_TIMEZONE", time.Local),
		Debug:       util.ParseBoolEnv("CRISISSENSE_DEBUG", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CRISISSENSE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", os.Getenv("DATABASE_URL") != "",
		"CRISISSENSE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"CRISISSENSE_TIMEZONE", config.Timezone,
		"CRISISSENSE_DEBUG", config.Debug)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(fs *flag.FlagSet, args []string, config Config) (Flags, error) {
	flags := Flags{
		stateDir: fs.String("state-dir", config.StateDir, "state directory for CrisisSense data (overrides $CRISISSENSE_STATE_DIR)"),
		dbDSN:    fs.String("db-dsn", config.DatabaseURL, "database DSN or SQLite path; empty keeps records in memory (overrides $DATABASE_URL)"),
		apiAddr:  fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		timezone: fs.String("timezone", config.Timezone, "IANA time zone for hour-of-day analysis (overrides $CRISISSENSE_TIMEZONE)"),
	}

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"timezone", *flags.timezone)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags, nil
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if *flags.dbDSN == "" || store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil
	}
	stateDir := filepath.Dir(*flags.dbDSN)
	slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
	if err := os.MkdirAll(stateDir, store.DefaultDirPermissions); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
		return err
	}
	return nil
}

// acquireDatabaseLock locks a file-based database; other backends return a nil lock.
func acquireDatabaseLock(flags Flags) (*lockfile.Lock, error) {
	if *flags.dbDSN == "" || store.DetectDSNType(*flags.dbDSN) == "postgres" {
		return nil, nil
	}
	return lockfile.Acquire(*flags.dbDSN)
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildRiskOptions constructs risk engine options. A -timezone flag that differs from
// the environment value is loaded here; otherwise the environment location is used.
func buildRiskOptions(flags Flags, config Config) ([]risk.Option, error) {
	loc := config.Location
	if tz := strings.TrimSpace(*flags.timezone); tz != "" && tz != config.Timezone {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		loc = l
	}
	if loc == nil {
		loc = time.Local
	}
	return []risk.Option{risk.WithLocation(loc), risk.WithLogger(slog.Default())}, nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
