package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dreip/pkg/log"
)

// DefaultUnconfirmedTTL is the default lifetime of an Unconfirmed ballot
// before the storage layer is permitted to expire it.
const DefaultUnconfirmedTTL = time.Hour

// Config holds all parameters for a single process instance of the ballot
// engine (demo CLI or embedding server).
type Config struct {
	// Trustees is the number of election-authority shares the private key
	// is split across. 1 means the single-key baseline of §4.4; >1 enables
	// the multi-trustee close-time recovery path.
	Trustees uint64
	// Cores bounds the worker-pool width used by pkg/concurrency's
	// ForEach/Map; 1 disables parallel fan-out entirely.
	Cores int

	UnconfirmedTTL time.Duration

	// HMACSecretHex, if set, is used verbatim as the process-local HMAC
	// signing key (hex-encoded). Empty means generate one at startup.
	HMACSecretHex string

	ResultsPath string

	LogLevel     log.LogLevel
	PrintMetrics bool
	Seed         string
}

// NewConfig creates a new Config by parsing command-line flags.
func NewConfig() *Config {
	log.Debug("Parsing command-line flags...")
	trustees := flag.Uint64("trustees", 1, "Number of election authority key shares (1 = single key).")
	cores := flag.Int("cores", runtime.NumCPU(), "Worker pool width for parallel fan-out.")
	ttl := flag.Duration("ttl", DefaultUnconfirmedTTL, "TTL for Unconfirmed ballots before storage expiry.")
	hmacSecret := flag.String("hmac-secret", "", "Hex-encoded HMAC signing secret; random if empty.")
	logLevel := flag.String("log-level", "info", "Set log level (trace, debug, info, error).")
	seed := flag.String("seed", "dreip", "Seed value for all deterministically-derived values.")
	resultsPath := flag.String("results", "output/results/", "Path for storing run reports.")
	printMetrics := flag.Bool("print-metrics", false, "Whether to print detailed metrics during execution.")

	flag.Parse()

	resolvedLevel := setLogLevel(*logLevel)
	resultsPathClean := cleanAndCreateDirectory(*resultsPath)

	cfg := &Config{
		Trustees:       *trustees,
		Cores:          *cores,
		UnconfirmedTTL: *ttl,
		HMACSecretHex:  *hmacSecret,
		ResultsPath:    resultsPathClean,
		LogLevel:       resolvedLevel,
		PrintMetrics:   *printMetrics,
		Seed:           *seed,
	}
	log.Debug("Config: %s", cfg)
	return cfg
}

// String returns a string representation of the Config instance.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Trustees:%d Cores:%d TTL:%s ResultsPath:%s "+
		"PrintMetrics:%t Seeded:%s}",
		c.Trustees, c.Cores, c.UnconfirmedTTL, c.ResultsPath, c.PrintMetrics, c.Seed)
}

// --- Config Helpers ---

// cleanAndCreateDirectory ensures the specified directory exists, creating it if necessary.
func cleanAndCreateDirectory(path string) string {
	path = filepath.Clean(path)
	if err := os.MkdirAll(path, 0755); err != nil {
		log.Fatalf("Failed to create directory %s: %v", path, err)
	}
	return path
}

// setLogLevel sets the global log level to one of "trace", "debug", "info", or "error",
// returning the resolved level. Defaults to "info" on invalid input.
func setLogLevel(logLevel string) log.LogLevel {
	var level log.LogLevel
	switch logLevel {
	case "trace":
		level = log.LevelTrace
	case "debug":
		level = log.LevelDebug
	case "info":
		level = log.LevelInfo
	case "error":
		level = log.LevelError
	default:
		log.Info("Unknown log level '%s', defaulting to 'info'", logLevel)
		level = log.LevelInfo
	}
	log.SetLevel(level)
	return level
}
