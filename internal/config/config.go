package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the trading service.
type Config struct {
	Port                int
	LogLevel            string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	ShutdownTimeout     time.Duration
	ExpirySweepInterval time.Duration
	EscrowWindow        time.Duration
	DisputeWindow       time.Duration
	EscrowAutoRelease   bool
	SnapshotPath        string
	SnapshotInterval    time.Duration
	BookDepth           int
}

// Load reads configuration from the environment, after loading a .env
// file when one is present. Defaults apply for unset keys; invalid
// values are an error.
func Load() (*Config, error) {
	// Missing .env is fine; a malformed one is not worth failing over.
	_ = godotenv.Load()

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}
	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}
	sweepInterval, err := getDuration("EXPIRY_SWEEP_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPIRY_SWEEP_INTERVAL: %w", err)
	}
	escrowWindow, err := getDuration("ESCROW_WINDOW", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid ESCROW_WINDOW: %w", err)
	}
	disputeWindow, err := getDuration("DISPUTE_WINDOW", 48*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid DISPUTE_WINDOW: %w", err)
	}
	autoRelease, err := getBool("ESCROW_AUTO_RELEASE", true)
	if err != nil {
		return nil, fmt.Errorf("invalid ESCROW_AUTO_RELEASE: %w", err)
	}
	snapshotInterval, err := getDuration("SNAPSHOT_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL: %w", err)
	}
	bookDepth, err := getInt("BOOK_DEPTH", 25)
	if err != nil {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: %w", err)
	}
	if bookDepth < 0 {
		return nil, fmt.Errorf("invalid BOOK_DEPTH: must be >= 0")
	}

	return &Config{
		Port:                port,
		LogLevel:            logLevel,
		ReadTimeout:         readTimeout,
		WriteTimeout:        writeTimeout,
		IdleTimeout:         idleTimeout,
		ShutdownTimeout:     shutdownTimeout,
		ExpirySweepInterval: sweepInterval,
		EscrowWindow:        escrowWindow,
		DisputeWindow:       disputeWindow,
		EscrowAutoRelease:   autoRelease,
		SnapshotPath:        getStr("SNAPSHOT_PATH", ""),
		SnapshotInterval:    snapshotInterval,
		BookDepth:           bookDepth,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
