package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Run modes select the default pacing interval.
const (
	ModeProduction = "production"
	ModeTest       = "test"
)

// Default pacing between log group evaluations. CloudWatch Logs throttles
// DescribeLogStreams and DeleteLogGroup at a few requests per second.
const (
	DefaultProductionPacing = 500 * time.Millisecond
	DefaultTestPacing       = time.Millisecond
)

// Config holds the runtime configuration of a logreaper run.
type Config struct {
	Mode           string
	PacingInterval time.Duration
	DryRun         bool
	AWS            AWSConfig
	Log            LogConfig
}

// AWSConfig selects the account and region to operate on.
// Empty values fall back to the SDK default chain.
type AWSConfig struct {
	Region  string
	Profile string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	mode := strings.ToLower(getEnv("LOGREAPER_MODE", ModeProduction))

	pacing, err := getEnvDuration("LOGREAPER_PACING_INTERVAL", DefaultPacing(mode))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:           mode,
		PacingInterval: pacing,
		DryRun:         getEnvBool("LOGREAPER_DRY_RUN", false),
		AWS: AWSConfig{
			Region:  getEnv("AWS_REGION", ""),
			Profile: getEnv("AWS_PROFILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOGREAPER_LOG_LEVEL", "info"),
			Format: getEnv("LOGREAPER_LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPacing returns the pacing interval for a run mode.
func DefaultPacing(mode string) time.Duration {
	if mode == ModeTest {
		return DefaultTestPacing
	}
	return DefaultProductionPacing
}

// Validate rejects configurations the scan cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeProduction, ModeTest:
	default:
		return fmt.Errorf("invalid mode %q: must be %q or %q", c.Mode, ModeProduction, ModeTest)
	}
	if c.PacingInterval < 0 {
		return fmt.Errorf("pacing interval must not be negative, got %s", c.PacingInterval)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", c.Log.Format)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return duration, nil
}
