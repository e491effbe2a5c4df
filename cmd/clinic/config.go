package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/clinicdesk/internal/logger"
	"github.com/nkiryanov/clinicdesk/internal/render"
)

const (
	defaultAPIURL       = "http://localhost:8000"
	defaultLoggingLevel = logger.LevelWarn
	defaultEnvironment  = logger.EnvDevelopment
	defaultStorage      = StorageFile
	defaultIdentity     = IdentityNone
	defaultTimeout      = 10 * time.Second
	defaultRedisAddr    = "localhost:6379"
)

// Durable storage backends
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Ways to resolve identity of the session
const (
	IdentityNone    = "none"
	IdentityClaims  = "claims"
	IdentityProfile = "profile"
)

type Config struct {
	// Base URL of the clinic API
	APIURL string

	// Default logging level
	LogLevel string

	// Environment
	Environment string

	// Storage backend to keep tokens in
	Storage string

	// File with tokens, used by file storage
	// If empty than file in user config dir is used
	SessionFile string

	// Redis address, used by redis storage
	RedisAddr string

	// Database to connect to, used by postgres storage
	DatabaseDSN string

	// How to resolve identity after login
	Identity string

	// Timeout of a single API request
	Timeout time.Duration

	// Output format: table or json
	Output string

	// Command to run and its arguments
	Command string
	Args    []string
}

func NewConfig() *Config {
	return &Config{
		APIURL:      defaultAPIURL,
		LogLevel:    defaultLoggingLevel,
		Environment: defaultEnvironment,
		Storage:     defaultStorage,
		RedisAddr:   defaultRedisAddr,
		Identity:    defaultIdentity,
		Timeout:     defaultTimeout,
		Output:      render.FormatTable,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}

	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", value, err)
			}
			*o = d
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"CLINIC_API_URL":      setString(&c.APIURL),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"ENVIRONMENT":         setString(&c.Environment),
		"CLINIC_STORAGE":      setString(&c.Storage),
		"CLINIC_SESSION_FILE": setString(&c.SessionFile),
		"REDIS_ADDR":          setString(&c.RedisAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"CLINIC_IDENTITY":     setString(&c.Identity),
		"CLINIC_TIMEOUT":      setDuration(&c.Timeout),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

// ParseFlags parses global flags. Everything after the first positional argument belongs to the command
func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("clinic", pflag.ContinueOnError)
	fs.SetInterspersed(false)

	fs.StringVarP(&c.APIURL, "api", "a", c.APIURL, "Clinic API base URL")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.Storage, "storage", "s", c.Storage, "Token storage (file, redis, postgres, memory)")
	fs.StringVar(&c.SessionFile, "session-file", c.SessionFile, "Token file of the file storage")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address of the redis storage")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string of the postgres storage")
	fs.StringVarP(&c.Identity, "identity", "i", c.Identity, "Identity resolution (none, claims, profile)")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "Timeout of a single API request")
	fs.StringVarP(&c.Output, "output", "o", c.Output, "Output format (table, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		c.Command = fs.Arg(0)
		c.Args = fs.Args()[1:]
	}

	return nil
}

// Validate checks option values that can't be checked while parsing
func (c *Config) Validate() error {
	if !slices.Contains([]string{StorageFile, StorageRedis, StoragePostgres, StorageMemory}, c.Storage) {
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Storage == StoragePostgres && c.DatabaseDSN == "" {
		return errors.New("postgres storage requires database connection string")
	}
	if !slices.Contains([]string{IdentityNone, IdentityClaims, IdentityProfile}, c.Identity) {
		return fmt.Errorf("unknown identity resolution %q", c.Identity)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := render.ParseFormat(c.Output); err != nil {
		return err
	}
	return nil
}
