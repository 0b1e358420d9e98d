package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/campusops/sisync/internal/transport"
	"github.com/campusops/sisync/pkg/errors"
)

// Configuration defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 4
	DefaultRetries     = 3
)

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Remote API
	APIRoot  string
	Username string
	Password string
	Token    string
	Timeout  time.Duration

	// Extract input
	DataDir string

	// Engine tuning
	Concurrency int
	Retries     uint

	// DeletePolicies maps entity type names to delete policy overrides
	// (delete, deactivate, retain).
	DeletePolicies map[string]string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (SIS_ prefix)
//  3. .env files
//  4. Config file (~/.sisync.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.SetEnvPrefix("SIS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	viper.SetDefault("timeout", DefaultTimeout)
	viper.SetDefault("concurrency", DefaultConcurrency)
	viper.SetDefault("retries", DefaultRetries)
	viper.SetDefault("data_dir", ".")

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.AddConfigPath(".")
			viper.SetConfigType("yaml")
			viper.SetConfigName(".sisync")
		}
	}

	// A missing config file is fine; everything can come from env.
	_ = viper.ReadInConfig()

	config := &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		NoColor: viper.GetBool("no-color"),

		ConfigFile: viper.ConfigFileUsed(),

		APIRoot:  viper.GetString("api_root"),
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
		Token:    viper.GetString("token"),
		Timeout:  viper.GetDuration("timeout"),

		DataDir: viper.GetString("data_dir"),

		Concurrency: viper.GetInt("concurrency"),
		Retries:     viper.GetUint("retries"),

		DeletePolicies: viper.GetStringMapString("delete_policies"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// ValidateLocal checks the configuration needed to load and map extract
// files. It is the subset required by the validate command.
func (c *Config) ValidateLocal() error {
	if c.DataDir == "" {
		return errors.NewConfigError("data-dir", "extract directory is required")
	}
	info, err := os.Stat(c.DataDir)
	if err != nil {
		return errors.NewConfigError("data-dir", err.Error())
	}
	if !info.IsDir() {
		return errors.NewConfigError("data-dir", c.DataDir+" is not a directory")
	}
	return nil
}

// Validate checks the full configuration needed for a sync run. A sync
// must fail fast here rather than midway through the passes.
func (c *Config) Validate() error {
	if err := c.ValidateLocal(); err != nil {
		return err
	}
	if c.APIRoot == "" {
		return errors.NewConfigError("api-root", "remote API root URL is required")
	}
	if !strings.HasPrefix(c.APIRoot, "http://") && !strings.HasPrefix(c.APIRoot, "https://") {
		return errors.NewConfigError("api-root", "must be an http or https URL")
	}
	if c.Token == "" && (c.Username == "" || c.Password == "") {
		return errors.NewConfigError("credentials",
			"either a token or a username and password must be configured")
	}
	if c.Concurrency <= 0 {
		return errors.NewConfigError("concurrency", "must be positive")
	}
	return nil
}

// Authenticator returns the request authenticator the configuration
// selects: token auth when a token is set, basic auth otherwise.
func (c *Config) Authenticator() transport.Authenticator {
	if c.Token != "" {
		return &transport.TokenAuth{Token: c.Token}
	}
	if c.Username != "" {
		return &transport.BasicAuth{Username: c.Username, Password: c.Password}
	}
	return &transport.NoAuth{}
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default
// if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
