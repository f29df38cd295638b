package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds CLI configuration
type Config struct {
	APIURL   string        `yaml:"api_url" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	Retries  uint64        `yaml:"retries" validate:"lte=5"`
	Store    string        `yaml:"store" validate:"oneof=memory file redis"`
	StateDir string        `yaml:"state_dir" validate:"required_if=Store file"`
	RedisURL string        `yaml:"redis_url" validate:"required_if=Store redis"`

	ConfigFile string `yaml:"-"`
	Output     string `yaml:"-" validate:"oneof=text json"`
	Verbose    bool   `yaml:"-"`
}

// fileConfig mirrors Config for YAML files; nil fields are not set
type fileConfig struct {
	APIURL   *string        `yaml:"api_url"`
	Timeout  *time.Duration `yaml:"timeout"`
	Retries  *uint64        `yaml:"retries"`
	Store    *string        `yaml:"store"`
	StateDir *string        `yaml:"state_dir"`
	RedisURL *string        `yaml:"redis_url"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:     getEnvOrDefault("QUIZ_API_URL", "http://localhost:5000"),
		Timeout:    getEnvDuration("QUIZ_TIMEOUT", 10*time.Second),
		Retries:    1,
		Store:      getEnvOrDefault("QUIZ_STORE", "file"),
		StateDir:   getEnvOrDefault("QUIZ_STATE_DIR", defaultStateDir()),
		RedisURL:   os.Getenv("QUIZ_REDIS_URL"),
		ConfigFile: os.Getenv("QUIZ_CONFIG"),
		Output:     "text",
	}
}

// LoadDotEnv loads environment variables from a .env file. A missing file
// is not an error; variables already set are kept.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadFile applies the YAML config file on top of c. Settings whose flag was
// given on the command line are left alone.
func (c *Config) LoadFile(path string, flagSet func(name string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.APIURL != nil && !flagSet("api-url") {
		c.APIURL = *fc.APIURL
	}
	if fc.Timeout != nil && !flagSet("timeout") {
		c.Timeout = *fc.Timeout
	}
	if fc.Retries != nil && !flagSet("retries") {
		c.Retries = *fc.Retries
	}
	if fc.Store != nil && !flagSet("store") {
		c.Store = *fc.Store
	}
	if fc.StateDir != nil && !flagSet("state-dir") {
		c.StateDir = *fc.StateDir
	}
	if fc.RedisURL != nil && !flagSet("redis-url") {
		c.RedisURL = *fc.RedisURL
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed '%s' (value: '%v')", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration:\n- %s", strings.Join(messages, "\n- "))
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quizctl"
	}
	return filepath.Join(home, ".quizctl")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("5s") or plain milliseconds
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
