package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile             = ".env"
	defaultPort                = "8080"
	defaultReadTimeout         = 15 * time.Second
	defaultWriteTimeout        = 30 * time.Second
	defaultIdleTimeout         = 120 * time.Second
	defaultSecurityEnvironment = "local"
	defaultAssemblyOffsetDays  = 1
	defaultDistanceDivisorKm   = 300
	defaultPartStaggerDays     = 2
	defaultRateLimitPlanning   = 120
	defaultRateLimitWindow     = time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server     ServerConfig
	Firestore  FirestoreConfig
	PubSub     PubSubConfig
	Planning   PlanningConfig
	RateLimits RateLimitConfig
	Security   SecurityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// PubSubConfig names the topic receiving stock shortfall events. Empty topic
// disables publishing.
type PubSubConfig struct {
	ProjectID      string
	ShortfallTopic string
}

// PlanningConfig tunes the delivery timeline estimator.
type PlanningConfig struct {
	AssemblyOffsetDays int
	DistanceDivisorKm  int
	PartStaggerDays    int
	DefaultLocale      string
}

// RateLimitConfig bounds request rates on the planning endpoint.
type RateLimitConfig struct {
	PlanningPerWindow int
	Window            time.Duration
}

// SecurityConfig carries deployment environment metadata.
type SecurityConfig struct {
	Environment string
}

// ValidationError reports configuration fields that failed validation.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.fields, ", "))
}

// Fields lists the invalid field names.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

type loaderOptions struct {
	envFile       string
	envMap        map[string]string
	skipSystemEnv bool
}

// Option customises configuration loading.
type Option func(*loaderOptions)

// WithEnvFile overrides the env file consulted before system environment variables.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap supplies explicit values taking precedence over file and system env.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment (useful in tests).
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.skipSystemEnv = true
	}
}

// Load resolves configuration from env file, system environment, and explicit
// overrides, applying defaults and validating the result.
func Load(opts ...Option) (Config, error) {
	values, err := environmentValues(opts...)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         valueOrDefault(values, "PORT", defaultPort),
			ReadTimeout:  durationOrDefault(values, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationOrDefault(values, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationOrDefault(values, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    strings.TrimSpace(values["FIRESTORE_PROJECT_ID"]),
			EmulatorHost: strings.TrimSpace(values["FIRESTORE_EMULATOR_HOST"]),
		},
		PubSub: PubSubConfig{
			ProjectID:      strings.TrimSpace(values["PUBSUB_PROJECT_ID"]),
			ShortfallTopic: strings.TrimSpace(values["PUBSUB_SHORTFALL_TOPIC"]),
		},
		Planning: PlanningConfig{
			AssemblyOffsetDays: intOrDefault(values, "PLANNING_ASSEMBLY_OFFSET_DAYS", defaultAssemblyOffsetDays),
			DistanceDivisorKm:  intOrDefault(values, "PLANNING_DISTANCE_DIVISOR_KM", defaultDistanceDivisorKm),
			PartStaggerDays:    intOrDefault(values, "PLANNING_PART_STAGGER_DAYS", defaultPartStaggerDays),
			DefaultLocale:      valueOrDefault(values, "PLANNING_DEFAULT_LOCALE", "en"),
		},
		RateLimits: RateLimitConfig{
			PlanningPerWindow: intOrDefault(values, "RATE_LIMIT_PLANNING", defaultRateLimitPlanning),
			Window:            durationOrDefault(values, "RATE_LIMIT_WINDOW", defaultRateLimitWindow),
		},
		Security: SecurityConfig{
			Environment: valueOrDefault(values, "ENVIRONMENT", defaultSecurityEnvironment),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{envFile: defaultEnvFile}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	values := make(map[string]string)

	if options.envFile != "" {
		fileValues, err := readEnvFile(options.envFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}

	if !options.skipSystemEnv {
		for _, entry := range os.Environ() {
			parts := strings.SplitN(entry, "=", 2)
			if len(parts) != 2 {
				continue
			}
			values[parts[0]] = parts[1]
		}
	}

	for k, v := range options.envMap {
		values[k] = v
	}

	return values, nil
}

func readEnvFile(path string) (map[string]string, error) {
	values := make(map[string]string)

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		if key != "" {
			values[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}

	return values, nil
}

func validateConfig(cfg Config) error {
	var invalid []string

	if strings.TrimSpace(cfg.Server.Port) == "" {
		invalid = append(invalid, "PORT")
	} else if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, "PORT")
	}
	if cfg.Planning.AssemblyOffsetDays < 0 {
		invalid = append(invalid, "PLANNING_ASSEMBLY_OFFSET_DAYS")
	}
	if cfg.Planning.DistanceDivisorKm <= 0 {
		invalid = append(invalid, "PLANNING_DISTANCE_DIVISOR_KM")
	}
	if cfg.Planning.PartStaggerDays < 0 {
		invalid = append(invalid, "PLANNING_PART_STAGGER_DAYS")
	}
	if cfg.RateLimits.PlanningPerWindow < 0 {
		invalid = append(invalid, "RATE_LIMIT_PLANNING")
	}
	if cfg.PubSub.ShortfallTopic != "" && cfg.PubSub.ProjectID == "" && cfg.Firestore.ProjectID == "" {
		invalid = append(invalid, "PUBSUB_PROJECT_ID")
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return &ValidationError{fields: invalid}
	}
	return nil
}

func valueOrDefault(values map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(values[key]); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(values map[string]string, key string, fallback int) int {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func durationOrDefault(values map[string]string, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(values[key])
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
