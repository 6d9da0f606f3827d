package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Lookup LookupConfig
	Geo    GeoConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig selects how inbound requests are mapped to an actor id.
// Mode "header" trusts the X-User-Id header (development parity with the
// original mock auth); mode "jwt" verifies an HS256 bearer token.
type AuthConfig struct {
	Mode      string
	JWTSecret string
}

// LookupConfig controls the external-lookup gateway.
type LookupConfig struct {
	// TTL applied to every cached lookup result.
	TTL time.Duration
	// Timeout bounds each external source call.
	Timeout time.Duration
	// NegativeGeocodeTTL, when > 0, caches geocode NotFound results
	// for that duration. 0 disables negative caching.
	NegativeGeocodeTTL time.Duration
	// RateLimitPerMinute throttles lookup endpoints per actor. 0 disables.
	RateLimitPerMinute int

	GeocoderBaseURL   string
	GeocoderUserAgent string
}

type GeoConfig struct {
	// DefaultRadiusMeters applies when a resource query omits radius_m.
	DefaultRadiusMeters float64
}

const (
	defaultLookupTTL     = time.Hour
	defaultLookupTimeout = 10 * time.Second
	defaultRadiusMeters  = 10000
	defaultGeocoderURL   = "https://nominatim.openstreetmap.org"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.Mode = strings.TrimSpace(os.Getenv("AUTH_MODE"))
	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")

	c.Lookup.TTL = optDuration("LOOKUP_TTL")
	c.Lookup.Timeout = optDuration("LOOKUP_TIMEOUT")
	c.Lookup.NegativeGeocodeTTL = optDuration("GEOCODE_NEGATIVE_TTL")
	c.Lookup.RateLimitPerMinute = optInt("LOOKUP_RATE_LIMIT")
	c.Lookup.GeocoderBaseURL = strings.TrimSpace(os.Getenv("GEOCODER_BASE_URL"))
	c.Lookup.GeocoderUserAgent = strings.TrimSpace(os.Getenv("GEOCODER_USER_AGENT"))

	c.Geo.DefaultRadiusMeters = optFloat("DEFAULT_RADIUS_M")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	switch c.Auth.Mode {
	case "":
		// Header auth keeps local development friction-free.
		c.Auth.Mode = "header"
		if c.IsProduction() {
			errs = append(errs, errors.New("AUTH_MODE is required in production"))
		}
	case "header", "jwt":
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be header or jwt, got %q", c.Auth.Mode))
	}
	if c.Auth.Mode == "jwt" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required when AUTH_MODE=jwt"))
	}

	if c.Lookup.TTL <= 0 {
		c.Lookup.TTL = defaultLookupTTL
	}
	if c.Lookup.Timeout <= 0 {
		c.Lookup.Timeout = defaultLookupTimeout
	}
	if c.Lookup.NegativeGeocodeTTL < 0 {
		c.Lookup.NegativeGeocodeTTL = 0
	}
	if c.Lookup.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Errorf("LOOKUP_RATE_LIMIT must be >= 0, got %d", c.Lookup.RateLimitPerMinute))
	}
	if c.Lookup.GeocoderBaseURL == "" {
		c.Lookup.GeocoderBaseURL = defaultGeocoderURL
	}
	if c.Lookup.GeocoderUserAgent == "" {
		c.Lookup.GeocoderUserAgent = "disaster-platform/1.0"
	}

	if c.Geo.DefaultRadiusMeters <= 0 {
		c.Geo.DefaultRadiusMeters = defaultRadiusMeters
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optFloat(key string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
