package config

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	awspkg "storefront-service/pkg/aws"
)

// JWTSecretName is the Secrets Manager entry that overrides JWT_SECRET.
const JWTSecretName = "storefront/JWT_SECRET"

// Config holds the loaded configuration
type Config struct {
	Port           string
	Env            string
	APIBaseURL     string
	RequestTimeout time.Duration

	RedisURL      string
	SessionTTL    time.Duration
	SessionCookie string
	CookieSecure  bool
	JWTSecret     string

	SearchDebounce time.Duration
	SuggestLimit   int
	AllowedOrigins []string

	AWSRegion           string
	AWSEndpoint         string
	UseAWSSecrets       bool
	CloudWatchEnabled   bool
	CloudWatchNamespace string
	CloudWatchLogGroup  string
	TradeInTopicARN     string

	OTLPEndpoint string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds the config from the environment alone.
func FromEnv() *Config {
	return &Config{
		Port:           getEnv("PORT", "8000"),
		Env:            getEnv("APP_ENV", "development"),
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		RedisURL:      os.Getenv("REDIS_URL"),
		SessionTTL:    getDuration("SESSION_TTL", 168*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "storefront_session"),
		CookieSecure:  getBool("COOKIE_SECURE", false),
		JWTSecret:     os.Getenv("JWT_SECRET"),

		SearchDebounce: getDuration("SEARCH_DEBOUNCE", 350*time.Millisecond),
		SuggestLimit:   getInt("SUGGEST_LIMIT", 6),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"http://localhost:8000"}),

		AWSRegion:           os.Getenv("AWS_REGION"),
		AWSEndpoint:         os.Getenv("AWS_ENDPOINT"),
		UseAWSSecrets:       getBool("AWS_USE_SECRETS", false),
		CloudWatchEnabled:   getBool("CLOUDWATCH_ENABLED", false),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Storefront"),
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/storefront/web"),
		TradeInTopicARN:     os.Getenv("TRADEIN_SNS_TOPIC_ARN"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

type SecretGetter interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// ApplySecrets overrides JWTSecret from Secrets Manager. A missing or empty
// secret leaves the environment value in place; any other lookup failure
// is returned.
func (c *Config) ApplySecrets(ctx context.Context, secrets SecretGetter) error {
	v, err := secrets.GetSecret(ctx, JWTSecretName)
	if errors.Is(err, awspkg.ErrSecretNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if v = strings.TrimSpace(v); v != "" {
		c.JWTSecret = v
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
