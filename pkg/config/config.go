package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const defaultJWTSecret = "SUPER_SECRET_KEY_CHANGE_ME"

type Config struct {
	Port string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RabbitMQURL string

	MongoURI string
	MongoDB  string

	RedisAddress  string
	RedisPassword string
	LoginLimit    int

	// TrustedProxyHops is how many reverse proxies sit in front of a
	// service. Zero means X-Forwarded-For is never trusted.
	TrustedProxyHops int

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret  string
	AnonEncKey string
}

// Load reads .env (if present) and the process environment. defaultPort and
// defaultDB are per-service fallbacks.
func Load(defaultPort, defaultDB string) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using process environment")
	}

	cfg := &Config{
		Port: Get("PORT", defaultPort),

		PostgresHost:     Get("POSTGRES_HOST", "localhost"),
		PostgresPort:     Get("POSTGRES_PORT", "5432"),
		PostgresUser:     Get("POSTGRES_USER", "admin"),
		PostgresPassword: Get("POSTGRES_PASSWORD", "password"),
		PostgresDB:       Get("POSTGRES_DB", defaultDB),

		RabbitMQURL: rabbitMQURL(),

		MongoURI: mongoURI(),
		MongoDB:  Get("MONGO_DB", "dispatch_db"),

		RedisAddress:  Get("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LoginLimit:    GetInt("LOGIN_LIMIT", 10),

		TrustedProxyHops: GetInt("TRUSTED_PROXY_HOPS", 0),

		MinioEndpoint:  Get("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: Get("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: Get("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    Get("MINIO_BUCKET", "evidence"),
		MinioUseSSL:    GetBool("MINIO_USE_SSL", false),

		JWTSecret:  Get("JWT_SECRET", defaultJWTSecret),
		AnonEncKey: os.Getenv("ANON_ENC_KEY"),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Warn("JWT_SECRET not set, using the development default")
	}
	return cfg
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort,
	)
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warnf("Invalid integer for %s (%q), using %d", key, v, fallback)
		return fallback
	}
	return n
}

func GetBool(key string, fallback bool) bool {
	v := Get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("Invalid boolean for %s (%q), using %v", key, v, fallback)
		return fallback
	}
	return b
}

// rabbitMQURL prefers RABBITMQ_URL and otherwise builds the URL from its parts.
func rabbitMQURL() string {
	if v := Get("RABBITMQ_URL", ""); v != "" {
		return v
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		Get("RABBITMQ_USER", "guest"),
		Get("RABBITMQ_PASS", "guest"),
		Get("RABBITMQ_HOST", "localhost"),
		Get("RABBITMQ_PORT", "5672"),
	)
}

func mongoURI() string {
	if v := Get("MONGO_URI", ""); v != "" {
		return v
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s",
		Get("MONGO_USER", "admin"),
		Get("MONGO_PASSWORD", "password"),
		Get("MONGO_HOST", "localhost"),
		Get("MONGO_PORT", "27017"),
	)
}
