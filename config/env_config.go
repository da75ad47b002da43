package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultMaxFileSize  int64 = 52428800 // 50MB
	DefaultMaxFiles           = 10
	DefaultJWTExpire          = 3600 * 24 * 7
	DefaultProxyPath          = "/api/media/file"
	DefaultCacheTTL           = 60 * time.Second
	DefaultRequestTimeout     = 30 * time.Second
)

type RateLimitRule struct {
	Window  time.Duration
	Max     int
	Message string
	Prefix  string
}

type EnvConfig struct {
	HTTP struct {
		Port           string
		RequestTimeout time.Duration
	}
	Database struct {
		Driver      string // postgres | sqlite
		SQLitePath  string
		AutoMigrate bool
	}
	Postgres struct {
		URL      string
		HOST     string
		Database string
		Username string
		Password string
		Port     string
		SSLMode  string
		MaxConns int
	}
	JWT struct {
		SecretKey  string
		Expire     int
		CookieName string
	}
	CORS struct {
		AllowDomains string
	}
	Redis struct {
		URL       string
		Password  string
		Database  int
		RedisHost string
		RedisPort string
	}
	RabbitMQ struct {
		Host     string
		Port     string
		Username string
		Password string
	}
	Storage struct {
		Driver        string // minio | s3
		Endpoint      string
		Region        string
		AccessKey     string
		SecretKey     string
		Bucket        string
		KeyPrefix     string
		PublicBaseURL string
		UseSSL        bool
		MaxFileSize   int64
		MaxFiles      int
		ProxyPath     string
	}
	Permission struct {
		Mapping map[string]string
	}
	RateLimit struct {
		Global   RateLimitRule
		Login    RateLimitRule
		Register RateLimitRule
	}
	Cache struct {
		PublicTTL time.Duration
	}
	Telemetry struct {
		OTLPEndpoint string
		ServiceName  string
	}
	Log struct {
		Level      string
		File       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
	Environment struct {
		Mode string
	}
}

// KnownPermissionCodes are the abstract codes the API accepts. Each one can be
// remapped to a concrete permission name with an env var of the same name
// prefixed by PERMISSION_.
var KnownPermissionCodes = []string{"ADMIN"}

func LoadEnvConfig() *EnvConfig {
	var config EnvConfig

	// HTTP
	config.HTTP.Port = firstNonEmpty(os.Getenv("PORT"), os.Getenv("BACKEND_PORT"), "8080")
	config.HTTP.RequestTimeout = getDuration("HTTP_REQUEST_TIMEOUT", DefaultRequestTimeout)

	// Database
	config.Database.Driver = strings.ToLower(firstNonEmpty(os.Getenv("DB_DRIVER"), "postgres"))
	config.Database.SQLitePath = firstNonEmpty(os.Getenv("SQLITE_PATH"), "catalog.db")
	config.Database.AutoMigrate = getBool("DB_AUTO_MIGRATE", true)

	// Postgres
	config.Postgres.URL = os.Getenv("DATABASE_URL")
	config.Postgres.HOST = firstNonEmpty(os.Getenv("PGPOOL_HOST"), "localhost")
	config.Postgres.Database = os.Getenv("PGPOOL_DB")
	config.Postgres.Username = os.Getenv("PGPOOL_USER")
	config.Postgres.Password = os.Getenv("PGPOOL_PASSWORD")
	config.Postgres.Port = firstNonEmpty(os.Getenv("PGPOOL_PORT"), "5432")
	config.Postgres.SSLMode = firstNonEmpty(os.Getenv("PGPOOL_SSLMODE"), "disable")
	config.Postgres.MaxConns = getInt("PGPOOL_MAX_CONNS", 10)

	// JWT
	config.JWT.SecretKey = firstNonEmpty(os.Getenv("JWT_SECRET_KEY"), os.Getenv("JWT_SECRET"), "dev_secret_key")
	config.JWT.Expire = getInt("JWT_EXPIRE", DefaultJWTExpire)
	config.JWT.CookieName = firstNonEmpty(os.Getenv("JWT_COOKIE_NAME"), "auth_token")

	config.CORS.AllowDomains = firstNonEmpty(os.Getenv("ALLOWED_DOMAINS"), os.Getenv("FRONTEND_URL"), "http://localhost:8080")

	// Redis
	config.Redis.URL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Redis.Database, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	config.Redis.RedisHost = firstNonEmpty(os.Getenv("REDIS_HOST"), "localhost")
	config.Redis.RedisPort = firstNonEmpty(os.Getenv("REDIS_PORT"), "6379")

	// RabbitMQ is optional; an empty host disables the purge queue
	config.RabbitMQ.Host = os.Getenv("RABBITMQ_HOST")
	config.RabbitMQ.Port = firstNonEmpty(os.Getenv("RABBITMQ_PORT"), "5672")
	config.RabbitMQ.Username = firstNonEmpty(os.Getenv("RABBITMQ_USER"), "guest")
	config.RabbitMQ.Password = firstNonEmpty(os.Getenv("RABBITMQ_PASSWORD"), "guest")

	// Object storage
	config.Storage.Driver = strings.ToLower(firstNonEmpty(os.Getenv("STORAGE_DRIVER"), "minio"))
	config.Storage.Endpoint = os.Getenv("S3_ENDPOINT")
	config.Storage.Region = firstNonEmpty(os.Getenv("S3_REGION"), "auto")
	config.Storage.AccessKey = os.Getenv("S3_ACCESS_KEY")
	config.Storage.SecretKey = os.Getenv("S3_SECRET_KEY")
	config.Storage.Bucket = os.Getenv("S3_BUCKET")
	config.Storage.KeyPrefix = strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/")
	config.Storage.PublicBaseURL = strings.TrimRight(os.Getenv("PUBLIC_MEDIA_BASE_URL"), "/")
	config.Storage.UseSSL = getBool("S3_USE_SSL", true)
	config.Storage.MaxFileSize = getInt64("MEDIA_MAX_FILE_SIZE", DefaultMaxFileSize)
	config.Storage.MaxFiles = getInt("MEDIA_MAX_FILES", DefaultMaxFiles)
	config.Storage.ProxyPath = strings.TrimRight(firstNonEmpty(os.Getenv("MEDIA_PROXY_PATH"), DefaultProxyPath), "/")

	// Permission mapping, e.g. PERMISSION_ADMIN=SUPERADMIN
	config.Permission.Mapping = make(map[string]string, len(KnownPermissionCodes))
	for _, code := range KnownPermissionCodes {
		config.Permission.Mapping[code] = firstNonEmpty(os.Getenv("PERMISSION_"+code), code)
	}

	// Rate limiting
	config.RateLimit.Global = RateLimitRule{
		Window:  time.Duration(getInt("RATE_LIMIT_GLOBAL_WINDOW", 15)) * time.Minute,
		Max:     getInt("RATE_LIMIT_GLOBAL_MAX", 100),
		Message: "Too many requests, please try again later.",
		Prefix:  "rl:global:",
	}
	config.RateLimit.Login = RateLimitRule{
		Window:  time.Duration(getInt("RATE_LIMIT_LOGIN_WINDOW", 1)) * time.Minute,
		Max:     getInt("RATE_LIMIT_LOGIN_MAX", 5),
		Message: "Too many login attempts. Try again in 1 minute.",
		Prefix:  "rl:login:",
	}
	config.RateLimit.Register = RateLimitRule{
		Window:  time.Duration(getInt("RATE_LIMIT_REGISTER_WINDOW", 60)) * time.Minute,
		Max:     getInt("RATE_LIMIT_REGISTER_MAX", 10),
		Message: "Too many register attempts. Try again later.",
		Prefix:  "rl:register:",
	}

	config.Cache.PublicTTL = getDuration("CACHE_PUBLIC_TTL", DefaultCacheTTL)

	// OpenTelemetry
	endpoint := os.Getenv("OTLP_ENDPOINT")
	// Remove protocol for OpenTelemetry client to avoid duplicate protocols
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	config.Telemetry.OTLPEndpoint = endpoint
	config.Telemetry.ServiceName = firstNonEmpty(os.Getenv("SERVICE_NAME"), "dedilute-catalog")

	config.Log.Level = strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"))
	config.Log.File = os.Getenv("LOG_FILE")
	config.Log.MaxSizeMB = getInt("LOG_MAX_SIZE_MB", 100)
	config.Log.MaxBackups = getInt("LOG_MAX_BACKUPS", 5)
	config.Log.MaxAgeDays = getInt("LOG_MAX_AGE_DAYS", 30)

	config.Environment.Mode = firstNonEmpty(os.Getenv("DEPLOY_ENV"), os.Getenv("NODE_ENV"), "development")

	return &config
}

func (c *EnvConfig) IsProduction() bool {
	return c.Environment.Mode == "production"
}

// StorageReady reports whether the object store has enough configuration to be built.
func (c *EnvConfig) StorageReady() bool {
	return c.Storage.Bucket != "" && c.Storage.Endpoint != ""
}

// PostgresDSN returns DATABASE_URL when set, otherwise a DSN assembled from the PGPOOL_* variables.
func (c *EnvConfig) PostgresDSN() string {
	if c.Postgres.URL != "" {
		return c.Postgres.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Postgres.HOST, c.Postgres.Username, c.Postgres.Password, c.Postgres.Database, c.Postgres.Port, c.Postgres.SSLMode)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func getInt64(key string, def int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// getDuration accepts Go duration strings ("30s") or a plain number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
