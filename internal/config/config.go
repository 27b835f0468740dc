package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is read first; real environment
// variables take precedence over it.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MySQLDSN string

	KafkaBrokers        []string
	KafkaAlertTopic     string
	KafkaGroupID        string
	BatchSize           int
	BatchFlushInterval  time.Duration
	RealtimeMinSeverity int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	// OpenAI chat proxy configuration.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration
	OpenAIEnabled bool

	// MinIO image storage configuration.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIOPublicURL string
	MinIOEnabled   bool

	// Mapbox reverse geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Firebase Cloud Messaging configuration.
	FirebaseCredentialsFile string
	PushEnabled             bool

	HazardRefreshInterval time.Duration
	AlertExpirySchedule   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}
	minSeverity, err := parseIntInRange("REALTIME_MIN_SEVERITY", 4, 1, 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := parseIntInRange("REDIS_DB", 0, 0, 15)
	if err != nil {
		return nil, err
	}
	openAITimeout, err := parsePositiveDuration("OPENAI_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	minioSSL, err := parseBool("MINIO_USE_SSL", false)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("HAZARD_REFRESH_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	firebaseCreds := os.Getenv("FIREBASE_CREDENTIALS_FILE")

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MySQLDSN: sharedcfg.EnvOrDefault("MYSQL_DSN", "disaster:disaster@tcp(localhost:3306)/disaster_watch?parseTime=true&charset=utf8mb4"),

		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:     sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "realtime-alerts"),
		KafkaGroupID:        sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "disaster-watch"),
		BatchSize:           batchSize,
		BatchFlushInterval:  flushInterval,
		RealtimeMinSeverity: minSeverity,

		RedisAddr:     sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		JWTSecret: os.Getenv("JWT_SECRET"),

		OpenAIAPIKey:  openAIKey,
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   sharedcfg.EnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout: openAITimeout,
		OpenAIEnabled: openAIKey != "",

		MinIOEndpoint:  minioEndpoint,
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    sharedcfg.EnvOrDefault("MINIO_BUCKET", "disaster-watch"),
		MinIOUseSSL:    minioSSL,
		MinIOPublicURL: sharedcfg.EnvOrDefault("MINIO_PUBLIC_URL", "http://"+minioEndpoint),
		MinIOEnabled:   minioEndpoint != "",

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),

		FirebaseCredentialsFile: firebaseCreds,
		PushEnabled:             firebaseCreds != "",

		HazardRefreshInterval: refreshInterval,
		AlertExpirySchedule:   sharedcfg.EnvOrDefault("ALERT_EXPIRY_SCHEDULE", "@every 1m"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.MinIOEnabled && (cfg.MinIOAccessKey == "" || cfg.MinIOSecretKey == "") {
		return nil, errors.New("MINIO_ENDPOINT is set but MINIO_ACCESS_KEY or MINIO_SECRET_KEY is missing")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
