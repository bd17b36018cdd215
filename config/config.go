package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Addr            string
	GinMode         string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	MinTextLength   int
	MaxTextLength   int
}

type ClassifierConfig struct {
	Strategy       string // keyword, model or remote
	ModelPath      string
	ModelVersion   string
	RemoteEndpoint string
	HealthInterval time.Duration
	Override       OverrideConfig
}

// OverrideConfig holds the constants of the high-confidence false-positive
// override applied to transformer predictions.
type OverrideConfig struct {
	Threshold float64
	Base      float64
	Slope     float64
	Min       float64
	Max       float64
}

type LLMConfig struct {
	Provider        string // openai, anthropic or empty for static recommendations
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	Timeout         time.Duration
}

type PlatformConfig struct {
	HTTPTimeout         time.Duration
	TwitterBearerToken  string
	RedditClientID      string
	RedditClientSecret  string
	RedditUserAgent     string
	MetaAppID           string
	MetaAppSecret       string
	FacebookAccessToken string
	ThreadsAccessToken  string
	ApifyToken          string
}

type CacheConfig struct {
	ValkeyAddr     string
	ValkeyPassword string
	ValkeyTLS      bool
	TTL            time.Duration
}

type StorageConfig struct {
	Driver        string // sqlite, mongo or dynamodb
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	DynamoTable   string
	AWSEndpoint   string
	AWSRegion     string
}

type EventsConfig struct {
	Driver       string // none, kafka or nats
	KafkaBroker  string
	GroupID      string
	Topic        string
	NATSURL      string
	BatchSize    int
	BatchTimeout time.Duration
}

type RetentionConfig struct {
	Days     int
	Schedule string
}

type Config struct {
	Env         string
	LogLevel    string
	LexiconPath string
	Server      ServerConfig
	Classifier  ClassifierConfig
	LLM         LLMConfig
	Platforms   PlatformConfig
	Cache       CacheConfig
	Storage     StorageConfig
	Events      EventsConfig
	Retention   RetentionConfig
}

// Load builds the Config from the process environment. Call LoadEnv first
// to pull in the env file for the current APP_ENV.
func Load() Config {
	return Config{
		Env:         AppEnv(),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LexiconPath: getEnv("LEXICON_PATH", ""),
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":5000"),
			GinMode:         getEnv("GIN_MODE", "release"),
			CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:5175"}),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			MinTextLength:   getEnvInt("MIN_TEXT_LENGTH", 50),
			MaxTextLength:   getEnvInt("MAX_TEXT_LENGTH", 5000),
		},
		Classifier: ClassifierConfig{
			Strategy:       strings.ToLower(getEnv("CLASSIFIER_STRATEGY", "keyword")),
			ModelPath:      getEnv("MODEL_PATH", "./models/distilbert-mental-health"),
			ModelVersion:   getEnv("MODEL_VERSION", "distilbert-v1"),
			RemoteEndpoint: getEnv("CLASSIFIER_ENDPOINT", ""),
			HealthInterval: getEnvDuration("CLASSIFIER_HEALTH_INTERVAL", 15*time.Second),
			Override: OverrideConfig{
				Threshold: getEnvFloat("OVERRIDE_THRESHOLD", 0.90),
				Base:      getEnvFloat("OVERRIDE_BASE", 0.85),
				Slope:     getEnvFloat("OVERRIDE_SLOPE", 0.5),
				Min:       getEnvFloat("OVERRIDE_MIN", 0.75),
				Max:       getEnvFloat("OVERRIDE_MAX", 0.95),
			},
		},
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "")),
			Model:           getEnv("LLM_MODEL", ""),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			Timeout:         getEnvDuration("LLM_TIMEOUT", 30*time.Second),
		},
		Platforms: PlatformConfig{
			HTTPTimeout:         getEnvDuration("EXTRACTOR_TIMEOUT", 10*time.Second),
			TwitterBearerToken:  getEnv("TWITTER_BEARER_TOKEN", ""),
			RedditClientID:      getEnv("REDDIT_CLIENT_ID", ""),
			RedditClientSecret:  getEnv("REDDIT_CLIENT_SECRET", ""),
			RedditUserAgent:     getEnv("REDDIT_USER_AGENT", "MindTrack-AI/1.0 (Mental health analyzer; Academic research)"),
			MetaAppID:           getEnv("META_APP_ID", ""),
			MetaAppSecret:       getEnv("META_APP_SECRET", ""),
			FacebookAccessToken: getEnv("FACEBOOK_ACCESS_TOKEN", ""),
			ThreadsAccessToken:  getEnv("THREADS_ACCESS_TOKEN", ""),
			ApifyToken:          getEnv("APIFY_API_TOKEN", ""),
		},
		Cache: CacheConfig{
			ValkeyAddr:     getEnv("VALKEY_INIT_ADDRESS", ""),
			ValkeyPassword: getEnv("VALKEY_PASSWORD", ""),
			ValkeyTLS:      getEnvBool("VALKEY_TLS", false),
			TTL:            getEnvDuration("EXTRACTION_CACHE_TTL", time.Hour),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
			SQLitePath:    getEnv("SQLITE_PATH", "mindtrack.db"),
			MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGO_DATABASE", "mindtrack"),
			DynamoTable:   getEnv("DYNAMODB_TABLE", "EmotionAnalyses"),
			AWSEndpoint:   getEnv("AWS_ENDPOINT", ""),
			AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		},
		Events: EventsConfig{
			Driver:       strings.ToLower(getEnv("EVENTS_DRIVER", "none")),
			KafkaBroker:  getEnv("KAFKA_BROKER", "localhost:29092"),
			GroupID:      getEnv("CONSUMER_GROUP_ID", "mindtrack-timeline-archiver"),
			Topic:        getEnv("EVENTS_TOPIC", "analysis-results"),
			NATSURL:      getEnv("NATS_URL", "nats://localhost:4222"),
			BatchSize:    getEnvInt("EVENTS_BATCH_SIZE", 25),
			BatchTimeout: getEnvDuration("EVENTS_BATCH_TIMEOUT", 5*time.Second),
		},
		Retention: RetentionConfig{
			Days:     getEnvInt("RETENTION_DAYS", 0),
			Schedule: getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
