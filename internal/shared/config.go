package shared

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9100"`

	MySQLDSN  string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/stargazer?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	SourceBase  string `envconfig:"SOURCE_BASE_URL" default:"https://api.apify.com"`
	SourceToken string `envconfig:"SOURCE_TOKEN" default:""`
	// BusinessDatasets: comma-separated name=datasetID pairs for the ingestor.
	BusinessDatasets string `envconfig:"BUSINESS_DATASETS" default:""`

	Workers     int `envconfig:"INGEST_WORKERS" default:"8"`
	ReviewCount int `envconfig:"INGEST_REVIEW_COUNT" default:"500"`

	CacheTTLSeconds    int `envconfig:"CACHE_TTL_SECONDS" default:"900"`
	AnalysisTTLSeconds int `envconfig:"ANALYSIS_CACHE_TTL_SECONDS" default:"86400"`

	AIProvider   string `envconfig:"AI_PROVIDER" default:""`
	AIModel      string `envconfig:"AI_MODEL" default:""`
	OpenAIKey    string `envconfig:"OPENAI_API_KEY" default:""`
	AnthropicKey string `envconfig:"ANTHROPIC_API_KEY" default:""`
	GeminiKey    string `envconfig:"GEMINI_API_KEY" default:""`
	AIMaxTokens  int    `envconfig:"AI_MAX_TOKENS" default:"1500"`
	AITimeoutSec int    `envconfig:"AI_TIMEOUT_SECONDS" default:"60"`
	AIWorkers    int    `envconfig:"AI_WORKERS" default:"2"`
}

func Load() Config {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if c.SourceToken == "" {
		log.Warn().Msg("SOURCE_TOKEN is empty")
	}
	return c
}

func (c Config) CacheTTL() time.Duration    { return time.Duration(c.CacheTTLSeconds) * time.Second }
func (c Config) AnalysisTTL() time.Duration { return time.Duration(c.AnalysisTTLSeconds) * time.Second }

// APIKeyFor maps a provider name to its configured key.
func (c Config) APIKeyFor(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return c.OpenAIKey
	case "anthropic", "claude":
		return c.AnthropicKey
	case "gemini", "google":
		return c.GeminiKey
	default:
		return ""
	}
}

// Dataset is one name=datasetID pair from BUSINESS_DATASETS.
type Dataset struct {
	Name      string
	DatasetID string
}

// Datasets parses BUSINESS_DATASETS; malformed pairs are skipped with a warning.
func (c Config) Datasets() []Dataset {
	var out []Dataset
	for _, pair := range strings.Split(c.BusinessDatasets, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, id, ok := strings.Cut(pair, "=")
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			log.Warn().Str("pair", pair).Msg("skipping malformed BUSINESS_DATASETS entry")
			continue
		}
		out = append(out, Dataset{Name: name, DatasetID: id})
	}
	return out
}
