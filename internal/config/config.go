package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string
	Environment    string // "development" or "production"
	FortniteAPIKey string
	FortniteAPIURL string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	RedisURL       string // empty selects the in-process cache
	DatabaseURL    string // empty disables lookup history
	AllowedOrigins []string
	Tuning         Tuning
}

// Tuning holds the knobs read from the optional CONFIG_FILE.
type Tuning struct {
	Stats    StatsTuning    `yaml:"stats"`
	Feedback FeedbackTuning `yaml:"feedback"`
}

type StatsTuning struct {
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RateLimitPause time.Duration `yaml:"rate_limit_pause"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type FeedbackTuning struct {
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	Timeout        time.Duration `yaml:"timeout"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	QuickMaxTokens int           `yaml:"quick_max_tokens"`
}

func Load() (*Config, error) {
	// Load .env file (OK if it fails in production)
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		FortniteAPIKey: os.Getenv("FORTNITE_API_KEY"),
		FortniteAPIURL: getEnv("FORTNITE_API_BASE_URL", "https://fortnite-api.com/"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		RedisURL:       os.Getenv("REDIS_URL"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
	}

	if cfg.FortniteAPIKey == "" {
		return nil, fmt.Errorf("FORTNITE_API_KEY environment variable is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		tuning, err := LoadTuning(path)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = *tuning
	} else {
		cfg.Tuning.applyDefaults()
	}

	return cfg, nil
}

// LoadTuning reads a YAML tuning file. Environment variables in the file
// are expanded before parsing.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	t.applyDefaults()
	return &t, nil
}

func (t *Tuning) applyDefaults() {
	// Stats defaults
	if t.Stats.CacheTTL == 0 {
		t.Stats.CacheTTL = 5 * time.Minute
	}
	if t.Stats.RateLimitPause == 0 {
		t.Stats.RateLimitPause = 2 * time.Second
	}
	if t.Stats.RequestTimeout == 0 {
		t.Stats.RequestTimeout = 30 * time.Second
	}

	// Feedback defaults
	if t.Feedback.CacheTTL == 0 {
		t.Feedback.CacheTTL = time.Hour
	}
	if t.Feedback.Timeout == 0 {
		t.Feedback.Timeout = 30 * time.Second
	}
	if t.Feedback.Temperature == 0 {
		t.Feedback.Temperature = 0.7
	}
	if t.Feedback.MaxTokens == 0 {
		t.Feedback.MaxTokens = 600
	}
	if t.Feedback.QuickMaxTokens == 0 {
		t.Feedback.QuickMaxTokens = 300
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
