package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"chrysalis"`
	DatabaseURL   string `env:"DATABASE_URL"`

	SessionSecret     string `env:"SESSION_SECRET,required,notEmpty"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"1440"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LLMProvider         string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	LLMAPIKey           string `env:"LLM_API_KEY"`
	LLMBaseURL          string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModelOverride    string `env:"LLM_MODEL_OVERRIDE"`
	AgentAppName        string `env:"AGENT_APP_NAME" envDefault:"lume_mental_health"`
	AgentsFile          string `env:"AGENTS_FILE"`
	AgentMaxTransfers   int    `env:"AGENT_MAX_TRANSFERS" envDefault:"3"`
	AgentTimeoutSeconds int    `env:"AGENT_TIMEOUT_SECONDS" envDefault:"0"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPass     string `env:"SMTP_PASS"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"Lume"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que los tags no pueden expresar.
func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))

	switch c.StoreDriver {
	case StoreDriverMongo:
		if strings.TrimSpace(c.MongoURI) == "" {
			return errors.New("MONGO_URI is required for the mongo store")
		}
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return errors.New("STORE_DRIVER must be mongo or postgres")
	}

	switch c.LLMProvider {
	case LLMProviderGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case LLMProviderOpenAI:
		if strings.TrimSpace(c.LLMAPIKey) == "" {
			return errors.New("LLM_API_KEY is required for the openai provider")
		}
	default:
		return errors.New("LLM_PROVIDER must be gemini or openai")
	}

	if c.SessionTTLMinutes <= 0 {
		c.SessionTTLMinutes = 1440
	}
	// 0 desactiva la delegacion entre agentes.
	if c.AgentMaxTransfers < 0 {
		c.AgentMaxTransfers = 0
	}
	return nil
}
