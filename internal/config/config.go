package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"Ascendia"`
		Port    int    `envconfig:"PORT" default:"8080"`
		BaseURL string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ascendia"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	}

	Auth struct {
		// JWTSecret verifies HS256 tokens minted by the web front end. The API
		// refuses to start without it.
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
		Issuer    string `envconfig:"AUTH_JWT_ISSUER"`
	}

	Investec struct {
		Host        string        `envconfig:"INVESTEC_HOST" default:"https://openapisandbox.investec.com"`
		TokenURL    string        `envconfig:"INVESTEC_TOKEN_URL"`
		Scopes      []string      `envconfig:"INVESTEC_SCOPES"`
		RefreshSkew time.Duration `envconfig:"INVESTEC_REFRESH_SKEW" default:"60s"`
		Timeout     time.Duration `envconfig:"INVESTEC_TIMEOUT" default:"30s"`
	}

	OpenRouter struct {
		APIKey  string        `envconfig:"OPEN_ROUTER_KEY"`
		BaseURL string        `envconfig:"OPEN_ROUTER_BASE_URL" default:"https://openrouter.ai/api/v1"`
		Model   string        `envconfig:"OPEN_ROUTER_MODEL" default:"nvidia/llama-3.1-nemotron-70b-instruct"`
		Timeout time.Duration `envconfig:"OPEN_ROUTER_TIMEOUT" default:"2m"`
	}

	Security struct {
		// EncryptionKey is a hex encoded 32 byte key used to seal credentials at rest.
		EncryptionKey string `envconfig:"ENCRYPTION_KEY" required:"true"`
	}

	TUI struct {
		UserID string `envconfig:"TUI_USER_ID" default:"local"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
