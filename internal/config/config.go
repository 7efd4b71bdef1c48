package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	AI       AIConfig       `yaml:"ai"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	Demo     DemoConfig     `yaml:"demo"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        string   `yaml:"port"`
	Mode        string   `yaml:"mode"` // debug, release, test
	FrontendURL string   `yaml:"frontend_url"`
	BackendURL  string   `yaml:"backend_url"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	ExpireHour        int    `yaml:"expire_hour"`
	RefreshExpireHour int    `yaml:"refresh_expire_hour"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ProviderConfig configures a single LLM backend. A provider with an empty
// APIKey (or BaseURL, for Ollama) is left out of the fallback chain.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type AIConfig struct {
	DemoMode       bool           `yaml:"demo_mode"`
	Temperature    float64        `yaml:"temperature"`
	MaxTokens      int            `yaml:"max_tokens"`
	TimeoutSeconds int            `yaml:"timeout_seconds"`
	RateLimitRPS   float64        `yaml:"rate_limit_rps"`
	RateLimitBurst int            `yaml:"rate_limit_burst"`
	Gemini         ProviderConfig `yaml:"gemini"`
	Anthropic      ProviderConfig `yaml:"anthropic"`
	OpenAI         ProviderConfig `yaml:"openai"`
	Ollama         ProviderConfig `yaml:"ollama"`
}

type OAuthClientConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether both halves of the client credential are set.
func (c OAuthClientConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type OAuthConfig struct {
	GitHub OAuthClientConfig `yaml:"github"`
	Google OAuthClientConfig `yaml:"google"`
}

type DemoConfig struct {
	LoginEnabled bool `yaml:"login_enabled"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		// Start from defaults so a partial file keeps sane values.
		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "8000",
			Mode:        "debug",
			FrontendURL: "http://localhost:3000",
			BackendURL:  "http://localhost:8000",
			CORSOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "sanapath.db",
		},
		JWT: JWTConfig{
			Secret:            "sanapath-secret-key-change-in-production",
			ExpireHour:        24 * 7,
			RefreshExpireHour: 720,
		},
		Log: LogConfig{
			Level: "info",
		},
		AI: AIConfig{
			DemoMode:       false,
			Temperature:    0.7,
			MaxTokens:      4000,
			TimeoutSeconds: 60,
			RateLimitRPS:   1,
			RateLimitBurst: 5,
			Gemini:         ProviderConfig{Model: "gemini-2.0-flash"},
			Anthropic:      ProviderConfig{Model: "claude-sonnet-4-20250514"},
			OpenAI:         ProviderConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o"},
			Ollama:         ProviderConfig{Model: "llama3"},
		},
		Demo: DemoConfig{
			LoginEnabled: true,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if frontend := os.Getenv("FRONTEND_URL"); frontend != "" {
		c.Server.FrontendURL = frontend
	}
	if backend := os.Getenv("BACKEND_URL"); backend != "" {
		c.Server.BackendURL = backend
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if demo, ok := envBool("DEMO_MODE"); ok {
		c.AI.DemoMode = demo
	}
	if demoLogin, ok := envBool("DEMO_LOGIN_ENABLED"); ok {
		c.Demo.LoginEnabled = demoLogin
	}
	if timeout := os.Getenv("AI_TIMEOUT_SECONDS"); timeout != "" {
		if n, err := strconv.Atoi(timeout); err == nil && n > 0 {
			c.AI.TimeoutSeconds = n
		}
	}

	overrideProvider(&c.AI.Gemini, "GEMINI")
	overrideProvider(&c.AI.Anthropic, "ANTHROPIC")
	overrideProvider(&c.AI.OpenAI, "OPENAI")
	overrideProvider(&c.AI.Ollama, "OLLAMA")

	if id := os.Getenv("GITHUB_CLIENT_ID"); id != "" {
		c.OAuth.GitHub.ClientID = id
	}
	if secret := os.Getenv("GITHUB_CLIENT_SECRET"); secret != "" {
		c.OAuth.GitHub.ClientSecret = secret
	}
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		c.OAuth.Google.ClientID = id
	}
	if secret := os.Getenv("GOOGLE_CLIENT_SECRET"); secret != "" {
		c.OAuth.Google.ClientSecret = secret
	}
}

// overrideProvider applies <PREFIX>_API_KEY, <PREFIX>_BASE_URL and <PREFIX>_MODEL.
func overrideProvider(p *ProviderConfig, prefix string) {
	if key := os.Getenv(prefix + "_API_KEY"); key != "" {
		p.APIKey = key
	}
	if baseURL := os.Getenv(prefix + "_BASE_URL"); baseURL != "" {
		p.BaseURL = baseURL
	}
	if model := os.Getenv(prefix + "_MODEL"); model != "" {
		p.Model = model
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, false
	}
	return b, true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
