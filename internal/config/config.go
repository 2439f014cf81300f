package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bryanwahyu/mediassist-gateway/internal/domain/symptoms"
)

const (
	TransportCallable = "callable"
	TransportOpenAI   = "openai"

	AuthIDToken = "idtoken"
	AuthNone    = "none"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		IdleTimeout     time.Duration `yaml:"idleTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Remote struct {
		Transport       string        `yaml:"transport"`
		Function        string        `yaml:"function"`
		BaseURL         string        `yaml:"baseURL"`
		Project         string        `yaml:"project"`
		Region          string        `yaml:"region"`
		Auth            string        `yaml:"auth"`
		CredentialsFile string        `yaml:"credentialsFile"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"remote"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`
}

// Load reads .env, then the YAML file at path, then environment overrides.
// A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config.Load: no .env file", "error", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config.Load: config file not found, using defaults", "path", path)
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("REMOTE_TRANSPORT", &c.Remote.Transport)
	str("REMOTE_FUNCTION", &c.Remote.Function)
	str("REMOTE_BASE_URL", &c.Remote.BaseURL)
	str("FIREBASE_PROJECT_ID", &c.Remote.Project)
	str("FUNCTIONS_REGION", &c.Remote.Region)
	str("GOOGLE_APPLICATION_CREDENTIALS", &c.Remote.CredentialsFile)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORS.AllowedOrigins = origins
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	// analysis calls can take most of a minute
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Remote.Transport == "" {
		c.Remote.Transport = TransportCallable
	}
	if c.Remote.Function == "" {
		c.Remote.Function = symptoms.AnalyzerFunction
	}
	if c.Remote.Region == "" {
		c.Remote.Region = "us-central1"
	}
	if c.Remote.Auth == "" {
		c.Remote.Auth = AuthIDToken
	}
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 60 * time.Second
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Remote.Transport {
	case TransportCallable:
		if c.Remote.Project == "" && c.Remote.BaseURL == "" {
			errs = append(errs, errors.New("remote.project (FIREBASE_PROJECT_ID) or remote.baseURL is required for the callable transport"))
		}
		if c.Remote.Auth != AuthIDToken && c.Remote.Auth != AuthNone {
			errs = append(errs, fmt.Errorf("unknown remote.auth %q", c.Remote.Auth))
		}
	case TransportOpenAI:
		if c.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("openai.apiKey (OPENAI_API_KEY) is required for the openai transport"))
		}
		// the openai transport hosts exactly one function
		if c.Remote.Function != symptoms.AnalyzerFunction {
			errs = append(errs, fmt.Errorf("remote.function %q is not served by the openai transport, only %q", c.Remote.Function, symptoms.AnalyzerFunction))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown remote.transport %q", c.Remote.Transport))
	}
	if c.Remote.Timeout < 0 {
		errs = append(errs, errors.New("remote.timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// NewLogger builds the process logger from the log section
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	var handler slog.Handler
	if strings.ToLower(c.Log.Format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "mediassist-gateway", "pid", os.Getpid())
}
