package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Generation provider constants
const (
	ProviderHTTP   = "http"
	ProviderAMQP   = "amqp"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Observability export constants
const (
	EndpointStdout = "stdout"
	ProtocolHTTP   = "http"
	ProtocolGRPC   = "grpc"
)

var (
	validEnvs      = []string{EnvDevelopment, EnvStaging, EnvProduction}
	validProviders = []string{ProviderHTTP, ProviderAMQP, ProviderOpenAI, ProviderGemini}
	validLevels    = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	validProtocols = []string{ProtocolHTTP, ProtocolGRPC}
)

// Validate checks the loaded configuration and returns the first problem found.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := validateGeneration(&cfg.Generation); err != nil {
		return fmt.Errorf("generation config: %w", err)
	}

	if err := validateObservability(&cfg.Observability); err != nil {
		return fmt.Errorf("observability config: %w", err)
	}

	return nil
}

func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "APP_NAME", "app.name")
	}

	if cfg.Version == "" {
		return NewMissingFieldError("app.version", "APP_VERSION", "app.version")
	}

	if !slices.Contains(validEnvs, cfg.Env) {
		return NewInvalidFieldError("app.env", fmt.Sprintf("unknown environment %q", cfg.Env), validEnvs)
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewInvalidFieldError("server.port", fmt.Sprintf("invalid port %d (must be 1-65535)", cfg.Port), nil)
	}

	if cfg.Timeout.Read <= 0 {
		return NewValidationError("server.timeout.read", "must be positive")
	}

	if cfg.Timeout.Write <= 0 {
		return NewValidationError("server.timeout.write", "must be positive")
	}

	if cfg.Rate.Limit < 0 || cfg.Rate.Burst < 0 {
		return NewValidationError("server.rate", "limit and burst must not be negative")
	}

	if cfg.Rate.Limit > 0 && cfg.Rate.Burst == 0 {
		cfg.Rate.Burst = cfg.Rate.Limit
	}

	if cfg.Path.Base != "" && !strings.HasPrefix(cfg.Path.Base, "/") {
		cfg.Path.Base = "/" + cfg.Path.Base
	}
	cfg.Path.Base = strings.TrimSuffix(cfg.Path.Base, "/")

	if cfg.Drafts.Max < 0 {
		return NewValidationError("server.drafts.max", "must not be negative")
	}

	return nil
}

func validateLog(cfg *LogConfig) error {
	cfg.Level = strings.ToLower(strings.TrimSpace(cfg.Level))
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if !slices.Contains(validLevels, cfg.Level) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("unknown level %q", cfg.Level), validLevels)
	}
	return nil
}

func validateGeneration(cfg *GenerationConfig) error {
	if !slices.Contains(validProviders, cfg.Provider) {
		return NewInvalidFieldError("generation.provider", fmt.Sprintf("unknown provider %q", cfg.Provider), validProviders)
	}

	if cfg.Timeout <= 0 {
		return NewValidationError("generation.timeout", "must be positive")
	}

	switch cfg.Provider {
	case ProviderHTTP:
		if cfg.Endpoint == "" {
			return NewMissingFieldError("generation.endpoint", "GENERATION_ENDPOINT", "generation.endpoint")
		}
		if err := validateURL("generation.endpoint", cfg.Endpoint, "http", "https"); err != nil {
			return err
		}
	case ProviderAMQP:
		if cfg.AMQP.URL == "" {
			return NewMissingFieldError("generation.amqp.url", "GENERATION_AMQP_URL", "generation.amqp.url")
		}
		if err := validateURL("generation.amqp.url", cfg.AMQP.URL, "amqp", "amqps"); err != nil {
			return err
		}
		if cfg.AMQP.Queue == "" {
			return NewMissingFieldError("generation.amqp.queue", "GENERATION_AMQP_QUEUE", "generation.amqp.queue")
		}
	case ProviderOpenAI, ProviderGemini:
		if cfg.APIKey == "" {
			return NewMissingFieldError("generation.apikey", strings.ToUpper(cfg.Provider)+"_API_KEY", "generation.apikey")
		}
		if cfg.MaxTokens < 0 {
			return NewValidationError("generation.maxtokens", "must not be negative")
		}
	}

	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return NewValidationError(field, "must be an absolute URL")
	}
	if !slices.Contains(schemes, u.Scheme) {
		return NewInvalidFieldError(field, fmt.Sprintf("unsupported scheme %q", u.Scheme), schemes)
	}
	return nil
}

func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = EndpointStdout
	}
	if cfg.Endpoint != EndpointStdout && !slices.Contains(validProtocols, cfg.Protocol) {
		return NewInvalidFieldError("observability.protocol", fmt.Sprintf("unknown protocol %q", cfg.Protocol), validProtocols)
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return NewValidationError("observability.samplerate", "must be between 0 and 1")
	}
	return nil
}
