package config

import "time"

// Config represents the overall service configuration.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	Server        ServerConfig        `koanf:"server" json:"server" yaml:"server"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	Generation    GenerationConfig    `koanf:"generation" json:"generation" yaml:"generation"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env"`
	Debug   bool   `koanf:"debug" json:"debug" yaml:"debug"`
}

// IsDevelopment reports whether unexpected error details may be returned to
// API clients.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == EnvDevelopment
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host" yaml:"host"`
	Port    int           `koanf:"port" json:"port" yaml:"port"`
	Timeout TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout"`
	Path    PathConfig    `koanf:"path" json:"path" yaml:"path"`
	Rate    RateConfig    `koanf:"rate" json:"rate" yaml:"rate"`
	CORS    CORSConfig    `koanf:"cors" json:"cors" yaml:"cors"`
	Drafts  DraftsConfig  `koanf:"drafts" json:"drafts" yaml:"drafts"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read       time.Duration `koanf:"read" json:"read" yaml:"read"`
	Write      time.Duration `koanf:"write" json:"write" yaml:"write"`
	Idle       time.Duration `koanf:"idle" json:"idle" yaml:"idle"`
	Middleware time.Duration `koanf:"middleware" json:"middleware" yaml:"middleware"`
	Shutdown   time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown"`
}

// PathConfig holds URL path settings for the server.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base"`
	Health string `koanf:"health" json:"health" yaml:"health"`
	Ready  string `koanf:"ready" json:"ready" yaml:"ready"`
}

// RateConfig holds per-IP rate limiting settings. A zero limit disables it.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	Origins []string `koanf:"origins" json:"origins" yaml:"origins"`
}

// DraftsConfig bounds the in-memory draft store.
type DraftsConfig struct {
	Max int `koanf:"max" json:"max" yaml:"max"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// GenerationConfig selects and configures the proposal generation backend.
type GenerationConfig struct {
	// Provider is one of ProviderHTTP, ProviderAMQP, ProviderOpenAI, ProviderGemini.
	Provider string `koanf:"provider" json:"provider" yaml:"provider"`
	// Endpoint is the generation URL for the http provider, or an API base URL override
	// for the LLM providers.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Timeout bounds a single submission attempt.
	Timeout   time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	APIKey    string        `koanf:"apikey" json:"-" yaml:"apikey"`
	Model     string        `koanf:"model" json:"model" yaml:"model"`
	MaxTokens int           `koanf:"maxtokens" json:"maxtokens" yaml:"maxtokens"`
	AMQP      AMQPConfig    `koanf:"amqp" json:"amqp" yaml:"amqp"`
}

// AMQPConfig holds the request/reply settings for the amqp provider.
type AMQPConfig struct {
	URL   string `koanf:"url" json:"-" yaml:"url"`
	Queue string `koanf:"queue" json:"queue" yaml:"queue"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled"`
	// Endpoint is "stdout" or an OTLP collector address.
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint"`
	// Protocol is "http" or "grpc" for OTLP endpoints.
	Protocol   string  `koanf:"protocol" json:"protocol" yaml:"protocol"`
	Insecure   bool    `koanf:"insecure" json:"insecure" yaml:"insecure"`
	SampleRate float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate"`
}
