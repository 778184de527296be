package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// sections are the top-level keys environment variables may override.
var sections = map[string]bool{
	"app":           true,
	"server":        true,
	"log":           true,
	"generation":    true,
	"observability": true,
}

// providerKeyEnv maps a provider to the conventional API key variable used when
// GENERATION_APIKEY is not set.
var providerKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// LoadOptions controls where Load looks for its sources.
type LoadOptions struct {
	// Dir holds config.yaml, config.<env>.yaml and .env. Defaults to the working directory.
	Dir string
	// Environ returns the process environment. Defaults to os.Environ.
	Environ func() []string
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority, .env entries fill unset variables)
// 2. YAML configuration files
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

// LoadWithOptions is Load with explicit source locations.
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, filepath.Join(opts.Dir, "config.yaml")); err != nil {
		return nil, err
	}

	environ, err := mergedEnviron(opts)
	if err != nil {
		return nil, err
	}

	// APP_ENV decides which overlay file applies, so read it before the overlay.
	appEnv := k.String("app.env")
	if v, ok := lookup(environ, "APP_ENV"); ok && v != "" {
		appEnv = v
	}
	if appEnv != "" {
		if err := loadOptionalFile(k, filepath.Join(opts.Dir, fmt.Sprintf("config.%s.yaml", appEnv))); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: transformEnv,
		EnvironFunc:   func() []string { return environ },
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	applyProviderDefaults(cfg, environ)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromBytes builds a configuration from defaults plus a YAML document.
// Environment variables and files are ignored.
func LoadFromBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg, err := unmarshal(k)
	if err != nil {
		return nil, err
	}
	applyProviderDefaults(cfg, nil)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// mergedEnviron appends .env entries for variables the process environment lacks.
func mergedEnviron(opts LoadOptions) ([]string, error) {
	environFn := opts.Environ
	if environFn == nil {
		environFn = os.Environ
	}
	environ := environFn()

	dotenvPath := filepath.Join(opts.Dir, ".env")
	if _, err := os.Stat(dotenvPath); errors.Is(err, fs.ErrNotExist) {
		return environ, nil
	}
	values, err := godotenv.Read(dotenvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
	}

	merged := append([]string(nil), environ...)
	for key, value := range values {
		if _, ok := lookup(environ, key); ok {
			continue
		}
		merged = append(merged, key+"="+value)
	}
	return merged, nil
}

func lookup(environ []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}
	return "", false
}

// transformEnv converts UPPER_CASE to lower.case and drops variables outside
// the known sections.
func transformEnv(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	section, _, _ := strings.Cut(key, ".")
	if !sections[section] {
		return "", nil
	}
	return key, value
}

func applyProviderDefaults(cfg *Config, environ []string) {
	gen := &cfg.Generation
	gen.Provider = strings.ToLower(strings.TrimSpace(gen.Provider))

	if gen.APIKey == "" {
		if name, ok := providerKeyEnv[gen.Provider]; ok {
			gen.APIKey, _ = lookup(environ, name)
		}
	}
	if gen.Model == "" {
		gen.Model = defaultModels[gen.Provider]
	}
	// The default endpoint belongs to the http provider. LLM providers treat a
	// non-empty endpoint as a base URL override.
	if _, llm := defaultModels[gen.Provider]; llm && gen.Endpoint == DefaultGenerationEndpoint {
		gen.Endpoint = ""
	}
}

// DefaultGenerationEndpoint is the http provider's default service URL.
const DefaultGenerationEndpoint = "http://localhost:8000/v1/generate"

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-1.5-flash",
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "proposal-service",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,
		"app.debug":   false,

		"server.host":               "0.0.0.0",
		"server.port":               8080,
		"server.timeout.read":       "15s",
		"server.timeout.write":      "90s",
		"server.timeout.idle":       "60s",
		"server.timeout.middleware": "75s",
		"server.timeout.shutdown":   "10s",
		"server.path.base":          "/api",
		"server.path.health":        "/health",
		"server.path.ready":         "/ready",
		"server.rate.limit":         20,
		"server.rate.burst":         40,
		"server.cors.origins":       []string{"http://localhost:3000"},
		"server.drafts.max":         1000,

		"log.level":  "info",
		"log.pretty": false,

		"generation.provider":   ProviderHTTP,
		"generation.endpoint":   DefaultGenerationEndpoint,
		"generation.timeout":    "60s",
		"generation.maxtokens":  4096,
		"generation.amqp.queue": "proposals.generate",

		"observability.enabled":    false,
		"observability.endpoint":   EndpointStdout,
		"observability.protocol":   ProtocolHTTP,
		"observability.insecure":   true,
		"observability.samplerate": 1.0,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
