package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where the CLI looks for configuration.
const DefaultConfigPath = ".ttlform/config.yaml"

// Config holds all ttlform configuration.
type Config struct {
	Name string `yaml:"name"`

	Editor      EditorConfig      `yaml:"editor"`
	Destination DestinationConfig `yaml:"destination"`
	Identity    IdentityConfig    `yaml:"identity"`
	Transport   TransportConfig   `yaml:"transport"`
	Store       StoreConfig       `yaml:"store"`
	Server      ServerConfig      `yaml:"server"`
	Watch       WatchConfig       `yaml:"watch"`
	Generator   GeneratorConfig   `yaml:"generator"`

	Logging LoggingConfig `yaml:"logging"`
}

// EditorConfig configures the editing session.
type EditorConfig struct {
	Debounce           string `yaml:"debounce"`
	DefaultDestination string `yaml:"default_destination"`
	AsOfRefresh        string `yaml:"as_of_refresh"` // status line clock
}

// AcceptedType is a destination namespace offered by the picker.
type AcceptedType struct {
	Value       string `yaml:"value"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// DestinationConfig configures the destination picker.
type DestinationConfig struct {
	AcceptedTypes []AcceptedType `yaml:"accepted_types"`
}

// IdentityConfig configures identity discovery.
type IdentityConfig struct {
	// Sources is the discovery order: static, env, persisted, token.
	Sources       []string `yaml:"sources"`
	Static        string   `yaml:"static"`
	EnvVar        string   `yaml:"env_var"`
	PersistedPath string   `yaml:"persisted_path"`
	TokenEnv      string   `yaml:"token_env"`
	TokenFile     string   `yaml:"token_file"`
	Claims        []string `yaml:"claims"`
}

// TransportConfig configures how documents are submitted.
type TransportConfig struct {
	Mode     string `yaml:"mode"` // direct, http, nats
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	Timeout  string `yaml:"timeout"`
	NATSURL  string `yaml:"nats_url"`
	Subject  string `yaml:"subject"`
}

// StoreConfig configures the local triple store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the ingestion backend.
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	IngestPath  string `yaml:"ingest_path"`
	TokenSecret string `yaml:"token_secret"`
	RequireAuth bool   `yaml:"require_auth"`
	NATSEnabled bool   `yaml:"nats_enabled"`
	NATSURL     string `yaml:"nats_url"`
	Subject     string `yaml:"subject"`
}

// WatchConfig configures the drop-directory loader.
type WatchConfig struct {
	Dir      string `yaml:"dir"`
	Debounce string `yaml:"debounce"`
}

// GeneratorConfig configures the Gemini generator.
type GeneratorConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "ttlform",

		Editor: EditorConfig{
			Debounce:           "300ms",
			DefaultDestination: "mntl:publ/imported",
			AsOfRefresh:        "1s",
		},

		Destination: DestinationConfig{
			AcceptedTypes: []AcceptedType{
				{Value: "mntl:open", Label: "Open", Description: "mntl:open/{identity}"},
				{Value: "mntl:publ", Label: "Public", Description: "mntl:publ/..."},
			},
		},

		Identity: IdentityConfig{
			Sources:       []string{"static", "env", "persisted", "token"},
			EnvVar:        "TTLFORM_IDENTITY",
			PersistedPath: ".ttlform/identity",
			TokenEnv:      "TTLFORM_TOKEN",
			Claims:        []string{"webid", "identity", "sub"},
		},

		Transport: TransportConfig{
			Mode:     "direct",
			Endpoint: "http://localhost:8090/mmm/api/ingest-ttl",
			Timeout:  "30s",
			NATSURL:  "nats://localhost:4222",
			Subject:  "ttlform.ingest",
		},

		Store: StoreConfig{
			DatabasePath: ".ttlform/triples.db",
		},

		Server: ServerConfig{
			ListenAddr: ":8090",
			IngestPath: "/mmm/api/ingest-ttl",
			NATSURL:    "nats://localhost:4222",
			Subject:    "ttlform.ingest",
		},

		Watch: WatchConfig{
			Debounce: "200ms",
		},

		Generator: GeneratorConfig{
			Model:   "gemini-2.5-flash",
			Timeout: "60s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   ".ttlform/ttlform.log",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if id := os.Getenv("TTLFORM_IDENTITY"); id != "" {
		c.Identity.Static = id
	}
	if tok := os.Getenv("TTLFORM_TOKEN"); tok != "" {
		c.Transport.Token = tok
	}

	if endpoint := os.Getenv("TTLFORM_ENDPOINT"); endpoint != "" {
		c.Transport.Endpoint = endpoint
		if os.Getenv("TTLFORM_TRANSPORT") == "" {
			c.Transport.Mode = "http"
		}
	}
	if mode := os.Getenv("TTLFORM_TRANSPORT"); mode != "" {
		c.Transport.Mode = mode
	}

	if url := os.Getenv("TTLFORM_NATS_URL"); url != "" {
		c.Transport.NATSURL = url
		c.Server.NATSURL = url
	}

	if path := os.Getenv("TTLFORM_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if secret := os.Getenv("TTLFORM_TOKEN_SECRET"); secret != "" {
		c.Server.TokenSecret = secret
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Generator.APIKey = key
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetDebounce returns the validation quiet period.
func (c *Config) GetDebounce() time.Duration {
	return parseDuration(c.Editor.Debounce, 300*time.Millisecond)
}

// GetAsOfRefresh returns the status clock refresh interval.
func (c *Config) GetAsOfRefresh() time.Duration {
	return parseDuration(c.Editor.AsOfRefresh, time.Second)
}

// GetTransportTimeout returns the submission timeout.
func (c *Config) GetTransportTimeout() time.Duration {
	return parseDuration(c.Transport.Timeout, 30*time.Second)
}

// GetWatchDebounce returns how long a dropped file must be quiet before loading.
func (c *Config) GetWatchDebounce() time.Duration {
	return parseDuration(c.Watch.Debounce, 200*time.Millisecond)
}

// GetGeneratorTimeout returns the generation timeout.
func (c *Config) GetGeneratorTimeout() time.Duration {
	return parseDuration(c.Generator.Timeout, 60*time.Second)
}

// ValidTransportModes lists the supported submission transports.
var ValidTransportModes = []string{"direct", "http", "nats"}

// ValidIdentitySources lists the supported identity strategies.
var ValidIdentitySources = []string{"static", "env", "persisted", "token"}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidTransportModes, c.Transport.Mode) {
		return fmt.Errorf("invalid transport mode: %s (valid: %v)", c.Transport.Mode, ValidTransportModes)
	}
	switch c.Transport.Mode {
	case "http":
		if c.Transport.Endpoint == "" {
			return fmt.Errorf("transport mode http requires transport.endpoint (or TTLFORM_ENDPOINT)")
		}
	case "nats":
		if c.Transport.NATSURL == "" || c.Transport.Subject == "" {
			return fmt.Errorf("transport mode nats requires transport.nats_url and transport.subject")
		}
	case "direct":
		if c.Store.DatabasePath == "" {
			return fmt.Errorf("transport mode direct requires store.database_path")
		}
	}

	for _, src := range c.Identity.Sources {
		if !contains(ValidIdentitySources, src) {
			return fmt.Errorf("invalid identity source: %s (valid: %v)", src, ValidIdentitySources)
		}
	}

	if _, err := time.ParseDuration(c.Editor.Debounce); c.Editor.Debounce != "" && err != nil {
		return fmt.Errorf("invalid editor.debounce %q: %w", c.Editor.Debounce, err)
	}

	if len(c.Destination.AcceptedTypes) == 0 {
		return fmt.Errorf("destination.accepted_types must not be empty")
	}

	return nil
}
