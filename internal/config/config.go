package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config is the root configuration for htc, stored in ~/.htc/config.toml.
type Config struct {
	AI            AI            `toml:"ai"`
	Image         Image         `toml:"image"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Server        Server        `toml:"server"`
}

// AI holds settings for the screenshot extraction service.
type AI struct {
	// Provider is "gemini" (call the model directly) or "endpoint" (post to
	// an /api/extract-time compatible URL).
	Provider string `toml:"provider"`
	// APIKey is the Gemini API key. GEMINI_API_KEY overrides it.
	APIKey string `toml:"api_key"`
	// AccessToken is sent as an OAuth2 bearer token when set.
	AccessToken    string `toml:"access_token"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	EndpointURL    string `toml:"endpoint_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Image holds screenshot compression settings.
type Image struct {
	MaxDimension int `toml:"max_dimension"`
	Quality      int `toml:"quality"`
}

// Notifications controls the "target completed" notification.
type Notifications struct {
	Desktop        bool   `toml:"desktop"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging controls the slog logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Server holds settings for `htc serve`.
type Server struct {
	Bind string `toml:"bind"`
}

const (
	ProviderGemini   = "gemini"
	ProviderEndpoint = "endpoint"

	DefaultBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel          = "gemini-1.5-flash"
	DefaultTimeoutSeconds = 60
	DefaultMaxDimension   = 1024
	DefaultQuality        = 80
	DefaultNtfyTimeout    = 10
	DefaultBind           = "127.0.0.1:8080"

	apiKeyEnv = "GEMINI_API_KEY"
)

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		AI: AI{
			Provider:       ProviderGemini,
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Image: Image{
			MaxDimension: DefaultMaxDimension,
			Quality:      DefaultQuality,
		},
		Notifications: Notifications{
			RequestTimeout: DefaultNtfyTimeout,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Server: Server{
			Bind: DefaultBind,
		},
	}
}

// configTemplate is the annotated config written on first run.
const configTemplate = `# htc configuration - ~/.htc/config.toml
#
# All settings are optional; the defaults shown below work once an API key
# is available (here or in the GEMINI_API_KEY environment variable).

[ai]
# "gemini"   - send screenshots straight to the Gemini API (default)
# "endpoint" - post them to an /api/extract-time compatible service
provider = "gemini"
api_key = ""
# Sent as "Authorization: Bearer <token>" when set.
access_token = ""
base_url = "https://generativelanguage.googleapis.com/v1beta"
model = "gemini-1.5-flash"
endpoint_url = ""
timeout_seconds = 60

[image]
# Screenshots are downscaled so the longer side fits and re-encoded as JPEG.
max_dimension = 1024
quality = 80

[notifications]
# Fire a desktop notification (notify-send) when the 8h target is reached.
desktop = false
# Full ntfy topic URL, e.g. "https://ntfy.sh/my-topic".
ntfy_topic = ""
request_timeout = 10

[logging]
level = "info"
# "console" or "json"
format = "console"

[server]
bind = "127.0.0.1:8080"
`

// DefaultPath returns the path to ~/.htc/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".htc", "config.toml"), nil
}

// Load reads the config at path, or ~/.htc/config.toml when path is empty.
// The default location is created with the annotated template on first run.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return withEnv(Default()), err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return withEnv(cfg), nil
	case errors.Is(err, fs.ErrNotExist):
		return Config{}, fmt.Errorf("config file %s does not exist", path)
	case err != nil:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	cfg.normalize()
	cfg = withEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// normalize fills zero-value fields with built-in defaults so callers always
// get a usable Config even if the user only partially fills in the file.
func (c *Config) normalize() {
	def := Default()
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = def.AI.Provider
	}
	if strings.TrimSpace(c.AI.BaseURL) == "" {
		c.AI.BaseURL = def.AI.BaseURL
	}
	if strings.TrimSpace(c.AI.Model) == "" {
		c.AI.Model = def.AI.Model
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = def.AI.TimeoutSeconds
	}
	if c.Image.MaxDimension <= 0 {
		c.Image.MaxDimension = def.Image.MaxDimension
	}
	if c.Image.Quality == 0 {
		c.Image.Quality = def.Image.Quality
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = def.Notifications.RequestTimeout
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = def.Logging.Level
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		c.Server.Bind = def.Server.Bind
	}
}

func withEnv(c Config) Config {
	if key := strings.TrimSpace(os.Getenv(apiKeyEnv)); key != "" {
		c.AI.APIKey = key
	}
	return c
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	switch c.AI.Provider {
	case ProviderGemini, ProviderEndpoint:
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unsupported value %q", c.AI.Provider))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format))
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		errs = append(errs, fmt.Errorf("image.quality: must be between 1 and 100, got %d", c.Image.Quality))
	}
	return errors.Join(errs...)
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
