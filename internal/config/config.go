// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full application configuration.
type Config struct {
	Spotify      Spotify      `envconfig:"SPOTIFY"`
	Ticketmaster Ticketmaster `envconfig:"TICKETMASTER"`
	Ollama       Ollama       `envconfig:"OLLAMA"`
	Storage      Storage      `envconfig:"STORAGE"`
	Export       Export       `envconfig:"EXPORT"`
	Server       Server       `envconfig:"SERVER"`
	HTTPClient   HTTPClient   `envconfig:"HTTP_CLIENT"`
	Worker       Worker       `envconfig:"WORKER"`
	Log          Log          `envconfig:"LOG"`
}

// Spotify holds credentials and transport tuning for the Web API.
type Spotify struct {
	ClientID     string `split_words:"true" required:"true"`
	ClientSecret string `split_words:"true" required:"true"`
	TokenURL     string `split_words:"true" default:"https://accounts.spotify.com/api/token"`
	APIBaseURL   string `split_words:"true" default:"https://api.spotify.com/v1"`
	Market       string `split_words:"true" default:"US"`

	// MaxRetries is the number of retries after the first attempt. Zero
	// means every request is sent exactly once.
	MaxRetries         int           `split_words:"true" default:"3"`
	RetryBackoffMs     int           `split_words:"true" default:"500"`
	RetryMaxWait       time.Duration `split_words:"true" default:"30s"`
	MinRequestInterval time.Duration `split_words:"true" default:"0s"`

	// GenreSource is "primary" (first artist only) or "all".
	GenreSource string `split_words:"true" default:"primary"`
}

// RetryBackoff returns the base backoff as a duration.
func (s Spotify) RetryBackoff() time.Duration {
	return time.Duration(s.RetryBackoffMs) * time.Millisecond
}

// Ticketmaster configures the Discovery API client.
type Ticketmaster struct {
	APIKey     string `split_words:"true"`
	URL        string `split_words:"true" default:"https://app.ticketmaster.com/discovery/v2/events.json"`
	MaxPages   int    `split_words:"true" default:"5"`
	MaxRetries int    `split_words:"true" default:"3"`
}

// Ollama configures the LLM-backed genre classifier. An empty host disables it.
type Ollama struct {
	Host  string `split_words:"true"`
	Model string `split_words:"true" default:"deepseek-r1:8b"`
}

// Storage selects the analysis repository.
type Storage struct {
	Driver             string `split_words:"true" default:"sqlite"`
	DatabasePath       string `split_words:"true" default:"encore.db"`
	FirestoreProjectID string `split_words:"true"`
}

// Export controls the cleaned table artifact.
type Export struct {
	Path  string  `split_words:"true" default:"data/playlist.csv"`
	Scale float64 `split_words:"true" default:"100"`
}

// Server configures the inbound HTTP listener.
type Server struct {
	Addr              string        `split_words:"true" default:":8080"`
	ReadHeaderTimeout time.Duration `split_words:"true" default:"15s"`
	ShutdownTimeout   time.Duration `split_words:"true" default:"10s"`
}

// HTTPClient configures outbound HTTP clients.
type HTTPClient struct {
	Timeout time.Duration `split_words:"true" default:"15s"`
}

// Worker sizes the async analysis pool.
type Worker struct {
	Count     int `split_words:"true" default:"2"`
	QueueSize int `split_words:"true" default:"100"`

	// Finished jobs are forgotten after JobRetention, and the oldest go
	// first once more than MaxFinishedJobs are kept.
	JobRetention    time.Duration `split_words:"true" default:"1h"`
	MaxFinishedJobs int           `split_words:"true" default:"1000"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `split_words:"true" default:"info"`
	Format string `split_words:"true" default:"json"`
}

// Load reads the given .env files (default ".env"), then the process
// environment. Variables already set in the environment take precedence.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Provide is the fx constructor for Config.
func Provide() (Config, error) {
	return Load()
}

func (c Config) validate() error {
	switch c.Spotify.GenreSource {
	case "primary", "all":
	default:
		return fmt.Errorf("config: SPOTIFY_GENRE_SOURCE must be primary or all, got %q", c.Spotify.GenreSource)
	}
	if c.Spotify.MaxRetries < 0 {
		return fmt.Errorf("config: SPOTIFY_MAX_RETRIES must not be negative")
	}
	if c.Export.Scale != 1 && c.Export.Scale != 100 {
		return fmt.Errorf("config: EXPORT_SCALE must be 1 or 100, got %v", c.Export.Scale)
	}
	switch c.Storage.Driver {
	case "sqlite":
	case "firestore":
		if c.Storage.FirestoreProjectID == "" {
			return fmt.Errorf("config: STORAGE_FIRESTORE_PROJECT_ID is required for the firestore driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Worker.Count < 1 || c.Worker.QueueSize < 1 {
		return fmt.Errorf("config: worker count and queue size must be positive")
	}
	return nil
}
