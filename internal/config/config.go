// Package config loads and validates the application configuration from a
// YAML file, with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
)

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// Config is the externally-owned configuration the core consumes.
type Config struct {
	// ImagesDir is the root of the per-source download directories.
	ImagesDir string `yaml:"images_dir"`
	// Source selects the picture-of-the-day provider by identifier.
	Source string `yaml:"source"`
	// APODAPIKey is the api.nasa.gov key.
	APODAPIKey string `yaml:"apod_api_key"`
	// WikimediaLanguage is the wiki language code for featured content.
	WikimediaLanguage string `yaml:"wikimedia_language"`
	// DisabledCollections lists Stålenhag collection tags to skip.
	DisabledCollections []string `yaml:"disabled_collections"`
	// AutomaticUpdates enables the background scheduler.
	AutomaticUpdates bool `yaml:"automatic_updates"`
	// RefreshInterval is the scheduler wake cadence as a duration string,
	// e.g. "30m". Empty selects the built-in default.
	RefreshInterval string `yaml:"refresh_interval"`
	// RefreshThreshold is the minimum age of the last update before a wake
	// fetches again, e.g. "12h". Empty selects the built-in default.
	RefreshThreshold string `yaml:"refresh_threshold"`
	// HistoryDB is the path of the download history database.
	HistoryDB string `yaml:"history_db"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	state := os.Getenv("XDG_STATE_HOME")
	if state == "" {
		state = filepath.Join(home, ".local", "state")
	}
	return Config{
		ImagesDir:         filepath.Join(home, "Pictures", "PictureOfTheDay"),
		Source:            source.Apod.ID(),
		WikimediaLanguage: "en",
		AutomaticUpdates:  true,
		HistoryDB:         filepath.Join(state, "potd", "history.db"),
	}
}

// Load reads path (if it exists), applies environment overrides, and
// validates the result. A missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults plus environment only.
	case err != nil:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvironment(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// applyEnvironment overrides file values from POTD_* variables.
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("POTD_IMAGES_DIR"); v != "" {
		cfg.ImagesDir = v
	}
	if v := os.Getenv("POTD_SOURCE"); v != "" {
		cfg.Source = v
	}
	if v := os.Getenv("POTD_APOD_API_KEY"); v != "" {
		cfg.APODAPIKey = v
	}
	if v := os.Getenv("POTD_WIKIMEDIA_LANGUAGE"); v != "" {
		cfg.WikimediaLanguage = v
	}
	if v := os.Getenv("POTD_REFRESH_INTERVAL"); v != "" {
		cfg.RefreshInterval = v
	}
	if v := os.Getenv("POTD_REFRESH_THRESHOLD"); v != "" {
		cfg.RefreshThreshold = v
	}
	if v := os.Getenv("POTD_HISTORY_DB"); v != "" {
		cfg.HistoryDB = v
	}
}

// Validate checks the configuration for use.
func (c Config) Validate() error {
	sourceIDs := make([]interface{}, 0, len(source.All()))
	for _, s := range source.All() {
		sourceIDs = append(sourceIDs, s.ID())
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ImagesDir, validation.Required),
		validation.Field(&c.Source, validation.Required, validation.In(sourceIDs...)),
		validation.Field(&c.WikimediaLanguage, validation.Required, validation.Match(languageCodePattern)),
		validation.Field(&c.RefreshInterval, validation.By(validDuration)),
		validation.Field(&c.RefreshThreshold, validation.By(validDuration)),
		validation.Field(&c.HistoryDB, validation.Required),
	)
}

func validDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a duration like 30m or 12h")
	}
	return nil
}

// RefreshTimings returns the parsed refresh knobs. Zero values select the
// scheduler defaults. Values are pre-validated by Load.
func (c Config) RefreshTimings() (cadence, threshold time.Duration) {
	cadence, _ = time.ParseDuration(c.RefreshInterval)
	threshold, _ = time.ParseDuration(c.RefreshThreshold)
	return cadence, threshold
}

// SelectedSource resolves the configured source identifier.
func (c Config) SelectedSource() (source.Source, error) {
	return source.FromID(c.Source)
}

// SourceDir returns the download directory of one source.
func (c Config) SourceDir(s source.Source) string {
	return filepath.Join(c.ImagesDir, s.ID())
}

// FetchOptions maps the configuration to source fetch options.
func (c Config) FetchOptions() source.Options {
	return source.Options{
		APODAPIKey:          c.APODAPIKey,
		WikimediaLanguage:   c.WikimediaLanguage,
		DisabledCollections: c.DisabledCollections,
	}
}
