package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"sugarcal/internal/recurring"
)

// Provider selects which external calendar gateway is used.
const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"
	ProviderNone   = "none"
)

// Cache backend names.
const (
	CacheBackendFile   = "file"
	CacheBackendSQLite = "sqlite"
)

// GoogleConfig holds the Google Calendar provider settings.
type GoogleConfig struct {
	// CalendarID is the public calendar to read events from.
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
	// APIKey is a browser/API key with Calendar read access.
	APIKey string `yaml:"api_key" json:"api_key"`
	// MaxResults bounds a single window fetch.
	MaxResults int64 `yaml:"max_results" json:"max_results"`
}

// ICSConfig holds the ICS feed provider settings.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
}

// CacheConfig controls external-event cache persistence.
type CacheConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend" json:"backend"`
	// Path is the cache directory (file backend) or database file
	// (sqlite backend).
	Path string `yaml:"path" json:"path"`
	// TTLSeconds is the maximum cache age before a payload is treated
	// as stale.
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
}

// UpcomingConfig controls the upcoming-events projection.
type UpcomingConfig struct {
	Limit         int `yaml:"limit" json:"limit"`
	LookaheadDays int `yaml:"lookahead_days" json:"lookahead_days"`
}

// EventTemplate describes one weekly recurring event in the config
// file. Time is a display string ("7:00 PM - 9:00 PM").
type EventTemplate struct {
	Title       string `yaml:"title" json:"title"`
	Time        string `yaml:"time" json:"time"`
	Description string `yaml:"description" json:"description"`
	Image       string `yaml:"image" json:"image"`
}

// Config is the top-level application configuration.
type Config struct {
	// Provider is "google", "ics" or "none" (recurring events only).
	Provider string `yaml:"provider" json:"provider"`

	Google GoogleConfig `yaml:"google" json:"google"`
	ICS    ICSConfig    `yaml:"ics" json:"ics"`

	// Timezone is the IANA display timezone; empty means the process
	// local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WindowMonths is how many calendar months the fetch window
	// extends on each side of the visible month.
	WindowMonths int `yaml:"window_months" json:"window_months"`

	// RefreshCron is a cron-style schedule for periodic forced
	// refresh while the UI runs. Empty disables it.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	Cache    CacheConfig    `yaml:"cache" json:"cache"`
	Upcoming UpcomingConfig `yaml:"upcoming" json:"upcoming"`

	// Recurring maps lowercase weekday names ("wednesday") to the
	// event templates that repeat on that day every week.
	Recurring map[string][]EventTemplate `yaml:"recurring" json:"recurring"`
}

// DefaultConfig returns an in-memory default configuration, including
// the house weekly events.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderNone,
		Google:       GoogleConfig{MaxResults: 100},
		WindowMonths: 3,
		RefreshCron:  "*/30 * * * *",
		Cache: CacheConfig{
			Backend:    CacheBackendFile,
			Path:       defaultCachePath(),
			TTLSeconds: 1800,
		},
		Upcoming: UpcomingConfig{Limit: 3, LookaheadDays: 30},
		Recurring: map[string][]EventTemplate{
			"wednesday": {{
				Title:       "Bingo Night",
				Time:        "7:00 PM - 9:00 PM",
				Description: "Weekly bingo night with prizes and drink specials! Come test your luck.",
				Image:       "img/events/bingo.jpg",
			}},
			"thursday": {{
				Title:       "Pool Tournament",
				Time:        "6:30 PM - 10:00 PM",
				Description: "Weekly pool tournament! Sign up starts at 6:00 PM. Winner takes the pot!",
				Image:       "img/events/pool.jpg",
			}},
			"friday": {{
				Title:       "Karaoke Night",
				Time:        "8:00 PM - 1:00 AM",
				Description: "Sing your heart out at our legendary karaoke night! Over 10,000 songs to choose from.",
				Image:       "img/events/karaoke.jpg",
			}},
		},
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	switch c.Provider {
	case ProviderGoogle, ProviderICS, ProviderNone:
	case "":
		c.Provider = ProviderNone
	default:
		c.Provider = ProviderNone
	}
	if c.Google.MaxResults <= 0 {
		c.Google.MaxResults = 100
	}
	if c.WindowMonths <= 0 {
		c.WindowMonths = 3
	}
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendSQLite:
	default:
		c.Cache.Backend = CacheBackendFile
	}
	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath()
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 1800
	}
	if c.Upcoming.Limit <= 0 {
		c.Upcoming.Limit = 3
	}
	if c.Upcoming.LookaheadDays <= 0 {
		c.Upcoming.LookaheadDays = 30
	}
	if c.Recurring == nil {
		c.Recurring = map[string][]EventTemplate{}
	}
}

// TTL returns the cache time-to-live as a duration.
func (c *Config) TTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to the
// process local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// RecurringTable converts the config's weekday-name table into the
// generator's weekday-indexed form. Unknown weekday names are an
// error rather than a silent drop.
func (c *Config) RecurringTable() (recurring.Table, error) {
	table := recurring.Table{}
	for name, templates := range c.Recurring {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("recurring: unknown weekday %q", name)
		}
		for _, t := range templates {
			table[wd] = append(table[wd], recurring.Template{
				Title:       t.Title,
				TimeRange:   t.Time,
				Description: t.Description,
				ImageRef:    t.Image,
			})
		}
	}
	return table, nil
}

// Load loads configuration from the given YAML path. If the file does
// not exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sugarcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sugarcal")
	}
	return "./var/sugarcal-cache"
}
