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

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/utils"
)

// PDFConfig controls exported documents
type PDFConfig struct {
	// Branding is the footer line on every page
	Branding string `yaml:"branding" json:"branding"`
	// WatermarkMode is one of "none", "text" or "logo"
	WatermarkMode    string  `yaml:"watermark_mode" json:"watermark_mode"`
	WatermarkText    string  `yaml:"watermark_text" json:"watermark_text"`
	WatermarkLogoURL string  `yaml:"watermark_logo_url" json:"watermark_logo_url"`
	WatermarkOpacity float64 `yaml:"watermark_opacity" json:"watermark_opacity"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone calendar dates are interpreted in, or "Local"
	Timezone string `yaml:"timezone" json:"timezone"`

	// CalendarName is the default X-WR-CALNAME for exports
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// HorizonDays bounds how far recurring rehearsals are expanded
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// Listen is the HTTP listen address for `callboard serve`
	Listen string `yaml:"listen" json:"listen"`

	// RateLimit is the sustained requests per second the server accepts
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// RefreshCron is the cron schedule for `callboard watch`
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// ExportDir receives the .ics files written by `callboard watch`
	ExportDir string `yaml:"export_dir" json:"export_dir"`

	// ExportUsers are the users whose calendars `callboard watch` refreshes
	ExportUsers []string `yaml:"export_users" json:"export_users"`

	PDF PDFConfig `yaml:"pdf" json:"pdf"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:     constants.DefaultTimezone,
		CalendarName: constants.DefaultCalendarName,
		HorizonDays:  constants.DefaultHorizonDays,
		Listen:       constants.DefaultListen,
		RateLimit:    constants.DefaultRateLimit,
		RefreshCron:  constants.DefaultRefreshCron,
		ExportDir:    constants.DefaultExportDir,
		ExportUsers:  []string{},
		PDF: PDFConfig{
			Branding:         constants.DefaultBranding,
			WatermarkMode:    constants.WatermarkNone,
			WatermarkOpacity: constants.DefaultWatermarkOpacity,
		},
	}
}

// Normalize fills in missing or out-of-range values so partially filled
// configs still behave.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = constants.DefaultTimezone
	}
	if strings.TrimSpace(c.CalendarName) == "" {
		c.CalendarName = constants.DefaultCalendarName
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = constants.DefaultHorizonDays
	}
	if c.Listen == "" {
		c.Listen = constants.DefaultListen
	}
	if c.RateLimit <= 0 {
		c.RateLimit = constants.DefaultRateLimit
	}
	if c.RefreshCron == "" {
		c.RefreshCron = constants.DefaultRefreshCron
	}
	if c.ExportDir == "" {
		c.ExportDir = constants.DefaultExportDir
	}
	if c.ExportUsers == nil {
		c.ExportUsers = []string{}
	}

	if c.PDF.Branding == "" {
		c.PDF.Branding = constants.DefaultBranding
	}
	switch c.PDF.WatermarkMode {
	case constants.WatermarkNone, constants.WatermarkText, constants.WatermarkLogo:
	default:
		c.PDF.WatermarkMode = constants.WatermarkNone
	}
	if c.PDF.WatermarkMode == constants.WatermarkLogo && c.PDF.WatermarkLogoURL == "" {
		c.PDF.WatermarkMode = constants.WatermarkNone
	}
	if c.PDF.WatermarkOpacity <= 0 || c.PDF.WatermarkOpacity > 1 {
		c.PDF.WatermarkOpacity = constants.DefaultWatermarkOpacity
	}
}

// Location resolves Timezone
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Load reads the YAML config at path. A missing file is created with
// defaults on first run.
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
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions.
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

	tmp, err := os.CreateTemp(dir, ".callboard-config-*.tmp")
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

func (c *Config) Save(path string) error {
	return Save(path, c)
}
