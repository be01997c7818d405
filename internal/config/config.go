// Package config assembles the cdrip CLI configuration from defaults, a
// TOML file, .env and CDRIP_* environment variables, and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/rs/zerolog"
)

const (
	BackendLibCDDB = "libcddb"
	BackendHTTP    = "http"
)

// DefaultFilenameTemplate names ripped files after their track number and
// title. The extension is added by the output format.
const DefaultFilenameTemplate = `{{printf "%02d" .Number}}{{with .Title}} {{.}}{{end}}`

// Config holds CLI configuration for cdrip.
type Config struct {
	Device     string
	MaxRetries int
	Paranoia   bool

	CDDBBackend string
	CDDBServer  string
	CDDBPort    int
	CDDBPath    string
	CDDBProto   int
	CDDBTimeout time.Duration
	CDDBUser    string
	CDDBHost    string

	OutputDir        string
	FilenameTemplate string
	Format           string
	RemovePartial    bool

	CachePath string
	NoCache   bool

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxRetries:       20,
		Paranoia:         true,
		CDDBBackend:      BackendHTTP,
		CDDBProto:        6,
		CDDBTimeout:      10 * time.Second,
		OutputDir:        ".",
		FilenameTemplate: DefaultFilenameTemplate,
		Format:           "wav",
		CachePath:        "", // Derived from the home directory during Validate
		LogLevel:         "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	c.CDDBBackend = strings.ToLower(c.CDDBBackend)
	switch c.CDDBBackend {
	case BackendLibCDDB, BackendHTTP:
	default:
		return fmt.Errorf("cddb-backend must be %q or %q, got %q", BackendLibCDDB, BackendHTTP, c.CDDBBackend)
	}

	c.Format = strings.ToLower(c.Format)
	if c.Format != "wav" && c.Format != "raw" {
		return fmt.Errorf("format must be wav or raw, got %q", c.Format)
	}

	if c.CDDBTimeout <= 0 {
		return fmt.Errorf("cddb timeout must be positive")
	}
	if c.CDDBPort < 0 || c.CDDBPort > 65535 {
		return fmt.Errorf("cddb port %d out of range", c.CDDBPort)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if c.FilenameTemplate == "" {
		c.FilenameTemplate = DefaultFilenameTemplate
	}
	if _, err := c.Template(); err != nil {
		return err
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.CachePath == "" && !c.NoCache {
		if dir := defaultDir(); dir != "" {
			c.CachePath = filepath.Join(dir, "cache.db")
		} else {
			c.NoCache = true
		}
	}
	return nil
}

// Level returns the zerolog level for LogLevel, info if it doesn't parse.
func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Template parses FilenameTemplate.
func (c *Config) Template() (*template.Template, error) {
	t, err := template.New("filename").Option("missingkey=zero").Parse(c.FilenameTemplate)
	if err != nil {
		return nil, fmt.Errorf("filename template: %w", err)
	}
	return t, nil
}

func defaultDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".cdrip")
	}
	return ""
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntPtr sets an int value of any sign if present and flag not changed.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if
// positive. Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setSignedIntFromString is setIntFromString for settings where zero and
// negative values mean something.
func (s *configSetter) setSignedIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
