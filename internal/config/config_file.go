package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Device           string `toml:"device"`
	MaxRetries       *int   `toml:"max_retries"`
	Paranoia         *bool  `toml:"paranoia"`
	CDDBBackend      string `toml:"cddb_backend"`
	CDDBServer       string `toml:"cddb_server"`
	CDDBPort         int    `toml:"cddb_port"`
	CDDBPath         string `toml:"cddb_path"`
	CDDBProto        int    `toml:"cddb_proto"`
	CDDBTimeout      string `toml:"cddb_timeout"`
	CDDBUser         string `toml:"cddb_user"`
	CDDBHost         string `toml:"cddb_host"`
	OutputDir        string `toml:"output_dir"`
	FilenameTemplate string `toml:"filename_template"`
	Format           string `toml:"format"`
	RemovePartial    *bool  `toml:"remove_partial"`
	CachePath        string `toml:"cache_path"`
	NoCache          *bool  `toml:"no_cache"`
	LogLevel         string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.cdrip/config.toml, or "" without a home
// directory.
func DefaultConfigPath() string {
	if dir := defaultDir(); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", fc.Device, &cfg.Device)
	s.setString("cddb-backend", fc.CDDBBackend, &cfg.CDDBBackend)
	s.setString("cddb-server", fc.CDDBServer, &cfg.CDDBServer)
	s.setString("cddb-path", fc.CDDBPath, &cfg.CDDBPath)
	s.setString("cddb-user", fc.CDDBUser, &cfg.CDDBUser)
	s.setString("cddb-host", fc.CDDBHost, &cfg.CDDBHost)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("filename-template", fc.FilenameTemplate, &cfg.FilenameTemplate)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("cache", fc.CachePath, &cfg.CachePath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("cddb-timeout", fc.CDDBTimeout, &cfg.CDDBTimeout); err != nil {
		return err
	}

	s.setIntPtr("max-retries", fc.MaxRetries, &cfg.MaxRetries)
	s.setInt("cddb-port", fc.CDDBPort, &cfg.CDDBPort)
	s.setInt("cddb-proto", fc.CDDBProto, &cfg.CDDBProto)

	s.setBool("paranoia", fc.Paranoia, &cfg.Paranoia)
	s.setBool("remove-partial", fc.RemovePartial, &cfg.RemovePartial)
	s.setBool("no-cache", fc.NoCache, &cfg.NoCache)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
