package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnvConfig applies configuration from environment variables (CDRIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device", os.Getenv("CDRIP_DEVICE"), &cfg.Device)
	s.setString("cddb-backend", os.Getenv("CDRIP_CDDB_BACKEND"), &cfg.CDDBBackend)
	s.setString("cddb-server", os.Getenv("CDRIP_CDDB_SERVER"), &cfg.CDDBServer)
	s.setString("cddb-path", os.Getenv("CDRIP_CDDB_PATH"), &cfg.CDDBPath)
	s.setString("cddb-user", os.Getenv("CDRIP_CDDB_USER"), &cfg.CDDBUser)
	s.setString("cddb-host", os.Getenv("CDRIP_CDDB_HOST"), &cfg.CDDBHost)
	s.setString("output-dir", os.Getenv("CDRIP_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("filename-template", os.Getenv("CDRIP_FILENAME_TEMPLATE"), &cfg.FilenameTemplate)
	s.setString("format", os.Getenv("CDRIP_FORMAT"), &cfg.Format)
	s.setString("cache", os.Getenv("CDRIP_CACHE"), &cfg.CachePath)
	s.setString("log-level", os.Getenv("CDRIP_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("cddb-timeout", os.Getenv("CDRIP_CDDB_TIMEOUT"), &cfg.CDDBTimeout); err != nil {
		return err
	}

	// -1 disables retries
	if err := s.setSignedIntFromString("max-retries", os.Getenv("CDRIP_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("cddb-port", os.Getenv("CDRIP_CDDB_PORT"), &cfg.CDDBPort); err != nil {
		return err
	}
	if err := s.setIntFromString("cddb-proto", os.Getenv("CDRIP_CDDB_PROTO"), &cfg.CDDBProto); err != nil {
		return err
	}

	s.setBoolFromString("paranoia", os.Getenv("CDRIP_PARANOIA"), &cfg.Paranoia)
	s.setBoolFromString("remove-partial", os.Getenv("CDRIP_REMOVE_PARTIAL"), &cfg.RemovePartial)
	s.setBoolFromString("no-cache", os.Getenv("CDRIP_NO_CACHE"), &cfg.NoCache)

	return nil
}
