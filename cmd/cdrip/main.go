package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/rabidaudio/cdrip/audiocd"
	"github.com/rabidaudio/cdrip/cddb"
	"github.com/rabidaudio/cdrip/disc"
	"github.com/rabidaudio/cdrip/internal/config"
	"github.com/rabidaudio/cdrip/store"
)

const longHelp = `Rip audio CDs with cdparanoia.

cdrip reads the table of contents of the disc in the drive, looks the disc up
in CDDB, and extracts audio tracks as WAV files named after the metadata it
found. Lookups and finished rips are remembered in a local SQLite cache so a
disc is only queried once and interrupted rips can be resumed.`

var exampleUsage = strings.TrimSpace(`
  cdrip info --device /dev/sr0
  cdrip lookup --cddb-server gnudb.gnudb.org
  cdrip rip 1 3 5 --output-dir ~/Music/incoming
  cdrip image usb.img ~/Music/incoming/*.wav --name "Chronic Town"
  cdrip play --track 2
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type app struct {
	cfg     config.Config
	cfgPath string
	envPath string
	log     zerolog.Logger
}

func newApp() *app {
	return &app{
		cfg: config.DefaultConfig(),
		log: config.NewLogger(os.Stderr, zerolog.InfoLevel),
	}
}

// load resolves the configuration for cmd. Flags win over the environment,
// which wins over the config file.
func (a *app) load(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && config.FileExists(cfgFile) {
		fc, err := config.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := config.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := config.LoadDotEnv(a.envPath); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if err := config.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}

	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log = a.cfg.Logger()
	a.log.Debug().Interface("config", a.cfg).Msg("configuration")
	return nil
}

func (a *app) driver() *audiocd.Driver {
	mode := audiocd.ParanoiaModeFull
	if !a.cfg.Paranoia {
		mode = audiocd.ParanoiaModeDisable
	}
	return &audiocd.Driver{
		Device:     a.cfg.Device,
		MaxRetries: a.cfg.MaxRetries,
		Paranoia:   &mode,
		Logger:     &a.log,
	}
}

func (a *app) openDisc() (*disc.Session, error) {
	return disc.Open(a.driver(), disc.WithLogger(a.log))
}

func (a *app) protocol() cddb.Protocol {
	if a.cfg.CDDBBackend == config.BackendLibCDDB {
		var email string
		if a.cfg.CDDBUser != "" && a.cfg.CDDBHost != "" {
			email = a.cfg.CDDBUser + "@" + a.cfg.CDDBHost
		}
		return &cddb.LibCDDB{
			Server:  a.cfg.CDDBServer,
			Port:    a.cfg.CDDBPort,
			HTTP:    a.cfg.CDDBPath != "",
			Path:    a.cfg.CDDBPath,
			Timeout: a.cfg.CDDBTimeout,
			Email:   email,
		}
	}
	return &cddb.HTTP{
		Server:  a.cfg.CDDBServer,
		Port:    a.cfg.CDDBPort,
		Path:    a.cfg.CDDBPath,
		Proto:   a.cfg.CDDBProto,
		Timeout: a.cfg.CDDBTimeout,
		User:    a.cfg.CDDBUser,
		Host:    a.cfg.CDDBHost,
	}
}

// openStore returns nil when caching is disabled.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.NoCache {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.CachePath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return store.Open(a.cfg.CachePath, store.WithLogger(a.log))
}

// lookup returns the CDDB candidates for ds, from the cache unless refresh
// is set. Cache failures are logged and never stop the lookup.
func (a *app) lookup(ds *disc.Session, db *store.Store, refresh bool) (*cddb.Results, error) {
	id := cddb.FormatID(cddb.DiscID(ds.FrameOffsets(), ds.LengthSeconds()))
	if db != nil && !refresh {
		res, ok, err := db.LoadResults(id)
		switch {
		case err != nil:
			a.log.Warn().Err(err).Str("disc_id", id).Msg("cache lookup failed")
		case ok:
			a.log.Debug().Str("disc_id", id).Int("matches", res.Len()).Msg("cddb results from cache")
			return res, nil
		}
	}

	res, err := cddb.Fetch(ds, a.protocol(), cddb.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	a.log.Info().Str("disc_id", res.DiscID).Int("matches", res.Len()).Msg("cddb lookup")
	if db != nil {
		if err := db.SaveResults(res); err != nil {
			a.log.Warn().Err(err).Str("disc_id", res.DiscID).Msg("cache save failed")
		}
	}
	return res, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cdrip",
		Short:         "Rip audio CDs with cdparanoia and tag them from CDDB",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	cfg := &a.cfg
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.cdrip/config.toml)")
	pf.StringVar(&a.envPath, "env-file", "", "path to .env file (default: ./.env)")

	pf.StringVar(&cfg.Device, "device", cfg.Device, "cdrom device, empty to search for one")
	pf.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "repeated reads of a failing sector, -1 to disable")
	pf.BoolVar(&cfg.Paranoia, "paranoia", cfg.Paranoia, "enable cdparanoia error correction")

	pf.StringVar(&cfg.CDDBBackend, "cddb-backend", cfg.CDDBBackend, "CDDB client: http or libcddb")
	pf.StringVar(&cfg.CDDBServer, "cddb-server", cfg.CDDBServer, fmt.Sprintf("CDDB server (default: %s)", cddb.DefaultServer))
	pf.IntVar(&cfg.CDDBPort, "cddb-port", cfg.CDDBPort, "CDDB server port, 0 for the protocol default")
	pf.StringVar(&cfg.CDDBPath, "cddb-path", cfg.CDDBPath, fmt.Sprintf("CDDB over HTTP script path (default: %s)", cddb.DefaultPath))
	pf.IntVar(&cfg.CDDBProto, "cddb-proto", cfg.CDDBProto, "CDDB protocol level")
	pf.DurationVar(&cfg.CDDBTimeout, "cddb-timeout", cfg.CDDBTimeout, "CDDB request timeout")
	pf.StringVar(&cfg.CDDBUser, "cddb-user", cfg.CDDBUser, "user name sent in the CDDB hello")
	pf.StringVar(&cfg.CDDBHost, "cddb-host", cfg.CDDBHost, "host name sent in the CDDB hello")
	if err := pf.MarkHidden("cddb-proto"); err != nil {
		a.log.Info().Err(err).Msg("failed to hide cddb-proto flag")
	}

	pf.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for ripped tracks")
	pf.StringVar(&cfg.FilenameTemplate, "filename-template", cfg.FilenameTemplate, "text/template for track file names")
	pf.StringVar(&cfg.Format, "format", cfg.Format, "output format: wav or raw")
	pf.BoolVar(&cfg.RemovePartial, "remove-partial", cfg.RemovePartial, "delete the file of a track that fails to rip")

	pf.StringVar(&cfg.CachePath, "cache", cfg.CachePath, "lookup and rip cache (default: $HOME/.cdrip/cache.db)")
	pf.BoolVar(&cfg.NoCache, "no-cache", cfg.NoCache, "don't read or write the cache")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	root.AddCommand(
		newInfoCmd(a),
		newLookupCmd(a),
		newRipCmd(a),
		newImageCmd(a),
		newPlayCmd(a),
	)
	return root
}

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		a.log.Error().Err(err).Msg("cdrip")
		os.Exit(1)
	}
}
