package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/cddb"
	"github.com/rabidaudio/cdrip/rip"
	"github.com/rabidaudio/cdrip/store"
)

// nameFields is the data the filename template is executed with.
type nameFields struct {
	Number      int
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        int
}

func newNameFields(rec *cddb.Record, n int) nameFields {
	f := nameFields{Number: n, Year: rec.Year()}
	f.Title, f.Artist = recordTrack(rec, n)
	f.Album, _ = rec.Title()
	f.AlbumArtist, _ = rec.Artist()
	return f
}

var unsafeName = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// trackPath names track n in dir after the template, falling back to the
// bare track number when the template renders nothing.
func trackPath(tmpl *template.Template, dir string, rec *cddb.Record, n int, f rip.Format) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, newNameFields(rec, n)); err != nil {
		return "", fmt.Errorf("filename template: %w", err)
	}
	name := strings.TrimSpace(unsafeName.Replace(b.String()))
	if name == "" || name == "." || name == ".." {
		name = fmt.Sprintf("%02d", n)
	}
	return filepath.Join(dir, name+f.Ext()), nil
}

// parseTracks expands track arguments like "3" and "5-7".
func parseTracks(args []string) ([]int, error) {
	var tracks []int
	for _, arg := range args {
		lo, hi, isRange := strings.Cut(arg, "-")
		first, err := strconv.Atoi(lo)
		if err != nil {
			return nil, fmt.Errorf("invalid track %q", arg)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(hi); err != nil || last < first {
				return nil, fmt.Errorf("invalid track range %q", arg)
			}
		}
		for n := first; n <= last; n++ {
			tracks = append(tracks, n)
		}
	}
	return tracks, nil
}

func parseFormat(s string) rip.Format {
	if s == rip.FormatRaw.String() {
		return rip.FormatRaw
	}
	return rip.FormatWAV
}

func newProgressBar(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetItsString("sectors"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
}

func newRipCmd(a *app) *cobra.Command {
	var (
		force bool
		pick  int
	)
	cmd := &cobra.Command{
		Use:   "rip [tracks...]",
		Short: "Extract audio tracks from the disc",
		Long: `Extract audio tracks from the disc. Without arguments every audio track is
ripped. Tracks already ripped from the same disc are skipped unless --force
is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tracks, err := parseTracks(args)
			if err != nil {
				return err
			}
			runID := uuid.New().String()
			log := a.log.With().Str("run", runID).Logger()

			ds, err := a.openDisc()
			if err != nil {
				return err
			}
			defer closeDisc(a, ds)
			if !ds.Kind().HasAudio() {
				return cdrip.Wrap(cdrip.ErrNotAnAudioDisc, fmt.Errorf("disc is %s", ds.Kind()))
			}
			discID := cddb.FormatID(cddb.DiscID(ds.FrameOffsets(), ds.LengthSeconds()))

			db, err := a.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			var rec *cddb.Record
			if res, err := a.lookup(ds, db, false); err != nil {
				log.Warn().Err(err).Msg("metadata lookup failed, naming tracks by number")
			} else {
				defer res.Release()
				if rec = res.Record(pick - 1); rec == nil && res.Len() > 0 {
					log.Warn().Int("pick", pick).Int("matches", res.Len()).Msg("no such candidate, naming tracks by number")
				}
			}

			all := len(tracks) == 0
			if all {
				for n := 1; n <= ds.TotalTracks(); n++ {
					tracks = append(tracks, n)
				}
			}

			tmpl, err := a.cfg.Template()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
				return cdrip.Wrap(cdrip.ErrDestinationUnwritable, err)
			}
			format := parseFormat(a.cfg.Format)

			var errs []error
			for _, n := range tracks {
				if all {
					if audio, err := ds.TrackIsAudio(n); err == nil && !audio {
						log.Info().Int("track", n).Msg("skipping data track")
						continue
					}
				}
				if db != nil && !force {
					ripped, err := db.IsRipped(discID, n)
					if err != nil {
						log.Warn().Err(err).Int("track", n).Msg("rip history unavailable")
					} else if ripped {
						log.Info().Int("track", n).Msg("already ripped, skipping")
						continue
					}
				}

				dest, err := trackPath(tmpl, a.cfg.OutputDir, rec, n, format)
				if err != nil {
					return err
				}
				var bar *progressbar.ProgressBar
				res, err := rip.Track(ds, n, dest,
					rip.WithFormat(format),
					rip.WithRemovePartial(a.cfg.RemovePartial),
					rip.WithLogger(log),
					rip.WithProgress(func(done, total int) {
						if bar == nil {
							bar = newProgressBar(cmd.ErrOrStderr(), total, fmt.Sprintf("track %02d", n))
						}
						_ = bar.Set(done)
					}),
				)
				if bar != nil {
					_ = bar.Exit()
				}
				if err != nil {
					log.Error().Err(err).Int("track", n).Msg("rip failed")
					errs = append(errs, fmt.Errorf("track %d: %w", n, err))
					continue
				}

				if db != nil {
					err := db.RecordRip(store.Rip{
						RunID:  runID,
						DiscID: discID,
						Track:  n,
						Path:   res.Path,
						Bytes:  res.Bytes,
					})
					if err != nil {
						log.Warn().Err(err).Int("track", n).Msg("failed to record rip")
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "rip tracks even if they were ripped before")
	cmd.Flags().IntVar(&pick, "pick", 1, "CDDB candidate used to name the files")
	return cmd
}
