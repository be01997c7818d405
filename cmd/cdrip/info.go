package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/cddb"
	"github.com/rabidaudio/cdrip/disc"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the table of contents of the disc in the drive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := a.openDisc()
			if err != nil {
				return err
			}
			defer closeDisc(a, ds)
			return printInfo(cmd.OutOrStdout(), ds)
		},
	}
}

func printInfo(w io.Writer, ds *disc.Session) error {
	fmt.Fprintf(w, "disc:    %s\n", ds.Kind())
	fmt.Fprintf(w, "tracks:  %d (%d audio, %d data)\n", ds.TotalTracks(), ds.AudioTracks(), ds.DataTracks())
	fmt.Fprintf(w, "length:  %s\n", time.Duration(ds.LengthSeconds())*time.Second)
	if ds.Kind().HasAudio() {
		fmt.Fprintf(w, "disc id: %s\n", cddb.FormatID(cddb.DiscID(ds.FrameOffsets(), ds.LengthSeconds())))
	}

	lengths := cddb.TrackLengths(ds.FrameOffsets(), ds.LengthSeconds())
	for n := 1; n <= ds.TotalTracks(); n++ {
		audio, err := ds.TrackIsAudio(n)
		if err != nil {
			return err
		}
		kind := "audio"
		if !audio {
			kind = "data"
		}
		offset, _ := ds.FrameOffset(n)
		var length time.Duration
		if n <= len(lengths) {
			length = time.Duration(lengths[n-1]) * time.Second
		}
		if _, err := fmt.Fprintf(w, "  %02d  %-5s  offset %6d  %s\n", n, kind, offset, length); err != nil {
			return err
		}
	}
	return nil
}

func closeDisc(a *app, ds *disc.Session) {
	if err := ds.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close disc")
	}
}

// recordTrack returns the title and artist of track n, falling back to
// the disc artist.
func recordTrack(rec *cddb.Record, n int) (title, artist string) {
	title, _ = rec.TrackTitle(n)
	artist, ok := rec.TrackArtist(n)
	if !ok {
		artist, _ = rec.Artist()
	}
	return title, artist
}

func printRecord(w io.Writer, i int, rec *cddb.Record) {
	artist, _ := rec.Artist()
	title, _ := rec.Title()
	category, _ := rec.Category()
	fmt.Fprintf(w, "[%d] %s / %s", i+1, artist, title)
	if y := rec.Year(); y > 0 {
		fmt.Fprintf(w, " (%d)", y)
	}
	if genre, ok := rec.Genre(); ok {
		fmt.Fprintf(w, " %s", genre)
	}
	fmt.Fprintf(w, " [%s]\n", category)
	for n := 1; n <= rec.NumTracks() && n <= cdrip.MaxTracks; n++ {
		t, a := recordTrack(rec, n)
		line := fmt.Sprintf("  %02d  %s", n, t)
		if a != "" && a != artist {
			line += " / " + a
		}
		if l := rec.TrackLength(n); l > 0 {
			line += fmt.Sprintf("  (%s)", time.Duration(l)*time.Second)
		}
		fmt.Fprintln(w, line)
	}
}
