package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/spf13/cobra"

	"github.com/rabidaudio/cdrip/play"
)

func newPlayCmd(a *app) *cobra.Command {
	var track int
	cmd := &cobra.Command{
		Use:   "play [file.wav]",
		Short: "Play a ripped file or a track straight from the disc",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (track > 0) == (len(args) == 1) {
				return errors.New("give either a file or --track")
			}

			var st beep.StreamSeekCloser
			if track > 0 {
				ds, err := a.openDisc()
				if err != nil {
					return err
				}
				defer closeDisc(a, ds)
				if st, err = play.NewTrackStreamer(ds, track); err != nil {
					return err
				}
			} else {
				fs, err := play.OpenFile(args[0])
				if err != nil {
					return err
				}
				st = fs
			}
			defer st.Close()

			err := speaker.Init(play.Format.SampleRate, play.Format.SampleRate.N(time.Second/10))
			if err != nil {
				return fmt.Errorf("init speaker: %w", err)
			}

			done := make(chan struct{})
			speaker.Play(beep.Seq(st, beep.Callback(func() {
				close(done)
			})))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-sigCh:
				a.log.Info().Msg("received signal, stopping...")
				speaker.Clear()
			case <-done:
			}
			return st.Err()
		},
	}
	cmd.Flags().IntVar(&track, "track", 0, "play this track from the disc")
	return cmd
}
