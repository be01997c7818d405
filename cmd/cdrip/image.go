package main

import (
	"fmt"

	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/spf13/cobra"

	"github.com/rabidaudio/cdrip/vfs"
)

func newImageCmd(a *app) *cobra.Command {
	var (
		name   string
		sizeMB int64
	)
	cmd := &cobra.Command{
		Use:   "image <out.img> <files...>",
		Short: "Build a FAT32 disk image holding ripped tracks",
		Long: `Build a FAT32 disk image for car stereos and other players that read WAV
files from USB sticks. Files are stored as TRACKnn.WAV in the order given,
inside a DOS-safe directory named after --name.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			album := vfs.Album{Name: name}
			for i, src := range args[1:] {
				album.Tracks = append(album.Tracks, vfs.Track{Number: i + 1, Source: src})
			}

			img, err := vfs.Create(args[0], sizeMB*fat32.MB)
			if err != nil {
				return err
			}
			defer func() {
				if err := img.Close(); err != nil {
					a.log.Warn().Err(err).Str("image", img.Path).Msg("close image")
				}
			}()
			paths, err := img.AddAlbum(album)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				return err
			}
			a.log.Info().Str("image", img.Path).Int("tracks", len(paths)).Msg("image written")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "album directory name, empty for the image root")
	cmd.Flags().Int64Var(&sizeMB, "size", vfs.DefaultSize/fat32.MB, "image size in MiB")
	return cmd
}
