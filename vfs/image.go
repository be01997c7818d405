// Package vfs builds FAT32 disk images holding ripped tracks, ready to be
// written to a USB stick or served to a car stereo expecting one.
package vfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/diskfs/go-diskfs/partition/mbr"
)

// DefaultSize fits the audio of any CD.
const DefaultSize = 900 * fat32.MB

const (
	sectorSize     = 512
	partitionStart = 2048
	volumeLabel    = "CDRIP"
)

// Image is a disk image with a single FAT32 partition.
type Image struct {
	filesystem.FileSystem
	Path string

	disk *disk.Disk
}

// Close releases the backing file of the image. Everything written through
// the filesystem is already on disk.
func (img *Image) Close() error {
	if img == nil || img.disk == nil {
		return nil
	}
	err := img.disk.Close()
	img.disk = nil
	return err
}

// Track is a ripped file to copy into the image.
type Track struct {
	Number int
	Source string
}

// Album is a set of tracks stored in one directory of the image.
type Album struct {
	Name   string
	Tracks []Track
}

// sanitizeName takes a file name and converts it to DOS format
// by uppercasing, limiting to ASCII letters, and triming to 8 chars
func sanitizeName(name string) string {
	// https://en.wikipedia.org/wiki/8.3_filename
	newName := make([]rune, 0, 8)
	for _, r := range strings.ToUpper(name) {
		if len(newName) == 8 {
			break
		}
		if r >= 'A' && r <= 'Z' {
			newName = append(newName, r)
		}
	}
	return string(newName)
}

// trackName returns the path of track n in dir.
func trackName(dir string, n int) string {
	return fmt.Sprintf("%s/TRACK%02d.WAV", dir, n)
}

// Create a new image of size bytes at path, which must not exist.
func Create(path string, size int64) (*Image, error) {
	if size < 64*fat32.MB {
		return nil, fmt.Errorf("vfs: image size %d too small for FAT32", size)
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("vfs: %s: %w", path, os.ErrExist)
	}

	dsk, err := diskfs.Create(path, size, diskfs.SectorSizeDefault)
	if err != nil {
		return nil, err
	}

	// create an MBR with one partition
	table := &mbr.Table{
		LogicalSectorSize:  sectorSize,
		PhysicalSectorSize: sectorSize,
		Partitions: []*mbr.Partition{
			{
				Bootable: false,
				Type:     mbr.Fat32LBA,
				Start:    partitionStart,
				Size:     uint32(size/sectorSize) - partitionStart,
			},
		},
	}
	if err := dsk.Partition(table); err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("vfs: partition: %w", err)
	}

	fatfs, err := dsk.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: volumeLabel,
	})
	if err != nil {
		dsk.Close()
		os.Remove(path)
		return nil, fmt.Errorf("vfs: create filesystem: %w", err)
	}
	return &Image{FileSystem: fatfs, Path: path, disk: dsk}, nil
}

// AddAlbum copies the tracks of a into the image, in a directory named
// after the album, and returns the paths they were stored at.
func (img *Image) AddAlbum(a Album) ([]string, error) {
	dir := sanitizeName(a.Name)
	if dir != "" {
		dir = "/" + dir
		if err := img.Mkdir(dir); err != nil {
			return nil, fmt.Errorf("vfs: mkdir %s: %w", dir, err)
		}
	}

	paths := make([]string, 0, len(a.Tracks))
	for _, t := range a.Tracks {
		name := trackName(dir, t.Number)
		if err := img.copyIn(name, t.Source); err != nil {
			return paths, err
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func (img *Image) copyIn(name, source string) (err error) {
	src, err := os.Open(source)
	if err != nil {
		return err
	}
	defer src.Close() // ignore error: file was opened read-only.

	dst, err := img.OpenFile(name, os.O_CREATE|os.O_RDWR)
	if err != nil {
		return fmt.Errorf("vfs: create track %v: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("vfs: write track %v: %w", name, err)
	}
	return nil
}
