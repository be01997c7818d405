package vfs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem/fat32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSize = 64 * fat32.MB

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "UPCASE", sanitizeName("upcase"))
	assert.Equal(t, "MYFILE", sanitizeName("my file"))
	assert.Equal(t, "LIMITSLE", sanitizeName("limitslengthtoeight"))
	assert.Equal(t, "RMVNUMR", sanitizeName("r3m0v35 num83r5"))
	assert.Equal(t, "", sanitizeName(""))
	assert.Equal(t, "ILUV", sanitizeName("I luv ĀḞÍ♥︎✨ :3"))
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	img, err := Create(path, testSize)
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, path, img.Path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(testSize), info.Size())

	_, err = Create(path, testSize)
	assert.ErrorIs(t, err, os.ErrExist)

	_, err = Create(filepath.Join(t.TempDir(), "small.img"), fat32.MB)
	assert.Error(t, err)
}

func writeTrack(t *testing.T, dir, name string, size int) ([]byte, string) {
	t.Helper()
	data := bytes.Repeat([]byte(name), size/len(name)+1)[:size]
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return data, path
}

func TestAddAlbum(t *testing.T) {
	src := t.TempDir()
	one, onePath := writeTrack(t, src, "wolves.wav", 1337)
	two, twoPath := writeTrack(t, src, "gardening.wav", 100_000)

	img, err := Create(filepath.Join(t.TempDir(), "disk.img"), testSize)
	require.NoError(t, err)
	defer img.Close()

	paths, err := img.AddAlbum(Album{
		Name: "R.E.M. - Chronic Town",
		Tracks: []Track{
			{Number: 1, Source: onePath},
			{Number: 2, Source: twoPath},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/REMCHRON/TRACK01.WAV", "/REMCHRON/TRACK02.WAV"}, paths)

	infos, err := img.ReadDir("/REMCHRON")
	require.NoError(t, err)
	sizes := map[string]int64{}
	for _, fi := range infos {
		sizes[fi.Name()] = fi.Size()
	}
	assert.Equal(t, int64(len(one)), sizes["TRACK01.WAV"])
	assert.Equal(t, int64(len(two)), sizes["TRACK02.WAV"])

	f, err := img.OpenFile("/REMCHRON/TRACK02.WAV", os.O_RDONLY)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, two, got)
}

func TestAddAlbumNoName(t *testing.T) {
	_, path := writeTrack(t, t.TempDir(), "track.wav", 10)
	img, err := Create(filepath.Join(t.TempDir(), "disk.img"), testSize)
	require.NoError(t, err)
	defer img.Close()

	paths, err := img.AddAlbum(Album{Name: "1999", Tracks: []Track{{Number: 7, Source: path}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"/TRACK07.WAV"}, paths)

	_, err = img.AddAlbum(Album{Tracks: []Track{{Number: 8, Source: filepath.Join(t.TempDir(), "missing.wav")}}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCloseReopen(t *testing.T) {
	data, src := writeTrack(t, t.TempDir(), "track.wav", 4096)
	path := filepath.Join(t.TempDir(), "disk.img")
	img, err := Create(path, testSize)
	require.NoError(t, err)
	_, err = img.AddAlbum(Album{Name: "Murmur", Tracks: []Track{{Number: 1, Source: src}}})
	require.NoError(t, err)

	require.NoError(t, img.Close())
	require.NoError(t, img.Close())
	var none *Image
	assert.NoError(t, none.Close())

	dsk, err := diskfs.Open(path)
	require.NoError(t, err)
	defer dsk.Close()
	fs, err := dsk.GetFilesystem(1)
	require.NoError(t, err)
	f, err := fs.OpenFile("/MURMUR/TRACK01.WAV", os.O_RDONLY)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
