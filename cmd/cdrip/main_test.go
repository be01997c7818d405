package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/cdrip/cddb"
	"github.com/rabidaudio/cdrip/disc"
	"github.com/rabidaudio/cdrip/disc/disctest"
	"github.com/rabidaudio/cdrip/internal/config"
	"github.com/rabidaudio/cdrip/rip"
	"github.com/rabidaudio/cdrip/store"
)

func openTestDisc(t *testing.T) *disc.Session {
	t.Helper()
	ds, err := disc.Open(disctest.AudioDisc(2, 750))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func TestParseTracks(t *testing.T) {
	tracks, err := parseTracks([]string{"1", "3-5", "9"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 5, 9}, tracks)

	tracks, err = parseTracks(nil)
	require.NoError(t, err)
	assert.Empty(t, tracks)

	for _, bad := range []string{"x", "5-3", "2-", "-1-2"} {
		_, err := parseTracks([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestTrackPath(t *testing.T) {
	cfg := config.DefaultConfig()
	tmpl, err := cfg.Template()
	require.NoError(t, err)

	rec := cddb.NewRecord(3)
	rec.SetArtist("AC/DC")
	rec.SetTitle("Powerage")
	require.NoError(t, rec.SetTrackTitle(1, "Rock 'n' Roll Damnation"))
	require.NoError(t, rec.SetTrackTitle(2, "Down/Payment Blues"))

	p, err := trackPath(tmpl, "out", rec, 1, rip.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "01 Rock 'n' Roll Damnation.wav"), p)

	p, err = trackPath(tmpl, "out", rec, 2, rip.FormatRaw)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "02 Down-Payment Blues.pcm"), p)

	// no title for track 3, nor any record at all
	p, err = trackPath(tmpl, "out", rec, 3, rip.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "03.wav"), p)
	p, err = trackPath(tmpl, "out", nil, 4, rip.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "04.wav"), p)

	cfg.FilenameTemplate = `{{.AlbumArtist}} - {{.Album}} - {{.Artist}}`
	tmpl, err = cfg.Template()
	require.NoError(t, err)
	p, err = trackPath(tmpl, "", rec, 1, rip.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, "AC-DC - Powerage - AC-DC.wav", p)

	cfg.FilenameTemplate = `   `
	tmpl, err = cfg.Template()
	require.NoError(t, err)
	p, err = trackPath(tmpl, "", rec, 7, rip.FormatWAV)
	require.NoError(t, err)
	assert.Equal(t, "07.wav", p)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, rip.FormatRaw, parseFormat("raw"))
	assert.Equal(t, rip.FormatWAV, parseFormat("wav"))
	assert.Equal(t, rip.FormatWAV, parseFormat(""))
}

func TestPrintInfo(t *testing.T) {
	ds := openTestDisc(t)

	var buf bytes.Buffer
	require.NoError(t, printInfo(&buf, ds))
	out := buf.String()
	assert.Contains(t, out, "disc:    audio\n")
	assert.Contains(t, out, "tracks:  2 (2 audio, 0 data)\n")
	assert.Contains(t, out, "length:  22s\n")
	assert.Contains(t, out, "disc id: "+cddb.FormatID(cddb.DiscID([]int32{150, 900}, 22)))
	assert.Contains(t, out, "  01  audio  offset    150")
	assert.Contains(t, out, "  02  audio  offset    900")
}

func TestPrintRecord(t *testing.T) {
	rec := cddb.NewRecord(2)
	rec.SetCategory("rock")
	rec.SetArtist("R.E.M.")
	rec.SetTitle("Chronic Town")
	rec.SetYear(1982)
	require.NoError(t, rec.SetTrackTitle(1, "Wolves, Lower"))
	require.NoError(t, rec.SetTrackTitle(2, "Gardening at Night"))
	require.NoError(t, rec.SetTrackArtist(2, "Guest"))
	require.NoError(t, rec.SetTrackLength(1, 253))

	var buf bytes.Buffer
	printRecord(&buf, 0, rec)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "[1] R.E.M. / Chronic Town (1982) [rock]", lines[0])
	assert.Equal(t, "  01  Wolves, Lower  (4m13s)", lines[1])
	assert.Equal(t, "  02  Gardening at Night / Guest", lines[2])
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
cddb_backend = "libcddb"
cddb_server = "file.example"
format = "wav"
max_retries = 5
`), 0o644))
	t.Setenv("CDRIP_CDDB_SERVER", "env.example")
	t.Setenv("CDRIP_FORMAT", "wav")
	t.Setenv("CDRIP_CACHE", filepath.Join(dir, "cache.db"))

	a := newApp()
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags([]string{
		"--config", cfgPath,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--format", "raw",
	}))
	require.NoError(t, a.load(root))

	assert.Equal(t, config.BackendLibCDDB, a.cfg.CDDBBackend)
	assert.Equal(t, "env.example", a.cfg.CDDBServer)
	assert.Equal(t, "raw", a.cfg.Format)
	assert.Equal(t, 5, a.cfg.MaxRetries)
	assert.Equal(t, filepath.Join(dir, "cache.db"), a.cfg.CachePath)
}

func TestLoadInvalid(t *testing.T) {
	a := newApp()
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags([]string{
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--format", "flac",
	}))
	assert.Error(t, a.load(root))
}

func TestProtocol(t *testing.T) {
	a := newApp()
	a.cfg.CDDBServer = "freedb.example"
	a.cfg.CDDBUser = "me"
	a.cfg.CDDBHost = "box"

	h, ok := a.protocol().(*cddb.HTTP)
	require.True(t, ok)
	assert.Equal(t, "freedb.example", h.Server)
	assert.Equal(t, "me", h.User)

	a.cfg.CDDBBackend = config.BackendLibCDDB
	a.cfg.CDDBPath = "/cgi-bin/cddb.cgi"
	l, ok := a.protocol().(*cddb.LibCDDB)
	require.True(t, ok)
	assert.True(t, l.HTTP)
	assert.Equal(t, "me@box", l.Email)
}

func TestDriver(t *testing.T) {
	a := newApp()
	a.cfg.Device = "/dev/sr1"
	a.cfg.Paranoia = false
	drv := a.driver()
	assert.Equal(t, "/dev/sr1", drv.Device)
	require.NotNil(t, drv.Paranoia)
	assert.EqualValues(t, 0, *drv.Paranoia)
}

func TestLookupCache(t *testing.T) {
	ds := openTestDisc(t)
	id := cddb.FormatID(cddb.DiscID(ds.FrameOffsets(), ds.LengthSeconds()))

	var queries atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries.Add(1)
		fmt.Fprint(w, "202 No match found\r\n")
	}))
	defer srv.Close()

	db, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	a := newApp()
	a.cfg.CDDBServer = srv.URL

	res, err := a.lookup(ds, db, false)
	require.NoError(t, err)
	assert.Equal(t, id, res.DiscID)
	assert.Equal(t, 0, res.Len())
	assert.EqualValues(t, 1, queries.Load())

	// cached, even though nothing matched
	res, err = a.lookup(ds, db, false)
	require.NoError(t, err)
	assert.Equal(t, id, res.DiscID)
	assert.EqualValues(t, 1, queries.Load())

	_, err = a.lookup(ds, db, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, queries.Load())

	// without a cache every lookup goes to the service
	_, err = a.lookup(ds, nil, false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, queries.Load())
}
