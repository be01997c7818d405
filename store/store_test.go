package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/cdrip/cddb"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cdrip.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResultsRoundTrip(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.LoadResults("6507080a")
	require.NoError(t, err)
	assert.False(t, ok)

	r := cddb.NewRecord(2)
	r.SetCategory("rock")
	r.SetArtist("Stereolab")
	r.SetTitle("Dots and Loops")
	r.SetYear(1997)
	require.NoError(t, r.SetTrackTitle(1, "Brakhage"))
	require.NoError(t, r.SetTrackLength(1, 361))
	require.NoError(t, r.SetTrackArtist(2, "Stereolab"))
	other := cddb.NewRecord(2)
	other.SetTitle("")

	require.NoError(t, s.SaveResults(cddb.NewResults("6507080a", r, other)))

	res, ok, err := s.LoadResults("6507080a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, res.Len())
	assert.Equal(t, "6507080a", res.DiscID)

	got := res.Record(0)
	v, _ := got.Artist()
	assert.Equal(t, "Stereolab", v)
	v, _ = got.Category()
	assert.Equal(t, "rock", v)
	_, ok = got.Genre()
	assert.False(t, ok, "absent fields stay absent")
	assert.Equal(t, 1997, got.Year())
	require.Equal(t, 2, got.NumTracks())
	v, _ = got.TrackTitle(1)
	assert.Equal(t, "Brakhage", v)
	assert.Equal(t, 361, got.TrackLength(1))
	_, ok = got.TrackTitle(2)
	assert.False(t, ok)
	v, _ = got.TrackArtist(2)
	assert.Equal(t, "Stereolab", v)

	v, ok = res.Record(1).Title()
	assert.True(t, ok, "empty title is kept")
	assert.Equal(t, "", v)
	assert.Equal(t, -1, res.Record(1).Year())
}

func TestSaveResultsReplaces(t *testing.T) {
	s := openStore(t)
	a := cddb.NewRecord(1)
	a.SetTitle("old")
	require.NoError(t, s.SaveResults(cddb.NewResults("0a0b0c0d", a, cddb.NewRecord(1))))

	b := cddb.NewRecord(1)
	b.SetTitle("new")
	require.NoError(t, s.SaveResults(cddb.NewResults("0a0b0c0d", b)))

	res, ok, err := s.LoadResults("0a0b0c0d")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, res.Len())
	v, _ := res.Record(0).Title()
	assert.Equal(t, "new", v)
}

func TestNoMatchCached(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.SaveResults(cddb.NewResults("deadbeef")))

	res, ok, err := s.LoadResults("deadbeef")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, res.Len())

	assert.Error(t, s.SaveResults(cddb.NewResults("")))
	assert.Error(t, s.SaveResults(nil))
}

func TestRips(t *testing.T) {
	s := openStore(t)

	ok, err := s.IsRipped("6507080a", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRip(Rip{RunID: "run-1", DiscID: "6507080a", Track: 3, Path: "/music/03.wav", Bytes: 2352044, RippedAt: at}))
	require.NoError(t, s.RecordRip(Rip{RunID: "run-2", DiscID: "6507080a", Track: 4, Path: "/music/04.wav", Bytes: 44}))

	ok, err = s.IsRipped("6507080a", 3)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsRipped("00000000", 3)
	require.NoError(t, err)
	assert.False(t, ok)

	rips, err := s.Rips("6507080a")
	require.NoError(t, err)
	require.Len(t, rips, 2)
	assert.Equal(t, "run-1", rips[0].RunID)
	assert.Equal(t, int64(2352044), rips[0].Bytes)
	assert.True(t, at.Equal(rips[0].RippedAt))
	assert.Equal(t, 4, rips[1].Track)
	assert.False(t, rips[1].RippedAt.IsZero())
}

func TestClose(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cdrip.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	var nilStore *Store
	assert.NoError(t, nilStore.Close())
}
