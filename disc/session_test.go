package disc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
	"github.com/rabidaudio/cdrip/disc/disctest"
)

func TestClassify(t *testing.T) {
	for a := 0; a <= 3; a++ {
		for b := 0; b <= 3; b++ {
			k := disc.Classify(a, b)
			assert.Equal(t, a > 0 && b == 0, k == disc.AudioDisc, "audio=%d data=%d", a, b)
			assert.Equal(t, b > 0 && a == 0, k == disc.DataDisc, "audio=%d data=%d", a, b)
			assert.Equal(t, a > 0 && b > 0, k == disc.MixedModeDisc, "audio=%d data=%d", a, b)
		}
	}
	assert.Equal(t, disc.NoDisc, disc.Classify(0, 0))
	assert.True(t, disc.MixedModeDisc.HasAudio())
	assert.False(t, disc.DataDisc.HasAudio())
	assert.Equal(t, "mixed-mode", disc.MixedModeDisc.String())
}

func TestOpen(t *testing.T) {
	drv := disctest.AudioDisc(10, 4000)
	drv.LeadOutSector = 180000

	s, err := disc.Open(drv)
	require.NoError(t, err)

	assert.Equal(t, disc.AudioDisc, s.Kind())
	assert.Equal(t, 10, s.AudioTracks())
	assert.Equal(t, 0, s.DataTracks())
	assert.Equal(t, 10, s.TotalTracks())
	assert.Equal(t, 1, s.FirstTrack())
	assert.Equal(t, 2400, s.LengthSeconds())
	assert.Equal(t, int32(180000), s.LeadOut())

	offsets := s.FrameOffsets()
	require.Len(t, offsets, 10)
	assert.Equal(t, int32(150), offsets[0])
	assert.Equal(t, int32(4150), offsets[1])
	offsets[0] = 99
	off, ok := s.FrameOffset(1)
	assert.True(t, ok)
	assert.Equal(t, int32(150), off, "FrameOffsets should return a copy")
	_, ok = s.FrameOffset(11)
	assert.False(t, ok)

	require.NoError(t, s.Close())
	assert.True(t, drv.Closed())
	assert.True(t, drv.ReaderClosed())
}

func TestOpenMixedMode(t *testing.T) {
	drv := disctest.AudioDisc(3, 1000)
	drv.Tracks[2].Format = disc.FormatData

	s, err := disc.Open(drv)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, disc.MixedModeDisc, s.Kind())
	assert.Equal(t, 2, s.AudioTracks())
	assert.Equal(t, 1, s.DataTracks())

	audio, err := s.TrackIsAudio(3)
	require.NoError(t, err)
	assert.False(t, audio)
}

func TestOpenFailures(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(d *disctest.Drive)
		kind    cdrip.Error
		touched bool
	}{
		{"device", func(d *disctest.Drive) { d.OpenErr = disctest.ErrInjected }, cdrip.ErrDeviceUnavailable, false},
		{"reader", func(d *disctest.Drive) { d.ReaderErr = disctest.ErrInjected }, cdrip.ErrReaderInitFailed, true},
		{"no disc", func(d *disctest.Drive) { d.Tracks = nil }, cdrip.ErrNoDiscPresent, true},
		{"first track", func(d *disctest.Drive) { d.FirstTrackErr = disctest.ErrInjected }, cdrip.ErrNoDiscPresent, true},
		{"offset", func(d *disctest.Drive) {
			d.OffsetErr = map[int]error{3: disctest.ErrInjected}
		}, cdrip.ErrOffsetComputationFailed, true},
		{"lead-out", func(d *disctest.Drive) { d.LeadOutErr = disctest.ErrInjected }, cdrip.ErrLengthComputationFailed, true},
		{"negative lead-out", func(d *disctest.Drive) { d.LeadOutSector = -1 }, cdrip.ErrLengthComputationFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv := disctest.AudioDisc(5, 1000)
			tt.modify(drv)

			s, err := disc.Open(drv)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			if tt.touched {
				assert.True(t, drv.Closed(), "drive should be released")
			}
		})
	}
}

func TestOpenDriverError(t *testing.T) {
	// errors that already carry a kind are passed through
	drv := &disctest.Drive{OpenErr: cdrip.Wrap(cdrip.ErrNotAnAudioDisc, disctest.ErrInjected)}
	_, err := disc.Open(drv)
	assert.Equal(t, cdrip.ErrNotAnAudioDisc, cdrip.KindOf(err))
	assert.ErrorIs(t, err, disctest.ErrInjected)

	_, err = disc.Open(nil)
	assert.ErrorIs(t, err, cdrip.ErrDeviceUnavailable)
}

func TestClosedSession(t *testing.T) {
	var s *disc.Session
	assert.NoError(t, s.Close())
	assert.Equal(t, disc.NoDisc, s.Kind())
	assert.Equal(t, -1, s.AudioTracks())
	assert.Equal(t, -1, s.TotalTracks())
	assert.Equal(t, -1, s.LengthSeconds())
	assert.Nil(t, s.FrameOffsets())

	assert.NotPanics(t, func() {
		_, err := s.TrackIsAudio(1)
		assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
		_, _, err = s.TrackSectors(1)
		assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
		assert.ErrorIs(t, s.Seek(0), cdrip.ErrSessionClosed)
		_, err = s.ReadFrame()
		assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
		err = s.ReadSectors(0, 1, func(int32, []byte) error { return nil })
		assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
	})

	s, err := disc.Open(disctest.AudioDisc(2, 100))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Equal(t, disc.NoDisc, s.Kind())
	assert.Equal(t, 0, s.TotalTracks())
	assert.Equal(t, -1, s.LengthSeconds())

	_, err = s.ReadFrame()
	assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
	assert.ErrorIs(t, s.Seek(0), cdrip.ErrSessionClosed)
	_, _, err = s.TrackSectors(1)
	assert.ErrorIs(t, err, cdrip.ErrSessionClosed)
}

func TestTrackSectors(t *testing.T) {
	drv := disctest.AudioDisc(3, 1000)
	drv.SectorsErr = map[int]error{2: disctest.ErrInjected}
	s, err := disc.Open(drv)
	require.NoError(t, err)
	defer s.Close()

	first, last, err := s.TrackSectors(3)
	require.NoError(t, err)
	assert.Equal(t, int32(2000), first)
	assert.Equal(t, int32(2999), last)

	_, _, err = s.TrackSectors(2)
	assert.ErrorIs(t, err, cdrip.ErrSectorRangeUnavailable)

	_, _, err = s.TrackSectors(0)
	assert.ErrorIs(t, err, cdrip.ErrInvalidTrackNumber)
	_, err = s.TrackIsAudio(4)
	assert.ErrorIs(t, err, cdrip.ErrInvalidTrackNumber)
}

func TestReadSectors(t *testing.T) {
	drv := disctest.AudioDisc(2, 2000)
	drv.FailRead = map[int32]bool{1500: true}
	s, err := disc.Open(drv)
	require.NoError(t, err)
	defer s.Close()

	var n int
	err = s.ReadSectors(100, 199, func(sector int32, frame []byte) error {
		assert.Equal(t, disctest.Frame(sector), frame)
		n++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	err = s.ReadSectors(1000, 1999, func(int32, []byte) error { return nil })
	assert.ErrorIs(t, err, cdrip.ErrReadError)
	reads := drv.Reads()
	assert.Equal(t, int32(1500), reads[len(reads)-1], "no sectors read after the failure")

	stop := errors.New("stop")
	err = s.ReadSectors(0, 10, func(sector int32, _ []byte) error {
		if sector == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestReadFrame(t *testing.T) {
	drv := disctest.AudioDisc(1, 10)
	s, err := disc.Open(drv)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Seek(9))
	frame, err := s.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, frame, cdrip.BytesPerSector)

	_, err = s.ReadFrame()
	assert.ErrorIs(t, err, cdrip.ErrReadError)
}
