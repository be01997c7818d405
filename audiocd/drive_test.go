//go:build linux && cgo

package audiocd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
)

func TestParanoiaVersion(t *testing.T) {
	assert.Equal(t, "10.2", Version())
}

// testDevice returns the device named by CDRIP_TEST_DEVICE. These tests need
// a real drive with an audio cd inserted and are skipped otherwise.
func testDevice(t *testing.T) string {
	dev := os.Getenv("CDRIP_TEST_DEVICE")
	if dev == "" {
		t.Skip("CDRIP_TEST_DEVICE not set")
	}
	return dev
}

func TestDriveInfo(t *testing.T) {
	drive, err := (&Driver{Device: testDevice(t)}).Open()
	require.NoError(t, err)
	defer drive.Close()

	assert.NotEmpty(t, drive.(*CDRom).Model())

	n, err := drive.TrackCount()
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	first, err := drive.FirstTrack()
	require.NoError(t, err)
	assert.Equal(t, 1, first, "tracks are 1 indexed")

	off, err := drive.TrackOffset(1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, off, int32(cdrip.PregapFrames))

	leadOut, err := drive.LeadOut()
	require.NoError(t, err)
	assert.Greater(t, leadOut, off)
}

func TestReadFrame(t *testing.T) {
	s, err := disc.Open(&Driver{Device: testDevice(t)})
	require.NoError(t, err)
	defer s.Close()

	first, _, err := s.TrackSectors(1)
	require.NoError(t, err)
	require.NoError(t, s.Seek(first+75))

	buf, err := s.ReadFrame()
	require.NoError(t, err)
	assert.Len(t, buf, cdrip.BytesPerSector)

	for _, v := range buf[:16] {
		if v != 0 {
			return
		}
	}
	t.Fatalf("expected data but found none: %v", buf[:64])
}

func TestMissingDevice(t *testing.T) {
	_, err := (&Driver{Device: "/dev/does-not-exist"}).Open()
	assert.ErrorIs(t, err, cdrip.ErrDeviceUnavailable)
}
