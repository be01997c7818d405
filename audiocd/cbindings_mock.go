//go:build !linux || !cgo

package audiocd

import (
	"crypto/rand"
	"fmt"
	"os"
	"unsafe"

	"github.com/rabidaudio/cdrip"
)

func init() {
	fmt.Fprintln(os.Stderr, "NOTE: audiocd is only supported on linux with cgo. You are operating on a mock implementation for testing which returns white noise.")
}

const (
	mockTracks       = 10
	mockTrackSectors = cdrip.FramesPerSecond * 3 * 60
)

type mockDrive struct {
	sector int32
}

func openDrive(device string) (unsafe.Pointer, string, error) {
	// pretend to be open by keeping a pointer to the mock state
	return unsafe.Pointer(&mockDrive{}), "mock drive opened", nil
}

func model(d unsafe.Pointer) string {
	return "Mock AudioCD implementation"
}

func trackCount(d unsafe.Pointer) int {
	return mockTracks
}

func firstTrack(d unsafe.Pointer) int {
	return 1
}

func tocStartSector(d unsafe.Pointer, i int) int32 {
	return int32(i * mockTrackSectors)
}

func trackIsAudio(d unsafe.Pointer, track int) (bool, error) {
	return true, nil
}

func trackFirstSector(d unsafe.Pointer, track int) int32 {
	return tocStartSector(d, track-1)
}

func trackLastSector(d unsafe.Pointer, track int) int32 {
	return tocStartSector(d, track) - 1
}

func setSpeed(d unsafe.Pointer, x int) error {
	return nil
}

func drainLogs(d unsafe.Pointer) (msgs, errs string) {
	return "", ""
}

func closeDrive(d unsafe.Pointer) {}

func paranoiaInit(d unsafe.Pointer) unsafe.Pointer {
	return d
}

func paranoiaModeSet(p unsafe.Pointer, flags ParanoiaFlags) {}

func paranoiaSeek(p unsafe.Pointer, sector int32) int64 {
	if sector < 0 || sector > mockTracks*mockTrackSectors {
		return -int64(ErrIllegalTOC)
	}
	(*mockDrive)(p).sector = sector
	return int64(sector)
}

func paranoiaRead(p unsafe.Pointer, retries int) []byte {
	md := (*mockDrive)(p)
	if md.sector >= mockTracks*mockTrackSectors {
		return nil
	}
	md.sector++
	buf := make([]byte, cdrip.BytesPerSector)
	if _, err := rand.Read(buf); err != nil {
		return nil
	}
	return buf
}

func paranoiaFree(p unsafe.Pointer) {}

func version() string {
	return "mock"
}
