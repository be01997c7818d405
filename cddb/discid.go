package cddb

import (
	"errors"
	"fmt"

	"github.com/rabidaudio/cdrip"
)

// DiscID computes the CDDB disc ID of a disc with the given absolute
// track frame offsets and length in seconds.
func DiscID(offsets []int32, lengthSeconds int) uint32 {
	if len(offsets) == 0 {
		return 0
	}
	var n int
	for _, off := range offsets {
		for s := int(off) / cdrip.FramesPerSecond; ; s /= 10 {
			n += s % 10
			if s < 10 {
				break
			}
		}
	}
	// the playing time field is 16 bits wide
	t := min(max(lengthSeconds-int(offsets[0])/cdrip.FramesPerSecond, 0), 0xffff)
	return uint32(n%0xff)<<24 | uint32(t)<<8 | uint32(len(offsets))
}

// FormatID formats a disc ID the way the service prints it.
func FormatID(id uint32) string {
	return fmt.Sprintf("%08x", id)
}

// TrackLengths derives track lengths in seconds from the frame offsets
// and the disc length.
func TrackLengths(offsets []int32, lengthSeconds int) []int {
	lengths := make([]int, len(offsets))
	for i := range offsets {
		if i+1 < len(offsets) {
			lengths[i] = int(offsets[i+1]-offsets[i]) / cdrip.FramesPerSecond
		} else {
			lengths[i] = max(lengthSeconds-int(offsets[i])/cdrip.FramesPerSecond, 0)
		}
	}
	return lengths
}

var errDiscClosed = errors.New("cddb: disc descriptor closed")

// descriptor is a disc descriptor kept in Go memory.
type descriptor struct {
	length  int
	offsets []int32
	id      uint32
	closed  bool
}

func newDescriptor(lengthSeconds int) *descriptor {
	return &descriptor{length: lengthSeconds}
}

func (d *descriptor) AddTrack(frameOffset int32) error {
	if d.closed {
		return errDiscClosed
	}
	if len(d.offsets) >= cdrip.MaxTracks {
		return fmt.Errorf("cddb: more than %d tracks", cdrip.MaxTracks)
	}
	d.offsets = append(d.offsets, frameOffset)
	return nil
}

func (d *descriptor) CalcDiscID() (uint32, error) {
	if d.closed {
		return 0, errDiscClosed
	}
	if len(d.offsets) == 0 {
		return 0, errors.New("cddb: disc has no tracks")
	}
	d.id = DiscID(d.offsets, d.length)
	return d.id, nil
}

func (d *descriptor) Close() error {
	d.closed = true
	d.offsets = nil
	return nil
}
