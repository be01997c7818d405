// Package disctest provides an in-memory drive for tests of code built on
// disc sessions.
package disctest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
)

var ErrInjected = errors.New("disctest: injected failure")

// Track describes one track of a fake disc. Sectors are disc-relative,
// Offset is the absolute frame offset reported by the table of contents.
type Track struct {
	Format      disc.TrackFormat
	Offset      int32
	First, Last int32
}

// Drive is a fake disc.Drive. Zero-valued error fields succeed.
type Drive struct {
	Tracks        []Track
	LeadOutSector int32

	OpenErr       error
	ReaderErr     error
	FirstTrackErr error
	TrackCountErr error
	OffsetErr     map[int]error
	LeadOutErr    error
	SectorsErr    map[int]error
	// FailRead lists sectors whose read fails.
	FailRead map[int32]bool
	// ReuseBuffer makes the reader hand out the same buffer on every read.
	ReuseBuffer bool

	mu           sync.Mutex
	pos          int32
	reads        []int32
	closed       bool
	readerClosed bool
	buf          []byte
	opened       int
}

// AudioDisc returns a drive holding n audio tracks of length sectors each.
func AudioDisc(n int, length int32) *Drive {
	d := &Drive{}
	for i := 0; i < n; i++ {
		first := int32(i) * length
		d.Tracks = append(d.Tracks, Track{
			Format: disc.FormatAudio,
			Offset: first + cdrip.PregapFrames,
			First:  first,
			Last:   first + length - 1,
		})
	}
	d.LeadOutSector = int32(n)*length + cdrip.PregapFrames
	return d
}

// Frame returns the content the fake reader produces for sector.
func Frame(sector int32) []byte {
	buf := make([]byte, cdrip.BytesPerSector)
	for i := range buf {
		buf[i] = byte(int(sector) + i)
	}
	return buf
}

// Open implements disc.Driver.
func (d *Drive) Open() (disc.Drive, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	d.closed = false
	d.readerClosed = false
	return d, nil
}

func (d *Drive) FirstTrack() (int, error) {
	if d.FirstTrackErr != nil {
		return 0, d.FirstTrackErr
	}
	if len(d.Tracks) == 0 {
		return 0, fmt.Errorf("disctest: no tracks: %w", ErrInjected)
	}
	return 1, nil
}

func (d *Drive) TrackCount() (int, error) {
	if d.TrackCountErr != nil {
		return 0, d.TrackCountErr
	}
	return len(d.Tracks), nil
}

func (d *Drive) track(n int) (Track, error) {
	if n < 1 || n > len(d.Tracks) {
		return Track{}, fmt.Errorf("disctest: no track %d", n)
	}
	return d.Tracks[n-1], nil
}

func (d *Drive) TrackFormat(n int) (disc.TrackFormat, error) {
	t, err := d.track(n)
	return t.Format, err
}

func (d *Drive) TrackOffset(n int) (int32, error) {
	if err := d.OffsetErr[n]; err != nil {
		return -1, err
	}
	t, err := d.track(n)
	return t.Offset, err
}

func (d *Drive) TrackSectors(n int) (int32, int32, error) {
	if err := d.SectorsErr[n]; err != nil {
		return -1, -1, err
	}
	t, err := d.track(n)
	return t.First, t.Last, err
}

func (d *Drive) LeadOut() (int32, error) {
	if d.LeadOutErr != nil {
		return -1, d.LeadOutErr
	}
	return d.LeadOutSector, nil
}

func (d *Drive) NewReader() (disc.Reader, error) {
	if d.ReaderErr != nil {
		return nil, d.ReaderErr
	}
	return (*reader)(d), nil
}

func (d *Drive) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether the drive has been closed since it was last opened.
func (d *Drive) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// ReaderClosed reports whether the reader has been closed.
func (d *Drive) ReaderClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readerClosed
}

// Reads returns the sectors read so far, in order.
func (d *Drive) Reads() []int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int32(nil), d.reads...)
}

// Position returns the sector the reader will read next.
func (d *Drive) Position() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pos
}

type reader Drive

func (r *reader) Seek(sector int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sector < 0 {
		return fmt.Errorf("disctest: seek to %d", sector)
	}
	r.pos = sector
	return nil
}

func (r *reader) ReadFrame() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sector := r.pos
	r.reads = append(r.reads, sector)
	if r.FailRead[sector] {
		return nil, ErrInjected
	}
	end := r.LeadOutSector - cdrip.PregapFrames
	if sector >= end {
		return nil, fmt.Errorf("disctest: read past end at %d", sector)
	}
	r.pos++
	if r.ReuseBuffer {
		r.buf = append(r.buf[:0], Frame(sector)...)
		return r.buf, nil
	}
	return Frame(sector), nil
}

func (r *reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readerClosed = true
	return nil
}
