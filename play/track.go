package play

import (
	"fmt"
	"sync"

	"github.com/faiface/beep"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
)

// DefaultReadAhead is the number of sectors read ahead of playback.
const DefaultReadAhead = 3 * cdrip.FramesPerSecond

// prefetch reads sectors from the session in the background so slow or
// retrying reads don't starve the speaker.
type prefetch struct {
	frames chan []byte
	stop   chan struct{}
	once   sync.Once
	// err is set before frames is closed
	err error
}

func startPrefetch(s *disc.Session, from, last int32, depth int) *prefetch {
	p := &prefetch{
		frames: make(chan []byte, depth),
		stop:   make(chan struct{}),
	}
	go func() {
		defer close(p.frames)
		if err := s.Seek(from); err != nil {
			p.err = err
			return
		}
		for sector := from; sector <= last; sector++ {
			select {
			case <-p.stop:
				return
			default:
			}
			frame, err := s.ReadFrame()
			if err != nil {
				p.err = fmt.Errorf("sector %d: %w", sector, err)
				return
			}
			// the reader may reuse its buffer on the next read
			frame = append([]byte(nil), frame...)
			select {
			case p.frames <- frame:
			case <-p.stop:
				return
			}
		}
	}()
	return p
}

// halt stops the reader and waits for it to finish.
func (p *prefetch) halt() {
	p.once.Do(func() { close(p.stop) })
	for range p.frames {
	}
}

// TrackStreamer plays one audio track straight from a disc session. The
// session stays owned by the caller and must outlive the streamer.
type TrackStreamer struct {
	s           *disc.Session
	first, last int32
	depth       int

	pf   *prefetch
	buf  []byte
	skip int
	pos  int
	err  error
}

// NewTrackStreamer starts reading track from s.
func NewTrackStreamer(s *disc.Session, track int) (*TrackStreamer, error) {
	audio, err := s.TrackIsAudio(track)
	if err != nil {
		return nil, err
	}
	if !audio {
		return nil, cdrip.Wrap(cdrip.ErrNotAudioTrack, fmt.Errorf("track %d", track))
	}
	first, last, err := s.TrackSectors(track)
	if err != nil {
		return nil, err
	}
	st := &TrackStreamer{s: s, first: first, last: last, depth: DefaultReadAhead}
	st.pf = startPrefetch(s, first, last, st.depth)
	return st, nil
}

func (st *TrackStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if len(st.buf) == 0 {
			frame, more := <-st.pf.frames
			if !more {
				if st.pf.err != nil {
					st.err = st.pf.err
				}
				return n, n > 0
			}
			st.buf = frame[st.skip:]
			st.skip = 0
			continue
		}
		samples[n][0], samples[n][1] = extractFrame(st.buf)
		st.buf = st.buf[bytesPerFrame:]
		st.pos++
		n++
	}
	return n, true
}

func (st *TrackStreamer) Err() error {
	return st.err
}

// Len returns the number of stereo samples in the track.
func (st *TrackStreamer) Len() int {
	return int(st.last-st.first+1) * samplesPerSector
}

func (st *TrackStreamer) Position() int {
	return st.pos
}

func (st *TrackStreamer) Seek(p int) error {
	if p < 0 || p > st.Len() {
		return fmt.Errorf("play: seek to %d outside [0, %d]", p, st.Len())
	}
	st.pf.halt()
	// seek to the start of the sector, then skip into it
	sector := st.first + int32(p/samplesPerSector)
	st.buf = nil
	st.skip = (p % samplesPerSector) * bytesPerFrame
	st.pos = p
	st.err = nil
	st.pf = startPrefetch(st.s, sector, st.last, st.depth)
	return nil
}

// Close stops reading. It doesn't close the session.
func (st *TrackStreamer) Close() error {
	st.pf.halt()
	st.buf = nil
	return nil
}

var _ beep.StreamSeekCloser = (*TrackStreamer)(nil)
