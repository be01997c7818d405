// Package disc manages a session with the cd drive: the opened device, the
// error-correcting reader attached to it, and the disc layout read from the
// table of contents when the session is opened.
package disc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rabidaudio/cdrip"
)

// Session exclusively owns an opened drive and its reader.
// Reads are serialized, so a Session is safe for concurrent use,
// but opening two sessions on the same drive is not supported.
type Session struct {
	mu     sync.Mutex
	drive  Drive
	reader Reader
	log    zerolog.Logger

	kind        Kind
	firstTrack  int
	audioTracks int
	dataTracks  int
	offsets     []int32
	leadOut     int32
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used by the session.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Open opens the drive, attaches a reader and reads the disc layout.
//
// Open fails with [cdrip.ErrDeviceUnavailable], [cdrip.ErrReaderInitFailed],
// [cdrip.ErrNoDiscPresent], [cdrip.ErrOffsetComputationFailed] or
// [cdrip.ErrLengthComputationFailed]. Anything acquired before the failure
// is released.
func Open(drv Driver, opts ...Option) (*Session, error) {
	s := &Session{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if drv == nil {
		return nil, cdrip.ErrDeviceUnavailable
	}

	drive, err := drv.Open()
	if err != nil {
		if cdrip.KindOf(err) != 0 {
			return nil, err
		}
		return nil, cdrip.Wrap(cdrip.ErrDeviceUnavailable, err)
	}
	s.drive = drive

	if err := s.load(); err != nil {
		s.log.Debug().Err(err).Msg("disc: open failed, releasing drive")
		if cerr := s.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("disc: release after failed open")
		}
		return nil, err
	}

	if s.kind == NoDisc {
		// shouldn't be reachable, a disc without tracks fails FirstTrack
		s.log.Warn().Int("tracks", len(s.offsets)).Msg("disc: tracks present but no audio or data tracks")
	}
	s.log.Info().
		Stringer("kind", s.kind).
		Int("audio_tracks", s.audioTracks).
		Int("data_tracks", s.dataTracks).
		Int("length_s", s.LengthSeconds()).
		Msg("disc: opened")
	return s, nil
}

func (s *Session) load() error {
	reader, err := s.drive.NewReader()
	if err != nil {
		return cdrip.Wrap(cdrip.ErrReaderInitFailed, err)
	}
	s.reader = reader

	first, err := s.drive.FirstTrack()
	if err != nil {
		return cdrip.Wrap(cdrip.ErrNoDiscPresent, err)
	}
	s.firstTrack = first

	n, err := s.drive.TrackCount()
	if err != nil {
		return cdrip.Wrap(cdrip.ErrNoDiscPresent, err)
	}
	if n < 1 || n > cdrip.MaxTracks {
		return cdrip.Wrap(cdrip.ErrNoDiscPresent, fmt.Errorf("disc: drive reports %d tracks", n))
	}

	s.offsets = make([]int32, n)
	for t := 1; t <= n; t++ {
		off, err := s.drive.TrackOffset(t)
		if err == nil && off < 0 {
			err = fmt.Errorf("disc: negative offset %d", off)
		}
		if err != nil {
			return cdrip.Wrap(cdrip.ErrOffsetComputationFailed, fmt.Errorf("track %d: %w", t, err))
		}
		s.offsets[t-1] = off

		format, err := s.drive.TrackFormat(t)
		if err != nil {
			return cdrip.Wrap(cdrip.ErrOffsetComputationFailed, fmt.Errorf("track %d format: %w", t, err))
		}
		if format == FormatAudio {
			s.audioTracks++
		} else {
			s.dataTracks++
		}
	}

	leadOut, err := s.drive.LeadOut()
	if err == nil && leadOut < 0 {
		err = fmt.Errorf("disc: invalid lead-out %d", leadOut)
	}
	if err != nil {
		return cdrip.Wrap(cdrip.ErrLengthComputationFailed, err)
	}
	s.leadOut = leadOut

	s.kind = Classify(s.audioTracks, s.dataTracks)
	return nil
}

// Close releases the reader and the drive. It is safe to call on a nil
// or already closed session. A closed session reports [NoDisc] and no tracks.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.reader != nil {
		errs = append(errs, s.reader.Close())
		s.reader = nil
	}
	if s.drive != nil {
		errs = append(errs, s.drive.Close())
		s.drive = nil
	}
	s.offsets = nil
	s.kind = NoDisc
	s.audioTracks, s.dataTracks, s.firstTrack, s.leadOut = 0, 0, 0, 0
	return errors.Join(errs...)
}

func (s *Session) open() bool {
	return s != nil && s.drive != nil
}

// Kind returns the classification of the disc, or NoDisc for a nil or
// closed session.
func (s *Session) Kind() Kind {
	if !s.open() {
		return NoDisc
	}
	return s.kind
}

// AudioTracks returns the number of audio tracks, or -1 for a nil session.
func (s *Session) AudioTracks() int {
	if s == nil {
		return -1
	}
	return s.audioTracks
}

// DataTracks returns the number of data tracks, or -1 for a nil session.
func (s *Session) DataTracks() int {
	if s == nil {
		return -1
	}
	return s.dataTracks
}

// TotalTracks returns the number of tracks on the disc, or -1 for a nil session.
func (s *Session) TotalTracks() int {
	if s == nil {
		return -1
	}
	return s.audioTracks + s.dataTracks
}

// FirstTrack returns the number of the first track as reported by the drive.
func (s *Session) FirstTrack() int {
	if s == nil {
		return -1
	}
	return s.firstTrack
}

// FrameOffsets returns a copy of the absolute frame offset of each track.
// Element 0 is track 1.
func (s *Session) FrameOffsets() []int32 {
	if !s.open() {
		return nil
	}
	offsets := make([]int32, len(s.offsets))
	copy(offsets, s.offsets)
	return offsets
}

// FrameOffset returns the absolute frame offset of track, 1 <= track <= TotalTracks.
func (s *Session) FrameOffset(track int) (int32, bool) {
	if !s.open() || track < 1 || track > len(s.offsets) {
		return -1, false
	}
	return s.offsets[track-1], true
}

// LeadOut returns the absolute frame offset of the lead-out, or -1.
func (s *Session) LeadOut() int32 {
	if !s.open() {
		return -1
	}
	return s.leadOut
}

// LengthSeconds returns the playing length of the disc derived from the
// lead-out, or -1 for a nil or closed session.
func (s *Session) LengthSeconds() int {
	if !s.open() {
		return -1
	}
	return int(s.leadOut / cdrip.FramesPerSecond)
}

func (s *Session) checkTrack(track int) error {
	if !s.open() {
		return cdrip.ErrSessionClosed
	}
	if track < 1 || track > len(s.offsets) {
		return cdrip.Wrap(cdrip.ErrInvalidTrackNumber, fmt.Errorf("track %d of %d", track, len(s.offsets)))
	}
	return nil
}

// TrackIsAudio reports whether the drive classifies track as audio.
func (s *Session) TrackIsAudio(track int) (bool, error) {
	if s == nil {
		return false, cdrip.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTrack(track); err != nil {
		return false, err
	}
	f, err := s.drive.TrackFormat(track)
	if err != nil {
		return false, err
	}
	return f == FormatAudio, nil
}

// TrackSectors returns the first and last sector of track, inclusive.
// It fails with [cdrip.ErrSectorRangeUnavailable] if the drive can't say.
func (s *Session) TrackSectors(track int) (first, last int32, err error) {
	if s == nil {
		return -1, -1, cdrip.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTrack(track); err != nil {
		return -1, -1, err
	}
	first, last, err = s.drive.TrackSectors(track)
	if err == nil && (first < 0 || last < first) {
		err = fmt.Errorf("disc: track %d spans [%d, %d]", track, first, last)
	}
	if err != nil {
		return -1, -1, cdrip.Wrap(cdrip.ErrSectorRangeUnavailable, err)
	}
	return first, last, nil
}

// Seek positions the reader at the start of sector.
func (s *Session) Seek(sector int32) error {
	if s == nil {
		return cdrip.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return cdrip.ErrSessionClosed
	}
	return s.reader.Seek(sector)
}

// ReadFrame reads the next corrected frame at the reader position. It
// fails with [cdrip.ErrReadError] if the frame could not be recovered.
func (s *Session) ReadFrame() ([]byte, error) {
	if s == nil {
		return nil, cdrip.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return nil, cdrip.ErrSessionClosed
	}
	return s.readFrame()
}

func (s *Session) readFrame() ([]byte, error) {
	buf, err := s.reader.ReadFrame()
	if err == nil && buf == nil {
		err = errors.New("disc: reader returned no frame")
	}
	if err != nil {
		return nil, cdrip.Wrap(cdrip.ErrReadError, err)
	}
	return buf, nil
}

// ReadSectors seeks to first and reads every sector up to and including
// last, passing each frame to fn. The reader is held for the whole range.
// Reading stops at the first frame that can't be recovered, which fails
// with [cdrip.ErrReadError], or at the first error returned by fn.
func (s *Session) ReadSectors(first, last int32, fn func(sector int32, frame []byte) error) error {
	if s == nil {
		return cdrip.ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open() {
		return cdrip.ErrSessionClosed
	}
	if err := s.reader.Seek(first); err != nil {
		return cdrip.Wrap(cdrip.ErrReadError, fmt.Errorf("seek to sector %d: %w", first, err))
	}
	for sector := first; sector <= last; sector++ {
		buf, err := s.readFrame()
		if err != nil {
			return fmt.Errorf("sector %d: %w", sector, err)
		}
		if err := fn(sector, buf); err != nil {
			return err
		}
	}
	return nil
}
