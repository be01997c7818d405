// Package rip extracts audio tracks from a disc session into files.
package rip

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
	"github.com/rabidaudio/cdrip/wav"
)

// Format is the container written around the extracted audio.
type Format int

const (
	// FormatWAV writes a WAV header followed by the PCM payload.
	FormatWAV Format = iota
	// FormatRaw writes the bare little-endian PCM payload.
	FormatRaw
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatRaw:
		return "raw"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext returns the usual file extension for the format.
func (f Format) Ext() string {
	if f == FormatRaw {
		return ".pcm"
	}
	return ".wav"
}

type options struct {
	format        Format
	removePartial bool
	progress      func(done, total int)
	log           zerolog.Logger
}

type Option func(*options)

func WithFormat(f Format) Option {
	return func(o *options) { o.format = f }
}

// WithRemovePartial deletes the partially written file when a sector
// can't be read. By default it is kept for inspection.
func WithRemovePartial(remove bool) Option {
	return func(o *options) { o.removePartial = remove }
}

// WithProgress calls fn after every sector with the number of sectors
// written so far and the total.
func WithProgress(fn func(done, total int)) Option {
	return func(o *options) { o.progress = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Result describes an extracted track.
type Result struct {
	Track       int
	Path        string
	Format      Format
	First, Last int32
	Bytes       int64
	Elapsed     time.Duration
}

// Sectors returns the number of sectors extracted.
func (r *Result) Sectors() int {
	return int(r.Last-r.First) + 1
}

// Track reads every sector of track through the corrected reader of s and
// writes it to dest, replacing any existing file.
//
// A sector that can't be recovered aborts the extraction with
// [cdrip.ErrReadError]; nothing is retried at this level. On success the
// reader is positioned back at the start of the disc.
func Track(s *disc.Session, track int, dest string, opts ...Option) (*Result, error) {
	o := options{format: FormatWAV, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With().Int("track", track).Str("path", dest).Logger()

	if dest == "" {
		return nil, cdrip.ErrInvalidDestination
	}
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

	total := int(last-first) + 1
	size := int64(total) * cdrip.BytesPerSector
	res := &Result{Track: track, Path: dest, Format: o.format, First: first, Last: last}

	f, err := os.Create(dest)
	if err != nil {
		return nil, cdrip.Wrap(cdrip.ErrDestinationUnwritable, err)
	}
	w := bufio.NewWriterSize(f, 64*cdrip.BytesPerSector)

	start := time.Now()
	err = func() error {
		if o.format == FormatWAV {
			if err := wav.WriteHeader(w, uint32(size)); err != nil {
				return cdrip.Wrap(cdrip.ErrDestinationUnwritable, err)
			}
			res.Bytes += wav.HeaderSize
		}
		done := 0
		return s.ReadSectors(first, last, func(_ int32, frame []byte) error {
			n, err := w.Write(frame)
			res.Bytes += int64(n)
			if err != nil {
				return cdrip.Wrap(cdrip.ErrDestinationUnwritable, err)
			}
			done++
			if o.progress != nil {
				o.progress(done, total)
			}
			return nil
		})
	}()
	err = errors.Join(err, flushAndClose(w, f))

	if err != nil {
		log.Error().Err(err).Int64("bytes", res.Bytes).Msg("rip: extraction failed")
		if o.removePartial {
			if rerr := os.Remove(dest); rerr != nil {
				log.Warn().Err(rerr).Msg("rip: remove partial output")
			}
		}
		return nil, err
	}

	res.Elapsed = time.Since(start)
	if err := s.Seek(0); err != nil {
		log.Warn().Err(err).Msg("rip: rewind reader")
	}
	log.Info().
		Int32("first", first).
		Int32("last", last).
		Int64("bytes", res.Bytes).
		Dur("elapsed", res.Elapsed).
		Msg("rip: track extracted")
	return res, nil
}

func flushAndClose(w *bufio.Writer, f *os.File) error {
	ferr := w.Flush()
	cerr := f.Close()
	if err := errors.Join(ferr, cerr); err != nil {
		return cdrip.Wrap(cdrip.ErrDestinationUnwritable, err)
	}
	return nil
}
