// Package cddb looks up disc metadata from a CDDB-style service.
//
// A [Session] is built from an open disc session and lives just long
// enough to count and harvest the candidate matches; [Fetch] does all of
// that and returns a detached [Results].
package cddb

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc"
)

type options struct {
	log zerolog.Logger
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger used by the session.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Session owns a disc descriptor and a connection to the service.
// A Session is not safe for concurrent use.
type Session struct {
	proto  Protocol
	disc   Disc
	conn   Conn
	id     uint32
	tracks int
	log    zerolog.Logger
}

// Open builds a descriptor of the disc in ds and connects to the service.
// Discs without audio tracks fail with [cdrip.ErrNotAnAudioDisc].
func Open(ds *disc.Session, proto Protocol, opts ...Option) (*Session, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if !ds.Kind().HasAudio() {
		return nil, cdrip.Wrap(cdrip.ErrNotAnAudioDisc, fmt.Errorf("disc is %s", ds.Kind()))
	}
	if proto == nil {
		return nil, cdrip.Wrap(cdrip.ErrConnectionInitFailed, errors.New("cddb: no protocol"))
	}

	acquire(proto)
	s := &Session{proto: proto, log: o.log.With().Str("protocol", proto.Name()).Logger()}
	if err := s.init(ds); err != nil {
		if cerr := s.Close(); cerr != nil {
			s.log.Warn().Err(cerr).Msg("cddb: release after failed open")
		}
		return nil, err
	}
	s.log.Debug().Str("disc_id", FormatID(s.id)).Int("tracks", s.tracks).Msg("cddb: session opened")
	return s, nil
}

func (s *Session) init(ds *disc.Session) error {
	d, err := s.proto.NewDisc(ds.LengthSeconds())
	if err != nil {
		return cdrip.Wrap(cdrip.ErrAllocationFailed, err)
	}
	s.disc = d

	for i, off := range ds.FrameOffsets() {
		if err := d.AddTrack(off); err != nil {
			return cdrip.Wrap(cdrip.ErrAllocationFailed, fmt.Errorf("track %d: %w", i+1, err))
		}
		s.tracks++
	}

	s.id, err = d.CalcDiscID()
	if err != nil {
		return cdrip.Wrap(cdrip.ErrAllocationFailed, err)
	}

	s.conn, err = s.proto.Connect()
	if err != nil {
		return cdrip.Wrap(cdrip.ErrConnectionInitFailed, err)
	}
	return nil
}

// DiscID returns the disc ID computed from the descriptor.
func (s *Session) DiscID() uint32 {
	if s == nil {
		return 0
	}
	return s.id
}

// Tracks returns the number of tracks in the descriptor.
func (s *Session) Tracks() int {
	if s == nil {
		return -1
	}
	return s.tracks
}

// MatchCount queries the service and returns the number of candidate
// matches. No match is not an error. It returns -1 with
// [cdrip.ErrSessionClosed] if the session is closed.
func (s *Session) MatchCount() (int, error) {
	if s == nil || s.conn == nil {
		return -1, cdrip.ErrSessionClosed
	}
	n, err := s.conn.Query(s.disc)
	if err != nil {
		return -1, cdrip.Wrap(cdrip.ErrQueryFailed, err)
	}
	if n < 0 {
		return -1, cdrip.Wrap(cdrip.ErrQueryFailed, fmt.Errorf("service reported %d matches", n))
	}
	s.log.Debug().Str("disc_id", FormatID(s.id)).Int("matches", n).Msg("cddb: query")
	return n, nil
}

// Close releases the connection and the descriptor. Closing the last open
// session of a protocol also releases its process-wide state.
func (s *Session) Close() error {
	if s == nil || s.proto == nil {
		return nil
	}
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.disc != nil {
		errs = append(errs, s.disc.Close())
		s.disc = nil
	}
	release(s.proto)
	s.proto = nil
	return errors.Join(errs...)
}

// Fetch looks up the disc in ds and harvests every candidate match.
// A disc the service doesn't know yields empty results, not an error.
// The session used for the lookup is always closed before returning.
func Fetch(ds *disc.Session, proto Protocol, opts ...Option) (*Results, error) {
	s, err := Open(ds, proto, opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.log.Warn().Err(err).Msg("cddb: close session")
		}
	}()

	n, err := s.MatchCount()
	if err != nil {
		return nil, err
	}
	res := &Results{DiscID: FormatID(s.id)}
	if n == 0 {
		return res, nil
	}

	res.records = make([]*Record, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && !s.conn.Next(s.disc) {
			s.log.Warn().Int("matches", n).Int("read", i).Msg("cddb: fewer candidates than matches")
			break
		}
		rec, err := s.conn.Read(s.disc)
		if err == nil && (rec == nil || rec.NumTracks() > cdrip.MaxTracks) {
			err = cdrip.Wrap(cdrip.ErrAllocationFailed, fmt.Errorf("candidate %d has %d tracks", i+1, rec.NumTracks()))
		}
		if err != nil {
			res.Release()
			if cdrip.KindOf(err) == 0 {
				err = cdrip.Wrap(cdrip.ErrQueryFailed, err)
			}
			return nil, err
		}
		res.records = append(res.records, rec)
	}
	return res, nil
}
