// Package cdrip rips audio tracks from a CD-DA disc in the cd drive and
// looks up disc metadata from a CDDB-compatible metadata service.
//
// The subpackages do the work: [github.com/rabidaudio/cdrip/disc] owns the
// drive session, [github.com/rabidaudio/cdrip/cddb] queries metadata,
// [github.com/rabidaudio/cdrip/rip] extracts tracks into WAV files written
// by [github.com/rabidaudio/cdrip/wav]. This package holds the error kinds
// and CD-DA constants they share.
package cdrip

import (
	"errors"
	"fmt"
)

// Error is the kind of failure reported by the ripper packages.
// Errors returned by this module wrap one of these kinds, so callers
// can match them with [errors.Is].
type Error int

const (
	ErrDeviceUnavailable Error = iota + 1
	ErrNoDiscPresent
	ErrReaderInitFailed
	ErrOffsetComputationFailed
	ErrLengthComputationFailed
	ErrNotAnAudioDisc
	ErrAllocationFailed
	ErrConnectionInitFailed
	ErrInvalidDestination
	ErrNotAudioTrack
	ErrSectorRangeUnavailable
	ErrDestinationUnwritable
	ErrReadError
	ErrInvalidStream

	ErrQueryFailed
	ErrInvalidTrackNumber
	ErrSessionClosed
)

func (e Error) Error() string {
	return fmt.Sprintf("cdrip: %v", e.name())
}

func (e Error) name() string {
	switch e {
	case ErrDeviceUnavailable:
		return "no cd drive or driver available"
	case ErrNoDiscPresent:
		return "no disc present in drive"
	case ErrReaderInitFailed:
		return "unable to attach paranoia reader"
	case ErrOffsetComputationFailed:
		return "unable to compute track frame offset"
	case ErrLengthComputationFailed:
		return "unable to compute disc length from lead-out"
	case ErrNotAnAudioDisc:
		return "disc has no audio tracks"
	case ErrAllocationFailed:
		return "unable to allocate resource"
	case ErrConnectionInitFailed:
		return "unable to open metadata connection"
	case ErrInvalidDestination:
		return "no destination specified"
	case ErrNotAudioTrack:
		return "track is not an audio track"
	case ErrSectorRangeUnavailable:
		return "unable to get track sector range"
	case ErrDestinationUnwritable:
		return "unable to open destination for writing"
	case ErrReadError:
		return "read error"
	case ErrInvalidStream:
		return "stream not open for writing"
	case ErrQueryFailed:
		return "metadata query failed"
	case ErrInvalidTrackNumber:
		return "invalid track number"
	case ErrSessionClosed:
		return "session closed"
	default:
		return fmt.Sprintf("unknown error kind: %v", int(e))
	}
}

// KindOf returns the first Error kind found in err's chain, or 0 if none.
func KindOf(err error) Error {
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return 0
}

// Wrap annotates cause with kind. If cause is nil, kind is returned as is.
func Wrap(kind Error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
