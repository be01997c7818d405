package cddb

import (
	"fmt"

	"github.com/rabidaudio/cdrip"
)

// Record is one candidate match for a disc. Text fields the service left
// unset stay absent rather than empty. Tracks are numbered from 1.
type Record struct {
	category *string
	artist   *string
	title    *string
	genre    *string
	extData  *string
	year     int
	tracks   []track
}

type track struct {
	title  *string
	artist *string
	length int
}

// NewRecord returns an empty record with n tracks and no year.
func NewRecord(n int) *Record {
	if n < 0 {
		n = 0
	}
	return &Record{year: -1, tracks: make([]track, n)}
}

func own(s string) *string { return &s }

func deref(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	return *p, true
}

func (r *Record) Category() (string, bool) {
	if r == nil {
		return "", false
	}
	return deref(r.category)
}

func (r *Record) Artist() (string, bool) {
	if r == nil {
		return "", false
	}
	return deref(r.artist)
}

func (r *Record) Title() (string, bool) {
	if r == nil {
		return "", false
	}
	return deref(r.title)
}

func (r *Record) Genre() (string, bool) {
	if r == nil {
		return "", false
	}
	return deref(r.genre)
}

// ExtData returns the extended disc text (EXTD).
func (r *Record) ExtData() (string, bool) {
	if r == nil {
		return "", false
	}
	return deref(r.extData)
}

// Year returns the release year, or -1 if it is unknown.
func (r *Record) Year() int {
	if r == nil {
		return -1
	}
	return r.year
}

func (r *Record) SetCategory(s string) {
	if r != nil {
		r.category = own(s)
	}
}

func (r *Record) SetArtist(s string) {
	if r != nil {
		r.artist = own(s)
	}
}

func (r *Record) SetTitle(s string) {
	if r != nil {
		r.title = own(s)
	}
}

func (r *Record) SetGenre(s string) {
	if r != nil {
		r.genre = own(s)
	}
}

func (r *Record) SetExtData(s string) {
	if r != nil {
		r.extData = own(s)
	}
}

// SetYear sets the release year. Anything below 1 marks it unknown.
func (r *Record) SetYear(year int) {
	if r == nil {
		return
	}
	if year < 1 {
		year = -1
	}
	r.year = year
}

// NumTracks returns the number of tracks in the record.
func (r *Record) NumTracks() int {
	if r == nil {
		return 0
	}
	return len(r.tracks)
}

func (r *Record) track(n int) *track {
	if r == nil || n < 1 || n > len(r.tracks) {
		return nil
	}
	return &r.tracks[n-1]
}

func (r *Record) TrackTitle(n int) (string, bool) {
	if t := r.track(n); t != nil {
		return deref(t.title)
	}
	return "", false
}

func (r *Record) TrackArtist(n int) (string, bool) {
	if t := r.track(n); t != nil {
		return deref(t.artist)
	}
	return "", false
}

// TrackLength returns the length of track n in seconds, or -1.
func (r *Record) TrackLength(n int) int {
	if t := r.track(n); t != nil {
		return t.length
	}
	return -1
}

func invalidTrack(r *Record, n int) error {
	return cdrip.Wrap(cdrip.ErrInvalidTrackNumber, fmt.Errorf("track %d of %d", n, r.NumTracks()))
}

func (r *Record) SetTrackTitle(n int, s string) error {
	t := r.track(n)
	if t == nil {
		return invalidTrack(r, n)
	}
	t.title = own(s)
	return nil
}

func (r *Record) SetTrackArtist(n int, s string) error {
	t := r.track(n)
	if t == nil {
		return invalidTrack(r, n)
	}
	t.artist = own(s)
	return nil
}

func (r *Record) SetTrackLength(n int, seconds int) error {
	t := r.track(n)
	if t == nil {
		return invalidTrack(r, n)
	}
	t.length = seconds
	return nil
}

// Results is the set of candidate records harvested by [Fetch]. It holds
// its own copy of everything and outlives the session that produced it.
type Results struct {
	DiscID  string
	records []*Record
}

// NewResults builds a result set from already harvested records.
func NewResults(discID string, records ...*Record) *Results {
	return &Results{DiscID: discID, records: records}
}

// Len returns the number of records.
func (rs *Results) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.records)
}

// Record returns the i-th record counting from 0, or nil.
func (rs *Results) Record(i int) *Record {
	if rs == nil || i < 0 || i >= len(rs.records) {
		return nil
	}
	return rs.records[i]
}

// Records returns the records in the order the service reported them.
func (rs *Results) Records() []*Record {
	if rs == nil {
		return nil
	}
	return append([]*Record(nil), rs.records...)
}

// Release drops every record. It is safe to call more than once.
func (rs *Results) Release() {
	if rs == nil {
		return
	}
	for i := range rs.records {
		rs.records[i] = nil
	}
	rs.records = nil
}
