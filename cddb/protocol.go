package cddb

import (
	"sync"
)

// Protocol is a client for a CDDB-style metadata service.
//
// Implementations may keep process-wide state, which is released with
// Shutdown once the last session using the protocol has closed.
type Protocol interface {
	// Name identifies the process-wide state the protocol shares.
	Name() string
	// NewDisc creates an empty disc descriptor of the given length.
	NewDisc(lengthSeconds int) (Disc, error)
	// Connect opens a connection handle to the service.
	Connect() (Conn, error)
	Shutdown()
}

// Disc is a disc descriptor: declared length, track offsets and disc ID.
type Disc interface {
	// AddTrack appends a track starting at the absolute frame offset.
	AddTrack(frameOffset int32) error
	CalcDiscID() (uint32, error)
	Close() error
}

// Conn is an open connection to the service.
type Conn interface {
	// Query looks the disc up by its ID and returns the number of
	// candidate matches, positioning the connection on the first one.
	Query(d Disc) (int, error)
	// Read fetches the full entry for the current candidate.
	Read(d Disc) (*Record, error)
	// Next advances to the next candidate. It reports false once they
	// are exhausted.
	Next(d Disc) bool
	Close() error
}

var registry = struct {
	sync.Mutex
	refs map[string]int
}{refs: make(map[string]int)}

func acquire(p Protocol) {
	registry.Lock()
	defer registry.Unlock()
	registry.refs[p.Name()]++
}

func release(p Protocol) {
	registry.Lock()
	defer registry.Unlock()
	name := p.Name()
	registry.refs[name]--
	if registry.refs[name] > 0 {
		return
	}
	delete(registry.refs, name)
	p.Shutdown()
}

// Active returns the number of open sessions sharing the state of p.
func Active(p Protocol) int {
	registry.Lock()
	defer registry.Unlock()
	return registry.refs[p.Name()]
}
