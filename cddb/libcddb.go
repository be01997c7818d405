package cddb

import (
	"time"
)

// LibCDDB is the protocol backend over libcddb. Without cgo on linux it
// can still build descriptors but never connects.
type LibCDDB struct {
	Server string
	Port   int
	// HTTP tunnels the protocol through cddb.cgi at Path instead of the
	// native CDDBP port.
	HTTP         bool
	Path         string
	Timeout      time.Duration
	Email        string
	DisableCache bool
}

func (*LibCDDB) Name() string { return "libcddb" }

func (l *LibCDDB) server() string {
	if l.Server == "" {
		return DefaultServer
	}
	return l.Server
}

func (l *LibCDDB) port() int {
	switch {
	case l.Port != 0:
		return l.Port
	case l.HTTP:
		return DefaultHTTPPort
	default:
		return DefaultCDDBPort
	}
}

func (l *LibCDDB) path() string {
	if l.Path == "" {
		return DefaultPath
	}
	return l.Path
}

func (l *LibCDDB) timeoutSeconds() int {
	if l.Timeout <= 0 {
		return int(DefaultTimeout / time.Second)
	}
	return max(int(l.Timeout/time.Second), 1)
}
