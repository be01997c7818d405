package cddb

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rabidaudio/cdrip"
	"github.com/rabidaudio/cdrip/disc/disctest"
)

type cddbServer struct {
	mu       sync.Mutex
	t        *testing.T
	replies  map[string]string
	commands []string
	proto    string
}

func (s *cddbServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmd := q.Get("cmd")
	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	s.proto = q.Get("proto")
	s.mu.Unlock()
	assert.Equal(s.t, "anonymous localhost cdrip "+clientVersion, q.Get("hello"))

	for prefix, reply := range s.replies {
		if strings.HasPrefix(cmd, prefix) {
			fmt.Fprint(w, reply)
			return
		}
	}
	fmt.Fprint(w, "500 Unrecognized command\r\n")
}

func newServer(t *testing.T, replies map[string]string) (*cddbServer, *HTTP) {
	s := &cddbServer{t: t, replies: replies}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, &HTTP{Server: srv.URL, Client: srv.Client()}
}

func TestHTTPFetch(t *testing.T) {
	ds := openDisc(t, disctest.AudioDisc(3, 1000))
	id := FormatID(DiscID(ds.FrameOffsets(), ds.LengthSeconds()))

	srv, h := newServer(t, map[string]string{
		"cddb query": "211 Found inexact matches, list follows (until terminating `.')\r\n" +
			"rock " + id + " Stereolab / Dots and Loops\r\n" +
			"misc " + id + " Stereolab / Dots & Loops\r\n" +
			".\r\n",
		"cddb read rock": "210 rock " + id + " CD database entry follows (until terminating `.')\r\n" +
			strings.ReplaceAll(dotsAndLoops, "\n", "\r\n"),
		"cddb read misc": "210 misc " + id + " CD database entry follows\r\n" +
			"DTITLE=Stereolab / Dots & Loops\r\nTTITLE0=Brakhage\r\n.\r\n",
	})

	res, err := Fetch(ds, h)
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())

	require.NotEmpty(t, srv.commands)
	assert.Equal(t, "cddb query "+id+" 3 150 1150 2150 42", srv.commands[0])
	assert.Equal(t, "cddb read misc "+id, srv.commands[2])
	assert.Equal(t, "6", srv.proto)

	v, _ := res.Record(0).Title()
	assert.Equal(t, "Dots and Loops", v)
	assert.Equal(t, 1997, res.Record(0).Year())
	v, _ = res.Record(1).Category()
	assert.Equal(t, "misc", v)
	v, _ = res.Record(1).TrackTitle(1)
	assert.Equal(t, "Brakhage", v)
	assert.Equal(t, 13, res.Record(1).TrackLength(1))
	assert.Equal(t, 0, Active(h))
}

func TestHTTPExactMatch(t *testing.T) {
	ds := openDisc(t, disctest.AudioDisc(3, 1000))
	srv, h := newServer(t, map[string]string{
		"cddb query": "200 jazz 12345678 Someone / Something\r\n",
		"cddb read":  "210 jazz 12345678\r\nDTITLE=Someone / Something\r\n.\r\n",
	})

	res, err := Fetch(ds, h)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.Equal(t, "cddb read jazz 12345678", srv.commands[1])
}

func TestHTTPNoMatch(t *testing.T) {
	ds := openDisc(t, disctest.AudioDisc(3, 1000))
	srv, h := newServer(t, map[string]string{
		"cddb query": "202 No match found\r\n",
	})

	res, err := Fetch(ds, h)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Len(t, srv.commands, 1)
}

func TestHTTPErrors(t *testing.T) {
	ds := openDisc(t, disctest.AudioDisc(3, 1000))

	_, h := newServer(t, map[string]string{
		"cddb query": "403 Database entry is corrupt\r\n",
	})
	_, err := Fetch(ds, h)
	assert.ErrorIs(t, err, cdrip.ErrQueryFailed)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 403, se.Code)

	_, h = newServer(t, map[string]string{
		"cddb query": "200 rock 12345678 A / B\r\n",
		"cddb read":  "401 Specified CDDB entry not found\r\n",
	})
	_, err = Fetch(ds, h)
	assert.ErrorIs(t, err, cdrip.ErrQueryFailed)

	_, h = newServer(t, map[string]string{"cddb query": "garbage\r\n"})
	_, err = Fetch(ds, h)
	assert.ErrorIs(t, err, cdrip.ErrQueryFailed)
}

func TestHTTPLatin1(t *testing.T) {
	ds := openDisc(t, disctest.AudioDisc(1, 1000))
	srv, h := newServer(t, map[string]string{
		"cddb query": "200 misc 12345678 x\r\n",
		"cddb read":  "210 misc 12345678\r\nDTITLE=Bj\xf6rk / Homogenic\r\n.\r\n",
	})
	h.Proto = 5

	res, err := Fetch(ds, h)
	require.NoError(t, err)
	assert.Equal(t, "5", srv.proto)
	v, _ := res.Record(0).Artist()
	assert.Equal(t, "Björk", v)
}

func TestHTTPEndpoint(t *testing.T) {
	u, err := (&HTTP{}).endpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://gnudb.gnudb.org:80/~cddb/cddb.cgi", u.String())

	u, err = (&HTTP{Server: "freedb.example", Port: 8080, Path: "/cddb"}).endpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://freedb.example:8080/cddb", u.String())
}
