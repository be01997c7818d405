package cddb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const (
	DefaultServer   = "gnudb.gnudb.org"
	DefaultHTTPPort = 80
	DefaultCDDBPort = 8880
	DefaultPath     = "/~cddb/cddb.cgi"
	DefaultProto    = 6
	DefaultTimeout  = 10 * time.Second

	clientName    = "cdrip"
	clientVersion = "0.1"
)

// HTTP speaks the CDDB protocol over HTTP (cddb.cgi) in pure Go.
type HTTP struct {
	Server  string
	Port    int
	Path    string
	Proto   int
	Timeout time.Duration
	User    string
	Host    string
	// Client overrides the HTTP client, mostly for tests.
	Client *http.Client
}

// StatusError is a reply the service answered with an unexpected code.
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cddb: server replied %d %s", e.Code, e.Text)
}

func (h *HTTP) Name() string { return "http" }

func (h *HTTP) NewDisc(lengthSeconds int) (Disc, error) {
	return newDescriptor(lengthSeconds), nil
}

func (h *HTTP) Connect() (Conn, error) {
	u, err := h.endpoint()
	if err != nil {
		return nil, err
	}
	client := h.Client
	if client == nil {
		timeout := h.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &httpConn{h: h, url: u, client: client}, nil
}

// Shutdown drops idle connections of the client.
func (h *HTTP) Shutdown() {
	if h.Client != nil {
		h.Client.CloseIdleConnections()
	}
}

func (h *HTTP) endpoint() (*url.URL, error) {
	server := h.Server
	if server == "" {
		server = DefaultServer
	}
	port := h.Port
	if port == 0 {
		port = DefaultHTTPPort
	}
	path := h.Path
	if path == "" {
		path = DefaultPath
	}
	if strings.Contains(server, "://") {
		u, err := url.Parse(server)
		if err != nil {
			return nil, fmt.Errorf("cddb: server %q: %w", server, err)
		}
		if u.Path == "" {
			u.Path = path
		}
		return u, nil
	}
	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(server, strconv.Itoa(port)),
		Path:   path,
	}, nil
}

func (h *HTTP) proto() int {
	if h.Proto <= 0 {
		return DefaultProto
	}
	return h.Proto
}

func (h *HTTP) hello() string {
	user, host := h.User, h.Host
	if user == "" {
		user = "anonymous"
	}
	if host == "" {
		host = "localhost"
	}
	return strings.Join([]string{user, host, clientName, clientVersion}, " ")
}

type match struct {
	category string
	discID   string
	title    string
}

type httpConn struct {
	h       *HTTP
	url     *url.URL
	client  *http.Client
	matches []match
	cur     int
}

func (c *httpConn) Query(d Disc) (int, error) {
	desc, ok := d.(*descriptor)
	if !ok {
		return -1, fmt.Errorf("cddb: foreign disc descriptor %T", d)
	}
	if desc.closed {
		return -1, errDiscClosed
	}
	args := []string{"cddb", "query", FormatID(desc.id), strconv.Itoa(len(desc.offsets))}
	for _, off := range desc.offsets {
		args = append(args, strconv.Itoa(int(off)))
	}
	args = append(args, strconv.Itoa(desc.length))

	c.matches, c.cur = nil, 0
	err := c.command(strings.Join(args, " "), func(code int, text string, body *bufio.Scanner) error {
		switch code {
		case 200:
			m, err := parseMatch(text)
			if err != nil {
				return err
			}
			c.matches = append(c.matches, m)
		case 202:
		case 210, 211:
			for body.Scan() {
				line := strings.TrimRight(body.Text(), "\r")
				if line == "." {
					break
				}
				m, err := parseMatch(line)
				if err != nil {
					return err
				}
				c.matches = append(c.matches, m)
			}
			return body.Err()
		default:
			return &StatusError{Code: code, Text: text}
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return len(c.matches), nil
}

func (c *httpConn) Read(d Disc) (*Record, error) {
	desc, _ := d.(*descriptor)
	if c.cur >= len(c.matches) {
		return nil, errors.New("cddb: no current match")
	}
	m := c.matches[c.cur]

	var rec *Record
	err := c.command("cddb read "+m.category+" "+m.discID, func(code int, text string, body *bufio.Scanner) error {
		if code != 210 {
			return &StatusError{Code: code, Text: text}
		}
		e, err := parseEntry(body)
		if err != nil {
			return err
		}
		rec = e.record(m.category, desc)
		return nil
	})
	return rec, err
}

func (c *httpConn) Next(Disc) bool {
	if c.cur+1 >= len(c.matches) {
		return false
	}
	c.cur++
	return true
}

func (c *httpConn) Close() error {
	c.matches = nil
	return nil
}

// command sends cmd and hands the status line and the rest of the reply
// to fn.
func (c *httpConn) command(cmd string, fn func(code int, text string, body *bufio.Scanner) error) error {
	q := url.Values{}
	q.Set("cmd", cmd)
	q.Set("hello", c.h.hello())
	q.Set("proto", strconv.Itoa(c.h.proto()))
	u := *c.url
	u.RawQuery = q.Encode()

	resp, err := c.client.Get(u.String())
	if err != nil {
		return fmt.Errorf("cddb: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cddb: http status %s", resp.Status)
	}

	var body io.Reader = resp.Body
	if c.h.proto() < 6 {
		// replies below level 6 are ISO-8859-1
		body = charmap.ISO8859_1.NewDecoder().Reader(body)
	}
	sc := bufio.NewScanner(body)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("cddb: read reply: %w", err)
		}
		return errors.New("cddb: empty reply")
	}
	code, text, err := parseStatus(sc.Text())
	if err != nil {
		return err
	}
	return fn(code, text, sc)
}

func parseStatus(line string) (int, string, error) {
	line = strings.TrimRight(line, "\r")
	codeStr, text, _ := strings.Cut(line, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil || len(codeStr) != 3 {
		return 0, "", fmt.Errorf("cddb: malformed status line %q", line)
	}
	return code, text, nil
}

// parseMatch parses "category discid artist / title".
func parseMatch(line string) (match, error) {
	f := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(f) < 2 {
		return match{}, fmt.Errorf("cddb: malformed match %q", line)
	}
	m := match{category: f[0], discID: f[1]}
	if len(f) == 3 {
		m.title = f[2]
	}
	return m, nil
}
