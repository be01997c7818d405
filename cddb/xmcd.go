package cddb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// entry is a parsed xmcd database entry.
type entry struct {
	offsets []int32
	length  int
	fields  map[string]string
}

// readEntry reads an xmcd entry from r.
func readEntry(r io.Reader) (*entry, error) {
	return parseEntry(bufio.NewScanner(r))
}

// parseEntry reads an xmcd entry up to the terminating "." line or EOF.
// Repeated keywords are concatenated.
func parseEntry(sc *bufio.Scanner) (*entry, error) {
	e := &entry{fields: make(map[string]string)}
	inOffsets := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "." {
			break
		}
		if c, ok := strings.CutPrefix(line, "#"); ok {
			c = strings.TrimSpace(c)
			switch {
			case strings.HasPrefix(c, "Track frame offsets"):
				inOffsets = true
			case strings.HasPrefix(c, "Disc length:"):
				inOffsets = false
				f := strings.Fields(strings.TrimPrefix(c, "Disc length:"))
				if len(f) > 0 {
					e.length, _ = strconv.Atoi(f[0])
				}
			case inOffsets:
				off, err := strconv.ParseInt(c, 10, 32)
				if err != nil {
					inOffsets = c == ""
					continue
				}
				e.offsets = append(e.offsets, int32(off))
			}
			continue
		}
		inOffsets = false
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		e.fields[key] += value
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cddb: read entry: %w", err)
	}
	return e, nil
}

func (e *entry) get(key string) (string, bool) {
	v, ok := e.fields[key]
	if !ok {
		return "", false
	}
	v = unescape(v)
	return v, strings.TrimSpace(v) != ""
}

// unescape expands the \n, \t and \\ escapes xmcd uses in field values.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// splitTitle splits "artist / title".
func splitTitle(s string) (artist, title string, ok bool) {
	artist, title, ok = strings.Cut(s, " / ")
	if !ok {
		return "", strings.TrimSpace(s), false
	}
	return strings.TrimSpace(artist), strings.TrimSpace(title), true
}

// record converts the entry into a Record. Offsets and length missing
// from the entry are taken from the descriptor d.
func (e *entry) record(category string, d *descriptor) *Record {
	offsets, length := e.offsets, e.length
	if len(offsets) == 0 && d != nil {
		offsets = d.offsets
	}
	if length == 0 && d != nil {
		length = d.length
	}

	n := len(offsets)
	for i := n; ; i++ {
		if _, ok := e.fields["TTITLE"+strconv.Itoa(i)]; !ok {
			break
		}
		n = i + 1
	}

	rec := NewRecord(n)
	if category != "" {
		rec.SetCategory(category)
	}
	if v, ok := e.get("DTITLE"); ok {
		artist, title, split := splitTitle(v)
		if !split {
			// without a separator the artist and title are the same
			artist = title
		}
		rec.SetArtist(artist)
		rec.SetTitle(title)
	}
	if v, ok := e.get("DGENRE"); ok {
		rec.SetGenre(v)
	}
	if v, ok := e.get("EXTD"); ok {
		rec.SetExtData(v)
	}
	if v, ok := e.get("DYEAR"); ok {
		if y, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			rec.SetYear(y)
		}
	}

	discArtist, hasArtist := rec.Artist()
	for i := 1; i <= n; i++ {
		if v, ok := e.get("TTITLE" + strconv.Itoa(i-1)); ok {
			artist, title, split := splitTitle(v)
			_ = rec.SetTrackTitle(i, title)
			if split {
				_ = rec.SetTrackArtist(i, artist)
			} else if hasArtist {
				_ = rec.SetTrackArtist(i, discArtist)
			}
		}
	}
	if len(offsets) == n {
		for i, l := range TrackLengths(offsets, length) {
			_ = rec.SetTrackLength(i+1, l)
		}
	}
	return rec
}
