package slotproxy

import (
	"strings"
)

const crlfcrlf = "\r\n\r\n"

// RewriteHeaders implements spec §4.2's header rewrite: split at the first
// CRLFCRLF, drop any Proxy-Connection line, force Connection: close, and
// reassemble. Any malformed input (no terminator found) is passed through
// unchanged — in practice the handler will already have aborted before
// reaching here if the terminator never showed up.
//
// Idempotent: applying it twice yields the same bytes as applying it once
// (spec invariant 7). Preserves the body byte-for-byte (invariant 8).
func RewriteHeaders(raw []byte) []byte {
	s := string(raw)
	idx := strings.Index(s, crlfcrlf)
	if idx < 0 {
		return raw
	}
	head := s[:idx]
	body := s[idx+len(crlfcrlf):]

	lines := strings.Split(head, "\r\n")
	out := make([]string, 0, len(lines)+1)
	sawConnection := false
	for _, line := range lines {
		if hasHeaderPrefix(line, "proxy-connection:") {
			continue
		}
		if hasHeaderPrefix(line, "connection:") {
			if sawConnection {
				continue
			}
			sawConnection = true
			out = append(out, "Connection: close")
			continue
		}
		out = append(out, line)
	}
	if !sawConnection {
		out = append(out, "Connection: close")
	}

	var b strings.Builder
	b.WriteString(strings.Join(out, "\r\n"))
	b.WriteString(crlfcrlf)
	b.WriteString(body)
	return []byte(b.String())
}

func hasHeaderPrefix(line, prefix string) bool {
	if len(line) < len(prefix) {
		return false
	}
	return strings.EqualFold(line[:len(prefix)], prefix)
}
