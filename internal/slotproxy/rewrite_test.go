package slotproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteHeaders_AppendsConnectionCloseWhenAbsent(t *testing.T) {
	in := "GET / HTTP/1.1\r\nHost: x\r\n\r\nbody"
	out := RewriteHeaders([]byte(in))
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\nbody", string(out))
}

func TestRewriteHeaders_ReplacesExistingConnection(t *testing.T) {
	in := "GET / HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n"
	out := RewriteHeaders([]byte(in))
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n", string(out))
}

func TestRewriteHeaders_DropsProxyConnectionCaseInsensitive(t *testing.T) {
	in := "GET / HTTP/1.1\r\nHost: x\r\nPROXY-CONNECTION: keep-alive\r\n\r\n"
	out := RewriteHeaders([]byte(in))
	assert.Equal(t, "GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n", string(out))
}

func TestRewriteHeaders_PassthroughWhenNoTerminator(t *testing.T) {
	in := "GET / HTTP/1.1\r\nHost: x\r\n"
	out := RewriteHeaders([]byte(in))
	assert.Equal(t, in, string(out))
}

func TestRewriteHeaders_PreservesBodyExactly(t *testing.T) {
	in := "POST / HTTP/1.1\r\nHost: x\r\n\r\n" + "binary\x00body\xffhere"
	out := RewriteHeaders([]byte(in))
	idx := len(out) - len("binary\x00body\xffhere")
	assert.Equal(t, "binary\x00body\xffhere", string(out[idx:]))
}

func TestRewriteHeaders_Idempotent(t *testing.T) {
	in := "GET / HTTP/1.1\r\nHost: x\r\nProxy-Connection: keep-alive\r\nConnection: keep-alive\r\n\r\nbody"
	once := RewriteHeaders([]byte(in))
	twice := RewriteHeaders(once)
	assert.Equal(t, once, twice)
}
