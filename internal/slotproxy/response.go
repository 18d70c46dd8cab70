package slotproxy

import "net"

// serviceUnavailable is the byte-exact 503 response from spec §6, emitted
// on every rejection, eviction and abort path.
const serviceUnavailable = "HTTP/1.1 503 Service Unavailable\r\n" +
	"Connection: close\r\n" +
	"Content-Length: 0\r\n" +
	"\r\n"

// writeServiceUnavailable is best-effort: a secondary failure here must
// never prevent the caller from tearing down the connection.
func writeServiceUnavailable(c net.Conn) {
	if c == nil {
		return
	}
	_, _ = c.Write([]byte(serviceUnavailable))
}
