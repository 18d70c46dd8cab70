package slotproxy

import (
	"context"
	"io"
	"net"

	"github.com/sagernet/sing/common/bufio"
)

// pump copies from src to dst in chunks of at most bufSize bytes, exactly
// as spec §4.2 describes: "each copies up to BUFFER_SIZE per iteration,
// writing and draining on the far side." End-of-stream or any I/O error
// ends the pump and closes dst's write side so the sibling pump observes
// EOF in turn.
//
// Writes prefer the vectorised path when the destination supports it, the
// same trade the teacher's sendLoop makes for its framed writes.
func pump(ctx context.Context, dst, src net.Conn, bufSize int) error {
	buf := make([]byte, bufSize)
	vw, vectorised := bufio.CreateVectorisedWriter(dst)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			var werr error
			if vectorised {
				_, werr = bufio.WriteVectorised(vw, [][]byte{chunk})
			} else {
				_, werr = dst.Write(chunk)
			}
			if werr != nil {
				closeWrite(dst)
				return werr
			}
		}
		if err != nil {
			closeWrite(dst)
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// closeWrite half-closes dst if it supports it, otherwise closes it
// outright. Either way the sibling pump on the other side of dst sees EOF.
func closeWrite(c net.Conn) {
	type writeCloser interface {
		CloseWrite() error
	}
	if wc, ok := c.(writeCloser); ok {
		_ = wc.CloseWrite()
		return
	}
	_ = c.Close()
}
