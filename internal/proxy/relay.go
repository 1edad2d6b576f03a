package proxy

import (
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// relayBufferSize is the most a single read in either relay direction asks
// for.
const relayBufferSize = 8192

// RelayStats reports how many bytes a Relay moved in each direction.
type RelayStats struct {
	// Upstream is the number of bytes copied from the client to the
	// upstream.
	Upstream int64
	// Downstream is the number of bytes copied from the upstream to the
	// client.
	Downstream int64
}

// Relay copies bytes between client and upstream in both directions until
// each direction has independently hit end of stream or an error, then
// closes both connections.
//
// A direction that stops does not stop the other one; a half-closed peer can
// leave the other direction blocked in Read until its own side fails or
// closes. Errors are not reported, only the byte counts.
func Relay(client, upstream net.Conn) RelayStats {
	var stats RelayStats

	var g errgroup.Group
	g.Go(func() error {
		stats.Upstream = pipe(upstream, client)
		return nil
	})
	g.Go(func() error {
		stats.Downstream = pipe(client, upstream)
		return nil
	})
	_ = g.Wait()

	_ = client.Close()
	_ = upstream.Close()

	return stats
}

// pipe forwards src to dst in order, one read at a time, and returns the
// number of bytes written to dst.
func pipe(dst, src net.Conn) int64 {
	buf := make([]byte, relayBufferSize)

	var written int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			m, werr := dst.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written
			}
		}
		if rerr != nil || n == 0 {
			return written
		}
	}
}

// onceCloseConn makes Close idempotent, so the handler's deferred close and
// the relay's close end up as a single close of the socket.
type onceCloseConn struct {
	net.Conn

	once sync.Once
	err  error
}

func (c *onceCloseConn) Close() error {
	c.once.Do(func() {
		c.err = c.Conn.Close()
	})
	return c.err
}
