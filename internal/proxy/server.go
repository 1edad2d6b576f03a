package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"

	"github.com/die-net/fwdproxy/internal/dialer"
	"github.com/die-net/fwdproxy/internal/obs"
)

// requestBufferSize bounds the single read a request line has to fit in.
const requestBufferSize = 4096

// connectEstablished is written to CONNECT clients once the upstream has
// been dialed.
const connectEstablished = "HTTP/1.1 200 Connection established\r\n\r\n"

// Server is a forward proxy serving raw client connections.
//
// Each accepted connection is handled on its own goroutine. A failure on
// one connection closes that connection and nothing else.
type Server struct {
	ctx     context.Context
	dialer  dialer.Dialer
	verbose bool
}

// NewServer constructs a Server that dials upstreams with cfg.Dialer.
//
// Canceling ctx doesn't interrupt connections that were already accepted;
// stopping the server is done by closing the listener passed to Serve.
func NewServer(ctx context.Context, cfg Config) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Server{ctx: context.WithoutCancel(ctx), dialer: cfg.Dialer, verbose: cfg.Verbose}
}

// Serve accepts connections on ln until Accept fails, typically because ln
// was closed. In-flight connections keep running after Serve returns.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go func() {
			if err := s.handle(c); err != nil && s.verbose {
				log.Printf("proxy: %s: %v", c.RemoteAddr(), err)
			}
		}()
	}
}

func (s *Server) handle(conn net.Conn) error {
	obs.ActiveConnections.Inc()
	defer obs.ActiveConnections.Dec()

	client := &onceCloseConn{Conn: conn}
	defer client.Close()

	buf := make([]byte, requestBufferSize)
	n, err := client.Read(buf)
	if n == 0 {
		obs.AbortsTotal.WithLabelValues(obs.AbortRead).Inc()
		if err == nil || errors.Is(err, io.EOF) {
			return ErrEmptyRequest
		}
		return fmt.Errorf("read request: %w", err)
	}
	req := buf[:n]

	rl, err := ParseRequestLine(req)
	if err != nil {
		obs.AbortsTotal.WithLabelValues(obs.AbortParse).Inc()
		return err
	}
	target, err := rl.Upstream()
	if err != nil {
		obs.AbortsTotal.WithLabelValues(obs.AbortParse).Inc()
		return err
	}

	upstream, err := s.dialer.DialContext(s.ctx, "tcp", target.String())
	if err != nil {
		obs.AbortsTotal.WithLabelValues(obs.AbortDial).Inc()
		return err
	}

	kind := obs.KindForward
	if rl.IsConnect() {
		kind = obs.KindConnect
		if _, err := io.WriteString(client, connectEstablished); err != nil {
			_ = upstream.Close()
			obs.AbortsTotal.WithLabelValues(obs.AbortAck).Inc()
			return fmt.Errorf("write connect reply: %w", err)
		}
	} else if _, err := upstream.Write(req); err != nil {
		_ = upstream.Close()
		obs.AbortsTotal.WithLabelValues(obs.AbortForward).Inc()
		return fmt.Errorf("forward request to %s: %w", target, err)
	}

	obs.ConnectionsTotal.WithLabelValues(kind).Inc()

	stats := Relay(client, upstream)

	obs.RelayedBytesTotal.WithLabelValues(obs.DirUpstream).Add(float64(stats.Upstream))
	obs.RelayedBytesTotal.WithLabelValues(obs.DirDownstream).Add(float64(stats.Downstream))

	if s.verbose {
		log.Printf("proxy: %s: %s %s done, %d bytes up, %d bytes down", conn.RemoteAddr(), rl.Method, target, stats.Upstream, stats.Downstream)
	}
	return nil
}
