package proxy

import (
	"net"

	"github.com/die-net/fwdproxy/internal/dialer"
)

type Config struct {
	KeepAlive net.KeepAliveConfig

	Dialer dialer.Dialer

	// Verbose enables per-connection logging.
	Verbose bool
}
