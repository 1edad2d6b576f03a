package dialer

import (
	"net"
	"time"
)

type Config struct {
	// DialTimeout bounds DNS lookup plus TCP connect. Zero means no limit.
	DialTimeout time.Duration
	// NegotiationTimeout bounds the handshake with an upstream proxy. Zero
	// means no limit.
	NegotiationTimeout time.Duration

	KeepAlive net.KeepAliveConfig

	SSHKeyPath        string
	SSHKnownHostsPath string
}
