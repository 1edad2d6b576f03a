// Package obs holds the process-wide Prometheus metrics for fwdproxy.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection kinds.
const (
	KindConnect = "connect"
	KindForward = "forward"
)

// Abort reasons.
const (
	AbortRead    = "read"
	AbortParse   = "parse"
	AbortDial    = "dial"
	AbortAck     = "ack"
	AbortForward = "forward"
)

// Relay directions.
const (
	DirUpstream   = "upstream"
	DirDownstream = "downstream"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{Name: "fwdproxy_active_connections", Help: "Client connections currently being handled"})
	ConnectionsTotal  = promauto.NewCounterVec(prometheus.CounterOpts{Name: "fwdproxy_connections_total", Help: "Client connections that reached the relay, by kind"}, []string{"kind"})
	AbortsTotal       = promauto.NewCounterVec(prometheus.CounterOpts{Name: "fwdproxy_aborts_total", Help: "Client connections closed before relaying, by reason"}, []string{"reason"})
	RelayedBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "fwdproxy_relayed_bytes_total", Help: "Bytes relayed, by direction"}, []string{"direction"})
)
