// Package dialer opens the upstream connections fwdproxy relays to.
//
// Dialers implement a small interface (DialContext). The default dials the
// request target directly; the others reach it through another proxy
// (HTTP CONNECT, SOCKS5, or an SSH direct-tcpip channel) so fwdproxy can be
// chained behind an existing egress point.
package dialer
