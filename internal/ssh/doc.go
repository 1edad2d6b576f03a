// Package ssh holds the SSH plumbing behind the ssh:// upstream: loading
// client credentials, checking host keys against known_hosts, and running
// the client handshake over an already dialed connection.
package ssh
