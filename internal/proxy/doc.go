// Package proxy implements the fwdproxy listener side: a raw-socket HTTP
// forward proxy that classifies each client connection from its first
// request line, dials the upstream named by that line, and relays bytes in
// both directions until the connection pair winds down.
//
// CONNECT requests are answered with a fixed 200 status line and then
// tunnelled opaquely. Every other method is forwarded verbatim to port 80
// of the host in the request target.
package proxy
