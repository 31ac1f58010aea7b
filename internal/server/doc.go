// Package server implements the message relay core: the concurrent client
// registry, per-connection sessions, the routing policies for broadcast,
// private, and presence traffic, and the TCP and WebSocket acceptors.
package server
