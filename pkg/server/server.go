package server

import (
	"github.com/rs/zerolog"

	internalserver "github.com/SmitUplenchwar2687/Rewind/internal/server"
)

// Server is the rewind monitor: health, metrics, live events and the
// archived session library.
type Server = internalserver.Server

// Options wires optional collaborators into the server.
type Options = internalserver.Options

// Hub manages WebSocket clients and broadcasts capture and replay events.
type Hub = internalserver.Hub

// DashboardHTML is the embedded single-page monitor.
const DashboardHTML = internalserver.DashboardHTML

// New creates a new monitor server.
func New(addr string, opts Options) *Server {
	return internalserver.New(addr, opts)
}

// NewHub creates a new WebSocket hub.
func NewHub(log zerolog.Logger) *Hub {
	return internalserver.NewHub(log)
}
