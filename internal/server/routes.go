package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Executor poll + queue clear
	mux.HandleFunc("/commands", s.handleCommandsRoute)

	// /commands/all and /commands/{id}/complete
	mux.HandleFunc("/commands/", s.handleCommandRoutes)

	// Reachability probe
	mux.HandleFunc("/health", s.handleHealthRoute)

	// Generated executor bootstrap
	mux.HandleFunc("/plugin", s.handlePluginRoute)

	// WebSocket lifecycle event stream
	mux.HandleFunc("/events", s.events.HandleEvents)

	// Everything else is the relay's uniform 404
	mux.HandleFunc("/", s.handler.NotFound)

	return mux
}

func (s *Server) handleCommandsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handler.PollCommands(w, r)
	case http.MethodDelete:
		s.handler.ClearCommands(w, r)
	default:
		s.handler.NotFound(w, r)
	}
}

func (s *Server) handleCommandRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/commands/all" {
		s.handler.ListAllCommands(w, r)
		return
	}

	if r.Method == http.MethodPost {
		if id := completeCommandID(r.URL.Path); id != "" {
			s.handler.CompleteCommand(w, r, id)
			return
		}
	}

	s.handler.NotFound(w, r)
}

func (s *Server) handleHealthRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handler.NotFound(w, r)
		return
	}
	s.handler.Health(w, r)
}

func (s *Server) handlePluginRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handler.NotFound(w, r)
		return
	}
	s.handler.Plugin(w, r)
}
