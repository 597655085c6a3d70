package api

import (
	"context"
	"net/http"

	"github.com/jslink/jslink/internal/bridge"
	"github.com/jslink/jslink/internal/executor"
	"github.com/jslink/jslink/internal/store"
)

// Server wraps the HTTP server and mux for the JS-Link API.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates a new API server wired with all routes.
func NewServer(addr string, s *store.Store, exec *executor.Executor, ws *bridge.Bridge, apiMaxBodyBytes int64) *Server {
	mux := http.NewServeMux()

	apiMux := http.NewServeMux()

	// Folders.
	apiMux.Handle("POST /api/folders", HandleCreateFolder(s))
	apiMux.Handle("GET /api/folders", HandleListFolders(s))
	apiMux.Handle("GET /api/folders/{id}", HandleGetFolder(s))
	apiMux.Handle("PUT /api/folders/{id}", HandleUpdateFolder(s))
	apiMux.Handle("DELETE /api/folders/{id}", HandleDeleteFolder(s))
	apiMux.Handle("PUT /api/folders/{id}/archive", HandleArchiveFolder(s))
	apiMux.Handle("PUT /api/folders/{id}/unarchive", HandleUnarchiveFolder(s))

	// Requests.
	apiMux.Handle("POST /api/requests", HandleCreateRequest(s))
	apiMux.Handle("GET /api/requests", HandleListRequests(s))
	apiMux.Handle("GET /api/requests/{id}", HandleGetRequest(s))
	apiMux.Handle("PUT /api/requests/{id}", HandleUpdateRequest(s))
	apiMux.Handle("DELETE /api/requests/{id}", HandleDeleteRequest(s))
	apiMux.Handle("PUT /api/requests/{id}/archive", HandleArchiveRequest(s))
	apiMux.Handle("PUT /api/requests/{id}/unarchive", HandleUnarchiveRequest(s))

	// Environments.
	apiMux.Handle("POST /api/environments", HandleCreateEnvironment(s))
	apiMux.Handle("GET /api/environments", HandleListEnvironments(s))
	apiMux.Handle("GET /api/environments/{id}", HandleGetEnvironment(s))
	apiMux.Handle("PUT /api/environments/{id}", HandleUpdateEnvironment(s))
	apiMux.Handle("DELETE /api/environments/{id}", HandleDeleteEnvironment(s))
	apiMux.Handle("PUT /api/environments/{id}/archive", HandleArchiveEnvironment(s))
	apiMux.Handle("PUT /api/environments/{id}/unarchive", HandleUnarchiveEnvironment(s))

	// Network settings singleton.
	apiMux.Handle("GET /api/settings/network", HandleGetNetworkSettings(s))
	apiMux.Handle("PUT /api/settings/network", HandleUpdateNetworkSettings(s))

	// Execution.
	apiMux.Handle("POST /api/execute", HandleExecute(exec))
	apiMux.Handle("POST /api/execute-direct", HandleExecute(exec))

	// Import.
	apiMux.Handle("POST /api/import", HandleImport(s))

	// WebSocket bridge. Exempt from the body limit, the session streams.
	mux.Handle("GET /api/ws", ws)

	mux.Handle("/api/", RequestBodyLimitMiddleware(apiMaxBodyBytes, apiMux))
	registerEmbeddedWebUI(mux)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
	}
}

// ListenAndServe starts the HTTP server. It blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.mux
}
