package module

import (
	"net/http"
	"strings"
)

// Router dispatches requests to mounted modules by path prefix, then to
// a native ServeMux, then to an optional fallback handler for paths
// neither claims. The fallback enables serving a root-mounted web
// application alongside prefixed modules.
type Router struct {
	modules  map[string]*Module
	native   *http.ServeMux
	fallback http.Handler
}

// NewRouter creates a Router with an empty module map and native
// fallback mux.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// HandleNative registers a handler on the native mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.native.HandleFunc(pattern, handler)
}

// Mount registers a module to handle requests matching its prefix.
func (r *Router) Mount(m *Module) {
	r.modules[m.prefix] = m
}

// SetFallback configures the handler for paths no module or native
// pattern matches.
func (r *Router) SetFallback(handler http.Handler) {
	r.fallback = handler
}

// ServeHTTP dispatches to the matching module, the native mux, or the
// fallback handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := normalizePath(req)
	prefix := extractPrefix(path)

	if m, ok := r.modules[prefix]; ok {
		m.Serve(w, req)
		return
	}

	if r.fallback != nil {
		if _, pattern := r.native.Handler(req); pattern == "" {
			r.fallback.ServeHTTP(w, req)
			return
		}
	}

	r.native.ServeHTTP(w, req)
}

func extractPrefix(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) >= 2 {
		return "/" + parts[1]
	}
	return path
}

func normalizePath(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}
