// Package routes declares HTTP routes and route groups for registration
// on an http.ServeMux.
package routes

import "net/http"

// Route binds an HTTP method and pattern to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// GET declares a GET route.
func GET(pattern string, handler http.HandlerFunc) Route {
	return Route{Method: http.MethodGet, Pattern: pattern, Handler: handler}
}

// POST declares a POST route.
func POST(pattern string, handler http.HandlerFunc) Route {
	return Route{Method: http.MethodPost, Pattern: pattern, Handler: handler}
}

// DELETE declares a DELETE route.
func DELETE(pattern string, handler http.HandlerFunc) Route {
	return Route{Method: http.MethodDelete, Pattern: pattern, Handler: handler}
}

// Group organizes routes under a common prefix. Child groups inherit and
// extend the parent prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix

	for _, route := range group.Routes {
		pattern := route.Method + " " + fullPrefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
	}

	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, child)
	}
}
