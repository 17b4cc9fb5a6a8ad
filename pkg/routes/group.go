// Package routes declares HTTP routes as nested prefix groups and
// registers them on a ServeMux.
package routes

import "net/http"

// Group collects routes under a common path prefix. Children inherit
// the full prefix of their parent.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux and returns the registered
// ServeMux patterns in declaration order.
func Register(mux *http.ServeMux, groups ...Group) []string {
	var registered []string
	walk(groups, func(pattern string, handler http.HandlerFunc) {
		mux.HandleFunc(pattern, handler)
		registered = append(registered, pattern)
	})
	return registered
}

// Patterns returns the ServeMux pattern of every route in groups without
// registering them.
func Patterns(groups ...Group) []string {
	var out []string
	walk(groups, func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func walk(groups []Group, visit func(string, http.HandlerFunc)) {
	for _, g := range groups {
		walkGroup("", g, visit)
	}
}

func walkGroup(parent string, g Group, visit func(string, http.HandlerFunc)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		visit(r.pattern(prefix), r.Handler)
	}
	for _, child := range g.Children {
		walkGroup(prefix, child, visit)
	}
}
