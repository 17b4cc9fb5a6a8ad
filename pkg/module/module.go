// Package module mounts self-contained HTTP handlers under path prefixes.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/vantage/pkg/middleware"
)

// Module serves an inner handler beneath a path prefix with its own
// middleware stack. The prefix is stripped before the inner handler runs.
type Module struct {
	prefix string
	router http.Handler
	stack  middleware.Stack

	once    sync.Once
	handler http.Handler
}

// New creates a Module for prefix, which may be nested ("/api/v1").
// Panics if the prefix is empty, relative, or ends with a slash.
func New(prefix string, router http.Handler) *Module {
	if err := ValidatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// Handler returns the inner router wrapped with the middleware stack.
// The chain is built on first use, so Use must be called before serving.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.stack.Apply(m.router)
	})
	return m.handler
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Matches reports whether path falls under the module prefix.
func (m *Module) Matches(path string) bool {
	rest, ok := strings.CutPrefix(path, m.prefix)
	return ok && (rest == "" || rest[0] == '/')
}

// Serve strips the module prefix from the request path and dispatches to
// the wrapped inner router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	m.Handler().ServeHTTP(w, stripPrefix(req, m.prefix))
}

// Use adds middleware to the module's stack.
func (m *Module) Use(fns ...middleware.Func) {
	m.stack.Use(fns...)
}

func stripPrefix(req *http.Request, prefix string) *http.Request {
	path := strings.TrimPrefix(req.URL.Path, prefix)
	if path == "" {
		path = "/"
	}

	r := req.Clone(req.Context())
	r.URL = new(url.URL)
	*r.URL = *req.URL
	r.URL.Path = path
	r.URL.RawPath = ""
	return r
}

// ValidatePrefix reports whether prefix can mount a Module.
func ValidatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case prefix == "/" || strings.HasSuffix(prefix, "/"):
		return fmt.Errorf("module prefix must not end with /: %s", prefix)
	case strings.Contains(prefix, "//"):
		return fmt.Errorf("module prefix has an empty segment: %s", prefix)
	}
	return nil
}
