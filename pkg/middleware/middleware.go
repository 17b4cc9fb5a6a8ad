// Package middleware provides the HTTP middleware applied to mounted modules.
package middleware

import "net/http"

// Func wraps an http.Handler.
type Func = func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first Func added is the
// outermost wrapper. The zero value is ready to use.
type Stack struct {
	funcs []Func
}

// Use appends middleware to the stack.
func (s *Stack) Use(fns ...Func) {
	s.funcs = append(s.funcs, fns...)
}

// Len returns the number of middleware in the stack.
func (s *Stack) Len() int {
	return len(s.funcs)
}

// Apply wraps handler with every middleware in the stack.
func (s *Stack) Apply(handler http.Handler) http.Handler {
	for i := len(s.funcs) - 1; i >= 0; i-- {
		handler = s.funcs[i](handler)
	}
	return handler
}
