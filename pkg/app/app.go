package app

import (
	"context"
	"io"
	"net/url"
)

// App is the contract between an application and the hosting server.
// The server invokes Call once per incoming request and serializes the
// returned Response onto the wire. A returned error (or a panic inside
// Call) is translated by the hosting server into a 500-class response;
// the app itself performs no recovery.
//
// Each invocation must be independent: apps must not share mutable
// state between calls, because the hosting server decides how many
// calls run concurrently.
type App interface {
	// Name returns the name of the app
	Name() string

	// Call handles a single request and returns a fresh Response
	Call(ctx context.Context, req *Request) (*Response, error)
}

// AppFunc adapts a plain function to the App interface
type AppFunc func(ctx context.Context, req *Request) (*Response, error)

// Name returns a generic name for function-backed apps
func (f AppFunc) Name() string {
	return "func"
}

// Call invokes the function
func (f AppFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Request is the environment the hosting server hands to an app for
// each incoming request. Apps are free to ignore all of it; the
// bundled example apps do.
type Request struct {
	// ID is a server-assigned identifier for log correlation
	ID string

	// Method is the HTTP method of the request
	Method string

	// Path is the request path, relative to the app's mount point
	Path string

	// Proto is the protocol version, e.g. "HTTP/1.1"
	Proto string

	// Host is the Host header value
	Host string

	// RemoteAddr is the client address as seen by the server
	RemoteAddr string

	// Headers holds the incoming request headers
	Headers Headers

	// Query holds the parsed query string
	Query url.Values

	// Body is the request body; may be empty, never nil when built
	// by the hosting server
	Body io.Reader
}
