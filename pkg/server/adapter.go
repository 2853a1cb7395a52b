package server

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/niels/plank/pkg/app"
	"github.com/niels/plank/pkg/logging"
	"github.com/niels/plank/pkg/stats"
)

// Adapter exposes an app.App as an http.Handler. It builds the
// request environment, invokes the app once, and serializes the
// returned triple onto the wire. Returned errors, panics and
// malformed triples all surface as a 500-class response here; the app
// itself never sees them again.
type Adapter struct {
	app       app.App
	mountPath string
	debug     bool
	recorder  stats.Recorder
}

// NewAdapter creates an adapter for the given app, mounted at the
// given path prefix ("/" for the whole server)
func NewAdapter(a app.App, mountPath string, debug bool) *Adapter {
	return &Adapter{
		app:       a,
		mountPath: mountPath,
		debug:     debug,
	}
}

// WithRecorder sets a request stats recorder
func (ad *Adapter) WithRecorder(recorder stats.Recorder) *Adapter {
	ad.recorder = recorder
	return ad
}

// ServeHTTP handles a single request
func (ad *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := ad.newRequest(r)

	status := ad.invoke(w, r, req)

	duration := time.Since(start)
	logging.Access(req.ID, r.Method, r.URL.Path, r.RemoteAddr, status, duration)
	if ad.recorder != nil {
		ad.recorder.Record(status, duration)
	}
}

// newRequest builds the request environment from the incoming
// http.Request. The path is made relative to the mount point so an
// app behaves the same wherever it is mounted.
func (ad *Adapter) newRequest(r *http.Request) *app.Request {
	headers := make(app.Headers, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}

	path := r.URL.Path
	if prefix := strings.TrimSuffix(ad.mountPath, "/"); prefix != "" {
		if rest, found := strings.CutPrefix(path, prefix); found {
			if rest == "" {
				rest = "/"
			}
			if rest[0] == '/' {
				path = rest
			}
		}
	}

	var body io.Reader = r.Body
	if body == nil {
		body = strings.NewReader("")
	}

	return &app.Request{
		ID:         uuid.NewString(),
		Method:     r.Method,
		Path:       path,
		Proto:      r.Proto,
		Host:       r.Host,
		RemoteAddr: r.RemoteAddr,
		Headers:    headers,
		Query:      r.URL.Query(),
		Body:       body,
	}
}

// invoke calls the app and writes its response, translating any
// failure into a 500. Returns the status actually written.
func (ad *Adapter) invoke(w http.ResponseWriter, r *http.Request, req *app.Request) (status int) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := debug.Stack()
			logger := logging.WithComponent("server")
			logger.Error().
				Str("request_id", req.ID).
				Interface("panic", rec).
				Msg("app panicked")
			status = http.StatusInternalServerError
			writeErrorPage(w, fmt.Sprintf("panic: %v", rec), stack, ad.debug)
		}
	}()

	resp, err := ad.app.Call(r.Context(), req)
	if err != nil {
		logger := logging.WithComponent("server")
		logger.Error().
			Str("request_id", req.ID).
			Err(err).
			Msg("app returned error")
		writeErrorPage(w, err.Error(), nil, ad.debug)
		return http.StatusInternalServerError
	}

	if verr := resp.Validate(); verr != nil {
		logger := logging.WithComponent("server")
		logger.Error().
			Str("request_id", req.ID).
			Err(verr).
			Msg("app returned malformed response")
		writeErrorPage(w, verr.Error(), nil, ad.debug)
		return http.StatusInternalServerError
	}

	for name, value := range resp.Headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(resp.Status)

	// Body chunks are written in iteration order. A write failure
	// aborts iteration; the client is gone, nothing else to do.
	_ = resp.Body.Each(func(chunk string) error {
		_, werr := io.WriteString(w, chunk)
		return werr
	})

	return resp.Status
}
