package app

import (
	"fmt"
	"net/http"
	"strings"
)

// ContentTypeHeader is the header that must accompany a non-empty body
const ContentTypeHeader = "Content-Type"

// Headers maps header names to values
type Headers map[string]string

// Clone returns a copy of the headers so a response template can be
// reused without aliasing
func (h Headers) Clone() Headers {
	out := make(Headers, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Get returns the value for a header name, matching case-insensitively
// the way HTTP header names compare
func (h Headers) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	canonical := http.CanonicalHeaderKey(name)
	for k, v := range h {
		if http.CanonicalHeaderKey(k) == canonical {
			return v
		}
	}
	return ""
}

// Body is a finite, ordered sequence of string chunks. Each yields the
// chunks in order until the sequence is exhausted or fn returns an
// error, which stops iteration and is returned unchanged.
type Body interface {
	Each(fn func(chunk string) error) error
}

// Chunks is a slice-backed Body
type Chunks []string

// Each yields every chunk in order
func (c Chunks) Each(fn func(chunk string) error) error {
	for _, chunk := range c {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

// BodyString is a single-fragment Body
type BodyString string

// Each yields the fragment once; an empty fragment yields nothing
func (b BodyString) Each(fn func(chunk string) error) error {
	if b == "" {
		return nil
	}
	return fn(string(b))
}

// Response is the three-part value every app returns: a status code,
// a header map and an iterable body. It is constructed fresh on every
// invocation and holds no state beyond the single request it answers.
type Response struct {
	Status  int
	Headers Headers
	Body    Body
}

// NewResponse builds a response with the given status and content
// type, with the body chunks in order
func NewResponse(status int, contentType string, chunks ...string) *Response {
	return &Response{
		Status:  status,
		Headers: Headers{ContentTypeHeader: contentType},
		Body:    Chunks(chunks),
	}
}

// BodyString concatenates the body chunks. Intended for tests and for
// the hosting server's error paths, not for serving large bodies.
func (r *Response) BodyString() (string, error) {
	if r.Body == nil {
		return "", nil
	}
	var sb strings.Builder
	err := r.Body.Each(func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	return sb.String(), err
}

// Validate checks the response invariants: a valid HTTP status code,
// a non-nil body, and a content type whenever the body is non-empty
func (r *Response) Validate() error {
	if r == nil {
		return fmt.Errorf("response is nil")
	}
	if r.Status < 100 || r.Status > 599 {
		return fmt.Errorf("invalid status code: %d", r.Status)
	}
	if r.Body == nil {
		return fmt.Errorf("response body is nil")
	}
	empty := true
	if err := r.Body.Each(func(chunk string) error {
		if chunk != "" {
			empty = false
		}
		return nil
	}); err != nil {
		return fmt.Errorf("body iteration failed: %w", err)
	}
	if !empty && r.Headers.Get(ContentTypeHeader) == "" {
		return fmt.Errorf("non-empty body requires a %s header", ContentTypeHeader)
	}
	return nil
}
