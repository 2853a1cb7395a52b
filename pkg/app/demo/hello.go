package demo

import (
	"context"
	"net/http"

	"github.com/niels/plank/pkg/app"
)

// DefaultGreeting is the body served by the hello app unless the
// descriptor overrides it
const DefaultGreeting = "Hello, World!"

// Hello is the constant responder: every invocation returns 200, a
// text/html content type and the same fixed body, regardless of the
// request.
type Hello struct {
	greeting string
	headers  app.Headers
}

// NewHello creates a hello app with the given greeting; an empty
// greeting falls back to DefaultGreeting
func NewHello(greeting string) *Hello {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Hello{
		greeting: greeting,
		headers:  app.Headers{app.ContentTypeHeader: "text/html"},
	}
}

// Name returns the name of the app
func (h *Hello) Name() string {
	return "hello"
}

// Call returns the fixed response. The header template is cloned so
// each invocation gets a fresh triple that callers may mutate.
func (h *Hello) Call(ctx context.Context, req *app.Request) (*app.Response, error) {
	return &app.Response{
		Status:  http.StatusOK,
		Headers: h.headers.Clone(),
		Body:    app.Chunks{h.greeting},
	}, nil
}

func init() {
	app.Register("hello", func(options map[string]interface{}) (app.App, error) {
		greeting, err := app.StringOption(options, "greeting", DefaultGreeting)
		if err != nil {
			return nil, err
		}
		return NewHello(greeting), nil
	})
}
