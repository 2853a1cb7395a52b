package demo

import (
	"context"
	"net/http"
	"time"

	"github.com/niels/plank/pkg/app"
)

// Bodies served by the clock app depending on the parity of the
// current Unix timestamp
const (
	EvenBody = "<p>The time is even.</p>"
	OddBody  = "<p>The time is odd.</p>"
)

// Clock is the time-parity responder: when the current integer
// timestamp is even it serves one fixed fragment, when odd the other.
// Status and content type are the same on both branches. The only
// state it touches is the wall clock, which is safe to read from
// concurrent invocations.
type Clock struct {
	now func() time.Time
}

// NewClock creates a clock app reading the real wall clock
func NewClock() *Clock {
	return NewClockWithNow(time.Now)
}

// NewClockWithNow creates a clock app with a custom clock source.
// This is primarily used for testing.
func NewClockWithNow(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Name returns the name of the app
func (c *Clock) Name() string {
	return "clock"
}

// Call selects the body fragment from the parity of the current time
func (c *Clock) Call(ctx context.Context, req *app.Request) (*app.Response, error) {
	body := OddBody
	if c.now().Unix()%2 == 0 {
		body = EvenBody
	}
	return app.NewResponse(http.StatusOK, "text/html", body), nil
}

func init() {
	app.Register("clock", func(options map[string]interface{}) (app.App, error) {
		return NewClock(), nil
	})
}
