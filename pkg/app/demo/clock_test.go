package demo

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/niels/plank/pkg/app"
)

func fixedClock(unix int64) func() time.Time {
	return func() time.Time {
		return time.Unix(unix, 0)
	}
}

func TestClockEven(t *testing.T) {
	clock := NewClockWithNow(fixedClock(1000))

	resp, err := clock.Call(context.Background(), &app.Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	body, _ := resp.BodyString()
	if body != EvenBody {
		t.Errorf("Expected even body '%s', got '%s'", EvenBody, body)
	}
}

func TestClockOdd(t *testing.T) {
	clock := NewClockWithNow(fixedClock(1001))

	resp, err := clock.Call(context.Background(), &app.Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	body, _ := resp.BodyString()
	if body != OddBody {
		t.Errorf("Expected odd body '%s', got '%s'", OddBody, body)
	}
}

func TestClockInvariantAcrossBranches(t *testing.T) {
	// Status and content type must not depend on the branch taken
	even, err := NewClockWithNow(fixedClock(2000)).Call(context.Background(), &app.Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	odd, err := NewClockWithNow(fixedClock(2001)).Call(context.Background(), &app.Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if even.Status != http.StatusOK || odd.Status != http.StatusOK {
		t.Errorf("Expected status 200 on both branches, got %d and %d", even.Status, odd.Status)
	}
	if even.Headers.Get("Content-Type") != odd.Headers.Get("Content-Type") {
		t.Errorf("Expected identical content type on both branches")
	}

	evenBody, _ := even.BodyString()
	oddBody, _ := odd.BodyString()
	if evenBody == oddBody {
		t.Errorf("Expected different bodies for different parity")
	}
}

func TestClockRealWallClock(t *testing.T) {
	clock := NewClock()

	resp, err := clock.Call(context.Background(), &app.Request{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if verr := resp.Validate(); verr != nil {
		t.Errorf("Expected a valid response, got: %v", verr)
	}

	body, _ := resp.BodyString()
	if body != EvenBody && body != OddBody {
		t.Errorf("Expected one of the two fixed fragments, got '%s'", body)
	}
}

func TestClockRegistered(t *testing.T) {
	a, err := app.Create("clock", nil)
	if err != nil {
		t.Fatalf("Unexpected error creating registered clock app: %v", err)
	}
	if a.Name() != "clock" {
		t.Errorf("Expected name 'clock', got '%s'", a.Name())
	}
}
