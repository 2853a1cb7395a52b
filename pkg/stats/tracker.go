package stats

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Recorder receives the outcome of each served request
type Recorder interface {
	// Record registers one served request with its final status and duration
	Record(status int, duration time.Duration)
}

// Tracker is a Recorder that keeps running counts by status class and
// can print a colored summary. Safe for use from concurrent requests.
type Tracker struct {
	mu        sync.Mutex
	writer    io.Writer
	useColor  bool
	startTime time.Time
	total     int
	byClass   map[int]int // status/100 -> count
	totalTime time.Duration
}

// NewTracker creates a tracker writing its summary to stdout
func NewTracker(useColor bool) *Tracker {
	return &Tracker{
		writer:    os.Stdout,
		useColor:  useColor,
		startTime: time.Now(),
		byClass:   make(map[int]int),
	}
}

// WithWriter sets the writer for the summary output
func (t *Tracker) WithWriter(writer io.Writer) *Tracker {
	t.writer = writer
	return t
}

// Record registers one served request
func (t *Tracker) Record(status int, duration time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	t.byClass[status/100]++
	t.totalTime += duration
}

// Total returns the number of requests recorded so far
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// CountByClass returns how many requests finished in the given status
// class (2 for 2xx, 5 for 5xx, ...)
func (t *Tracker) CountByClass(class int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byClass[class]
}

// Summary prints a one-shot summary of everything recorded
func (t *Tracker) Summary() {
	t.mu.Lock()
	defer t.mu.Unlock()

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	if !t.useColor {
		plain := fmt.Sprint
		green, yellow, red = plain, plain, plain
	}

	uptime := time.Since(t.startTime).Round(time.Second)
	fmt.Fprintf(t.writer, "Served %d requests in %s\n", t.total, uptime)
	if t.total == 0 {
		return
	}

	ok := t.byClass[2] + t.byClass[3]
	clientErrs := t.byClass[4]
	serverErrs := t.byClass[5]
	fmt.Fprintf(t.writer, "  %s ok, %s client errors, %s server errors\n",
		green(ok), yellow(clientErrs), red(serverErrs))

	avg := t.totalTime / time.Duration(t.total)
	fmt.Fprintf(t.writer, "  average response time: %s\n", avg)
}
