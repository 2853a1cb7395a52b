package server

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/alecthomas/chroma/quick"
)

// plainErrorBody is what clients see for any uncaught failure when
// debug mode is off
const plainErrorBody = "<h1>Internal Server Error</h1>"

// writeErrorPage writes the 500-class response for an uncaught
// failure. With debug enabled the page carries the failure message
// and, when available, a highlighted stack trace.
func writeErrorPage(w http.ResponseWriter, message string, stack []byte, debug bool) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)

	if !debug {
		fmt.Fprint(w, plainErrorBody)
		return
	}

	var sb strings.Builder
	sb.WriteString("<h1>Internal Server Error</h1>\n")
	sb.WriteString("<p><code>")
	sb.WriteString(html.EscapeString(message))
	sb.WriteString("</code></p>\n")

	if len(stack) > 0 {
		if err := quick.Highlight(&sb, string(stack), "go", "html", "monokai"); err != nil {
			sb.WriteString("<pre>")
			sb.WriteString(html.EscapeString(string(stack)))
			sb.WriteString("</pre>")
		}
	}

	fmt.Fprint(w, sb.String())
}
