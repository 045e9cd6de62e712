// Package debug provides a process-wide diagnostic writer in the same
// shape as the indexer this tool is descended from: a mutex-guarded
// sink that is silent by default and that gets suppressed entirely in
// MCP stdio mode, where stray writes to stdout would corrupt the
// protocol framing.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MCPMode suppresses all output when the process is speaking the MCP
// stdio protocol on stdout. Set via SetMCPMode by cmd/ctxopt before
// starting the server.
var MCPMode = false

var (
	mu     sync.Mutex
	output io.Writer // nil means disabled
)

// SetOutput sets the diagnostic writer. Pass nil to disable output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetMCPMode enables or disables MCP stdio suppression.
func SetMCPMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	MCPMode = enabled
}

// Enable points diagnostics at stderr, the default for CLI subcommands
// other than "serve".
func Enable() { SetOutput(os.Stderr) }

// Printf writes a timestamped diagnostic line unless disabled or in
// MCP mode.
func Printf(format string, args ...interface{}) {
	mu.Lock()
	w := output
	mode := MCPMode
	mu.Unlock()
	if w == nil || mode {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(w, "[%s] %s\n", ts, fmt.Sprintf(format, args...))
}

// Errorf writes a diagnostic line tagged as an error.
func Errorf(format string, args ...interface{}) {
	Printf("ERROR: "+format, args...)
}
