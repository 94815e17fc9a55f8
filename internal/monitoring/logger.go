package monitoring

import "log"

// Logf receives skip and progress messages from session loading and batch
// runs. Tests and embedders replace it through SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger routes diagnostics to f; nil discards them.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
