package util

import "log"

// Logging gates the predicate engine's diagnostic output.  The
// commands flip it on with -v; compiled oracles and the p call log
// through Logf when it is set.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}
