// Package predicate provides a small expression engine for
// side-effect-free predicates evaluated incrementally against streaming
// inspection data.
//
// The core code is in packages 'core' and 'graph', the standard call
// library is in 'std', and some command-line tools are in 'cmd'.
package predicate
