// Package runbatch runs a command template once per target context with a hard cap on
// the number of processes in flight and a per-invocation timeout.
// It returns one result per context so that callers decide how strict to be about
// failures, a failing invocation never aborts its siblings.
// Results can be rendered as a tree or saved in binary form to be shown later.
package runbatch
