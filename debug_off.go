//go:build !debug
// +build !debug

package lzconcept

var debug = false

// debug gates the trace consumer. Release builds never emit trace events, so
// the daemon does not start one.
