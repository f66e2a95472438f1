//go:build debug
// +build debug

package lzconcept

var debug = true
