//go:build !debug

// Package debug provides assertions that compile away to no-ops in release
// builds and panic in builds tagged "debug". The same source tree builds
// both ways; only the build tag differs.
/*
 * Adapted from the aistore project's cmn/debug package.
 */
package debug

func ON() bool { return false }

func Infof(_ string, _ ...any) {}

func Func(_ func()) {}

func Assert(_ bool, _ ...any)            {}
func AssertFunc(_ func() bool, _ ...any) {}
func AssertNoErr(_ error)                {}
func Assertf(_ bool, _ string, _ ...any) {}
