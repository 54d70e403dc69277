// Package cos provides common low-level types and utilities shared by every
// package in this module.
/*
 * Adapted from the aistore project's cmn/cos package.
 */
package cos

import (
	"errors"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rwthflow/flow/cmn/debug"
	"github.com/rwthflow/flow/cmn/nlog"
)

// Error kinds named in SPEC_FULL.md §7. StreamEnd and StreamStall are not
// errors - they are the eos/ood sentinels - and have no type here.
type (
	// ErrNotFound is returned by registry lookups (datatype, filter) that
	// miss; registry.Register itself never returns it - a duplicate
	// registration is fatal, not recoverable, see Exitf below.
	ErrNotFound struct {
		what string
	}

	// ErrConfiguration wraps a failure discovered during Node.Configure
	// or network assembly: unknown filter, datatype mismatch, bad
	// parameter, duplicate port. Network marks itself fatally broken
	// when any ErrConfiguration is recorded.
	ErrConfiguration struct {
		Component string
		Cause     error
	}

	// ErrInvariantViolation marks a defect that the spec requires to
	// abort the process rather than recover from: a wrong-datatype
	// packet landing on a link, or non-monotonic timestamps on a
	// stream that declared strict ordering.
	ErrInvariantViolation struct {
		Detail string
	}

	// Errs aggregates up to maxErrs distinct errors recorded during one
	// configure pass (the "delayed-error channel" of SPEC_FULL.md §7);
	// duplicates (by message) are folded into one.
	Errs struct {
		errs []error
		cnt  atomic.Int64
		mu   sync.Mutex
	}
)

func NewErrNotFound(format string, a ...any) *ErrNotFound {
	return &ErrNotFound{fmt.Sprintf(format, a...)}
}

func (e *ErrNotFound) Error() string { return e.what + " does not exist" }

func IsErrNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

func NewErrConfiguration(component string, cause error) *ErrConfiguration {
	return &ErrConfiguration{Component: component, Cause: cause}
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Component, e.Cause)
}

func (e *ErrConfiguration) Unwrap() error { return e.Cause }

func NewErrInvariantViolation(format string, a ...any) *ErrInvariantViolation {
	return &ErrInvariantViolation{Detail: fmt.Sprintf(format, a...)}
}

func (e *ErrInvariantViolation) Error() string { return "invariant violation: " + e.Detail }

const maxErrs = 8

// Add records err unless an error with the same message was already
// recorded, and unless the aggregator is already full.
func (e *Errs) Add(err error) {
	debug.Assert(err != nil)
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, added := range e.errs {
		if added.Error() == err.Error() {
			return
		}
	}
	if len(e.errs) < maxErrs {
		e.errs = append(e.errs, err)
		e.cnt.Store(int64(len(e.errs)))
	}
}

func (e *Errs) Cnt() int { return int(e.cnt.Load()) }

// JoinErr folds all recorded errors into one via errors.Join, or returns
// (0, nil) if nothing was recorded.
func (e *Errs) JoinErr() (cnt int, err error) {
	if cnt = e.Cnt(); cnt > 0 {
		e.mu.Lock()
		err = errors.Join(e.errs...)
		e.mu.Unlock()
	}
	return
}

func (e *Errs) Error() string {
	cnt, err := e.JoinErr()
	if cnt == 0 {
		return ""
	}
	return err.Error()
}

//
// fatal termination - used by the datatype/filter registries on a
// duplicate-name registration (SPEC_FULL.md §3, spec.md §4.11)
//

const fatalPrefix = "FATAL ERROR: "

func Exitf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	exit(msg)
}

// ExitLogf additionally flushes the log before terminating, for use once
// logging has been initialized (flag.Parsed() guards startup-time callers).
func ExitLogf(f string, a ...any) {
	msg := fmt.Sprintf(fatalPrefix+f, a...)
	if flag.Parsed() {
		nlog.ErrorDepth(1, msg)
		nlog.Flush(true)
	}
	exit(msg)
}

var exit = func(msg string) {
	fmt.Println(msg)
	panic(msg)
}
