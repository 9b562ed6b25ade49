// Package errs accumulates non-fatal errors while a pipeline keeps running,
// per the error aggregation component of the analysis pipeline: per-file and
// per-edge failures must not abort the walk or the resolver, but still need
// to surface to the caller once the run finishes.
package errs

import (
	"fmt"
	"strings"
)

// Accumulator collects errors in insertion order without aborting the
// caller's control flow.
type Accumulator struct {
	errs []error
}

// New returns an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// AddSingle appends one error if it is non-nil.
func (a *Accumulator) AddSingle(err error) {
	if err == nil {
		return
	}
	a.errs = append(a.errs, err)
}

// AddMany appends every non-nil error in errs.
func (a *Accumulator) AddMany(errs []error) {
	for _, err := range errs {
		a.AddSingle(err)
	}
}

// Extract unwraps a (value, error) pair, stashing the error here and
// returning the value regardless. This lets a caller keep processing a
// batch of fallible operations without an early return.
func Extract[T any](a *Accumulator, value T, err error) T {
	a.AddSingle(err)
	return value
}

// Len reports how many errors have been collected.
func (a *Accumulator) Len() int {
	return len(a.errs)
}

// Errors returns the collected errors in insertion order. The returned slice
// must not be mutated.
func (a *Accumulator) Errors() []error {
	return a.errs
}

// IntoResult returns nil if no errors were collected, or an *Aggregate
// wrapping all of them otherwise.
func (a *Accumulator) IntoResult() error {
	if len(a.errs) == 0 {
		return nil
	}
	return &Aggregate{errs: append([]error(nil), a.errs...)}
}

// Aggregate is the error returned by IntoResult when one or more errors were
// accumulated. A single error renders as its own message; multiple errors
// render as an ordered, numbered list.
type Aggregate struct {
	errs []error
}

func (a *Aggregate) Error() string {
	if len(a.errs) == 1 {
		return a.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(a.errs))
	for i, err := range a.errs {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return strings.TrimRight(b.String(), "\n")
}

// Unwrap exposes the underlying errors to errors.Is / errors.As.
func (a *Aggregate) Unwrap() []error {
	return a.errs
}

// Errors returns the errors wrapped by a, or nil if err is not an
// *Aggregate.
func Errors(err error) []error {
	agg, ok := err.(*Aggregate)
	if !ok {
		return nil
	}
	return agg.errs
}
