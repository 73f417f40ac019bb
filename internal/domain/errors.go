// Package domain holds the pipeline's dependency-free value types: stream
// identifiers, packets, and the error taxonomy shared by every component.
package domain

import "errors"

// Sentinel errors matching the taxonomy in the design's error handling
// section. Components wrap these with fmt.Errorf("...: %w", ...) so callers
// can still errors.Is against the class.
var (
	// ErrInvalidArgument marks bad user input rejected synchronously at a
	// setter or constructor; it should never reach a run loop.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotSet marks an accessor called before the field it reads was set.
	ErrNotSet = errors.New("not set")

	// ErrNetworkTransient marks a connect/write/collect failure eligible for
	// retry via a reconnect ladder.
	ErrNetworkTransient = errors.New("transient network failure")

	// ErrNetworkFatal marks a reconnect ladder that exhausted every attempt.
	ErrNetworkFatal = errors.New("fatal network failure")

	// ErrEncodingFailed marks a per-packet MiniSEED encoding failure.
	ErrEncodingFailed = errors.New("encoding failed")

	// ErrUnpackFailed marks a per-record MiniSEED unpacking failure.
	ErrUnpackFailed = errors.New("unpack failed")

	// ErrUnsupported marks a data type or option combination this
	// implementation does not handle.
	ErrUnsupported = errors.New("unsupported")

	// ErrStateFailure marks a state file read/write/remove failure. It
	// degrades resume semantics but never stops the pipeline.
	ErrStateFailure = errors.New("state file failure")

	// ErrFatal marks an unrecoverable condition that must propagate to the
	// coordinator and terminate the process.
	ErrFatal = errors.New("fatal error")
)
