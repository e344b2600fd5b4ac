package lm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed or out-of-range parameters.
	ErrInvalidArgument = errors.New("invalid_argument")
	// ErrUpstreamScoring marks a failure of the scoring model itself, for
	// example input longer than the model context.
	ErrUpstreamScoring = errors.New("upstream_scoring_failure")
	// ErrCacheConsistency indicates a bug in the cache layer. It must never
	// reach a caller in a correct build.
	ErrCacheConsistency = errors.New("cache_consistency")
)

type invalidArgumentError struct {
	msg string
}

func (e invalidArgumentError) Error() string {
	return e.msg
}

func (e invalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// InvalidArgument returns an error classified as ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return invalidArgumentError{msg: fmt.Sprintf(format, args...)}
}

type scoringError struct {
	cause error
}

func (e scoringError) Error() string {
	return "scoring failed: " + e.cause.Error()
}

func (e scoringError) Unwrap() []error {
	return []error{ErrUpstreamScoring, e.cause}
}

// UpstreamFailure classifies err as ErrUpstreamScoring while keeping it
// reachable through errors.Is and errors.As.
func UpstreamFailure(err error) error {
	if err == nil || errors.Is(err, ErrUpstreamScoring) {
		return err
	}
	return scoringError{cause: err}
}
