package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable matches every SourceError.
	ErrSourceUnavailable = errors.New("forecast source unavailable")

	// ErrForecastUnavailable is returned when neither the short-range nor
	// the outlook path produced any data.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// ErrorKind classifies a source failure.
type ErrorKind string

const (
	KindTransient ErrorKind = "transient" // network, timeout, non-success status
	KindMalformed ErrorKind = "malformed" // unexpected payload shape
)

// SourceError is a classified upstream failure.
type SourceError struct {
	Source Source
	Kind   ErrorKind
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Kind, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSourceUnavailable) match any SourceError.
func (e *SourceError) Is(target error) bool { return target == ErrSourceUnavailable }

// NewSourceError wraps err with its source and kind.
func NewSourceError(source Source, kind ErrorKind, err error) *SourceError {
	return &SourceError{Source: source, Kind: kind, Err: err}
}
