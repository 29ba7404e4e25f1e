// Package fallback runs calls to unreliable collaborators and turns any
// failure into a typed absent value that callers replace with a default.
package fallback

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/riskwise/internal/metrics"
)

// Kind classifies why a fallback was taken
type Kind string

const (
	// KindGateway is an external service failure (non-200, transport, malformed payload)
	KindGateway Kind = "gateway"
	// KindExtraction is free text that could not be parsed into a ticker, tier or profile
	KindExtraction Kind = "extraction"
	// KindModelUnavailable is a model inference failure or missing trained model
	KindModelUnavailable Kind = "model_unavailable"
	// KindSchemaDrift is inference with features missing from the trained schema
	KindSchemaDrift Kind = "schema_drift"
)

// Value is the outcome of an Attempt: either a value or an absent marker with its cause
type Value[T any] struct {
	Val T
	OK  bool
	Err error
}

// Or returns the value when present, def otherwise
func (v Value[T]) Or(def T) T {
	if v.OK {
		return v.Val
	}
	return def
}

// PanicError wraps a value recovered from a panicking call
type PanicError struct {
	Recovered any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("recovered panic: %v", e.Recovered)
}

// Attempt runs fn and never propagates its failure. Errors and panics are
// logged once at Warn with the kind and site, counted, and reported as an
// absent Value.
func Attempt[T any](ctx context.Context, kind Kind, site string, fn func(context.Context) (T, error)) (out Value[T]) {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}

	defer func() {
		if r := recover(); r != nil {
			out = Value[T]{Err: &PanicError{Recovered: r}}
			record(logger, kind, site, out.Err)
		}
	}()

	val, err := fn(ctx)
	if err != nil {
		record(logger, kind, site, err)
		return Value[T]{Err: err}
	}
	return Value[T]{Val: val, OK: true}
}

// Note records a fallback decided by the caller without running a call,
// e.g. an extraction that produced nothing usable
func Note(ctx context.Context, kind Kind, site string, err error) {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &log.Logger
	}
	record(logger, kind, site, err)
}

func record(logger *zerolog.Logger, kind Kind, site string, err error) {
	metrics.RecordFallback(string(kind))
	logger.Warn().
		Err(err).
		Str("kind", string(kind)).
		Str("site", site).
		Msg("Falling back")
}
