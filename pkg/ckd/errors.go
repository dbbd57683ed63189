package ckd

import "errors"

// Errors returned by the training pipeline.  Functions wrap them with
// additional context; use errors.Is to test for them.
var (
	ErrSourceUnavailable        = errors.New("source unavailable")
	ErrSchemaMismatch           = errors.New("schema mismatch")
	ErrMalformedRecord          = errors.New("malformed record")
	ErrEmptyFeatureColumn       = errors.New("empty feature column")
	ErrInsufficientClassSamples = errors.New("insufficient class samples")
	ErrDegenerateLabelSet       = errors.New("degenerate label set")
	ErrArtifactCorrupt          = errors.New("artifact corrupt")
	ErrInvalidTestSize          = errors.New("invalid test size")
	ErrInvalidConfig            = errors.New("invalid configuration")
)
