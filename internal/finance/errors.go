package finance

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by both InsufficientDataError and
// MissingSeriesError through errors.Is.
var ErrInsufficientData = errors.New("insufficient price data")

// InsufficientDataError reports an asset whose series has fewer than 2 points.
type InsufficientDataError struct {
	Symbol string
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price data for %s: %d points", e.Symbol, e.Points)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// MissingSeriesError reports a symbol absent from the provider response.
type MissingSeriesError struct {
	Symbol string
}

func (e *MissingSeriesError) Error() string {
	return fmt.Sprintf("no price series returned for %s", e.Symbol)
}

func (e *MissingSeriesError) Is(target error) bool { return target == ErrInsufficientData }

// Caller-layer validation errors.
var (
	ErrNoAssets    = errors.New("assets are required and must be a non-empty array")
	ErrWeightsSum  = errors.New("portfolio weights must sum to 100%")
	ErrWeightRange = errors.New("weight must be between 0 and 100")
	ErrDateRange   = errors.New("invalid date range")
)
