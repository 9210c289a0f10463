package finance

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the ISO calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// WeightTolerance is how far the weight total may stray from 100.
const WeightTolerance = 0.1

// ValidateSelection checks that assets is non-empty, each weight lies in
// [0, 100] and the weights sum to 100. The analyzer itself does not require this.
func ValidateSelection(assets []SelectedAsset) error {
	if len(assets) == 0 {
		return ErrNoAssets
	}
	total := 0.0
	for _, a := range assets {
		if a.Symbol == "" {
			return fmt.Errorf("%w: empty symbol", ErrNoAssets)
		}
		if a.Weight < 0 || a.Weight > 100 || math.IsNaN(a.Weight) {
			return fmt.Errorf("%w: %s has %.2f", ErrWeightRange, a.Symbol, a.Weight)
		}
		total += a.Weight
	}
	if math.Abs(total-100) > WeightTolerance {
		return fmt.Errorf("%w (got %.2f)", ErrWeightsSum, total)
	}
	return nil
}

// ValidateDateRange checks both dates are present, parse as YYYY-MM-DD, and
// are ordered.
func ValidateDateRange(dr DateRange) error {
	if dr.StartDate == "" || dr.EndDate == "" {
		return fmt.Errorf("%w: start and end dates are required", ErrDateRange)
	}
	start, err := time.Parse(DateLayout, dr.StartDate)
	if err != nil {
		return fmt.Errorf("%w: start date %q: %v", ErrDateRange, dr.StartDate, err)
	}
	end, err := time.Parse(DateLayout, dr.EndDate)
	if err != nil {
		return fmt.Errorf("%w: end date %q: %v", ErrDateRange, dr.EndDate, err)
	}
	if start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s", ErrDateRange, dr.StartDate, dr.EndDate)
	}
	return nil
}

// Bounds parses the range into UTC midnights. An unparseable or inverted range
// returns ok=false.
func (dr DateRange) Bounds() (start, end time.Time, ok bool) {
	start, err := time.Parse(DateLayout, dr.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse(DateLayout, dr.EndDate)
	if err != nil || end.Before(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
