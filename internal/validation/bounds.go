package validation

import (
	"errors"
	"fmt"

	"github.com/julianstephens/callboard/internal/utils"
)

var (
	// ErrOutOfBounds is returned when a candidate time falls outside its bounding window
	ErrOutOfBounds = errors.New("time is outside the allowed window")
	// ErrInvertedRange is returned when a candidate range does not end after it starts
	ErrInvertedRange = errors.New("end time must be after start time")
	// ErrInvalidTime is returned when a time string is not HH:MM
	ErrInvalidTime = errors.New("invalid time format (expected HH:MM)")
)

// RangeError describes which side of a candidate window failed and why.
// It matches ErrOutOfBounds, ErrInvertedRange or ErrInvalidTime via errors.Is.
type RangeError struct {
	Kind  error
	Field string // "start" or "end"
	Value string
	Bound string // the window the value had to fit, e.g. "19:00-22:00"
}

func (e *RangeError) Error() string {
	switch e.Kind {
	case ErrOutOfBounds:
		return fmt.Sprintf("%s time %s is outside %s", e.Field, e.Value, e.Bound)
	case ErrInvertedRange:
		return fmt.Sprintf("end time %s must be after start time %s", e.Value, e.Bound)
	default:
		return fmt.Sprintf("%s time %q: %v", e.Field, e.Value, e.Kind)
	}
}

func (e *RangeError) Unwrap() error {
	return e.Kind
}

// ValidateWithinBounds confirms candidateStart-candidateEnd lies inside
// boundStart-boundEnd and ends after it starts. All values are HH:MM.
func ValidateWithinBounds(boundStart, boundEnd, candidateStart, candidateEnd string) error {
	values := []struct {
		field string
		value string
	}{
		{"bound start", boundStart},
		{"bound end", boundEnd},
		{"start", candidateStart},
		{"end", candidateEnd},
	}
	minutes := make([]int, len(values))
	for i, v := range values {
		m, err := utils.ParseTimeToMinutes(v.value)
		if err != nil {
			return &RangeError{Kind: ErrInvalidTime, Field: v.field, Value: v.value}
		}
		minutes[i] = m
	}

	err := ValidateMinutes(minutes[0], minutes[1], minutes[2], minutes[3])
	var rangeErr *RangeError
	if errors.As(err, &rangeErr) {
		// Report the caller's strings rather than re-rendered minutes
		switch {
		case rangeErr.Kind == ErrInvertedRange:
			rangeErr.Value, rangeErr.Bound = candidateEnd, candidateStart
		case rangeErr.Field == "start":
			rangeErr.Value = candidateStart
		default:
			rangeErr.Value = candidateEnd
		}
	}
	return err
}

// ValidateMinutes is ValidateWithinBounds over minutes since midnight
func ValidateMinutes(boundStart, boundEnd, candidateStart, candidateEnd int) error {
	bound := utils.FormatMinutes(boundStart) + "-" + utils.FormatMinutes(boundEnd)

	if candidateStart < boundStart || candidateStart > boundEnd {
		return &RangeError{Kind: ErrOutOfBounds, Field: "start", Value: utils.FormatMinutes(candidateStart), Bound: bound}
	}
	if candidateEnd < boundStart || candidateEnd > boundEnd {
		return &RangeError{Kind: ErrOutOfBounds, Field: "end", Value: utils.FormatMinutes(candidateEnd), Bound: bound}
	}
	if candidateEnd <= candidateStart {
		return &RangeError{
			Kind:  ErrInvertedRange,
			Field: "end",
			Value: utils.FormatMinutes(candidateEnd),
			Bound: utils.FormatMinutes(candidateStart),
		}
	}
	return nil
}

// ValidateRange checks a standalone HH:MM window such as a rehearsal's
// own start and end.
func ValidateRange(start, end string) error {
	s, err := utils.ParseTimeToMinutes(start)
	if err != nil {
		return &RangeError{Kind: ErrInvalidTime, Field: "start", Value: start}
	}
	e, err := utils.ParseTimeToMinutes(end)
	if err != nil {
		return &RangeError{Kind: ErrInvalidTime, Field: "end", Value: end}
	}
	if e <= s {
		return &RangeError{Kind: ErrInvertedRange, Field: "end", Value: end, Bound: start}
	}
	return nil
}
