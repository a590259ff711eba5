package store

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError reports input rejected before any write reached the
// database. Correcting the input and resubmitting is always safe.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateSampleError reports a measurement whose (zone, metric,
// timestamp) triple is already stored. The store never overwrites; the
// caller decides whether to discard the sample or adjust its timestamp.
type DuplicateSampleError struct {
	Zone      string
	Metric    string
	Timestamp time.Time
}

func (e *DuplicateSampleError) Error() string {
	return fmt.Sprintf("duplicate sample: %s for zone %q at %s already recorded",
		e.Metric, e.Zone, e.Timestamp.UTC().Format(time.RFC3339))
}

// NotFoundError reports an absent zone, setting, reading, or forecast.
type NotFoundError struct {
	Kind string // "zone", "config", "measurement", "weather"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDuplicateSample reports whether err is (or wraps) a
// DuplicateSampleError.
func IsDuplicateSample(err error) bool {
	var de *DuplicateSampleError
	return errors.As(err, &de)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
