package services

import "errors"

var (
	// ErrNoMatch means no emission factor matched the lookup key at or above
	// the threshold. A normal outcome, not a defect.
	ErrNoMatch = errors.New("no matching emission factor")
	// ErrNotCalculable means the activity lacks the data needed to calculate
	// emissions (e.g. an air-travel record with neither distance field).
	ErrNotCalculable = errors.New("activity not calculable")
	// ErrUnknownActivityType means no calculator is registered for the
	// activity's type tag; a configuration error rather than a data one.
	ErrUnknownActivityType = errors.New("unknown activity type")
	// ErrActivityNotFound means the referenced activity row does not exist or
	// is soft-deleted.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrFactorReferenced blocks deletion of a factor that emission results
	// still reference.
	ErrFactorReferenced = errors.New("emission factor is referenced by results")
	// ErrNoData means an aggregation period contained no results; nothing is
	// written.
	ErrNoData = errors.New("no data for period")
)
