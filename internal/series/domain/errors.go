package series

import "errors"

var (
	// ErrEmptySiteID is returned when a point carries no site identifier.
	ErrEmptySiteID = errors.New("series: empty site id")
	// ErrInvalidDay is returned when a day key is not a calendar date.
	ErrInvalidDay = errors.New("series: invalid day")
	// ErrNegativeEnergy is returned when a point carries a negative energy value.
	ErrNegativeEnergy = errors.New("series: negative energy value")
)
