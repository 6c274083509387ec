package learn

import "errors"

// ErrSessionNotFound is returned when a session id is unknown: either it
// never existed or EndSession already removed it.
var ErrSessionNotFound = errors.New("learn: session not found")

// ErrPatternNotFound is returned when a pattern id is not in the registry.
var ErrPatternNotFound = errors.New("learn: pattern not found")

// ErrElementNotFound is returned by RecordClick when no element in the
// current snapshot matches the description.
var ErrElementNotFound = errors.New("learn: no element matches description")

// ErrNoElementsFound is returned by RecordExtraction when the description
// matches zero elements (extraction requires at least one).
var ErrNoElementsFound = errors.New("learn: no elements match description")

// ErrNavigation wraps a driver failure to load a page.
var ErrNavigation = errors.New("learn: navigation failed")

// ErrDriverAction wraps any other driver call reporting failure.
var ErrDriverAction = errors.New("learn: driver action failed")
