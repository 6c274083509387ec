package nlq

import "errors"

// ErrNoMapping means no rule matched the input. The wrapping error lists
// the supported query shapes.
var ErrNoMapping = errors.New("nlq: no mapping for query")
