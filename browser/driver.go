package browser

import (
	"context"
	"errors"
)

// ErrNoBrowser is returned when an operation needs Chrome but the manager
// has no live browser connection.
var ErrNoBrowser = errors.New("browser: no active browser")

// Driver is the page-driving capability set consumed by the learning and
// scraping subsystems. All calls are blocking and context-aware; a failed
// call returns an error rather than panicking, and callers decide whether
// that failure is fatal or recoverable.
//
// Scripts passed to Evaluate must be argument-less arrow functions
// returning a JSON string (JSON.stringify'd payload).
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Snapshot(ctx context.Context) ([]Element, error)
	Evaluate(ctx context.Context, js string) (string, error)
}
