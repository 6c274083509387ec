package learn

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
)

// fakeDriver scripts the browser for core tests: canned snapshots, per-URL
// navigation failures, and per-selector answers for count/extract scripts.
type fakeDriver struct {
	elements []browser.Element
	snapErr  error
	clickErr error
	failNav  map[string]bool
	counts   map[string]int
	rows     map[string][]rawExtract
	evalErrs map[string]string

	pageURL   string
	pageTitle string

	navigated []string
	clicked   []string
}

func (d *fakeDriver) Navigate(_ context.Context, url string) error {
	d.navigated = append(d.navigated, url)
	if d.failNav[url] {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED %s", url)
	}
	return nil
}

func (d *fakeDriver) Click(_ context.Context, selector string) error {
	d.clicked = append(d.clicked, selector)
	return d.clickErr
}

func (d *fakeDriver) Type(context.Context, string, string) error { return nil }

func (d *fakeDriver) Screenshot(context.Context, bool) ([]byte, error) { return nil, nil }

func (d *fakeDriver) Snapshot(context.Context) ([]browser.Element, error) {
	return d.elements, d.snapErr
}

func (d *fakeDriver) Evaluate(_ context.Context, js string) (string, error) {
	if strings.Contains(js, "location.href") {
		info, _ := json.Marshal(pageInfo{URL: d.pageURL, Title: d.pageTitle})
		return string(info), nil
	}
	for sel, msg := range d.evalErrs {
		if strings.Contains(js, strconv.Quote(sel)) {
			return "", fmt.Errorf("%s", msg)
		}
	}
	if strings.Contains(js, ".length") {
		for sel, n := range d.counts {
			if strings.Contains(js, strconv.Quote(sel)) {
				return strconv.Itoa(n), nil
			}
		}
		return "0", nil
	}
	if strings.Contains(js, "textContent") {
		for sel, rows := range d.rows {
			if strings.Contains(js, strconv.Quote(sel)) {
				out, _ := json.Marshal(rows)
				return string(out), nil
			}
		}
		return "[]", nil
	}
	return "", fmt.Errorf("fakeDriver: unhandled script")
}
