package main

import (
	"context"
	"sync"

	"github.com/notactuallytreyanastasio/browser-mcp/browser"
)

// lazyDriver defers Chrome launch until the first browser-needing call.
// The MCP server registers browser tools unconditionally; sessions that
// only touch the link bag never pay for a Chrome process.
type lazyDriver struct {
	ctx   context.Context // process lifetime, for the manager's monitor loop
	mgr   *browser.Manager
	inner *browser.PageDriver
	once  sync.Once
	err   error
}

func (d *lazyDriver) ensure() error {
	d.once.Do(func() {
		_, d.err = d.mgr.Start(d.ctx)
	})
	return d.err
}

func (d *lazyDriver) Navigate(ctx context.Context, url string) error {
	if err := d.ensure(); err != nil {
		return err
	}
	return d.inner.Navigate(ctx, url)
}

func (d *lazyDriver) Click(ctx context.Context, selector string) error {
	if err := d.ensure(); err != nil {
		return err
	}
	return d.inner.Click(ctx, selector)
}

func (d *lazyDriver) Type(ctx context.Context, selector, text string) error {
	if err := d.ensure(); err != nil {
		return err
	}
	return d.inner.Type(ctx, selector, text)
}

func (d *lazyDriver) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	if err := d.ensure(); err != nil {
		return nil, err
	}
	return d.inner.Screenshot(ctx, fullPage)
}

func (d *lazyDriver) Snapshot(ctx context.Context) ([]browser.Element, error) {
	if err := d.ensure(); err != nil {
		return nil, err
	}
	return d.inner.Snapshot(ctx)
}

func (d *lazyDriver) Evaluate(ctx context.Context, js string) (string, error) {
	if err := d.ensure(); err != nil {
		return "", err
	}
	return d.inner.Evaluate(ctx, js)
}
