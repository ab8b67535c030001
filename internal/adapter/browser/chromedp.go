package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cdpinput "github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"webrelay/internal/domain"
)

// ChromeDriverConfig holds configuration for the chromedp page driver.
type ChromeDriverConfig struct {
	// RemoteURL is the CDP WebSocket endpoint for connecting to a remote
	// Chrome. If empty, a local headless Chrome is launched.
	RemoteURL string
	// Viewport dimensions in CSS pixels.
	Width, Height int
	// StartURL is loaded once at startup; empty skips the initial load.
	StartURL string
	// Timeout is the per-action timeout.
	Timeout time.Duration
}

// ChromeDriver implements PageDriver on a single chromedp tab. All
// actions are serialized: the driver runs one CDP command sequence at a
// time, matching the single remote operator the backend serves.
type ChromeDriver struct {
	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	width       int
	height      int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewChromeDriver launches (or attaches to) Chrome, sizes the viewport,
// and optionally loads cfg.StartURL.
func NewChromeDriver(cfg ChromeDriverConfig, logger *slog.Logger) (*ChromeDriver, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}

	d := &ChromeDriver{
		width:   cfg.Width,
		height:  cfg.Height,
		timeout: cfg.Timeout,
		logger:  logger,
	}

	var allocCtx context.Context
	if cfg.RemoteURL != "" {
		allocCtx, d.allocCancel = chromedp.NewRemoteAllocator(
			context.Background(), cfg.RemoteURL,
		)
		logger.Info("chromedp connecting to remote browser", "url", cfg.RemoteURL)
	} else {
		// Copy default options to avoid mutating the package-level slice.
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(cfg.Width, cfg.Height),
		)
		allocCtx, d.allocCancel = chromedp.NewExecAllocator(
			context.Background(), opts...,
		)
		logger.Info("chromedp launching local browser",
			"viewport", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}

	d.tabCtx, d.tabCancel = chromedp.NewContext(allocCtx)

	// Start the browser by running the viewport setup.
	// IMPORTANT: the CDP session binds to the context passed to the
	// first Run; a timeout-derived context would kill the session when
	// it expires, so the deadline is enforced out-of-band.
	startDone := make(chan error, 1)
	go func() {
		startDone <- chromedp.Run(d.tabCtx,
			chromedp.EmulateViewport(int64(cfg.Width), int64(cfg.Height)),
		)
	}()
	select {
	case err := <-startDone:
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-time.After(cfg.Timeout):
		d.Close()
		return nil, fmt.Errorf("start browser: timed out after %v", cfg.Timeout)
	}

	if cfg.StartURL != "" {
		if err := d.Navigate(context.Background(), cfg.StartURL); err != nil {
			d.Close()
			return nil, fmt.Errorf("load start url: %w", err)
		}
	}

	logger.Info("chromedp browser started")
	return d, nil
}

// run executes actions under the driver lock with the per-action timeout.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tctx, cancel := context.WithTimeout(d.tabCtx, d.timeout)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		tctx, dcancel = context.WithDeadline(tctx, deadline)
		defer dcancel()
	}
	return chromedp.Run(tctx, actions...)
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
}

func (d *ChromeDriver) Back(ctx context.Context) error {
	return d.historyStep(ctx, -1)
}

func (d *ChromeDriver) Forward(ctx context.Context) error {
	return d.historyStep(ctx, +1)
}

func (d *ChromeDriver) historyStep(ctx context.Context, dir int64) error {
	return d.run(ctx, chromedp.ActionFunc(func(actx context.Context) error {
		cur, entries, err := page.GetNavigationHistory().Do(actx)
		if err != nil {
			return err
		}
		idx := cur + dir
		if idx < 0 || idx >= int64(len(entries)) {
			return domain.ErrNoHistory
		}
		return page.NavigateToHistoryEntry(entries[idx].ID).Do(actx)
	}))
}

func (d *ChromeDriver) Hover(ctx context.Context, x, y float64) error {
	px, py := x*float64(d.width), y*float64(d.height)
	return d.run(ctx, chromedp.MouseEvent(cdpinput.MouseMoved, px, py))
}

// focusAtPointJS focuses the element under a viewport point and reports
// whether it took focus. The body itself never counts as focused.
const focusAtPointJS = `(() => {
	const el = document.elementFromPoint(%f, %f);
	if (!el) return false;
	el.focus();
	return document.activeElement === el && el !== document.body;
})()`

func (d *ChromeDriver) Click(ctx context.Context, x, y float64) (bool, error) {
	px, py := x*float64(d.width), y*float64(d.height)
	var focused bool
	err := d.run(ctx,
		chromedp.MouseClickXY(px, py),
		chromedp.Evaluate(fmt.Sprintf(focusAtPointJS, px, py), &focused),
	)
	if err != nil {
		return false, err
	}
	return focused, nil
}

func (d *ChromeDriver) Scroll(ctx context.Context, dx, dy float64) error {
	px, py := dx*float64(d.width), dy*float64(d.height)
	return d.run(ctx,
		chromedp.Evaluate(fmt.Sprintf("window.scrollBy(%f, %f)", px, py), nil),
	)
}

// inputFocusedJS reports whether the active element accepts keyboard
// input: an input, a textarea, or anything contenteditable.
const inputFocusedJS = `(() => {
	const el = document.activeElement;
	if (!el) return false;
	return el.tagName === 'INPUT' || el.tagName === 'TEXTAREA' || el.isContentEditable;
})()`

// specialRunes maps backend key identifiers to the CDP key runes
// chromedp's keyboard layer understands.
var specialRunes = map[string]string{
	"Enter":      kb.Enter,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"Escape":     kb.Escape,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
}

func (d *ChromeDriver) Press(ctx context.Context, key string) error {
	keys := key
	if r, ok := specialRunes[key]; ok {
		keys = r
	}
	var focused bool
	if err := d.run(ctx, chromedp.Evaluate(inputFocusedJS, &focused)); err != nil {
		return err
	}
	if !focused {
		return domain.ErrNoInputFocus
	}
	return d.run(ctx, chromedp.KeyEvent(keys))
}

func (d *ChromeDriver) Screenshot(ctx context.Context, quality int) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.ActionFunc(func(actx context.Context) error {
		data, err := page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatJpeg).
			WithQuality(int64(quality)).
			Do(actx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, domain.WrapOp("screenshot", err)
	}
	return buf, nil
}

func (d *ChromeDriver) Title(ctx context.Context) (string, error) {
	var title string
	if err := d.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (d *ChromeDriver) Content(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", err
	}
	return html, nil
}

func (d *ChromeDriver) PDF(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.ActionFunc(func(actx context.Context) error {
		data, _, err := page.PrintToPDF().Do(actx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err != nil {
		return nil, domain.WrapOp("pdf", err)
	}
	return buf, nil
}

func (d *ChromeDriver) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := d.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Close tears down the tab and the browser process.
func (d *ChromeDriver) Close() error {
	if d.tabCancel != nil {
		d.tabCancel()
	}
	if d.allocCancel != nil {
		d.allocCancel()
	}
	return nil
}
