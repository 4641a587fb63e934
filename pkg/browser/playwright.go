package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/browserdesk/browserdesk/pkg/config"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/playwright-community/playwright-go"
)

// Launcher owns the browser engine process and spawns isolated tabs.
// One engine serves all sessions; each session gets its own context+page.
type Launcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	conf    config.Browser
	log     *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewLauncher starts the engine. It's expensive, call once per process.
func NewLauncher(conf config.Browser, log *logger.Logger) (*Launcher, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("playwright start: %w", err)
	}
	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("chromium launch: %w", err)
	}
	log.Info().Msgf("browser engine up: %v", b.Version())
	return &Launcher{pw: pw, browser: b, conf: conf, log: log}, nil
}

// NewTab provisions a fresh page in its own browser context.
func (l *Launcher) NewTab(ctx context.Context, id string) (Tab, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrDetached
	}
	bCtx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  l.conf.Viewport.Width,
			Height: l.conf.Viewport.Height,
		},
		DeviceScaleFactor: playwright.Float(1),
	})
	if err != nil {
		return nil, fmt.Errorf("browser context: %w", err)
	}
	page, err := bCtx.NewPage()
	if err != nil {
		_ = bCtx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	t := &tab{
		page:    page,
		bCtx:    bCtx,
		quality: l.conf.ScreenshotQuality,
		log:     l.log.Extend(l.log.With().Str("sid", id)),
	}
	if l.conf.StartURL != "" {
		if err = t.Navigate(ctx, l.conf.StartURL); err != nil {
			t.log.Warn().Err(err).Msgf("start page %v failed", l.conf.StartURL)
		}
	}
	return t, nil
}

func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	err := l.browser.Close()
	if serr := l.pw.Stop(); err == nil {
		err = serr
	}
	return err
}

// tab drives one playwright page. All engine commands go through mu,
// the engine can't take two in-flight commands on the same page.
type tab struct {
	mu      sync.Mutex
	page    playwright.Page
	bCtx    playwright.BrowserContext
	quality int
	closed  bool
	log     *logger.Logger
}

func (t *tab) guard() error {
	if t.closed || t.page.IsClosed() {
		return ErrDetached
	}
	return nil
}

func (t *tab) Capture(_ context.Context) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return nil, err
	}
	return t.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    playwright.ScreenshotTypeJpeg,
		Quality: playwright.Int(t.quality),
	})
}

func (t *tab) MouseMove(_ context.Context, x, y float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.Mouse().Move(x, y)
}

func (t *tab) MouseDown(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.Mouse().Down()
}

func (t *tab) MouseUp(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.Mouse().Up()
}

func (t *tab) Click(_ context.Context, x, y float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.Mouse().Click(x, y)
}

func (t *tab) Wheel(_ context.Context, dx, dy float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.Mouse().Wheel(dx, dy)
}

func (t *tab) KeyPress(_ context.Context, chord string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	if err := t.page.BringToFront(); err != nil {
		return err
	}
	return t.page.Keyboard().Press(chord)
}

func (t *tab) TypeText(_ context.Context, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	if err := t.page.BringToFront(); err != nil {
		return err
	}
	return t.page.Keyboard().Type(text)
}

func (t *tab) Navigate(_ context.Context, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	_, err := t.page.Goto(NormalizeURL(url), playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (t *tab) Reload(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	_, err := t.page.Reload()
	return err
}

func (t *tab) SetViewport(_ context.Context, width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.guard(); err != nil {
		return err
	}
	return t.page.SetViewportSize(width, height)
}

func (t *tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.page.Close()
	if cerr := t.bCtx.Close(); err == nil {
		err = cerr
	}
	return err
}
