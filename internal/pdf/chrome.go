package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// A4 in inches with 2 cm margins.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
	marginIn   = 0.7874
)

// ChromeOptions configures the headless browser engine.
type ChromeOptions struct {
	Bin     string
	Timeout time.Duration
}

// ChromeEngine prints HTML through a headless Chrome controlled by go-rod.
// The browser is started on first use and shared by all renders.
type ChromeEngine struct {
	opts ChromeOptions

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewChromeEngine builds an engine; no process is started until Render.
func NewChromeEngine(opts ChromeOptions) *ChromeEngine {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &ChromeEngine{opts: opts}
}

func (e *ChromeEngine) Name() string { return "chrome" }

// Render loads html into a fresh tab and prints it to PDF.
func (e *ChromeEngine) Render(ctx context.Context, html string) ([]byte, error) {
	browser, err := e.ensureBrowser()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("chrome: open page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(html); err != nil {
		return nil, fmt.Errorf("chrome: set content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("chrome: wait load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PaperWidth:        floatPtr(a4WidthIn),
		PaperHeight:       floatPtr(a4HeightIn),
		MarginTop:         floatPtr(marginIn),
		MarginBottom:      floatPtr(marginIn),
		MarginLeft:        floatPtr(marginIn),
		MarginRight:       floatPtr(marginIn),
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("chrome: print: %w", err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("chrome: read pdf: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("chrome: empty pdf")
	}
	return data, nil
}

// Close shuts the browser down if it was started.
func (e *ChromeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var err error
	if e.browser != nil {
		err = e.browser.Close()
		e.browser = nil
	}
	if e.launcher != nil {
		e.launcher.Kill()
		e.launcher.Cleanup()
		e.launcher = nil
	}
	return err
}

func (e *ChromeEngine) ensureBrowser() (*rod.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browser != nil {
		return e.browser, nil
	}
	if e.opts.Bin == "" {
		return nil, errors.New("chrome: no browser binary available")
	}

	l := launcher.New().Bin(e.opts.Bin).Headless(true).NoSandbox(true).Leakless(false)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("chrome: launch %s: %w", e.opts.Bin, err)
	}
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("chrome: connect: %w", err)
	}
	e.launcher = l
	e.browser = browser
	return browser, nil
}

func floatPtr(v float64) *float64 { return &v }
