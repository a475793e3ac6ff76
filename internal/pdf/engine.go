// Package pdf converts rendered contract HTML into A4 PDF files.
//
// Conversion goes through an ordered list of Engines chosen once at startup
// by Select. The Generator tries each engine in turn, so callers never know
// which one produced the bytes.
package pdf

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"contract-backend/internal/shared/telemetry"
)

// Engine turns a complete HTML document into PDF bytes.
type Engine interface {
	Name() string
	Render(ctx context.Context, html string) ([]byte, error)
}

// Renderer modes accepted by Select.
const (
	ModeAuto   = "auto"
	ModeChrome = "chrome"
	ModeBasic  = "basic"
)

// Options controls engine selection.
type Options struct {
	Mode       string
	BrowserBin string
	Timeout    time.Duration
}

// lookBrowser reports the browser binary to use, preferring an explicit path.
// Replaced in tests.
var lookBrowser = func(explicit string) (string, bool) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if fi, err := os.Stat(explicit); err == nil && !fi.IsDir() {
			return explicit, true
		}
		return "", false
	}
	return launcher.LookPath()
}

// Select probes the runtime once and returns the engines to try, in order.
//
//	auto:   headless Chrome when a browser is installed, then the basic engine
//	chrome: headless Chrome only
//	basic:  the basic engine only
func Select(opts Options) []Engine {
	basic := NewBasicEngine()
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == ModeBasic {
		telemetry.Info("pdf.engines_selected", map[string]any{"mode": mode, "engines": []string{basic.Name()}})
		return []Engine{basic}
	}

	bin, found := lookBrowser(opts.BrowserBin)
	if !found {
		if mode == ModeChrome {
			telemetry.Warn("pdf.browser_missing", map[string]any{"mode": mode, "browser_bin": opts.BrowserBin})
			return []Engine{NewChromeEngine(ChromeOptions{Bin: opts.BrowserBin, Timeout: opts.Timeout})}
		}
		telemetry.Info("pdf.engines_selected", map[string]any{"mode": ModeAuto, "engines": []string{basic.Name()}, "reason": "no browser found"})
		return []Engine{basic}
	}

	chrome := NewChromeEngine(ChromeOptions{Bin: bin, Timeout: opts.Timeout})
	if mode == ModeChrome {
		telemetry.Info("pdf.engines_selected", map[string]any{"mode": mode, "engines": []string{chrome.Name()}, "browser_bin": bin})
		return []Engine{chrome}
	}
	telemetry.Info("pdf.engines_selected", map[string]any{"mode": ModeAuto, "engines": []string{chrome.Name(), basic.Name()}, "browser_bin": bin})
	return []Engine{chrome, basic}
}

// EngineNames lists engine names in order.
func EngineNames(engines []Engine) []string {
	out := make([]string, 0, len(engines))
	for _, e := range engines {
		out = append(out, e.Name())
	}
	return out
}
