// Package opener hands resolved media URLs to a browsing context.
package opener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/browser"
)

// Opener opens url in a new top-level browsing context. background asks for
// a tab that does not take focus; implementations that cannot honor it open
// in the foreground.
type Opener interface {
	Open(ctx context.Context, url string, background bool) error
}

// Func adapts a function to the Opener interface.
type Func func(ctx context.Context, url string, background bool) error

func (f Func) Open(ctx context.Context, url string, background bool) error {
	return f(ctx, url, background)
}

// System opens URLs with the operating system's default browser.
type System struct{}

func (System) Open(_ context.Context, url string, _ bool) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("opener: system browser: %w", err)
	}
	return nil
}

// Discard opens nothing. The resolved URL is only reported to the caller.
type Discard struct{}

func (Discard) Open(_ context.Context, url string, background bool) error {
	slog.Debug("opener disabled, not opening", "url", url, "background", background)
	return nil
}

// TabOpener is implemented by the scraper's managed browser.
type TabOpener interface {
	OpenTab(ctx context.Context, url string, background bool) error
}

// Browser opens URLs as new tabs in the rod-managed Chromium. Unlike
// System it honors background.
type Browser struct {
	Tabs TabOpener
}

func (b Browser) Open(ctx context.Context, url string, background bool) error {
	return b.Tabs.OpenTab(ctx, url, background)
}

// New returns the opener for mode: "system", "browser" (requires tabs) or
// "none".
func New(mode string, tabs TabOpener) (Opener, error) {
	switch mode {
	case "system":
		return System{}, nil
	case "browser":
		if tabs == nil {
			return nil, fmt.Errorf("opener: mode %q requires a browser", mode)
		}
		return Browser{Tabs: tabs}, nil
	case "", "none":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("opener: unknown mode %q", mode)
	}
}
