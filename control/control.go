// Package control implements the media control: a single button whose
// gestures edit the saved selector, clear it, or resolve it against the
// current page and open the media URL.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/use-agent/vidopen/models"
	"github.com/use-agent/vidopen/opener"
	"github.com/use-agent/vidopen/resolver"
	"github.com/use-agent/vidopen/store"
	"golang.org/x/net/html"
)

// User-facing text.
const (
	LabelSaved   = "🎥 Open Video"
	LabelUnset   = "🎥 Set Video XPath"
	Hint         = "Left-click: Open video\nAlt+Click: Update XPath\nDouble-click: Clear XPath"
	PromptNew    = "Enter the XPath to the video element:"
	PromptEdit   = "Enter new XPath (cancel to keep existing):"
	ClearedNotif = "Saved XPath cleared!"
)

// State is whether a selector is persisted.
type State int

const (
	Unset State = iota
	Saved
)

func (s State) String() string {
	if s == Saved {
		return "saved"
	}
	return "unset"
}

// Page supplies the current document and the URL it was loaded from. It is asked again
// on every resolution, so changes to the page between clicks are seen.
type Page interface {
	Document(ctx context.Context) (doc *html.Node, baseURL string, err error)
}

// PageFunc adapts a function to the Page interface.
type PageFunc func(ctx context.Context) (*html.Node, string, error)

func (f PageFunc) Document(ctx context.Context) (*html.Node, string, error) { return f(ctx) }

// Prompter asks the user for a line of text and blocks until they answer.
// ok is false when the user cancels.
type Prompter interface {
	Prompt(ctx context.Context, message, initial string) (value string, ok bool, err error)
}

// Notifier shows a blocking message to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Modifiers describe the keys held during a click.
type Modifiers struct {
	Alt bool
}

// Options wires a Control to its collaborators. All fields except
// Background are required.
type Options struct {
	Store    *store.SelectorStore
	Page     Page
	Opener   opener.Opener
	Prompter Prompter
	Notifier Notifier

	// Background opens media tabs without stealing focus.
	Background bool
}

// Control is the selector state machine behind the button. Gestures are
// serialized: one runs to completion, prompts included, before the next
// starts.
type Control struct {
	mu   sync.Mutex
	opts Options
}

// New creates a Control.
func New(opts Options) *Control {
	return &Control{opts: opts}
}

// State derives the current state from the store.
func (c *Control) State(ctx context.Context) (State, error) {
	_, ok, err := c.opts.Store.Get(ctx)
	if err != nil {
		return Unset, err
	}
	if ok {
		return Saved, nil
	}
	return Unset, nil
}

// Saved reports whether a selector is persisted. It drives the saved
// marker on the button.
func (c *Control) Saved(ctx context.Context) bool {
	st, _ := c.State(ctx)
	return st == Saved
}

// Label is the button text for the current state. A store failure reads as
// unset.
func (c *Control) Label(ctx context.Context) string {
	if c.Saved(ctx) {
		return LabelSaved
	}
	return LabelUnset
}

// Click handles a primary click. With Alt held it edits the selector;
// otherwise it resolves the saved selector, prompting for one first when
// none is saved.
func (c *Control) Click(ctx context.Context, mods Modifiers) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mods.Alt {
		return c.edit(ctx)
	}

	xpath, ok, err := c.opts.Store.Get(ctx)
	if err != nil {
		c.fail(ctx, err)
		return err
	}
	if !ok {
		value, answered, err := c.opts.Prompter.Prompt(ctx, PromptNew, "")
		if err != nil {
			return fmt.Errorf("control: prompt: %w", err)
		}
		if !answered || value == "" {
			return nil
		}
		if err := c.opts.Store.Set(ctx, value); err != nil {
			c.fail(ctx, err)
			return err
		}
		xpath = value
	}

	c.open(ctx, xpath)
	return nil
}

// DoubleClick clears the saved selector, whatever the current state, and
// confirms it.
func (c *Control) DoubleClick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.opts.Store.Clear(ctx); err != nil {
		c.fail(ctx, err)
		return err
	}
	c.opts.Notifier.Notify(ctx, ClearedNotif)
	return nil
}

// edit prompts for a replacement selector, prefilled with the current one.
// Cancel keeps the existing value; an empty answer unsets it.
func (c *Control) edit(ctx context.Context) error {
	current, _, err := c.opts.Store.Get(ctx)
	if err != nil {
		c.fail(ctx, err)
		return err
	}
	value, answered, err := c.opts.Prompter.Prompt(ctx, PromptEdit, current)
	if err != nil {
		return fmt.Errorf("control: prompt: %w", err)
	}
	if !answered {
		return nil
	}
	if err := c.opts.Store.Set(ctx, value); err != nil {
		c.fail(ctx, err)
		return err
	}
	return nil
}

// open resolves xpath against the current page and opens the result.
// Every failure ends the attempt with a notification.
func (c *Control) open(ctx context.Context, xpath string) {
	doc, baseURL, err := c.opts.Page.Document(ctx)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	res, err := resolver.Resolve(xpath, doc, baseURL)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	if err := c.opts.Opener.Open(ctx, res.URL, c.opts.Background); err != nil {
		c.fail(ctx, err)
	}
}

func (c *Control) fail(ctx context.Context, err error) {
	c.opts.Notifier.Notify(ctx, ErrorMessage(err))
}

// ErrorMessage formats err the way the control shows it: the error's
// message followed by the hint to edit the selector.
func ErrorMessage(err error) string {
	detail := err.Error()
	var typed *models.Error
	if errors.As(err, &typed) {
		detail = typed.Message
	}
	return fmt.Sprintf("Error: %s\n%s", detail, models.RetryHint)
}
