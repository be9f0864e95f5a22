package tui

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// promptRequest asks the model to show a text prompt. The gesture that sent
// it blocks until reply receives an answer.
type promptRequest struct {
	message string
	initial string
	reply   chan promptReply
}

type promptReply struct {
	value string
	ok    bool
}

// notifyRequest asks the model to show an alert. done is closed when the
// user dismisses it.
type notifyRequest struct {
	message string
	done    chan struct{}
}

var errDetached = errors.New("tui: bridge is not attached to a program")

// Bridge lets control gestures, which run off the UI goroutine, show modal
// prompts and alerts in the bubbletea program. It implements
// control.Prompter and control.Notifier.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// Attach connects the bridge to a running program, normally p.Send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

func (b *Bridge) post(msg tea.Msg) error {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send == nil {
		return errDetached
	}
	send(msg)
	return nil
}

// Prompt shows message with initial prefilled and waits for the answer.
func (b *Bridge) Prompt(ctx context.Context, message, initial string) (string, bool, error) {
	reply := make(chan promptReply, 1)
	if err := b.post(promptRequest{message: message, initial: initial, reply: reply}); err != nil {
		return "", false, err
	}
	select {
	case r := <-reply:
		return r.value, r.ok, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

// Notify shows message and waits until it is dismissed.
func (b *Bridge) Notify(ctx context.Context, message string) {
	done := make(chan struct{})
	if err := b.post(notifyRequest{message: message, done: done}); err != nil {
		slog.Warn("notification dropped", "message", message, "error", err)
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}
