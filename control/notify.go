package control

import "context"

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Notify(ctx context.Context, message string) { f(ctx, message) }

// Notifiers fans a notification out to every notifier in order. The first
// one is normally the blocking user-facing notifier.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, message string) {
	for _, n := range ns {
		n.Notify(ctx, message)
	}
}
