package notify

import "context"

// Notifier mirrors admin alerts to an operations channel.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Nop drops everything.
type Nop struct{}

func (Nop) Send(context.Context, string, string) error { return nil }
