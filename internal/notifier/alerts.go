package notifier

import (
	"context"
	"sync"

	"CoinSentinel/internal/model"
)

// SignalAlerter pushes a message when the signal label changes to an
// actionable value. Stale and failed ticks never alert.
type SignalAlerter struct {
	sender Sender

	mu   sync.Mutex
	last string
}

func NewSignalAlerter(sender Sender) *SignalAlerter {
	return &SignalAlerter{sender: sender}
}

func (a *SignalAlerter) Name() string { return "telegram" }

// Publish implements scheduler.Publisher.
func (a *SignalAlerter) Publish(ctx context.Context, s model.Snapshot) error {
	if s.Stale || s.FetchFailed {
		return nil
	}

	a.mu.Lock()
	previous := a.last
	a.last = s.Signal.Label
	a.mu.Unlock()

	if s.Signal.Label == previous || !s.Signal.Actionable() {
		return nil
	}
	return a.sender.Send(ctx, FormatAlert(s, previous))
}
