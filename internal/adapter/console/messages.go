package console

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"webrelay/internal/domain"
)

// relayEventMsg carries one relay event pumped from the bus into the
// program. Events are edge triggers; the model re-reads authoritative
// snapshots rather than trusting the payload.
type relayEventMsg domain.Event

// renderTickMsg paces frame repaints at the configured render FPS.
type renderTickMsg time.Time

// configureDoneMsg reports the outcome of an endpoint change.
type configureDoneMsg struct {
	endpoint string
	err      error
}

// navDoneMsg reports the outcome of a navigation request. The relay
// already logged it; the message only wakes the UI.
type navDoneMsg struct {
	err error
}

// pumpEvents subscribes to the bus and feeds events into a channel the
// program drains via listenEvents. Frame events are filtered out: frame
// repaints are driven by the render tick, not by stream cadence.
func pumpEvents(bus domain.EventBus) (chan domain.Event, func()) {
	events := make(chan domain.Event, 64)
	unsub := bus.SubscribeAll(func(_ context.Context, ev domain.Event) {
		if ev.Type == domain.EventFrameReceived {
			return
		}
		select {
		case events <- ev:
		default:
			// UI behind; it re-reads state on the next event anyway.
		}
	})
	return events, unsub
}

func listenEvents(events chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return relayEventMsg(ev)
	}
}

func renderTick(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return renderTickMsg(t)
	})
}
