package relay

import (
	"context"
	"log/slog"
	"time"

	"webrelay/internal/domain"
	"webrelay/internal/infra/tracer"
)

// Navigator issues discrete navigation commands, independent of the
// continuous input stream. Each call is one synchronous request; hosts
// invoke it from their own async machinery.
type Navigator struct {
	client *Client
	log    *ActivityLog
	bus    domain.EventBus
	logger *slog.Logger
}

// NewNavigator creates a navigator bound to client.
func NewNavigator(client *Client, log *ActivityLog, bus domain.EventBus, logger *slog.Logger) *Navigator {
	return &Navigator{client: client, log: log, bus: bus, logger: logger}
}

// GoTo navigates the remote page to url.
func (n *Navigator) GoTo(ctx context.Context, url string) error {
	return n.do(ctx, domain.NavigateCommand(url), "Navigated to: "+url)
}

// Back navigates the remote page back in history.
func (n *Navigator) Back(ctx context.Context) error {
	return n.do(ctx, domain.BackCommand(), "Navigated back")
}

// Forward navigates the remote page forward in history.
func (n *Navigator) Forward(ctx context.Context) error {
	return n.do(ctx, domain.ForwardCommand(), "Navigated forward")
}

func (n *Navigator) do(ctx context.Context, cmd domain.Command, successLine string) error {
	ctx, span := tracer.StartSpan(ctx, "navigator."+string(cmd.Kind))
	defer span.End()
	span.SetAttributes(tracer.StringAttr("command.kind", string(cmd.Kind)))

	if err := n.client.Do(ctx, cmd); err != nil {
		tracer.RecordError(span, err)
		n.logger.Warn("navigation failed", "kind", cmd.Kind, "error", err)
		n.log.Recordf("Failed %s: %v", cmd.Kind, err)
		return err
	}
	tracer.SetOK(span)
	n.log.Record(successLine)

	if n.bus != nil {
		n.bus.Publish(context.Background(), domain.Event{
			Type:      domain.EventNavCompleted,
			Timestamp: time.Now(),
			Payload:   domain.CommandPayload{Kind: cmd.Kind},
		})
	}
	return nil
}
