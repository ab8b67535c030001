package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"webrelay/internal/domain"
)

// GeometryProvider reports the current bounds of the display surface in
// host units. The dispatcher reads it fresh on every event — the surface
// resizes whenever a frame with different dimensions arrives, so cached
// geometry would skew normalization.
type GeometryProvider interface {
	SurfaceGeometry() domain.SurfaceGeometry
}

const dispatchQueueSize = 256

// Dispatcher turns raw input events into backend commands. Handle never
// blocks: commands are queued and sent by a single goroutine, preserving
// local emission order, and a failed or dropped send only produces a log
// entry. No end-to-end ordering is guaranteed past the local queue.
type Dispatcher struct {
	client *Client
	geom   GeometryProvider
	log    *ActivityLog
	bus    domain.EventBus
	logger *slog.Logger

	queue     chan domain.Command
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher bound to client and starts its
// sender goroutine.
func NewDispatcher(client *Client, geom GeometryProvider, log *ActivityLog, bus domain.EventBus, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		client: client,
		geom:   geom,
		log:    log,
		bus:    bus,
		logger: logger,
		queue:  make(chan domain.Command, dispatchQueueSize),
		done:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.sendLoop()
	return d
}

// Handle captures one input event: reads geometry fresh, normalizes,
// records the activity line, and queues the command. Key-up is recorded
// but never dispatched. Returns immediately in all cases.
func (d *Dispatcher) Handle(ev domain.InputEvent) {
	switch ev.Kind {
	case domain.InputPointerMove, domain.InputClick:
		nx, ny, ok := domain.NormalizePoint(d.geom.SurfaceGeometry(), ev.X, ev.Y)
		if !ok {
			d.logger.Debug("input dropped: degenerate surface geometry", "kind", ev.Kind.String())
			return
		}
		d.log.Recordf("%s (%.2f, %.2f)", ev.Kind, nx, ny)
		if ev.Kind == domain.InputClick {
			d.enqueue(domain.ClickCommand(nx, ny))
		} else {
			d.enqueue(domain.HoverCommand(nx, ny))
		}

	case domain.InputWheel:
		ndx, ndy, ok := domain.NormalizeWheel(d.geom.SurfaceGeometry(), ev.DX, ev.DY)
		if !ok {
			d.logger.Debug("input dropped: degenerate surface geometry", "kind", ev.Kind.String())
			return
		}
		d.log.Recordf("%s (%.2f, %.2f)", ev.Kind, ndx, ndy)
		d.enqueue(domain.ScrollCommand(ndx, ndy))

	case domain.InputKeyDown:
		d.log.Recordf("%s: %s", ev.Kind, ev.Key)
		d.enqueue(domain.KeyPressCommand(ev.Key))

	case domain.InputKeyUp:
		// Log-only: a key press is dispatched once, on key-down.
		d.log.Recordf("%s: %s", ev.Kind, ev.Key)
	}
}

// Close stops the sender goroutine. Queued commands are discarded.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(cmd domain.Command) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.queue <- cmd:
	default:
		// A full queue means the backend is far behind; dropping beats
		// blocking event capture.
		d.logger.Warn("dispatch queue full, dropping command", "kind", cmd.Kind)
		d.log.Recordf("Dropped %s: queue full", cmd.Kind)
	}
}

func (d *Dispatcher) sendLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.done:
			return
		case cmd := <-d.queue:
			d.send(cmd)
		}
	}
}

func (d *Dispatcher) send(cmd domain.Command) {
	ctx, cancel := context.WithTimeout(context.Background(), clientTimeout)
	defer cancel()

	if err := d.client.Do(ctx, cmd); err != nil {
		d.logger.Warn("command dispatch failed", "kind", cmd.Kind, "error", err)
		d.log.Recordf("Failed %s: %v", cmd.Kind, err)
		d.publish(domain.EventCommandFailed, cmd, err)
		return
	}
	d.publish(domain.EventCommandSent, cmd, nil)
}

func (d *Dispatcher) publish(t domain.EventType, cmd domain.Command, err error) {
	if d.bus == nil {
		return
	}
	p := domain.CommandPayload{Kind: cmd.Kind}
	if err != nil {
		p.Error = err.Error()
	}
	d.bus.Publish(context.Background(), domain.Event{
		Type:      t,
		Timestamp: time.Now(),
		Payload:   p,
	})
}
