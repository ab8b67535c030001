package relay

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"webrelay/internal/domain"
	"webrelay/internal/infra/tracer"
)

// Session owns the mutable session endpoint and the lifecycle of every
// component bound to it. Reconfiguration is atomic: the old stream and
// dispatcher are torn down and a new client, navigator, dispatcher, and
// stream are built against the new endpoint, under one lock. The
// generation counter labels each configuration so anything surviving
// from a superseded one can be recognized and discarded.
type Session struct {
	log    *ActivityLog
	bus    domain.EventBus
	geom   GeometryProvider
	logger *slog.Logger

	gen atomic.Uint64

	mu         sync.Mutex
	endpoint   Endpoint
	genID      string
	client     *Client
	stream     *FrameStream
	dispatcher *Dispatcher
	navigator  *Navigator
	cancel     context.CancelFunc
}

// NewSession creates an unconfigured session. Call Configure to bind it
// to an endpoint.
func NewSession(geom GeometryProvider, log *ActivityLog, bus domain.EventBus, logger *slog.Logger) *Session {
	return &Session{
		log:    log,
		bus:    bus,
		geom:   geom,
		logger: logger,
	}
}

// Configure points the session at endpoint. The old endpoint's stream
// and dispatcher are closed and rebuilt; an invalid endpoint fails
// validation before any teardown, so the running configuration is never
// left half-replaced.
func (s *Session) Configure(ctx context.Context, endpoint string) error {
	ctx, span := tracer.StartSpan(ctx, "session.configure")
	defer span.End()

	ep, err := ParseEndpoint(endpoint)
	if err != nil {
		tracer.RecordError(span, err)
		return err
	}
	span.SetAttributes(tracer.StringAttr("session.endpoint", ep.HTTPBase))

	s.mu.Lock()
	defer s.mu.Unlock()

	gen := s.gen.Add(1)
	s.genID = newGenID()

	s.teardownLocked()

	streamCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.endpoint = ep
	s.client = NewClient(ep.HTTPBase, s.logger)
	s.navigator = NewNavigator(s.client, s.log, s.bus, s.logger)
	s.dispatcher = NewDispatcher(s.client, s.geom, s.log, s.bus, s.logger)
	s.stream = NewFrameStream(ep.StreamURL, gen, s.log, s.bus, s.logger)
	s.stream.Start(streamCtx)

	s.logger.Info("session configured", "endpoint", ep.HTTPBase, "generation", gen, "id", s.genID)
	s.log.Record("Endpoint set: " + ep.HTTPBase)
	return nil
}

// Close tears down the current configuration. The session can be
// configured again afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Add(1)
	s.teardownLocked()
}

// teardownLocked closes the current generation's components. Caller
// holds mu.
func (s *Session) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.stream != nil {
		s.stream.Close()
		s.stream = nil
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
		s.dispatcher = nil
	}
	s.client = nil
	s.navigator = nil
}

// HandleInput forwards a raw input event to the current dispatcher. A
// no-op when the session is unconfigured or being reconfigured.
func (s *Session) HandleInput(ev domain.InputEvent) {
	s.mu.Lock()
	d := s.dispatcher
	s.mu.Unlock()
	if d != nil {
		d.Handle(ev)
	}
}

// Navigator returns the current navigator, or nil when unconfigured.
func (s *Session) Navigator() *Navigator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigator
}

// State returns the frame channel's connection state.
func (s *Session) State() domain.ConnState {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()
	if st == nil {
		return domain.StateDisconnected
	}
	return st.State()
}

// LatestFrame returns the newest decoded frame of the current
// generation, or nil. Frames from superseded generations are
// unreachable: the stream object that held them was replaced.
func (s *Session) LatestFrame() *domain.Frame {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	return st.Latest()
}

// Endpoint returns the currently configured endpoint.
func (s *Session) Endpoint() Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Generation returns the current configuration generation. Consumers
// compare it against event generations to discard stale callbacks.
func (s *Session) Generation() uint64 {
	return s.gen.Load()
}

func newGenID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
