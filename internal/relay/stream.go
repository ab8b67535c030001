package relay

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "golang.org/x/image/webp"
	"nhooyr.io/websocket"

	"webrelay/internal/domain"
)

// FrameStream is the frame channel client: one persistent WebSocket
// connection delivering binary frame payloads, decoded and published
// latest-wins. It owns the connection state and never reconnects on its
// own; a dropped connection stays Disconnected until the session is
// reconfigured.
type FrameStream struct {
	url        string
	generation uint64

	log    *ActivityLog
	bus    domain.EventBus
	logger *slog.Logger

	state  atomic.Int32
	latest atomic.Pointer[domain.Frame]

	conn      *websocket.Conn
	connMu    sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewFrameStream creates a stream client for the given ws(s) URL.
// generation labels every frame this stream publishes.
func NewFrameStream(url string, generation uint64, log *ActivityLog, bus domain.EventBus, logger *slog.Logger) *FrameStream {
	s := &FrameStream{
		url:        url,
		generation: generation,
		log:        log,
		bus:        bus,
		logger:     logger,
		done:       make(chan struct{}),
	}
	s.state.Store(int32(domain.StateDisconnected))
	return s
}

// Start transitions to Connecting and dials in the background. The dial
// and read loop never block the caller; outcomes surface through State,
// the activity log, and bus events.
func (s *FrameStream) Start(ctx context.Context) {
	s.setState(domain.StateConnecting)

	go func() {
		conn, _, err := websocket.Dial(ctx, s.url, nil)
		if err != nil {
			select {
			case <-s.done:
				// Torn down while dialing; stay quiet.
				return
			default:
			}
			s.logger.Warn("frame stream dial failed", "url", s.url, "error", err)
			s.log.Recordf("Connection error: %v", err)
			s.setState(domain.StateError)
			return
		}
		// Frames can be large; the default 32 KiB read limit is too small.
		conn.SetReadLimit(16 << 20)

		s.connMu.Lock()
		select {
		case <-s.done:
			s.connMu.Unlock()
			conn.Close(websocket.StatusNormalClosure, "superseded")
			return
		default:
		}
		s.conn = conn
		s.connMu.Unlock()

		s.setState(domain.StateConnected)
		s.log.Record("Connected")
		s.readLoop(ctx, conn)
	}()
}

// State returns the current connection state.
func (s *FrameStream) State() domain.ConnState {
	return domain.ConnState(s.state.Load())
}

// Latest returns the most recently decoded frame, or nil.
func (s *FrameStream) Latest() *domain.Frame {
	return s.latest.Load()
}

// Close tears the stream down: no frame received before Close may be
// published after it, and the resulting state is Disconnected.
func (s *FrameStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "session closed")
		}
		s.setState(domain.StateDisconnected)
		s.log.Record("connection closed")
	})
}

func (s *FrameStream) setState(st domain.ConnState) {
	s.state.Store(int32(st))
	if s.bus != nil {
		s.bus.Publish(context.Background(), domain.Event{
			Type:       domain.EventStateChanged,
			Timestamp:  time.Now(),
			Generation: s.generation,
			Payload:    domain.StateChangedPayload{State: st},
		})
	}
}

func (s *FrameStream) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			select {
			case <-s.done:
				// Local teardown already transitioned to Disconnected.
				return
			default:
			}
			if websocket.CloseStatus(err) != -1 || ctx.Err() != nil {
				s.setState(domain.StateDisconnected)
				s.log.Record("connection closed")
			} else {
				s.logger.Warn("frame stream read failed", "error", err)
				s.log.Recordf("Connection error: %v", err)
				s.setState(domain.StateError)
			}
			return
		}
		if typ != websocket.MessageBinary {
			continue
		}

		// Decode off the read loop so a slow decode never stalls receipt
		// of the next message. Whichever decode finishes last wins; any
		// out-of-order display of adjacent frames is cosmetic.
		go s.decodeAndPublish(data)
	}
}

func (s *FrameStream) decodeAndPublish(data []byte) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Non-fatal: keep the previous frame, keep the connection.
		s.logger.Warn("frame decode failed", "bytes", len(data), "error", err)
		s.log.Recordf("Frame decode error: %v", err)
		return
	}

	select {
	case <-s.done:
		// Teardown began; this frame must not be published.
		return
	default:
	}

	frame := &domain.Frame{
		Image:      img,
		Format:     format,
		Bytes:      data,
		ReceivedAt: time.Now(),
		Generation: s.generation,
	}
	s.latest.Store(frame)

	if s.bus != nil {
		s.bus.Publish(context.Background(), domain.Event{
			Type:       domain.EventFrameReceived,
			Timestamp:  frame.ReceivedAt,
			Generation: s.generation,
		})
	}
}
