package relay

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"webrelay/internal/domain"
)

// encodePNG produces a w×h PNG payload.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// frameServer is a WebSocket test backend that pushes whatever payloads
// are fed to Send and closes the connection when Shutdown is called.
type frameServer struct {
	srv    *httptest.Server
	frames chan []byte
	stop   chan struct{}
	once   sync.Once
}

func newFrameServer(t *testing.T) *frameServer {
	t.Helper()
	fs := &frameServer{
		frames: make(chan []byte, 16),
		stop:   make(chan struct{}),
	}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		for {
			select {
			case <-fs.stop:
				c.Close(websocket.StatusNormalClosure, "server shutting down")
				return
			case <-r.Context().Done():
				return
			case payload := <-fs.frames:
				if err := c.Write(r.Context(), websocket.MessageBinary, payload); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(fs.srv.Close)
	t.Cleanup(fs.Shutdown)
	return fs
}

func (fs *frameServer) URL() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http") + "/screenshot"
}

func (fs *frameServer) Send(payload []byte) { fs.frames <- payload }

func (fs *frameServer) Shutdown() { fs.once.Do(func() { close(fs.stop) }) }

// recordingBus synchronously records published events.
type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(_ context.Context, e domain.Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

func (b *recordingBus) Subscribe(domain.EventType, domain.EventHandler) func() { return func() {} }
func (b *recordingBus) SubscribeAll(domain.EventHandler) func()               { return func() {} }
func (b *recordingBus) Close()                                                {}

func (b *recordingBus) states() []domain.ConnState {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.ConnState
	for _, e := range b.events {
		if p, ok := e.Payload.(domain.StateChangedPayload); ok {
			out = append(out, p.State)
		}
	}
	return out
}

func waitState(t *testing.T, s *FrameStream, want domain.ConnState) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", s.State(), want)
}

func waitFrameSize(t *testing.T, s *FrameStream, w, h int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if f := s.Latest(); f != nil {
			if fw, fh := f.Size(); fw == w && fh == h {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	f := s.Latest()
	t.Fatalf("latest frame = %+v, want %dx%d", f, w, h)
}

func TestFrameStreamConnectTransitions(t *testing.T) {
	fs := newFrameServer(t)
	bus := &recordingBus{}
	log := NewActivityLog(nil)

	s := NewFrameStream(fs.URL(), 1, log, bus, discardLogger())
	if s.State() != domain.StateDisconnected {
		t.Fatalf("initial state = %v, want Disconnected", s.State())
	}

	s.Start(context.Background())
	defer s.Close()
	waitState(t, s, domain.StateConnected)

	states := bus.states()
	if len(states) < 2 || states[0] != domain.StateConnecting || states[1] != domain.StateConnected {
		t.Errorf("state sequence = %v, want [connecting connected]", states)
	}

	var sawConnected bool
	for _, e := range log.Entries() {
		if e == "Connected" {
			sawConnected = true
		}
	}
	if !sawConnected {
		t.Errorf("activity log missing Connected: %v", log.Entries())
	}
}

func TestFrameStreamLatestWins(t *testing.T) {
	fs := newFrameServer(t)
	log := NewActivityLog(nil)
	s := NewFrameStream(fs.URL(), 1, log, nil, discardLogger())
	s.Start(context.Background())
	defer s.Close()
	waitState(t, s, domain.StateConnected)

	fs.Send(encodePNG(t, 2, 2))
	waitFrameSize(t, s, 2, 2)

	fs.Send(encodePNG(t, 3, 3))
	waitFrameSize(t, s, 3, 3)

	if s.Latest().Generation != 1 {
		t.Errorf("frame generation = %d, want 1", s.Latest().Generation)
	}
}

func TestFrameStreamDecodeFailureKeepsPriorFrame(t *testing.T) {
	fs := newFrameServer(t)
	log := NewActivityLog(nil)
	s := NewFrameStream(fs.URL(), 1, log, nil, discardLogger())
	s.Start(context.Background())
	defer s.Close()
	waitState(t, s, domain.StateConnected)

	fs.Send(encodePNG(t, 4, 4))
	waitFrameSize(t, s, 4, 4)

	fs.Send([]byte("definitely not an image"))

	deadline := time.Now().Add(2 * time.Second)
	var logged bool
	for time.Now().Before(deadline) && !logged {
		for _, e := range log.Entries() {
			if strings.HasPrefix(e, "Frame decode error") {
				logged = true
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !logged {
		t.Fatalf("decode failure missing from log: %v", log.Entries())
	}

	if w, h := s.Latest().Size(); w != 4 || h != 4 {
		t.Errorf("latest = %dx%d, want prior 4x4 frame", w, h)
	}
	if s.State() != domain.StateConnected {
		t.Errorf("state = %v, want Connected after decode failure", s.State())
	}
}

func TestFrameStreamRemoteCloseDisconnects(t *testing.T) {
	fs := newFrameServer(t)
	log := NewActivityLog(nil)
	s := NewFrameStream(fs.URL(), 1, log, nil, discardLogger())
	s.Start(context.Background())
	waitState(t, s, domain.StateConnected)

	fs.Shutdown()
	waitState(t, s, domain.StateDisconnected)

	var sawClosed bool
	for _, e := range log.Entries() {
		if e == "connection closed" {
			sawClosed = true
		}
	}
	if !sawClosed {
		t.Errorf("activity log missing close line: %v", log.Entries())
	}
}

func TestFrameStreamCloseSuppressesLateFrames(t *testing.T) {
	fs := newFrameServer(t)
	log := NewActivityLog(nil)
	s := NewFrameStream(fs.URL(), 1, log, nil, discardLogger())
	s.Start(context.Background())
	waitState(t, s, domain.StateConnected)

	fs.Send(encodePNG(t, 2, 2))
	waitFrameSize(t, s, 2, 2)

	s.Close()
	if s.State() != domain.StateDisconnected {
		t.Fatalf("state after Close = %v, want Disconnected", s.State())
	}

	// A frame decoded after teardown must not be published.
	s.decodeAndPublish(encodePNG(t, 9, 9))
	if w, h := s.Latest().Size(); w != 2 || h != 2 {
		t.Errorf("latest = %dx%d, want pre-close 2x2 frame", w, h)
	}
}

func TestFrameStreamDialFailureSetsError(t *testing.T) {
	log := NewActivityLog(nil)
	// Nothing listens here.
	s := NewFrameStream("ws://127.0.0.1:1/screenshot", 1, log, nil, discardLogger())
	s.Start(context.Background())
	waitState(t, s, domain.StateError)

	var sawError bool
	for _, e := range log.Entries() {
		if strings.HasPrefix(e, "Connection error") {
			sawError = true
		}
	}
	if !sawError {
		t.Errorf("activity log missing connection error: %v", log.Entries())
	}
}
