package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"webrelay/internal/domain"
)

const (
	maxCommandBody  = 1 << 20
	frameWriteGrace = 2 * time.Second
)

// ServerConfig holds the backend HTTP server settings.
type ServerConfig struct {
	Addr        string
	FrameRate   int
	JPEGQuality int
}

// Server exposes a PageDriver over the relay wire protocol: one POST
// route per command kind plus the /screenshot frame stream, with
// inspection routes on GET.
type Server struct {
	driver  PageDriver
	journal *Journal // nil disables journaling
	metrics *Metrics
	logger  *slog.Logger
	cfg     ServerConfig
	session string

	started   time.Time
	httpSrv   *http.Server
	boundAddr string

	shutdown  chan struct{}
	closeOnce sync.Once
	streamWG  sync.WaitGroup
}

// NewServer creates the backend server. session is the ULID labeling
// this backend instance in health output and trace rows; journal may be
// nil.
func NewServer(driver PageDriver, journal *Journal, cfg ServerConfig, session string, logger *slog.Logger) *Server {
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 10
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 70
	}
	return &Server{
		driver:   driver,
		journal:  journal,
		metrics:  NewMetrics(),
		logger:   logger,
		cfg:      cfg,
		session:  session,
		shutdown: make(chan struct{}),
	}
}

// Start begins serving. Blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/goto", s.commandHandler("goto", s.execGoto))
	mux.HandleFunc("/back", s.commandHandler("back", s.execBack))
	mux.HandleFunc("/forward", s.commandHandler("forward", s.execForward))
	mux.HandleFunc("/hover", s.commandHandler("hover", s.execHover))
	mux.HandleFunc("/click", s.commandHandler("click", s.execClick))
	mux.HandleFunc("/scroll", s.commandHandler("scroll", s.execScroll))
	mux.HandleFunc("/keyboard", s.commandHandler("keyboard", s.execKeyboard))

	mux.HandleFunc("/screenshot", s.handleScreenshot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/title", s.handleTitle)
	mux.HandleFunc("/content", s.handleContent)
	mux.HandleFunc("/pdf", s.handlePDF)
	mux.HandleFunc("/metrics", metricsHandler(time.Now(), s.metrics))

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("backend listen: %w", err)
	}
	s.boundAddr = listener.Addr().String()
	s.started = time.Now()
	s.httpSrv = &http.Server{Handler: mux}

	s.logger.Info("backend started", "addr", s.boundAddr, "session", s.session)

	go func() {
		<-ctx.Done()
		s.Stop(context.Background())
	}()

	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("backend serve: %w", err)
	}
	return nil
}

// Stop gracefully shuts down: stream clients are released, then the
// HTTP server drains.
func (s *Server) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.shutdown) })
	s.streamWG.Wait()

	if s.httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// BoundAddr returns the actual listen address. Only valid after Start.
func (s *Server) BoundAddr() string { return s.boundAddr }

// Metrics exposes the server's counters.
func (s *Server) Metrics() *Metrics { return s.metrics }

// commandOutcome is what a command executor reports back to the shared
// handler plumbing.
type commandOutcome struct {
	// extra fields merged into the success response (e.g. "focused").
	extra map[string]any
	// refusal is a command the page cannot honor right now: HTTP 200
	// with success=false and this text.
	refusal string
}

type execFunc func(ctx context.Context, body []byte) (commandOutcome, error)

// commandHandler wraps an executor with the wire contract: POST only,
// JSON body, 200 {"success":true,...} on success, 200
// {"success":false,"error":...} on refusal, 500 {"detail":...} on
// driver failure. Every executed command is counted and journaled.
func (s *Server) commandHandler(kind string, exec execFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCommandBody))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "read body: " + err.Error()})
			return
		}

		s.metrics.CountCommand(kind)
		out, err := exec(r.Context(), body)

		switch {
		case err != nil:
			s.metrics.CmdErrors.Add(1)
			s.journalRecord(kind, body, false, err.Error())
			s.logger.Error("command failed", "kind", kind, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})

		case out.refusal != "":
			s.journalRecord(kind, body, false, out.refusal)
			s.logger.Debug("command refused", "kind", kind, "reason", out.refusal)
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": out.refusal})

		default:
			s.journalRecord(kind, body, true, "")
			resp := map[string]any{"success": true}
			for k, v := range out.extra {
				resp[k] = v
			}
			writeJSON(w, http.StatusOK, resp)
		}
	}
}

func (s *Server) journalRecord(kind string, body []byte, ok bool, detail string) {
	if s.journal == nil {
		return
	}
	s.journal.Record(kind, string(body), ok, detail)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) execGoto(ctx context.Context, body []byte) (commandOutcome, error) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.URL == "" {
		return commandOutcome{}, fmt.Errorf("goto: invalid body: %w", errors.Join(err, domain.ErrInvalidInput))
	}
	return commandOutcome{}, s.driver.Navigate(ctx, req.URL)
}

func (s *Server) execBack(ctx context.Context, _ []byte) (commandOutcome, error) {
	err := s.driver.Back(ctx)
	if errors.Is(err, domain.ErrNoHistory) {
		return commandOutcome{refusal: "No previous page in history"}, nil
	}
	return commandOutcome{}, err
}

func (s *Server) execForward(ctx context.Context, _ []byte) (commandOutcome, error) {
	err := s.driver.Forward(ctx)
	if errors.Is(err, domain.ErrNoHistory) {
		return commandOutcome{refusal: "No next page in history"}, nil
	}
	return commandOutcome{}, err
}

func (s *Server) execHover(ctx context.Context, body []byte) (commandOutcome, error) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return commandOutcome{}, fmt.Errorf("hover: invalid body: %w", err)
	}
	return commandOutcome{}, s.driver.Hover(ctx, req.X, req.Y)
}

func (s *Server) execClick(ctx context.Context, body []byte) (commandOutcome, error) {
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return commandOutcome{}, fmt.Errorf("click: invalid body: %w", err)
	}
	focused, err := s.driver.Click(ctx, req.X, req.Y)
	if err != nil {
		return commandOutcome{}, err
	}
	return commandOutcome{extra: map[string]any{"focused": focused}}, nil
}

func (s *Server) execScroll(ctx context.Context, body []byte) (commandOutcome, error) {
	var req struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return commandOutcome{}, fmt.Errorf("scroll: invalid body: %w", err)
	}
	return commandOutcome{}, s.driver.Scroll(ctx, req.DX, req.DY)
}

func (s *Server) execKeyboard(ctx context.Context, body []byte) (commandOutcome, error) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &req); err != nil || req.Key == "" {
		return commandOutcome{}, fmt.Errorf("keyboard: invalid body: %w", errors.Join(err, domain.ErrInvalidInput))
	}
	err := s.driver.Press(ctx, req.Key)
	if errors.Is(err, domain.ErrNoInputFocus) {
		return commandOutcome{refusal: "No input element is focused"}, nil
	}
	return commandOutcome{}, err
}

// handleScreenshot upgrades to WebSocket and pushes JPEG frames at the
// configured rate until the client disconnects or the server stops.
// Each client gets its own pacer; a client that cannot drain a frame
// within the write grace is disconnected rather than buffered.
func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // stream clients are CLIs, not browsers
	})
	if err != nil {
		s.logger.Warn("stream accept failed", "error", err)
		return
	}

	s.streamWG.Add(1)
	defer s.streamWG.Done()
	s.metrics.StreamsSeen.Add(1)
	s.metrics.StreamsOpen.Add(1)
	defer s.metrics.StreamsOpen.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("stream client connected", "remote", r.RemoteAddr)
	defer ws.Close(websocket.StatusNormalClosure, "")

	limiter := rate.NewLimiter(rate.Limit(s.cfg.FrameRate), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			s.logger.Info("stream client done", "remote", r.RemoteAddr)
			return
		}
		frame, err := s.driver.Screenshot(ctx, s.cfg.JPEGQuality)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Debug("screenshot capture failed", "error", err)
			continue
		}
		wctx, wcancel := context.WithTimeout(ctx, frameWriteGrace)
		err = ws.Write(wctx, websocket.MessageBinary, frame)
		wcancel()
		if err != nil {
			s.logger.Info("stream client dropped", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.metrics.FramesSent.Add(1)
		s.metrics.FrameBytes.Add(int64(len(frame)))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	url, err := s.driver.CurrentURL(r.Context())
	if err != nil {
		url = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"session":        s.session,
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"url":            url,
	})
}

func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	title, err := s.driver.Title(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"title": title})
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.driver.Content(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": content})
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := s.driver.PDF(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Write(pdf)
}
