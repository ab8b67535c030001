package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"webrelay/internal/adapter/browser"
	"webrelay/internal/infra/config"
	"webrelay/internal/infra/logger"
	"webrelay/internal/infra/tracer"
)

func runBackend() error {
	cfgPath, _ := parseFlags()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(context.Background())

	sessionID := newSessionID()
	log.Info("backend session", "id", sessionID)

	driver, err := browser.NewChromeDriver(browser.ChromeDriverConfig{
		Width:    cfg.Backend.ViewportWidth,
		Height:   cfg.Backend.ViewportHeight,
		StartURL: cfg.Backend.StartURL,
	}, log)
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer driver.Close()

	var journal *browser.Journal
	if cfg.Backend.TraceDB != "" {
		journal, err = browser.OpenJournal(cfg.Backend.TraceDB, sessionID, log)
		if err != nil {
			return fmt.Errorf("trace journal: %w", err)
		}
		defer journal.Close()
		log.Info("trace journal open", "path", cfg.Backend.TraceDB)
	}

	srv := browser.NewServer(driver, journal, browser.ServerConfig{
		Addr:        cfg.Backend.Listen,
		FrameRate:   cfg.Backend.FrameRate,
		JPEGQuality: cfg.Backend.JPEGQuality,
	}, sessionID, log)

	if cfg.Backend.MDNS.Enabled {
		go advertise(ctx, cfg, sessionID, log)
	}

	return srv.Start(ctx)
}

// advertise announces this backend over mDNS until ctx is cancelled.
// With the noop discoverer (no mdns build tag) it just blocks.
func advertise(ctx context.Context, cfg *config.Config, sessionID string, log *slog.Logger) {
	name := cfg.Backend.MDNS.Name
	if name == "" {
		name = "webrelay-" + sessionID[len(sessionID)-6:]
	}
	port := 8000
	if _, p, err := net.SplitHostPort(cfg.Backend.Listen); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	metadata := map[string]string{
		"id":       sessionID,
		"version":  version,
		"viewport": fmt.Sprintf("%dx%d", cfg.Backend.ViewportWidth, cfg.Backend.ViewportHeight),
	}
	if err := buildDiscoverer(log).Advertise(ctx, name, port, metadata); err != nil {
		log.Warn("mdns advertise failed", "error", err)
	}
}

func newSessionID() string {
	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
