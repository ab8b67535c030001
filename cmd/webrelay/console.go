package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"webrelay/internal/adapter/console"
	"webrelay/internal/infra/config"
	"webrelay/internal/infra/logger"
	"webrelay/internal/infra/tracer"
	"webrelay/internal/relay"
	"webrelay/internal/usecase/eventbus"
)

func runConsole() error {
	cfgPath, endpointFlag := parseFlags()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}

	// The console owns the terminal; logs must go to a file (or
	// nowhere), never stderr.
	if cfg.Logger.Output == "stderr" {
		cfg.Logger.Output = "file"
	}
	if cfg.Logger.Output == "file" && cfg.Logger.File == "" {
		cfg.Logger.File = config.Defaults().Logger.File
	}
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logCloser()

	ctx := context.Background()
	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer tracerShutdown(ctx)

	bus := eventbus.New(log)
	defer bus.Close()

	activity := relay.NewActivityLog(bus)
	surface := console.NewSurface()
	session := relay.NewSession(surface, activity, bus, log)
	defer session.Close()

	model := console.New(session, activity, bus, surface, cfg.Console.RenderFPS, cfg.Endpoint, log)

	log.Info("console starting", "endpoint", cfg.Endpoint)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(), // hover needs motion without a held button
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}
