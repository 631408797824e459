package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/blinds"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/clock/publisher"
	"github.com/mcdev12/pokerclock/go/internal/config"
	"github.com/mcdev12/pokerclock/go/internal/gateway"
	"github.com/mcdev12/pokerclock/go/internal/tournament"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Metrics     *prometheus.Registry
	Clocks      *clock.Registry
	Tournaments *tournament.App
	Connections *gateway.ConnectionManager
	Publisher   *publisher.Publisher

	close func() error
}

// Close stops every clock and releases the event sink.
func (s *Services) Close() error {
	s.Clocks.Shutdown()
	if s.close != nil {
		return s.close()
	}
	return nil
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Wire up dependency injection chain
	// Event sinks → Clock registry → Repository → App

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	clockMetrics, err := clock.NewPrometheusMetrics(promRegistry)
	if err != nil {
		return nil, err
	}

	sink, closeSink, err := setupSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pub := publisher.New(sink, publisher.DefaultConfig())
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	clocks := clock.NewRegistry(
		clock.WithTickInterval(cfg.TickInterval),
		clock.WithObservers(connections, pub),
		clock.WithMetrics(clockMetrics),
	)

	presets, err := loadPresets(cfg.PresetsFile)
	if err != nil {
		closeSink()
		return nil, err
	}

	realClock := clockwork.NewRealClock()
	repo := tournament.NewMemoryRepository(realClock)
	app := tournament.NewApp(repo, clocks, presets, realClock)

	return &Services{
		Metrics:     promRegistry,
		Clocks:      clocks,
		Tournaments: app,
		Connections: connections,
		Publisher:   pub,
		close:       closeSink,
	}, nil
}

func setupSink(ctx context.Context, cfg config.Config) (publisher.Sink, func() error, error) {
	if cfg.NATSURL == "" {
		log.Warn().Msg("NATS_URL not set, clock events will only be logged")
		return publisher.LogSink{}, func() error { return nil }, nil
	}

	jsCfg := publisher.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATSURL
	jsCfg.StreamName = cfg.ClockStream
	jsCfg.SubjectPrefix = cfg.ClockSubjectPrefix

	sink, err := publisher.NewJetStreamSink(ctx, jsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create JetStream sink: %w", err)
	}
	log.Info().
		Str("nats_url", jsCfg.URL).
		Str("stream", jsCfg.StreamName).
		Msg("publishing clock events to JetStream")
	return sink, sink.Close, nil
}

func loadPresets(path string) ([]blinds.Preset, error) {
	if path == "" {
		return blinds.DefaultPresets(), nil
	}

	presets, err := blinds.LoadPresets(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", path).Int("presets", len(presets)).Msg("loaded blind presets")
	return presets, nil
}
