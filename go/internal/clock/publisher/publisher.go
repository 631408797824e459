// Package publisher forwards clock events to an external sink from a
// background worker, so clock engines never wait on the network.
package publisher

import (
	"context"
	"sync"
	"time"

	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/rs/zerolog/log"
)

type Config struct {
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
		MaxRetries: 3,
		RetryDelay: 200 * time.Millisecond,
	}
}

// Publisher is a clock.Observer that queues every event except ticks and
// hands them to a Sink in order. When the queue is full the event is dropped.
type Publisher struct {
	sink   Sink
	config Config
	queue  chan Message

	mu      sync.Mutex
	dropped int
}

func New(sink Sink, cfg Config) *Publisher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &Publisher{
		sink:   sink,
		config: cfg,
		queue:  make(chan Message, cfg.BufferSize),
	}
}

func (p *Publisher) OnClockEvent(e clock.Event) {
	if e.Type == clock.EventTick {
		return
	}

	select {
	case p.queue <- newMessage(e):
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		log.Warn().
			Str("tournament_id", e.TournamentID.String()).
			Str("event_type", string(e.Type)).
			Msg("publish queue full, dropping clock event")
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (p *Publisher) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Run publishes queued messages until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	log.Info().Int("buffer_size", p.config.BufferSize).Msg("clock event publisher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("clock event publisher stopped")
			return
		case msg := <-p.queue:
			p.publish(ctx, msg)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, msg Message) {
	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.config.RetryDelay):
			}
		}
		if err = p.sink.Publish(ctx, msg); err == nil {
			return
		}
	}

	log.Error().
		Err(err).
		Str("event_id", msg.EventID.String()).
		Str("event_type", string(msg.EventType)).
		Str("tournament_id", msg.TournamentID.String()).
		Msg("failed to publish clock event")
}

// LogSink writes messages to the log instead of a broker.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, msg Message) error {
	log.Info().
		Str("event_id", msg.EventID.String()).
		Str("event_type", string(msg.EventType)).
		Str("tournament_id", msg.TournamentID.String()).
		Int("level", msg.Payload.State.CurrentLevel).
		Msg("clock event")
	return nil
}
