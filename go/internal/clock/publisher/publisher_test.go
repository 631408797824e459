package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu       sync.Mutex
	msgs     []Message
	failures int
	calls    int
}

func (s *fakeSink) Publish(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *fakeSink) snapshot() ([]Message, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...), s.calls
}

func event(t clock.EventType, id uuid.UUID, level int) clock.Event {
	return clock.Event{
		Type:         t,
		TournamentID: id,
		State:        clock.State{CurrentLevel: level},
		At:           time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
	}
}

func runPublisher(t *testing.T, p *Publisher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestPublisher_ForwardsInOrderAndSkipsTicks(t *testing.T) {
	sink := &fakeSink{}
	p := New(sink, DefaultConfig())
	runPublisher(t, p)

	id := uuid.New()
	p.OnClockEvent(event(clock.EventClockStarted, id, 1))
	p.OnClockEvent(event(clock.EventTick, id, 1))
	p.OnClockEvent(event(clock.EventLevelStarted, id, 2))
	p.OnClockEvent(event(clock.EventTick, id, 2))
	p.OnClockEvent(event(clock.EventClockStopped, id, 2))

	require.Eventually(t, func() bool {
		msgs, _ := sink.snapshot()
		return len(msgs) == 3
	}, time.Second, 5*time.Millisecond)

	msgs, _ := sink.snapshot()
	assert.Equal(t, clock.EventClockStarted, msgs[0].EventType)
	assert.Equal(t, clock.EventLevelStarted, msgs[1].EventType)
	assert.Equal(t, clock.EventClockStopped, msgs[2].EventType)
	assert.Equal(t, 2, msgs[1].Payload.State.CurrentLevel)
	assert.NotEqual(t, msgs[0].EventID, msgs[1].EventID)
	for _, m := range msgs {
		assert.Equal(t, id, m.TournamentID)
	}
}

func TestPublisher_RetriesFailedPublish(t *testing.T) {
	sink := &fakeSink{failures: 2}
	p := New(sink, Config{BufferSize: 4, MaxRetries: 3, RetryDelay: time.Millisecond})
	runPublisher(t, p)

	p.OnClockEvent(event(clock.EventClockPaused, uuid.New(), 1))

	require.Eventually(t, func() bool {
		msgs, _ := sink.snapshot()
		return len(msgs) == 1
	}, time.Second, 5*time.Millisecond)

	_, calls := sink.snapshot()
	assert.Equal(t, 3, calls)
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	p := New(&fakeSink{}, Config{BufferSize: 2})
	id := uuid.New()

	for i := 0; i < 5; i++ {
		p.OnClockEvent(event(clock.EventTimeAdded, id, 1))
	}

	assert.Equal(t, 3, p.Dropped())
	assert.Len(t, p.queue, 2)
}

func TestMessage_Envelope(t *testing.T) {
	id := uuid.New()
	msg := newMessage(event(clock.EventBreakStarted, id, 4))

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "break_started", decoded["eventType"])
	assert.Equal(t, id.String(), decoded["tournamentId"])
	assert.Contains(t, decoded, "eventId")
	assert.Contains(t, decoded, "payload")

	nm := natsMessage("clock.events", msg, data)
	assert.Equal(t, "clock.events.break_started", nm.Subject)
	assert.Equal(t, id.String(), nm.Header.Get("Tournament-ID"))
	assert.Equal(t, msg.EventID.String(), nm.Header.Get("Event-ID"))
}

func TestDefaultJetStreamConfig(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	s := &JetStreamSink{config: cfg}
	sc := s.streamConfig()

	assert.Equal(t, "CLOCK_EVENTS", sc.Name)
	assert.Equal(t, []string{"clock.events.>"}, sc.Subjects)
	assert.True(t, isStreamConfigEqual(sc, sc))

	changed := sc
	changed.MaxAge = time.Hour
	assert.False(t, isStreamConfigEqual(sc, changed))
}
