package tournament

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pokerclock/go/internal/clock"
	"github.com/mcdev12/pokerclock/go/internal/models"
	"github.com/rs/zerolog/log"
)

// MemoryRepository keeps tournament records in memory. Records are cloned
// on the way in and out.
type MemoryRepository struct {
	clock clockwork.Clock

	mu          sync.RWMutex
	tournaments map[uuid.UUID]*models.Tournament
}

func NewMemoryRepository(clk clockwork.Clock) *MemoryRepository {
	return &MemoryRepository{
		clock:       clk,
		tournaments: make(map[uuid.UUID]*models.Tournament),
	}
}

func (r *MemoryRepository) CreateTournament(ctx context.Context, t models.Tournament) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tournaments[t.ID]; exists {
		return nil, fmt.Errorf("tournament %s already exists", t.ID)
	}
	stored := t.Clone()
	r.tournaments[t.ID] = &stored

	out := stored.Clone()
	return &out, nil
}

func (r *MemoryRepository) GetTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := t.Clone()
	return &out, nil
}

// ListTournaments returns all tournaments, oldest first.
func (r *MemoryRepository) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	r.mu.RLock()
	out := make([]models.Tournament, 0, len(r.tournaments))
	for _, t := range r.tournaments {
		out = append(out, t.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateTournament applies fn to the stored record under the write lock.
// The level pointer is owned by the clock: any change fn makes to it is
// discarded.
func (r *MemoryRepository) UpdateTournament(ctx context.Context, id uuid.UUID, fn func(t *models.Tournament) error) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tournaments[id]
	if !ok {
		return nil, ErrNotFound
	}

	working := stored.Clone()
	if err := fn(&working); err != nil {
		return nil, err
	}
	working.ID = stored.ID
	working.CurrentLevel = stored.CurrentLevel
	working.UpdatedAt = r.clock.Now()
	r.tournaments[id] = &working

	out := working.Clone()
	return &out, nil
}

// LevelWriter returns the write-back callback handed to the tournament's
// clock. It is the only path that changes the stored level pointer.
func (r *MemoryRepository) LevelWriter(id uuid.UUID) clock.LevelWriter {
	return func(level int) {
		r.mu.Lock()
		defer r.mu.Unlock()

		t, ok := r.tournaments[id]
		if !ok {
			log.Warn().Str("tournament_id", id.String()).Int("level", level).Msg("level write-back for unknown tournament")
			return
		}
		t.CurrentLevel = level
		t.UpdatedAt = r.clock.Now()
	}
}
