package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
)

// ModelStore keeps serialized engine snapshots under a name.
// Several versions of the same name may coexist; the most recently saved
// one is the latest.
type ModelStore interface {
	Close() error

	// SaveModel stores m under a freshly generated ID and returns it.
	SaveModel(ctx context.Context, m Model) (string, error)
	GetModel(ctx context.Context, id string) (Model, error)
	LatestModel(ctx context.Context, name string) (Model, error)
	// ListModels returns models newest first. An empty name lists all of them.
	ListModels(ctx context.Context, name string) ([]ModelInfo, error)
	DeleteModel(ctx context.Context, id string) error
}

// Model is a stored engine snapshot.
type Model struct {
	ID        string
	Name      string
	Language  string
	CreatedAt time.Time
	Data      []byte
}

// ModelInfo describes a model without its payload.
type ModelInfo struct {
	ID        string
	Name      string
	Language  string
	CreatedAt time.Time
	Size      int
}

// Info strips the payload from m.
func (m Model) Info() ModelInfo {
	return ModelInfo{
		ID:        m.ID,
		Name:      m.Name,
		Language:  m.Language,
		CreatedAt: m.CreatedAt,
		Size:      len(m.Data),
	}
}

// Prepare validates m before it is stored and fills CreatedAt when unset.
func Prepare(m Model, now time.Time) (Model, error) {
	if strings.TrimSpace(m.Name) == "" {
		return Model{}, fmt.Errorf("model name is empty: %w", internalerr.ErrInvalidArgument)
	}
	if m.Language == "" {
		return Model{}, fmt.Errorf("model %q has no language: %w", m.Name, internalerr.ErrInvalidArgument)
	}
	if len(m.Data) == 0 {
		return Model{}, fmt.Errorf("model %q has no data: %w", m.Name, internalerr.ErrInvalidArgument)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

// IDGenerator hands out lexically sortable model IDs. IDs generated by the
// same generator are strictly increasing.
type IDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates a generator seeded from crypto/rand.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns an ID for time t.
func (g *IDGenerator) New(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
