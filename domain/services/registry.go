package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// RegistryDeps are the collaborators shared by every engine the registry creates
type RegistryDeps struct {
	Clock         interfaces.Clock
	Rails         interfaces.RailFactory
	Oracle        interfaces.RandomnessOracle
	Publisher     interfaces.EventPublisher
	Repository    interfaces.LotteryRepository // optional
	OracleTimeout time.Duration
}

// Registry creates and tracks lottery engines. Its lock guards the map only;
// engines serialize themselves.
type Registry struct {
	mu      sync.RWMutex
	engines map[entities.LotteryID]*LotteryEngine
	deps    RegistryDeps
}

// NewRegistry creates an empty registry
func NewRegistry(deps RegistryDeps) *Registry {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	return &Registry{
		engines: make(map[entities.LotteryID]*LotteryEngine),
		deps:    deps,
	}
}

// Create validates cfg and starts a new lottery owned by creator
func (r *Registry) Create(ctx context.Context, creator entities.AccountID, cfg entities.LotteryConfig) (entities.LotteryID, error) {
	if creator == "" {
		return "", fmt.Errorf("%w: creator is required", entities.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	id := entities.LotteryID(uuid.NewString())
	engine := NewLotteryEngine(id, creator, cfg, r.engineDeps(id, cfg.PaymentToken))

	if r.deps.Repository != nil {
		if err := r.deps.Repository.Save(ctx, engine.Snapshot()); err != nil {
			return "", fmt.Errorf("failed to persist lottery: %w", err)
		}
	}

	r.mu.Lock()
	r.engines[id] = engine
	r.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID":  id,
		"creator":    creator,
		"token":      cfg.PaymentToken,
		"maxTickets": cfg.MaxTickets,
		"drawTime":   cfg.DrawTime,
	}).Info("Lottery created")

	if r.deps.Publisher != nil {
		event := events.LotteryCreatedEvent{
			Creator:   creator,
			LotteryID: id,
			DrawTime:  cfg.DrawTime.Unix(),
		}
		if err := r.deps.Publisher.Publish(event); err != nil {
			log.WithError(err).WithField("lotteryID", id).Error("Failed to publish lottery created event")
		}
	}

	return id, nil
}

// Get returns the engine for id
func (r *Registry) Get(id entities.LotteryID) (*LotteryEngine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	engine, ok := r.engines[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLotteryNotFound, id)
	}
	return engine, nil
}

// List returns every engine ordered by creation time
func (r *Registry) List() []*LotteryEngine {
	r.mu.RLock()
	out := make([]*LotteryEngine, 0, len(r.engines))
	for _, engine := range r.engines {
		out = append(out, engine)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Restore loads every persisted lottery into the registry. Snapshots that fail
// to rebuild are logged and skipped; the count of restored engines is returned.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	if r.deps.Repository == nil {
		return 0, nil
	}

	snapshots, err := r.deps.Repository.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load lotteries: %w", err)
	}

	restored := 0
	for _, snapshot := range snapshots {
		engine, err := RestoreLotteryEngine(snapshot, r.engineDeps(snapshot.ID, snapshot.Config.PaymentToken))
		if err != nil {
			log.WithError(err).WithField("lotteryID", snapshot.ID).Error("Failed to restore lottery")
			continue
		}
		r.mu.Lock()
		r.engines[snapshot.ID] = engine
		r.mu.Unlock()
		restored++
	}

	log.WithField("count", restored).Info("Restored lotteries from storage")
	return restored, nil
}

func (r *Registry) engineDeps(id entities.LotteryID, token string) EngineDeps {
	return EngineDeps{
		Clock:         r.deps.Clock,
		Rail:          r.deps.Rails.RailFor(id, token),
		Oracle:        r.deps.Oracle,
		Publisher:     r.deps.Publisher,
		Repository:    r.deps.Repository,
		OracleTimeout: r.deps.OracleTimeout,
	}
}
