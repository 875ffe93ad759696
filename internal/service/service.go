package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"qbodega/backend/internal/cache"
	"qbodega/backend/internal/domain"
	"qbodega/backend/internal/promotion"
	"qbodega/backend/internal/store"
)

// systemUser is stamped on movements recorded without an authenticated actor.
const systemUser = "system"

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

func actorName(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Username == "" {
		return systemUser
	}
	return actor.Username
}

// Service owns the inventory, movement, promotion, sales and returns
// workflows. Every mutating workflow runs under mu so that a validation pass
// and the mutations that follow it cannot interleave with another writer.
type Service struct {
	mu       sync.Mutex
	repo     store.Repository
	engine   *promotion.Engine
	stats    cache.StatsCache
	statsTTL time.Duration
	log      *zap.Logger
	now      func() time.Time
}

func New(repo store.Repository, engine *promotion.Engine, statsCache cache.StatsCache, statsTTL time.Duration, logger *zap.Logger) *Service {
	if engine == nil {
		engine = promotion.NewEngine()
	}
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	if statsTTL <= 0 {
		statsTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		engine:   engine,
		stats:    statsCache,
		statsTTL: statsTTL,
		log:      logger.Named("service"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// cachedStats serves key from the stats cache, computing and storing it on a
// miss. Cache failures only cost a recomputation. The compute and the store
// run under mu so a mutation cannot invalidate between them and leave a stale
// snapshot behind.
func cachedStats[T any](ctx context.Context, s *Service, key string, compute func() (T, error)) (T, error) {
	var cached T
	ok, err := s.stats.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return cached, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := compute()
	if err != nil {
		return value, err
	}
	if err := s.stats.Set(ctx, key, value, s.statsTTL); err != nil {
		s.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if err := s.stats.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// normalizeID is the single canonical form for every entity ID the service
// accepts: P001, M012, PR003, V007, DEV002.
func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func inDateRange(t, from, to time.Time) bool {
	day := domain.Day(t)
	if !from.IsZero() && day.Before(domain.Day(from)) {
		return false
	}
	if !to.IsZero() && day.After(domain.Day(to)) {
		return false
	}
	return true
}
