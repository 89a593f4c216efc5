// internal/approvals/pending/service.go
package pending

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"approval-console/internal/approvals/client"
	"approval-console/internal/common/logger"
	"approval-console/internal/models"
)

const summaryCacheKey = "approvals:pending-summary"

// Service serves the pending-approvals overview shown on the console
// dashboard (badge counts plus the first pending records of each kind).
// Results are cached read-through in Redis for a short TTL because every
// console page load hits this endpoint. A decision invalidates the cache so
// the badge counts never lag a resolution.
type Service struct {
	api    client.Service
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewService(api client.Service, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Service {
	return &Service{
		api:    api,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "pending"}),
	}
}

// Summary returns the pending-approvals overview, from cache when fresh.
// Cache failures degrade to a direct service call; they are never fatal.
func (s *Service) Summary(ctx context.Context) (*client.PendingSummary, error) {
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, summaryCacheKey).Result(); err == nil {
			var summary client.PendingSummary
			if err := json.Unmarshal([]byte(val), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.api.ListPendingApprovals(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, summaryCacheKey, data, s.ttl).Err(); err != nil {
				s.logger.WithError(err).Debug("pending summary cache write failed", nil)
			}
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary.
func (s *Service) Invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, summaryCacheKey).Err(); err != nil {
		s.logger.WithError(err).Debug("pending summary cache invalidation failed", nil)
	}
}

// The service doubles as a decision hook so resolved records are reflected
// in the badge counts immediately.

func (s *Service) LoanDecided(ctx context.Context, _ models.Application, _ client.LoanAction, _ string) {
	s.Invalidate(ctx)
}

func (s *Service) CardStatusChanged(ctx context.Context, _ models.Application, _ models.CardStatus, _ string) {
	s.Invalidate(ctx)
}
