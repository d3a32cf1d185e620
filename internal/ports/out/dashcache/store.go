package dashcache

import (
	"context"
	"time"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
)

// Store caches the computed dashboard summary for a short TTL. The dashboard
// is polled by kiosk screens, so a stale-by-seconds summary is acceptable.
type Store interface {
	// Get returns the cached summary and whether one was present.
	Get(ctx context.Context) (domain.DashboardSummary, bool, error)
	Put(ctx context.Context, s domain.DashboardSummary, ttl time.Duration) error
}
