package dashboard

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sfc-mobility/campus-rides-api/internal/domain"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/dashcache"
	"github.com/sfc-mobility/campus-rides-api/internal/ports/out/riderepo"
)

// DefaultCacheTTL keeps the dashboard a few seconds stale at most; the kiosk
// screens poll far more often than rides change.
const DefaultCacheTTL = 15 * time.Second

// Service computes the 2x2 route-stats summary over upcoming rides.
type Service struct {
	rides riderepo.Repository
	// cache is optional; nil disables caching.
	cache dashcache.Store
	ttl   time.Duration
}

func NewService(ridesRepo riderepo.Repository, cache dashcache.Store) *Service {
	return &Service{rides: ridesRepo, cache: cache, ttl: DefaultCacheTTL}
}

// routeAggregate tracks one bucket while scanning.
type routeAggregate struct {
	earliest time.Time
	vehicles int
}

func (a *routeAggregate) add(departsAt time.Time) {
	a.vehicles++
	if a.vehicles == 1 || departsAt.Before(a.earliest) {
		a.earliest = departsAt
	}
}

func (a *routeAggregate) stats(now time.Time) domain.RouteStats {
	if a.vehicles == 0 {
		return domain.RouteStats{UntilEarliestMin: nil, Vehicles: 0}
	}
	mins := int((a.earliest.Sub(now) + time.Minute - 1) / time.Minute)
	if mins < 0 {
		mins = 0
	}
	return domain.RouteStats{UntilEarliestMin: &mins, Vehicles: a.vehicles}
}

// GetSummary scans rides departing at or after now and buckets them by
// direction and station. Rides that do not form a station-campus route are
// skipped; the route invariant should make those impossible, but a bad row
// must not take the dashboard down.
func (s *Service) GetSummary(ctx context.Context, now time.Time) (domain.DashboardSummary, error) {
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx); err != nil {
			// A cache outage degrades to a recompute; it is not fatal.
			log.Warn().Err(err).Msg("dashboard cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	rides, err := s.rides.List(ctx, riderepo.Filter{DepartsFrom: &now})
	if err != nil {
		return domain.DashboardSummary{}, err
	}

	toSchool := map[domain.Location]*routeAggregate{
		domain.StationShonandai: {},
		domain.StationTsujido:   {},
	}
	fromSchool := map[domain.Location]*routeAggregate{
		domain.StationShonandai: {},
		domain.StationTsujido:   {},
	}

	for _, r := range rides {
		switch {
		case r.FromSpot.IsStation() && r.Destination.IsCampusSpot():
			toSchool[r.FromSpot].add(r.DepartsAt)
		case r.FromSpot.IsCampusSpot() && r.Destination.IsStation():
			fromSchool[r.Destination].add(r.DepartsAt)
		}
	}

	summary := domain.DashboardSummary{
		ToSchool: domain.ToSchoolSummary{
			FromShonandai: toSchool[domain.StationShonandai].stats(now),
			FromTsujido:   toSchool[domain.StationTsujido].stats(now),
		},
		FromSchool: domain.FromSchoolSummary{
			ToShonandai: fromSchool[domain.StationShonandai].stats(now),
			ToTsujido:   fromSchool[domain.StationTsujido].stats(now),
		},
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, summary, s.ttl); err != nil {
			log.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}
	return summary, nil
}
