package repository

import (
	"context"

	"inzira-booking-client/internal/domain/entity"
)

// ScheduleRepository defines the interface for schedule lookups
type ScheduleRepository interface {
	Search(ctx context.Context, params entity.SearchParams) ([]entity.Schedule, error)
}

// RoutePointRepository defines the interface for route point lookups
type RoutePointRepository interface {
	ListByDistrict(ctx context.Context, districtID int64) ([]entity.RoutePoint, error)
}
