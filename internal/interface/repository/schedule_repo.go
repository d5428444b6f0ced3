package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// HTTPScheduleRepository implements ScheduleRepository over the booking API
type HTTPScheduleRepository struct {
	client *APIClient
}

// NewHTTPScheduleRepository creates a new schedule repository
func NewHTTPScheduleRepository(client *APIClient) repository.ScheduleRepository {
	return &HTTPScheduleRepository{client: client}
}

// Search fetches schedules for an origin, destination and date
func (r *HTTPScheduleRepository) Search(ctx context.Context, params entity.SearchParams) ([]entity.Schedule, error) {
	query := url.Values{}
	query.Set("originId", strconv.FormatInt(params.OriginID, 10))
	query.Set("destinationId", strconv.FormatInt(params.DestinationID, 10))
	query.Set("departureDate", params.DepartureDate)

	var schedules []entity.Schedule
	if err := r.client.doEnveloped(ctx, http.MethodGet, r.client.endpoints.ScheduleSearch, query, nil, &schedules); err != nil {
		return nil, fmt.Errorf("failed to search schedules: %w", err)
	}
	if schedules == nil {
		schedules = []entity.Schedule{}
	}
	return schedules, nil
}

// HTTPRoutePointRepository implements RoutePointRepository over the booking API
type HTTPRoutePointRepository struct {
	client *APIClient
}

// NewHTTPRoutePointRepository creates a new route point repository
func NewHTTPRoutePointRepository(client *APIClient) repository.RoutePointRepository {
	return &HTTPRoutePointRepository{client: client}
}

// ListByDistrict fetches the pickup and drop points inside a district
func (r *HTTPRoutePointRepository) ListByDistrict(ctx context.Context, districtID int64) ([]entity.RoutePoint, error) {
	path := fmt.Sprintf(r.client.endpoints.RoutePoints, districtID)

	var points []entity.RoutePoint
	if err := r.client.doEnveloped(ctx, http.MethodGet, path, nil, nil, &points); err != nil {
		return nil, fmt.Errorf("failed to list route points for district %d: %w", districtID, err)
	}
	return points, nil
}
