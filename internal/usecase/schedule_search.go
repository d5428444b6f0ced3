package usecase

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
	"inzira-booking-client/pkg/utils"
)

// SearchFallbackMessage is shown when the server gave no usable message
const SearchFallbackMessage = "Failed to search schedules. Please try again."

// Bucket bounds in minutes since midnight, inclusive
var timeBuckets = map[string][2]int{
	entity.BucketMorning:   {5 * 60, 12 * 60},
	entity.BucketAfternoon: {12*60 + 30, 17*60 + 30},
	entity.BucketEvening:   {18 * 60, 22 * 60},
}

// SeatCounter reports live seat counts
type SeatCounter interface {
	// EffectiveAvailableSeats is the pushed count when known, else the snapshot's
	EffectiveAvailableSeats(schedule *entity.Schedule) int
}

// SeatOverlay supplies live seat counts on top of polled schedules
type SeatOverlay interface {
	SeatCounter

	// Track declares the schedules currently on display
	Track(ctx context.Context, schedules []entity.Schedule)
}

// SearchResult holds a successful search. An empty list is a valid result.
type SearchResult struct {
	Params    entity.SearchParams
	Schedules []entity.Schedule
}

// NoMatches reports the explicit "no schedules" outcome
func (r *SearchResult) NoMatches() bool {
	return len(r.Schedules) == 0
}

// LiveSchedule is a schedule with its seat overlay applied
type LiveSchedule struct {
	entity.Schedule
	EffectiveSeats int
	Bookable       bool
	SeatCap        int
}

// ScheduleSearchEngine searches schedules and shapes the result list
type ScheduleSearchEngine struct {
	scheduleRepo repository.ScheduleRepository
	seats        SeatOverlay
	maxSeats     int
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewScheduleSearchEngine creates a new search engine. seats may be nil.
func NewScheduleSearchEngine(
	scheduleRepo repository.ScheduleRepository,
	seats SeatOverlay,
	maxSeats int,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ScheduleSearchEngine {
	return &ScheduleSearchEngine{
		scheduleRepo: scheduleRepo,
		seats:        seats,
		maxSeats:     maxSeats,
		metrics:      metrics,
		logger:       logger,
	}
}

// ValidateAndBuildSearchParams is the only place search input is checked.
// Form submission and deep links both go through it.
func ValidateAndBuildSearchParams(originID, destinationID, departureDate string) (entity.SearchParams, error) {
	originID = strings.TrimSpace(originID)
	destinationID = strings.TrimSpace(destinationID)
	departureDate = strings.TrimSpace(departureDate)

	switch {
	case originID == "":
		return entity.SearchParams{}, domain.ValidationError{Field: "originId", Msg: "Please select an origin"}
	case destinationID == "":
		return entity.SearchParams{}, domain.ValidationError{Field: "destinationId", Msg: "Please select a destination"}
	case departureDate == "":
		return entity.SearchParams{}, domain.ValidationError{Field: "departureDate", Msg: "Please select a departure date"}
	case originID == destinationID:
		return entity.SearchParams{}, domain.ValidationError{Field: "destinationId", Msg: "Origin and destination cannot be the same"}
	}

	origin, err := strconv.ParseInt(originID, 10, 64)
	if err != nil || origin <= 0 {
		return entity.SearchParams{}, domain.ValidationError{Field: "originId", Msg: "invalid district", Err: err}
	}
	destination, err := strconv.ParseInt(destinationID, 10, 64)
	if err != nil || destination <= 0 {
		return entity.SearchParams{}, domain.ValidationError{Field: "destinationId", Msg: "invalid district", Err: err}
	}
	if origin == destination {
		return entity.SearchParams{}, domain.ValidationError{Field: "destinationId", Msg: "Origin and destination cannot be the same"}
	}
	if !utils.IsDate(departureDate) {
		return entity.SearchParams{}, domain.ValidationError{Field: "departureDate", Msg: "expected YYYY-MM-DD"}
	}

	return entity.SearchParams{
		OriginID:      origin,
		DestinationID: destination,
		DepartureDate: departureDate,
	}, nil
}

// SearchFromForm runs a search from explicit user input
func (e *ScheduleSearchEngine) SearchFromForm(ctx context.Context, originID, destinationID, departureDate string) (*SearchResult, error) {
	params, err := ValidateAndBuildSearchParams(originID, destinationID, departureDate)
	if err != nil {
		e.metrics.Searches.WithLabelValues("invalid").Inc()
		return nil, err
	}
	return e.Search(ctx, params)
}

// SearchFromDeepLink runs a search from "originId=..&destinationId=..&departureDate=.."
func (e *ScheduleSearchEngine) SearchFromDeepLink(ctx context.Context, rawQuery string) (*SearchResult, error) {
	query, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		e.metrics.Searches.WithLabelValues("invalid").Inc()
		return nil, domain.ValidationError{Field: "query", Msg: "malformed search link", Err: err}
	}
	return e.SearchFromForm(ctx, query.Get("originId"), query.Get("destinationId"), query.Get("departureDate"))
}

// Search fetches schedules for validated params and hands them to the seat overlay
func (e *ScheduleSearchEngine) Search(ctx context.Context, params entity.SearchParams) (*SearchResult, error) {
	start := time.Now()
	schedules, err := e.scheduleRepo.Search(ctx, params)
	e.metrics.RequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.Searches.WithLabelValues("error").Inc()
		e.metrics.ErrorsCount.WithLabelValues("search").Inc()
		e.logger.Error("Schedule search failed",
			"originId", params.OriginID,
			"destinationId", params.DestinationID,
			"departureDate", params.DepartureDate,
			"error", err)

		return nil, domain.NetworkError{
			Op:  "search",
			Msg: domain.UserMessage(err, SearchFallbackMessage),
			Err: err,
		}
	}

	result := &SearchResult{Params: params, Schedules: schedules}
	if result.NoMatches() {
		e.metrics.Searches.WithLabelValues("empty").Inc()
		e.logger.Info("No schedules found", "originId", params.OriginID, "destinationId", params.DestinationID)
	} else {
		e.metrics.Searches.WithLabelValues("ok").Inc()
	}

	if e.seats != nil {
		e.seats.Track(ctx, schedules)
	}
	return result, nil
}

// Overlay applies live seat counts to schedules
func (e *ScheduleSearchEngine) Overlay(schedules []entity.Schedule) []LiveSchedule {
	out := make([]LiveSchedule, 0, len(schedules))
	for i := range schedules {
		s := schedules[i]
		seats := s.AvailableSeats
		if e.seats != nil {
			seats = e.seats.EffectiveAvailableSeats(&s)
		}
		out = append(out, LiveSchedule{
			Schedule:       s,
			EffectiveSeats: seats,
			Bookable:       seats > 0 && s.IsOpen(),
			SeatCap:        SeatCap(seats, e.maxSeats),
		})
	}
	return out
}

// SeatCap is min(available, max) and never below zero
func SeatCap(available, limit int) int {
	if available < limit {
		limit = available
	}
	if limit < 0 {
		return 0
	}
	return limit
}

// FilterAndSort returns a new list: bucket filter first, then sort.
// The input is not modified. Unparsable departure times never match a
// bucket and sort after all parsable ones.
func FilterAndSort(schedules []entity.Schedule, filter entity.ScheduleFilter) []entity.Schedule {
	out := make([]entity.Schedule, 0, len(schedules))
	bounds, bucketed := timeBuckets[filter.TimeBucket]
	for _, s := range schedules {
		if bucketed {
			minutes, err := utils.MinutesSinceMidnight(s.DepartureTime)
			if err != nil || minutes < bounds[0] || minutes > bounds[1] {
				continue
			}
		}
		out = append(out, s)
	}

	switch filter.SortBy {
	case entity.SortPrice:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AgencyRoute.Price < out[j].AgencyRoute.Price
		})
	case entity.SortEarly:
		sortByDeparture(out, false)
	case entity.SortLate:
		sortByDeparture(out, true)
	}
	return out
}

func sortByDeparture(schedules []entity.Schedule, descending bool) {
	minutesOf := func(s entity.Schedule) (int, bool) {
		m, err := utils.MinutesSinceMidnight(s.DepartureTime)
		return m, err == nil
	}

	sort.SliceStable(schedules, func(i, j int) bool {
		mi, okI := minutesOf(schedules[i])
		mj, okJ := minutesOf(schedules[j])
		switch {
		case !okI || !okJ:
			return okI && !okJ
		case descending:
			return mi > mj
		default:
			return mi < mj
		}
	})
}

// IsKnownBucket reports whether bucket names a time-of-day filter
func IsKnownBucket(bucket string) bool {
	_, ok := timeBuckets[bucket]
	return ok || bucket == entity.BucketAny
}
