package entity

// SearchParams are validated search inputs
type SearchParams struct {
	OriginID      int64
	DestinationID int64
	DepartureDate string
}

// Time-of-day buckets
const (
	BucketAny       = ""
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
)

// Sort orders
const (
	SortNone  = ""
	SortPrice = "price"
	SortEarly = "early"
	SortLate  = "late"
)

// ScheduleFilter is a client-side view over search results
type ScheduleFilter struct {
	TimeBucket string
	SortBy     string
}
