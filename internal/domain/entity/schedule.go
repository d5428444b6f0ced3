package entity

// Schedule Status
const (
	ScheduleScheduled = "SCHEDULED"
	ScheduleDeparted  = "DEPARTED"
	ScheduleArrived   = "ARRIVED"
	ScheduleCancelled = "CANCELLED"
)

type District struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RoutePoint is a pickup or drop location inside a district
type RoutePoint struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	GpsLat   float64   `json:"gpsLat,omitempty"`
	GpsLong  float64   `json:"gpsLong,omitempty"`
	District *District `json:"district,omitempty"`
}

type Route struct {
	ID          int64    `json:"id"`
	Origin      District `json:"origin"`
	Destination District `json:"destination"`
}

type Agency struct {
	ID         int64  `json:"id"`
	AgencyName string `json:"agencyName"`
}

// AgencyRoute is an agency's priced offering of a route
type AgencyRoute struct {
	ID           int64        `json:"id"`
	Agency       Agency       `json:"agency"`
	Route        Route        `json:"route"`
	Price        float64      `json:"price"`
	PickupPoints []RoutePoint `json:"pickupPoints,omitempty"`
	DropPoints   []RoutePoint `json:"dropPoints,omitempty"`
}

type Bus struct {
	ID          int64  `json:"id"`
	PlateNumber string `json:"plateNumber"`
	BusType     string `json:"busType"`
	Capacity    int    `json:"capacity"`
}

// Schedule is a read-only snapshot of one departure. Times of day are
// "HH:mm" or "HH:mm:ss" strings as the server sends them.
type Schedule struct {
	ID             int64       `json:"id"`
	AgencyRoute    AgencyRoute `json:"agencyRoute"`
	Bus            Bus         `json:"bus"`
	DepartureDate  string      `json:"departureDate"`
	DepartureTime  string      `json:"departureTime"`
	ArrivalTime    string      `json:"arrivalTime"`
	AvailableSeats int         `json:"availableSeats"`
	Status         string      `json:"status"`
}

// Price per seat
func (s *Schedule) Price() float64 {
	return s.AgencyRoute.Price
}

func (s *Schedule) Origin() District {
	return s.AgencyRoute.Route.Origin
}

func (s *Schedule) Destination() District {
	return s.AgencyRoute.Route.Destination
}

// IsOpen reports whether the schedule still accepts bookings
func (s *Schedule) IsOpen() bool {
	return s.Status == "" || s.Status == ScheduleScheduled
}
