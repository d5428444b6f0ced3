package entity

// Booking Status
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
	BookingCompleted = "COMPLETED"
)

type Customer struct {
	ID          int64  `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
}

// FullName joins first and last name
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Booking is the server's reservation record
type Booking struct {
	ID               int64      `json:"id"`
	BookingReference string     `json:"bookingReference"`
	Customer         Customer   `json:"customer"`
	Schedule         Schedule   `json:"schedule"`
	PickupPoint      RoutePoint `json:"pickupPoint"`
	DropPoint        RoutePoint `json:"dropPoint"`
	NumberOfSeats    int        `json:"numberOfSeats"`
	TotalAmount      float64    `json:"totalAmount"`
	Status           string     `json:"status"`
	PaymentStatus    string     `json:"paymentStatus,omitempty"`
	CreatedAt        string     `json:"createdAt,omitempty"`
}

// GuestDetails identifies a traveler booking without an account
type GuestDetails struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

// BookingRequest carries either Guest details or a CustomerID
type BookingRequest struct {
	ScheduleID    int64
	PickupPointID int64
	DropPointID   int64
	NumberOfSeats int
	CustomerID    int64
	Guest         *GuestDetails
}

func (r BookingRequest) IsGuest() bool {
	return r.Guest != nil
}
