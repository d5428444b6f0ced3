package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

func newBookingOrchestrator(repo *fakeBookingRepo, points *fakePointRepo, seats SeatCounter) *BookingOrchestrator {
	if points == nil {
		points = &fakePointRepo{}
	}
	return NewBookingOrchestrator(repo, points, seats, 5, metrics.NewNopMetrics(), logger.NewNopLogger())
}

func guestRequest(seats int) entity.BookingRequest {
	return entity.BookingRequest{
		ScheduleID:    1,
		PickupPointID: 100,
		DropPointID:   200,
		NumberOfSeats: seats,
		Guest: &entity.GuestDetails{
			FirstName:   "Aline",
			LastName:    "Uwase",
			PhoneNumber: "0788123456",
		},
	}
}

func TestCreateBooking_GuestTotalIsPriceTimesSeats(t *testing.T) {
	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 55, BookingReference: "BK-55", Status: entity.BookingPending}}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	booking, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(2))
	require.NoError(t, err)

	assert.Equal(t, 7000.0, booking.TotalAmount)
	assert.Equal(t, 2, booking.NumberOfSeats)
	assert.Equal(t, "Aline", booking.Customer.FirstName)
	assert.Equal(t, int64(1), booking.Schedule.ID)
	assert.Equal(t, 1, repo.guestCalls)
	assert.Zero(t, repo.authCalls)
}

func TestCreateBooking_AuthenticatedVariant(t *testing.T) {
	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 9, NumberOfSeats: 1, TotalAmount: 3500}}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	booking, err := orchestrator.CreateBooking(context.Background(), &schedule, entity.BookingRequest{
		PickupPointID: 100,
		DropPointID:   200,
		NumberOfSeats: 1,
		CustomerID:    77,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), booking.ID)
	assert.Equal(t, 1, repo.authCalls)
	assert.Equal(t, int64(1), repo.last.ScheduleID)
	assert.Equal(t, int64(77), repo.last.CustomerID)
}

func TestCreateBooking_Validation(t *testing.T) {
	schedule := testSchedule(1, 3500, "08:00", 3)

	cases := []struct {
		name  string
		req   func() entity.BookingRequest
		field string
	}{
		{"no seats", func() entity.BookingRequest { return guestRequest(0) }, "numberOfSeats"},
		{"above available", func() entity.BookingRequest { return guestRequest(4) }, "numberOfSeats"},
		{"missing first name", func() entity.BookingRequest {
			r := guestRequest(1)
			r.Guest.FirstName = "  "
			return r
		}, "firstName"},
		{"missing phone", func() entity.BookingRequest {
			r := guestRequest(1)
			r.Guest.PhoneNumber = ""
			return r
		}, "phoneNumber"},
		{"bad email", func() entity.BookingRequest {
			r := guestRequest(1)
			r.Guest.Email = "not-an-email"
			return r
		}, "email"},
		{"no customer", func() entity.BookingRequest {
			r := guestRequest(1)
			r.Guest = nil
			return r
		}, "customerId"},
		{"pickup outside origin", func() entity.BookingRequest {
			r := guestRequest(1)
			r.PickupPointID = 200
			return r
		}, "pickupPointId"},
		{"drop outside destination", func() entity.BookingRequest {
			r := guestRequest(1)
			r.DropPointID = 100
			return r
		}, "dropPointId"},
		{"wrong schedule", func() entity.BookingRequest {
			r := guestRequest(1)
			r.ScheduleID = 2
			return r
		}, "scheduleId"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeBookingRepo{booking: &entity.Booking{ID: 1}}
			orchestrator := newBookingOrchestrator(repo, nil, nil)

			_, err := orchestrator.CreateBooking(context.Background(), &schedule, tc.req())
			var verr domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, repo.guestCalls+repo.authCalls)
		})
	}
}

func TestCreateBooking_SeatCapFollowsPushedSeats(t *testing.T) {
	register := NewSeatRegister()
	register.Subscribe(1)
	register.Apply(entity.SeatUpdateEvent{ScheduleID: 1, AvailableSeats: 1})

	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 1}}
	orchestrator := newBookingOrchestrator(repo, nil, register)
	schedule := testSchedule(1, 3500, "08:00", 20)

	_, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(2))
	assert.True(t, domain.IsValidation(err))

	_, err = orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(1))
	assert.NoError(t, err)
}

func TestCreateBooking_PointsFetchedWhenSnapshotHasNone(t *testing.T) {
	origin, destination := kigaliButare()
	points := &fakePointRepo{points: map[int64][]entity.RoutePoint{
		1: {{ID: 100, District: &origin}},
		2: {{ID: 200, District: &destination}},
	}}
	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 1}}
	orchestrator := newBookingOrchestrator(repo, points, nil)

	schedule := testSchedule(1, 3500, "08:00", 20)
	schedule.AgencyRoute.PickupPoints = nil
	schedule.AgencyRoute.DropPoints = nil

	_, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(1))
	require.NoError(t, err)
	assert.Equal(t, 2, points.calls)
}

func TestCreateBooking_ServerRejectionIsBookingError(t *testing.T) {
	repo := &fakeBookingRepo{err: domain.RemoteError{StatusCode: 409, Message: "Not enough seats available"}}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	_, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(2))
	var berr domain.BookingError
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, "Not enough seats available", berr.Msg)
	assert.Equal(t, 409, berr.StatusCode)
	assert.Equal(t, 1, repo.guestCalls, "no retry")

	repo.err = domain.RemoteError{StatusCode: 500}
	_, err = orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(2))
	assert.EqualError(t, err, BookingFallbackMessage)
}

func TestCreateBooking_TransportFailure(t *testing.T) {
	repo := &fakeBookingRepo{err: errBoom}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	_, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(1))
	assert.True(t, domain.IsNetwork(err))
	assert.ErrorIs(t, err, errBoom)
}

func TestCreateBooking_GuestDetailsTrimmedOnTheWire(t *testing.T) {
	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 1}}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	req := guestRequest(1)
	req.Guest = &entity.GuestDetails{FirstName: " Aline ", LastName: "Uwase\t", PhoneNumber: " 0788123456", Email: " aline@example.com "}

	_, err := orchestrator.CreateBooking(context.Background(), &schedule, req)
	require.NoError(t, err)
	assert.Equal(t, entity.GuestDetails{
		FirstName:   "Aline",
		LastName:    "Uwase",
		PhoneNumber: "0788123456",
		Email:       "aline@example.com",
	}, *repo.last.Guest)
	assert.Equal(t, " Aline ", req.Guest.FirstName, "caller's details untouched")
}

func TestCreateBooking_ServerTotalKeptWhenItDiffers(t *testing.T) {
	repo := &fakeBookingRepo{booking: &entity.Booking{ID: 3, NumberOfSeats: 2, TotalAmount: 6500}}
	orchestrator := newBookingOrchestrator(repo, nil, nil)
	schedule := testSchedule(1, 3500, "08:00", 20)

	booking, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(2))
	require.NoError(t, err)
	assert.Equal(t, 6500.0, booking.TotalAmount)
}

func TestCreateBooking_ReplyWithoutIDRejected(t *testing.T) {
	schedule := testSchedule(1, 3500, "08:00", 20)

	for _, reply := range []*entity.Booking{nil, {BookingReference: "BK-0"}} {
		repo := &fakeBookingRepo{booking: reply}
		orchestrator := newBookingOrchestrator(repo, nil, nil)

		booking, err := orchestrator.CreateBooking(context.Background(), &schedule, guestRequest(1))
		assert.Nil(t, booking)
		assert.True(t, domain.IsBooking(err))
		assert.EqualError(t, err, BookingFallbackMessage)
	}
}

func TestGetBooking(t *testing.T) {
	repo := &fakeBookingRepo{found: testBooking()}
	orchestrator := newBookingOrchestrator(repo, nil, nil)

	booking, err := orchestrator.GetBooking(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, "BK-55", booking.BookingReference)
	assert.Equal(t, []string{"id:55"}, repo.lookups)

	_, err = orchestrator.GetBooking(context.Background(), 0)
	assert.True(t, domain.IsValidation(err))

	repo.found = nil
	_, err = orchestrator.GetBooking(context.Background(), 56)
	assert.True(t, domain.IsBooking(err))

	repo.findErr = domain.RemoteError{StatusCode: 404, Message: "Booking not found with id: 57"}
	_, err = orchestrator.GetBooking(context.Background(), 57)
	assert.EqualError(t, err, "Booking not found with id: 57")
}

func TestFindByReference(t *testing.T) {
	owned := testBooking()
	owned.Customer.Email = "owner@example.com"

	cases := []struct {
		name    string
		ref     string
		phone   string
		email   string
		wantErr string
	}{
		{"phone matches", "BK-55", "0788123456", "", ""},
		{"email matches", "BK-55", "", "owner@example.com", ""},
		{"phone wins over email", "BK-55", "0788123456", "someone@example.com", ""},
		{"phone differs", "BK-55", "0788000000", "", BookingContactMismatch},
		{"email case differs", "BK-55", "", "Owner@example.com", BookingContactMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeBookingRepo{found: owned}
			orchestrator := newBookingOrchestrator(repo, nil, nil)

			booking, err := orchestrator.FindByReference(context.Background(), tc.ref, tc.phone, tc.email)
			if tc.wantErr != "" {
				assert.EqualError(t, err, tc.wantErr)
				assert.Nil(t, booking)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(55), booking.ID)
			assert.Equal(t, []string{"ref:BK-55"}, repo.lookups)
		})
	}
}

func TestFindByReference_InputAndFailures(t *testing.T) {
	repo := &fakeBookingRepo{}
	orchestrator := newBookingOrchestrator(repo, nil, nil)

	_, err := orchestrator.FindByReference(context.Background(), " ", "0788123456", "")
	assert.True(t, domain.IsValidation(err))
	_, err = orchestrator.FindByReference(context.Background(), "BK-55", "", " ")
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, repo.lookups)

	repo.findErr = domain.RemoteError{StatusCode: 404, Message: "Booking not found with reference: BK-9"}
	_, err = orchestrator.FindByReference(context.Background(), "BK-9", "0788123456", "")
	assert.True(t, domain.IsBooking(err))
	assert.EqualError(t, err, BookingNotFoundMessage)

	repo.findErr = errBoom
	_, err = orchestrator.FindByReference(context.Background(), "BK-9", "0788123456", "")
	assert.True(t, domain.IsNetwork(err))
}
